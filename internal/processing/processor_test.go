package processing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhay-kr-0705/GEN-X/internal/logging"
	"github.com/abhay-kr-0705/GEN-X/internal/queue"
)

type recorder struct {
	mu        sync.Mutex
	destroyed []string
	mailed    []string
	done      chan struct{}
}

func (r *recorder) HandleDestroyAsset(ctx context.Context, p queue.DestroyAssetPayload) error {
	r.mu.Lock()
	r.destroyed = append(r.destroyed, p.PublicID)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recorder) HandleConfirmation(ctx context.Context, p queue.ConfirmationPayload) error {
	r.mu.Lock()
	r.mailed = append(r.mailed, p.Email)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func TestPoolRunsTasks(t *testing.T) {
	rec := &recorder{done: make(chan struct{}, 2)}
	pool := New(rec, 2, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	require.NoError(t, pool.EnqueueAssetDestroy(ctx, queue.DestroyAssetPayload{PublicID: "genx_gallery/a"}))
	require.NoError(t, pool.EnqueueConfirmation(ctx, queue.ConfirmationPayload{Email: "a@example.com"}))

	for i := 0; i < 2; i++ {
		select {
		case <-rec.done:
		case <-time.After(2 * time.Second):
			t.Fatal("task not processed")
		}
	}
	cancel()
	pool.Wait()

	assert.Equal(t, []string{"genx_gallery/a"}, rec.destroyed)
	assert.Equal(t, []string{"a@example.com"}, rec.mailed)
}

func TestPoolDropsWhenFull(t *testing.T) {
	rec := &recorder{done: make(chan struct{}, 64)}
	pool := New(rec, 1, logging.Discard())
	// Not started: nothing drains the buffer.
	for i := 0; i < 16; i++ {
		require.NoError(t, pool.EnqueueAssetDestroy(context.Background(), queue.DestroyAssetPayload{PublicID: "x"}))
	}
	err := pool.EnqueueAssetDestroy(context.Background(), queue.DestroyAssetPayload{PublicID: "x"})
	require.ErrorIs(t, err, ErrQueueFull)
	err = pool.EnqueueConfirmation(context.Background(), queue.ConfirmationPayload{Email: "a@example.com"})
	require.ErrorIs(t, err, ErrQueueFull)
	assert.Len(t, pool.queue, 16)
}

type failing struct {
	destroys      atomic.Int32
	confirmations atomic.Int32
	err           error
}

func (f *failing) HandleDestroyAsset(context.Context, queue.DestroyAssetPayload) error {
	f.destroys.Add(1)
	return f.err
}

func (f *failing) HandleConfirmation(context.Context, queue.ConfirmationPayload) error {
	f.confirmations.Add(1)
	return f.err
}

func startFast(t *testing.T, h Handler) *Pool {
	t.Helper()
	pool := New(h, 2, logging.Discard())
	pool.backoff = func(int) time.Duration { return time.Millisecond }
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		pool.Wait()
	})
	return pool
}

func TestPoolRetriesFailedTasks(t *testing.T) {
	h := &failing{err: errors.New("host unavailable")}
	pool := startFast(t, h)

	require.NoError(t, pool.EnqueueAssetDestroy(context.Background(), queue.DestroyAssetPayload{PublicID: "genx_gallery/a"}))
	require.NoError(t, pool.EnqueueConfirmation(context.Background(), queue.ConfirmationPayload{Email: "a@example.com"}))

	// One attempt plus the retry budget, then the task is given up.
	require.Eventually(t, func() bool {
		return h.destroys.Load() == queue.DestroyAssetMaxRetry+1 &&
			h.confirmations.Load() == queue.ConfirmationMaxRetry+1
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, queue.DestroyAssetMaxRetry+1, h.destroys.Load())
	assert.EqualValues(t, queue.ConfirmationMaxRetry+1, h.confirmations.Load())
}

func TestPoolSkipRetry(t *testing.T) {
	h := &failing{err: fmt.Errorf("missing public id: %w", asynq.SkipRetry)}
	pool := startFast(t, h)

	require.NoError(t, pool.EnqueueAssetDestroy(context.Background(), queue.DestroyAssetPayload{}))
	require.Eventually(t, func() bool { return h.destroys.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, h.destroys.Load())
}

func TestRetryDelayGrows(t *testing.T) {
	assert.Equal(t, 16*time.Second, retryDelay(1))
	assert.Equal(t, 31*time.Second, retryDelay(2))
	assert.Greater(t, retryDelay(10), retryDelay(9))
}
