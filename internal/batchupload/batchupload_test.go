package batchupload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordNotifier struct {
	levels []Level
	msgs   []string
}

func (n *recordNotifier) Notify(level Level, msg string) {
	n.levels = append(n.levels, level)
	n.msgs = append(n.msgs, msg)
}

func (n *recordNotifier) last() string { return n.msgs[len(n.msgs)-1] }

type serverErr struct{ msg string }

func (e serverErr) Error() string         { return "request failed with status code 500" }
func (e serverErr) ServerMessage() string { return e.msg }

func files(n int) []File {
	out := make([]File, n)
	for i := range out {
		out[i] = File{Name: fmt.Sprintf("f%d.jpg", i+1)}
	}
	return out
}

func newTestUploader(n Notifier) (*Uploader[int], *[]time.Duration) {
	u := New[int](n)
	var slept []time.Duration
	u.sleep = func(d time.Duration) { slept = append(slept, d) }
	return u, &slept
}

func TestProgressIsCurrentDuringDelay(t *testing.T) {
	u := New[int](nil)
	var completedAtSleep []int
	u.sleep = func(time.Duration) { completedAtSleep = append(completedAtSleep, u.Progress().Completed) }

	err := u.Upload(context.Background(), files(5), func(ctx context.Context, batch []File) (int, error) {
		if batch[0].Name == "f3.jpg" {
			return 0, errors.New("network error")
		}
		return len(batch), nil
	}, Options[int]{BatchSize: 2})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 4}, completedAtSleep)
	assert.Equal(t, 5, u.Progress().Completed)
}

func TestPartition(t *testing.T) {
	batches := Partition(files(7), 3)
	require.Len(t, batches, 3)
	assert.Equal(t, []int{3, 3, 1}, []int{len(batches[0]), len(batches[1]), len(batches[2])})
	assert.Equal(t, "f7.jpg", batches[2][0].Name)
	assert.Empty(t, Partition([]File{}, 3))
}

func TestUploadAllSucceed(t *testing.T) {
	n := &recordNotifier{}
	u, slept := newTestUploader(n)
	var calls [][]string
	var snapshots []Progress
	var got Result[int]

	err := u.Upload(context.Background(), files(7), func(ctx context.Context, batch []File) (int, error) {
		names := make([]string, len(batch))
		for i, f := range batch {
			names[i] = f.Name
		}
		calls = append(calls, names)
		return len(batch), nil
	}, Options[int]{
		BatchSize:  3,
		OnProgress: func(p Progress) { snapshots = append(snapshots, p) },
		OnComplete: func(r Result[int]) { got = r },
	})
	require.NoError(t, err)

	assert.Len(t, calls, 3)
	assert.Equal(t, []string{"f1.jpg", "f2.jpg", "f3.jpg"}, calls[0])
	assert.Equal(t, []int{3, 3, 1}, got.Successful)
	assert.Empty(t, got.Failed)
	assert.Equal(t, []time.Duration{DefaultDelay, DefaultDelay}, *slept)

	// Initial, then one at the start and one at the end of every batch.
	require.Len(t, snapshots, 7)
	assert.Equal(t, 0, snapshots[0].CurrentBatch)
	assert.Equal(t, Progress{Total: 7, Completed: 0, CurrentBatch: 1, TotalBatches: 3}, snapshots[1])
	assert.Equal(t, Progress{Total: 7, Completed: 3, Successful: 3, CurrentBatch: 1, TotalBatches: 3}, snapshots[2])
	assert.Equal(t, 2, snapshots[3].CurrentBatch)
	assert.Equal(t, 3, snapshots[3].Completed)
	final := u.Progress()
	assert.Equal(t, final, snapshots[6])
	assert.Equal(t, Progress{Total: 7, Completed: 7, Successful: 7, CurrentBatch: 3, TotalBatches: 3}, final)
	assert.Equal(t, "All 7 files uploaded successfully!", n.last())
	assert.False(t, u.Uploading())
}

func TestUploadAllFailRetriesEachFileOnce(t *testing.T) {
	n := &recordNotifier{}
	u, _ := newTestUploader(n)
	calls := 0
	var got Result[int]

	err := u.Upload(context.Background(), files(4), func(ctx context.Context, batch []File) (int, error) {
		calls++
		return 0, serverErr{msg: "Failed to upload " + batch[0].Name}
	}, Options[int]{BatchSize: 2, OnComplete: func(r Result[int]) { got = r }})
	require.NoError(t, err)

	// Two batch calls plus one retry per file.
	assert.Equal(t, 2+4, calls)
	p := u.Progress()
	assert.Equal(t, 4, p.Completed)
	assert.Equal(t, 4, p.Failed)
	assert.Zero(t, p.Successful)
	require.Len(t, p.Errors, 4)
	assert.Equal(t, FileError{File: "f3.jpg", Error: "Failed to upload f3.jpg"}, p.Errors[2])
	assert.Len(t, got.Failed, 4)
	assert.Equal(t, "Upload failed: 4 files could not be uploaded", n.last())
}

func TestUploadPartialFailure(t *testing.T) {
	n := &recordNotifier{}
	u, _ := newTestUploader(n)

	err := u.Upload(context.Background(), files(5), func(ctx context.Context, batch []File) (int, error) {
		for _, f := range batch {
			if f.Name == "f2.jpg" {
				return 0, errors.New("network error")
			}
		}
		return len(batch), nil
	}, Options[int]{BatchSize: 3})
	require.NoError(t, err)

	p := u.Progress()
	assert.Equal(t, 5, p.Completed)
	assert.Equal(t, 4, p.Successful)
	assert.Equal(t, 1, p.Failed)
	assert.Equal(t, []FileError{{File: "f2.jpg", Error: "network error"}}, p.Errors)
	assert.Equal(t, p.Completed, p.Successful+p.Failed)
	assert.Contains(t, n.msgs, "Some files in batch 1 failed to upload")
	assert.Equal(t, "Upload completed: 4 successful, 1 failed", n.last())
}

func TestUploadNoFiles(t *testing.T) {
	n := &recordNotifier{}
	u, _ := newTestUploader(n)
	called := false
	err := u.Upload(context.Background(), nil, func(ctx context.Context, batch []File) (int, error) {
		called = true
		return 0, nil
	}, Options[int]{
		OnProgress: func(Progress) { called = true },
		OnComplete: func(Result[int]) { called = true },
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, []string{"No files selected for upload"}, n.msgs)
	assert.Equal(t, []Level{LevelWarning}, n.levels)
}

func TestUploadWithoutFunc(t *testing.T) {
	u, _ := newTestUploader(nil)
	var reported error
	err := u.Upload(context.Background(), files(1), nil, Options[int]{OnError: func(err error) { reported = err }})
	assert.ErrorIs(t, err, ErrNoUploadFunc)
	assert.ErrorIs(t, reported, ErrNoUploadFunc)
}

func TestProgressSnapshotIsACopy(t *testing.T) {
	u, _ := newTestUploader(nil)
	require.NoError(t, u.Upload(context.Background(), files(1), func(ctx context.Context, batch []File) (int, error) {
		return 0, errors.New("boom")
	}, Options[int]{}))
	p := u.Progress()
	p.Errors[0].Error = "changed"
	assert.Equal(t, "boom", u.Progress().Errors[0].Error)

	u.Reset()
	assert.Equal(t, Progress{}, u.Progress())
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad file", ErrorMessage(fmt.Errorf("wrapped: %w", serverErr{msg: "bad file"})))
	assert.Equal(t, "request failed with status code 500", ErrorMessage(serverErr{}))
	assert.Equal(t, "Unknown error", ErrorMessage(nil))
}

func TestLimits(t *testing.T) {
	ok := File{Name: "a.jpg", Size: 1 << 20, ContentType: "image/jpeg"}
	big := File{Name: "b.jpg", Size: 11 << 20, ContentType: "image/jpeg"}
	pdf := File{Name: "c.pdf", Size: 10, ContentType: "application/pdf"}

	kept, rejected := DefaultLimits.Filter([]File{ok, big, pdf})
	assert.Equal(t, []File{ok}, kept)
	require.Len(t, rejected, 2)
	var ve *ValidationError
	require.ErrorAs(t, rejected[0], &ve)
	assert.Equal(t, "b.jpg", ve.File)
	assert.Contains(t, ve.Reason, "11.00MB")
}

func TestStat(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "pic.png")
	require.NoError(t, os.WriteFile(png, []byte("not really"), 0o600))
	f, err := Stat(png)
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.ContentType)
	assert.EqualValues(t, 10, f.Size)

	gif := filepath.Join(dir, "noext")
	require.NoError(t, os.WriteFile(gif, []byte("GIF89a......"), 0o600))
	f, err = Stat(gif)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", f.ContentType)

	_, err = Stat(dir)
	assert.Error(t, err)
}
