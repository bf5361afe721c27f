package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abhay-kr-0705/GEN-X/internal/imagehost"
	"github.com/abhay-kr-0705/GEN-X/internal/model"
	"github.com/abhay-kr-0705/GEN-X/internal/queue"
)

// fakeHost records calls. failUploadAt makes the n-th upload (1-based) fail;
// failDestroy lists public ids whose destroy fails.
type fakeHost struct {
	mu           sync.Mutex
	uploads      int
	uploadedIDs  []string
	destroyed    []string
	failUploadAt int
	failDestroy  map[string]bool
}

func (h *fakeHost) Upload(ctx context.Context, path string, opts imagehost.UploadOptions) (imagehost.Asset, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.uploads++
	if h.uploads == h.failUploadAt {
		return imagehost.Asset{}, errors.New("host unavailable")
	}
	if _, err := os.Stat(path); err != nil {
		return imagehost.Asset{}, err
	}
	id := fmt.Sprintf("%s/asset%d", opts.Folder, h.uploads)
	h.uploadedIDs = append(h.uploadedIDs, id)
	return imagehost.Asset{SecureURL: "https://cdn.test/" + id + ".jpg", PublicID: id}, nil
}

func (h *fakeHost) Destroy(ctx context.Context, publicID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.destroyed = append(h.destroyed, publicID)
	if h.failDestroy[publicID] {
		return errors.New("destroy refused")
	}
	return nil
}

type fakeTasks struct {
	mu            sync.Mutex
	destroys      []queue.DestroyAssetPayload
	confirmations []queue.ConfirmationPayload
	err           error
}

func (q *fakeTasks) EnqueueAssetDestroy(ctx context.Context, p queue.DestroyAssetPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.destroys = append(q.destroys, p)
	return q.err
}

func (q *fakeTasks) EnqueueConfirmation(ctx context.Context, p queue.ConfirmationPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.confirmations = append(q.confirmations, p)
	return q.err
}

type countingPacer struct{ waits int }

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	return nil
}

// spool writes n small files into a temp dir and returns them as spooled
// uploads.
func spool(t *testing.T, n int) []model.LocalFile {
	t.Helper()
	dir := t.TempDir()
	files := make([]model.LocalFile, n)
	for i := range files {
		name := fmt.Sprintf("photo%d.jpg", i+1)
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("jpeg bytes"), 0o600))
		files[i] = model.LocalFile{Name: name, Path: path, Size: 10, ContentType: "image/jpeg"}
	}
	return files
}

func requireRemoved(t *testing.T, files ...model.LocalFile) {
	t.Helper()
	for _, f := range files {
		_, err := os.Stat(f.Path)
		require.True(t, errors.Is(err, os.ErrNotExist), "temp file %s still exists", f.Path)
	}
}
