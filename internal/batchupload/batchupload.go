// Package batchupload uploads a list of files in fixed-size batches. A batch
// that fails is retried one file at a time so a single bad file costs only
// itself. Progress is aggregated into a snapshot that callers can poll or
// receive through a callback.
package batchupload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultBatchSize is used when Options.BatchSize is not positive.
	DefaultBatchSize = 5
	// DefaultDelay separates consecutive batches.
	DefaultDelay = 500 * time.Millisecond
)

// ErrNoUploadFunc is returned when Upload is called without an upload
// function.
var ErrNoUploadFunc = errors.New("batchupload: upload function is required")

// File is a local file queued for upload.
type File struct {
	Name        string
	Path        string
	Size        int64
	ContentType string
}

// UploadFunc uploads one batch and returns whatever the server answered.
type UploadFunc[R any] func(ctx context.Context, batch []File) (R, error)

// FileError is one failed file in the progress error list.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Progress is a snapshot of one upload operation.
type Progress struct {
	Total        int         `json:"total"`
	Completed    int         `json:"completed"`
	Successful   int         `json:"successful"`
	Failed       int         `json:"failed"`
	CurrentBatch int         `json:"currentBatch"`
	TotalBatches int         `json:"totalBatches"`
	Errors       []FileError `json:"errors"`
}

func (p Progress) clone() Progress {
	p.Errors = append([]FileError(nil), p.Errors...)
	return p
}

// Failure pairs a file with the error of its individual retry.
type Failure struct {
	File File
	Err  error
}

// Result is handed to OnComplete. Successful holds one entry per successful
// batch call and one per successful single-file retry.
type Result[R any] struct {
	Successful []R
	Failed     []Failure
}

// Options configures one Upload call. A zero Delay means DefaultDelay; a
// negative one disables the pause between batches.
type Options[R any] struct {
	BatchSize  int
	Delay      time.Duration
	OnProgress func(Progress)
	OnComplete func(Result[R])
	OnError    func(error)
}

// Uploader runs batched uploads. One Uploader runs one operation at a time;
// Progress may be read concurrently.
type Uploader[R any] struct {
	notify Notifier

	mu        sync.RWMutex
	progress  Progress
	uploading bool

	sleep func(time.Duration)
}

// New creates an Uploader reporting to n. A nil Notifier discards
// notifications.
func New[R any](n Notifier) *Uploader[R] {
	if n == nil {
		n = NopNotifier{}
	}
	return &Uploader[R]{notify: n, sleep: time.Sleep}
}

// Progress returns the latest snapshot.
func (u *Uploader[R]) Progress() Progress {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.progress.clone()
}

// Uploading reports whether an operation is running.
func (u *Uploader[R]) Uploading() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.uploading
}

// Reset clears the progress snapshot.
func (u *Uploader[R]) Reset() {
	u.mu.Lock()
	u.progress = Progress{}
	u.mu.Unlock()
}

// Upload uploads files in batches and returns once every file has been
// attempted. Per-file failures are reported through the progress snapshot
// and OnComplete, never as the returned error. The returned error is set only
// when the operation could not run at all; OnError receives it as well.
//
// Once started, an operation runs to completion: ctx is passed to fn but
// does not stop the loop.
func (u *Uploader[R]) Upload(ctx context.Context, files []File, fn UploadFunc[R], opts Options[R]) error {
	if len(files) == 0 {
		u.notify.Notify(LevelWarning, "No files selected for upload")
		return nil
	}
	if fn == nil {
		return u.fail(opts, ErrNoUploadFunc)
	}
	if err := ctx.Err(); err != nil {
		return u.fail(opts, fmt.Errorf("batchupload: %w", err))
	}

	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	delay := opts.Delay
	if delay == 0 {
		delay = DefaultDelay
	}

	u.mu.Lock()
	u.uploading = true
	u.mu.Unlock()
	defer func() {
		u.mu.Lock()
		u.uploading = false
		u.mu.Unlock()
	}()

	batches := Partition(files, size)
	p := Progress{Total: len(files), TotalBatches: len(batches)}
	u.publish(p, opts)

	var result Result[R]
	for i, batch := range batches {
		p.CurrentBatch = i + 1
		u.publish(p, opts)

		out, err := fn(ctx, batch)
		if err == nil {
			result.Successful = append(result.Successful, out)
			p.Successful += len(batch)
			p.Completed += len(batch)
			u.notify.Notify(LevelSuccess, fmt.Sprintf("Batch %d/%d uploaded successfully (%d files)", p.CurrentBatch, p.TotalBatches, len(batch)))
		} else {
			batchFailed := 0
			for _, f := range batch {
				out, err := fn(ctx, []File{f})
				if err != nil {
					p.Errors = append(p.Errors, FileError{File: f.Name, Error: ErrorMessage(err)})
					result.Failed = append(result.Failed, Failure{File: f, Err: err})
					p.Failed++
					batchFailed++
				} else {
					result.Successful = append(result.Successful, out)
					p.Successful++
				}
				p.Completed++
			}
			if batchFailed > 0 {
				u.notify.Notify(LevelError, fmt.Sprintf("Some files in batch %d failed to upload", p.CurrentBatch))
			}
		}

		// After the last batch this is the final snapshot.
		u.publish(p, opts)
		if i < len(batches)-1 && delay > 0 {
			u.sleep(delay)
		}
	}

	u.notify.Notify(summary(p))
	if opts.OnComplete != nil {
		opts.OnComplete(result)
	}
	return nil
}

func (u *Uploader[R]) publish(p Progress, opts Options[R]) {
	snap := p.clone()
	u.mu.Lock()
	u.progress = snap
	u.mu.Unlock()
	if opts.OnProgress != nil {
		opts.OnProgress(snap.clone())
	}
}

func (u *Uploader[R]) fail(opts Options[R], err error) error {
	u.notify.Notify(LevelError, "Upload process failed")
	if opts.OnError != nil {
		opts.OnError(err)
	}
	return err
}

func summary(p Progress) (Level, string) {
	switch {
	case p.Failed == 0:
		return LevelSuccess, fmt.Sprintf("All %d files uploaded successfully!", p.Successful)
	case p.Successful > 0:
		return LevelWarning, fmt.Sprintf("Upload completed: %d successful, %d failed", p.Successful, p.Failed)
	default:
		return LevelError, fmt.Sprintf("Upload failed: %d files could not be uploaded", p.Failed)
	}
}

// Partition splits items into contiguous chunks of at most size elements,
// preserving order.
func Partition[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

// ErrorMessage extracts the text shown for a failed file. A message sent by
// the server wins over the transport error.
func ErrorMessage(err error) string {
	if err == nil {
		return "Unknown error"
	}
	var sm interface{ ServerMessage() string }
	if errors.As(err, &sm) {
		if msg := sm.ServerMessage(); msg != "" {
			return msg
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}
