package batchupload

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ValidationError rejects a file before any network call.
type ValidationError struct {
	File   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// Limits are the local checks applied before uploading.
type Limits struct {
	MaxSize      int64
	AllowedTypes []string
}

// DefaultLimits mirrors what the gallery accepts.
var DefaultLimits = Limits{
	MaxSize:      10 << 20,
	AllowedTypes: []string{"image/jpeg", "image/jpg", "image/png", "image/webp", "image/gif"},
}

// Check validates one file.
func (l Limits) Check(f File) error {
	if l.MaxSize > 0 && f.Size > l.MaxSize {
		return &ValidationError{
			File:   f.Name,
			Reason: fmt.Sprintf("file size must be less than %dMB, current size: %.2fMB", l.MaxSize>>20, float64(f.Size)/(1<<20)),
		}
	}
	if len(l.AllowedTypes) > 0 && !slices.Contains(l.AllowedTypes, f.ContentType) {
		return &ValidationError{
			File:   f.Name,
			Reason: fmt.Sprintf("file type %q not supported, allowed types: %s", f.ContentType, strings.Join(l.AllowedTypes, ", ")),
		}
	}
	return nil
}

// Filter splits files into those passing Check and the rejections.
func (l Limits) Filter(files []File) ([]File, []error) {
	var ok []File
	var rejected []error
	for _, f := range files {
		if err := l.Check(f); err != nil {
			rejected = append(rejected, err)
			continue
		}
		ok = append(ok, f)
	}
	return ok, rejected
}

// Stat describes a local file. The content type comes from the extension,
// falling back to sniffing the first 512 bytes.
func Stat(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	f := File{Name: filepath.Base(path), Path: path, Size: info.Size()}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		f.ContentType, _, _ = strings.Cut(ct, ";")
		return f, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer fh.Close()
	buf := make([]byte, 512)
	n, _ := fh.Read(buf)
	f.ContentType, _, _ = strings.Cut(http.DetectContentType(buf[:n]), ";")
	return f, nil
}
