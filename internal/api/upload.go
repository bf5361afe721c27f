package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/abhay-kr-0705/GEN-X/internal/model"
)

const maxFormValue = 64 << 10

// uploadForm is a multipart request whose files have been spooled to disk.
type uploadForm struct {
	values map[string]string
	files  map[string][]model.LocalFile
}

func (f *uploadForm) all() []model.LocalFile {
	var out []model.LocalFile
	for _, files := range f.files {
		out = append(out, files...)
	}
	return out
}

func (f *uploadForm) first(field string) *model.LocalFile {
	if files := f.files[field]; len(files) > 0 {
		return &files[0]
	}
	return nil
}

// spoolForm streams a multipart body to temp files. fields maps each
// accepted file field to the most files it may carry; parts for other file
// fields are discarded. On error every file spooled so far is removed.
// Callers own the returned files.
func (s *Server) spoolForm(w http.ResponseWriter, r *http.Request, fields map[string]int) (*uploadForm, error) {
	total := 0
	for _, n := range fields {
		total += n
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(total)*s.cfg.MaxFileSize+maxJSONBody)
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: expecting multipart form", model.ErrBadRequest)
	}
	if err := os.MkdirAll(s.cfg.UploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	form := &uploadForm{values: map[string]string{}, files: map[string][]model.LocalFile{}}
	fail := func(err error) (*uploadForm, error) {
		for _, f := range form.all() {
			_ = f.Remove()
		}
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(fmt.Errorf("%w: malformed multipart body", model.ErrBadRequest))
		}
		name := part.FormName()
		if part.FileName() == "" {
			data, err := io.ReadAll(io.LimitReader(part, maxFormValue))
			part.Close()
			if err != nil {
				return fail(fmt.Errorf("%w: read field %s", model.ErrBadRequest, name))
			}
			if _, isFile := fields[name]; !isFile {
				form.values[name] = string(data)
			}
			continue
		}
		limit, ok := fields[name]
		if !ok {
			part.Close()
			continue
		}
		if len(form.files[name]) >= limit {
			part.Close()
			return fail(fmt.Errorf("%w: too many files in field %s, at most %d allowed", model.ErrBadRequest, name, limit))
		}
		f, err := s.persistTemp(part)
		part.Close()
		if err != nil {
			return fail(err)
		}
		form.files[name] = append(form.files[name], *f)
	}
	return form, nil
}

// persistTemp copies one file part to disk, enforcing the size limit and
// the allowed content types. The type is sniffed from the first 512 bytes.
func (s *Server) persistTemp(part *multipart.Part) (*model.LocalFile, error) {
	filename := filepath.Base(part.FileName())
	tmpFile, err := os.CreateTemp(s.cfg.UploadDir, "upload-*"+safeExt(filename))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	discard := func(err error) (*model.LocalFile, error) {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return nil, err
	}
	var sniff []byte
	buf := make([]byte, 32*1024)
	var written int64
	for {
		n, readErr := part.Read(buf)
		if n > 0 {
			written += int64(n)
			if written > s.cfg.MaxFileSize {
				return discard(fmt.Errorf("%w: %s exceeds the %d MB limit", model.ErrBadRequest, filename, s.cfg.MaxFileSize>>20))
			}
			if len(sniff) < 512 {
				chunk := min(n, 512-len(sniff))
				sniff = append(sniff, buf[:chunk]...)
			}
			if _, err := tmpFile.Write(buf[:n]); err != nil {
				return discard(fmt.Errorf("write temp file: %w", err))
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			var tooLarge *http.MaxBytesError
			if errors.As(readErr, &tooLarge) {
				return discard(fmt.Errorf("%w: request body too large", model.ErrBadRequest))
			}
			return discard(fmt.Errorf("read file: %w", readErr))
		}
	}
	if written == 0 {
		return discard(fmt.Errorf("%w: %s is empty", model.ErrBadRequest, filename))
	}
	contentType, _, _ := strings.Cut(http.DetectContentType(sniff), ";")
	if !slices.Contains(s.cfg.AllowedTypes, contentType) {
		return discard(fmt.Errorf("%w: file type %s of %s is not supported", model.ErrBadRequest, contentType, filename))
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpFile.Name())
		return nil, fmt.Errorf("close temp file: %w", err)
	}
	return &model.LocalFile{
		Name:        filename,
		Path:        tmpFile.Name(),
		Size:        written,
		ContentType: contentType,
	}, nil
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\*`) {
		return ""
	}
	return ext
}
