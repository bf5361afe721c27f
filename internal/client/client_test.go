package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhay-kr-0705/GEN-X/internal/batchupload"
	"github.com/abhay-kr-0705/GEN-X/internal/model"
)

func TestLoginStoresToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			json.NewEncoder(w).Encode(map[string]any{"success": true, "token": "tok", "user": map[string]string{"email": "a@genx.club"}})
		case "/api/gallery/g1":
			gotAuth = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(model.Gallery{ID: "g1", Title: "Orientation"})
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "")
	s, err := c.Login(context.Background(), "a@genx.club", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "a@genx.club", s.User.Email)

	g, err := c.Gallery(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "Orientation", g.Title)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestUploadPhotosSendsMultipart(t *testing.T) {
	dir := t.TempDir()
	var files []batchupload.File
	for _, name := range []string{"a.png", "b.png"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("data-"+name), 0o600))
		files = append(files, batchupload.File{Name: name, Path: path, ContentType: "image/png"})
	}

	var names []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/gallery/g1/photos", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		for _, fh := range r.MultipartForm.File["photos"] {
			names = append(names, fh.Filename)
		}
		json.NewEncoder(w).Encode(model.Gallery{ID: "g1", Photos: []model.Photo{{URL: "u1"}, {URL: "u2"}}})
	}))
	defer srv.Close()

	g, err := New(srv.URL, "tok").UploadPhotos(context.Background(), "g1", files)
	require.NoError(t, err)
	assert.Len(t, g.Photos, 2)
	assert.Equal(t, []string{"a.png", "b.png"}, names)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "Failed to upload a.png: timeout"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "tok").UploadPhotos(context.Background(), "g1", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Failed to upload a.png: timeout", batchupload.ErrorMessage(err))
}
