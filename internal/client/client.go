// Package client talks to the GenX HTTP API on behalf of the command line
// tools.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/abhay-kr-0705/GEN-X/internal/batchupload"
	"github.com/abhay-kr-0705/GEN-X/internal/model"
)

// APIError is a non-2xx answer. Message holds the server's "message" field
// when it sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status code %d", e.Status)
}

// ServerMessage returns the message the server put in the error body.
func (e *APIError) ServerMessage() string { return e.Message }

// Client is an authenticated API client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a Client for the API at baseURL, e.g. http://localhost:5000.
// Uploads can take minutes, so the timeout is generous.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Minute},
	}
}

// Session is the answer to a login.
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "application/json", bytes.NewReader(body), &s); err != nil {
		return nil, err
	}
	c.token = s.Token
	return &s, nil
}

// Gallery fetches one gallery.
func (c *Client) Gallery(ctx context.Context, id string) (*model.Gallery, error) {
	var g model.Gallery
	if err := c.do(ctx, http.MethodGet, "/api/gallery/"+url.PathEscape(id), "", nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// UploadPhotos appends files to a gallery in one request. The server
// uploads them in order and stores all or none.
func (c *Client) UploadPhotos(ctx context.Context, galleryID string, files []batchupload.File) (*model.Gallery, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeFiles(mw, "photos", files))
	}()
	var g model.Gallery
	err := c.do(ctx, http.MethodPut, "/api/gallery/"+url.PathEscape(galleryID)+"/photos", mw.FormDataContentType(), pr, &g)
	pr.Close()
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func writeFiles(mw *multipart.Writer, field string, files []batchupload.File) error {
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Name))
		if f.ContentType != "" {
			h.Set("Content-Type", f.ContentType)
		}
		w, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		src, err := os.Open(f.Path)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, src)
		src.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
	}
	return mw.Close()
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
