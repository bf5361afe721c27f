package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhay-kr-0705/GEN-X/internal/config"
	"github.com/abhay-kr-0705/GEN-X/internal/imagehost"
	"github.com/abhay-kr-0705/GEN-X/internal/logging"
	"github.com/abhay-kr-0705/GEN-X/internal/model"
	"github.com/abhay-kr-0705/GEN-X/internal/service"
	"github.com/abhay-kr-0705/GEN-X/internal/storage"
)

type fakeHost struct {
	mu        sync.Mutex
	uploads   int
	failAt    int
	destroyed []string
}

func (h *fakeHost) Upload(ctx context.Context, path string, opts imagehost.UploadOptions) (imagehost.Asset, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.uploads++
	if h.uploads == h.failAt {
		return imagehost.Asset{}, errors.New("host unavailable")
	}
	id := fmt.Sprintf("%s/asset%d", opts.Folder, h.uploads)
	return imagehost.Asset{SecureURL: "https://cdn.test/" + id + ".png", PublicID: id}, nil
}

func (h *fakeHost) Destroy(ctx context.Context, publicID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.destroyed = append(h.destroyed, publicID)
	return nil
}

type downPinger struct{}

func (downPinger) Ping(ctx context.Context) error { return errors.New("down") }

type testEnv struct {
	srv   *Server
	h     http.Handler
	host  *fakeHost
	store *storage.MemoryStore
	cfg   *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		Address:          ":0",
		CORSOrigins:      []string{"http://localhost:5173"},
		UploadDir:        t.TempDir(),
		MaxFileSize:      1 << 20,
		AllowedTypes:     []string{"image/png", "image/jpeg", "application/pdf"},
		MaxBatchFiles:    3,
		MaxGalleryPhotos: 5,
	}
	store := storage.NewMemoryStore()
	host := &fakeHost{}
	log := logging.Discard()
	svc := Services{
		Auth: service.NewAuthService(store.Users(), service.AuthConfig{
			Secret:      []byte("api-test"),
			TokenTTL:    time.Hour,
			BcryptCost:  bcrypt.MinCost,
			AdminEmails: []string{"admin@genx.club"},
		}, log),
		Events:    service.NewEventService(store.Events(), store.Registrations(), nil, log),
		Resources: service.NewResourceService(store.Resources(), host, time.Minute, log),
		Galleries: service.NewGalleryService(store.Galleries(), host, nil, nil, service.GalleryConfig{
			UploadTimeout:   time.Minute,
			MaxCreatePhotos: cfg.MaxGalleryPhotos,
		}, log),
		Admin: service.NewAdminService(store.Users(), store.Events()),
	}
	srv := New(cfg, svc, map[string]Pinger{"database": store}, log)
	return &testEnv{srv: srv, h: srv.Handler(), host: host, store: store, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, email, regNo string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":            "Test User",
		"email":           email,
		"password":        "secret1",
		"registration_no": regNo,
		"branch":          "CSE",
		"semester":        "4",
		"mobile":          "9876543210",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Token
}

type part struct {
	field, name string
	data        []byte
}

func (e *testEnv) upload(t *testing.T, method, path, token string, values map[string]string, parts ...part) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range parts {
		w, err := mw.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func requireUploadDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHealthAndHeaders(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"connected"`)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "frame-ancestors 'none'", rec.Header().Get("Content-Security-Policy"))

	env.srv.checks["redis"] = downPinger{}
	rec = env.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"disconnected"`)
}

func TestUnknownRouteIsJSON(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route /api/nope not found", messageOf(t, rec))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/gallery", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	env.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/gallery", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = httptest.NewRecorder()
	env.h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "member@genx.club", "21bce100")

	rec := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "member@genx.club", me.Email)
	assert.NotContains(t, rec.Body.String(), "secret1")

	rec = env.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "member@genx.club", "password": "nope123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "member@genx.club"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	env := newTestEnv(t)
	var last int
	for i := 0; i < loginBurst+1; i++ {
		last = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "x@genx.club", "password": "whatever"}).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestAdminRoutesNeedAdmin(t *testing.T) {
	env := newTestEnv(t)
	member := env.register(t, "member@genx.club", "21bce100")
	admin := env.register(t, "admin@genx.club", "21bce101")

	rec := env.do(t, http.MethodGet, "/api/admin/stats", member, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalUsers":2`)

	event := map[string]any{
		"title":       "Hack Night",
		"description": "Build things",
		"date":        time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"venue":       "Lab 3",
	}
	rec = env.do(t, http.MethodPost, "/api/events", member, event)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/events", admin, event)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	signup := map[string]string{
		"name":            "Ravi",
		"email":           "ravi@example.com",
		"registration_no": "21bec001",
		"mobile_no":       "9876543210",
		"semester":        "3",
	}
	rec = env.do(t, http.MethodPost, "/api/events/"+created.ID+"/register", "", signup)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/events/"+created.ID+"/register", "", signup)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/events", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"registrationCount":1`)

	rec = env.do(t, http.MethodPut, "/api/admin/users/whoever/role", admin, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGalleryUploadFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "member@genx.club", "21bce100")
	img := pngBytes(t)

	rec := env.upload(t, http.MethodPost, "/api/gallery", token, map[string]string{"title": "Orientation"},
		part{"thumbnail", "cover.png", img},
		part{"photos", "a.png", img},
		part{"photos", "b.png", img},
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var g model.Gallery
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.Len(t, g.Photos, 2)
	assert.Equal(t, "genx_gallery/asset1", g.ThumbnailPublicID)
	requireUploadDirEmpty(t, env.cfg.UploadDir)

	// Third upload overall is the second photo of this batch.
	env.host.failAt = env.host.uploads + 2
	rec = env.upload(t, http.MethodPut, "/api/gallery/"+g.ID+"/photos", token, nil,
		part{"photos", "c.png", img},
		part{"photos", "d.png", img},
	)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to upload d.png: host unavailable", messageOf(t, rec))
	requireUploadDirEmpty(t, env.cfg.UploadDir)

	rec = env.do(t, http.MethodGet, "/api/gallery/"+g.ID, "", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.Len(t, g.Photos, 2)
	assert.Contains(t, env.host.destroyed, "genx_gallery/asset4")

	rec = env.upload(t, http.MethodPut, "/api/gallery/"+g.ID+"/photos", token, nil,
		part{"photos", "1.png", img}, part{"photos", "2.png", img},
		part{"photos", "3.png", img}, part{"photos", "4.png", img},
	)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, messageOf(t, rec), "too many files")
	requireUploadDirEmpty(t, env.cfg.UploadDir)

	rec = env.do(t, http.MethodDelete, "/api/gallery/"+g.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/gallery/"+g.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Gallery not found", messageOf(t, rec))
}

func TestGalleryRejectsBadUploads(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "member@genx.club", "21bce100")

	rec := env.upload(t, http.MethodPost, "/api/gallery", token, map[string]string{"title": "No cover"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide title and thumbnail", messageOf(t, rec))

	rec = env.upload(t, http.MethodPost, "/api/gallery/upload", token, nil, part{"image", "notes.txt", []byte("plain text")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, messageOf(t, rec), "not supported")

	big := append(pngBytes(t), bytes.Repeat([]byte{0}, int(env.cfg.MaxFileSize))...)
	rec = env.upload(t, http.MethodPost, "/api/gallery/upload", token, nil, part{"image", "big.png", big})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	requireUploadDirEmpty(t, env.cfg.UploadDir)

	rec = env.upload(t, http.MethodPost, "/api/gallery/upload", token, nil, part{"image", "ok.png", pngBytes(t)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), `{"url":"https://cdn.test/genx_gallery/`))
}

func TestPublicMessage(t *testing.T) {
	err := fmt.Errorf("%w: please add a title", model.ErrBadRequest)
	assert.Equal(t, "Please add a title", publicMessage(err, model.ErrBadRequest))
	assert.Equal(t, "Photo not found", publicMessage(fmt.Errorf("photo %w", model.ErrNotFound), model.ErrNotFound))
}

func TestIPLimiterSweepsStaleVisitors(t *testing.T) {
	now := time.Now()
	l := newIPLimiter(loginRate, 1)
	l.now = func() time.Time { return now }
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))

	now = now.Add(staleAfter + time.Minute)
	assert.True(t, l.Allow("5.6.7.8"))
	assert.NotContains(t, l.limiters, "1.2.3.4")
}
