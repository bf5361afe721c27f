package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GENX_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Address)
	assert.Equal(t, 30*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.MaxBatchFiles)
	assert.Equal(t, 50, cfg.MaxGalleryPhotos)
	assert.Equal(t, 60*time.Second, cfg.UploadTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.UploadGap)
	assert.Equal(t, "http://localhost:9000/genx", cfg.PublicBaseURL)
	assert.Len(t, cfg.JWTSecret, 32)
	assert.False(t, cfg.SMTPEnabled())
}

func TestLoadReadsEnvFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GENX_JWT_SECRET=from-file\nGENX_MAX_BATCH_FILES=4\n"), 0o600))
	t.Setenv("GENX_ENV_FILE", envFile)
	t.Setenv("GENX_MAX_BATCH_FILES", "7")
	t.Setenv("GENX_ADMIN_EMAILS", "Lead@GenX.club, ops@genx.club ,")
	t.Setenv("GENX_PUBLIC_BASE_URL", "https://cdn.genx.club/")
	t.Setenv("GENX_UPLOAD_GAP", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	t.Cleanup(func() { os.Unsetenv("GENX_JWT_SECRET") })

	assert.Equal(t, []byte("from-file"), cfg.JWTSecret)
	assert.Equal(t, 7, cfg.MaxBatchFiles)
	assert.Equal(t, []string{"lead@genx.club", "ops@genx.club"}, cfg.AdminEmails)
	assert.Equal(t, "https://cdn.genx.club", cfg.PublicBaseURL)
	assert.Equal(t, 100*time.Millisecond, cfg.UploadGap)
}

func TestLoadRejectsBcryptCost(t *testing.T) {
	t.Setenv("GENX_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("GENX_BCRYPT_COST", "2")
	_, err := Load()
	assert.Error(t, err)
}
