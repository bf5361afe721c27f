// Package config centralizes how the GenX services read environment variables
// and exposes them as strongly typed Go values.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents runtime configuration shared by the API, the worker and
// the CLI.
type Config struct {
	Address     string
	CORSOrigins []string
	LogLevel    string
	LogFormat   string

	DatabaseURL string

	JWTSecret   []byte
	TokenTTL    time.Duration
	BcryptCost  int
	AdminEmails []string

	UploadDir        string
	MaxFileSize      int64
	AllowedTypes     []string
	MaxBatchFiles    int
	MaxGalleryPhotos int
	UploadTimeout    time.Duration
	UploadGap        time.Duration
	ThumbnailMaxDim  int

	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	S3UseSSL      bool
	S3Region      string
	S3Bucket      string
	PublicBaseURL string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	WorkerPoolSize int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
}

const (
	// Shifts work on integers: 10 << 20 is 10 MiB.
	defaultAddress       = ":5000"
	defaultOrigins       = "http://localhost:5173,http://localhost:3000"
	defaultMaxFileSize   = 10 << 20
	defaultAllowedTypes  = "image/jpeg,image/png,image/gif,image/webp,application/pdf"
	defaultTokenTTL      = 30 * 24 * time.Hour
	defaultBcryptCost    = 10
	defaultBatchFiles    = 10
	defaultGalleryPhotos = 50
	defaultUploadTimeout = 60 * time.Second
	defaultUploadGap     = 100 * time.Millisecond
	defaultThumbnailDim  = 1280
	defaultS3Endpoint    = "localhost:9000"
	defaultS3Bucket      = "genx"
	defaultS3Region      = "us-east-1"
	defaultWorkerCount   = 2
	defaultSMTPPort      = 587
)

// Load reads a .env file when one exists, then configuration from environment
// variables falling back to defaults. Variables already set in the process
// win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(readEnv("GENX_ENV_FILE", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	cfg := &Config{
		Address:     readEnv("GENX_ADDRESS", defaultAddress),
		CORSOrigins: parseList("GENX_CORS_ORIGINS", defaultOrigins),
		LogLevel:    readEnv("GENX_LOG_LEVEL", "info"),
		LogFormat:   readEnv("GENX_LOG_FORMAT", "text"),

		DatabaseURL: readEnv("GENX_DATABASE_URL", ""),

		JWTSecret:   parseSecret("GENX_JWT_SECRET"),
		TokenTTL:    parseDuration("GENX_TOKEN_TTL", defaultTokenTTL),
		BcryptCost:  parseInt("GENX_BCRYPT_COST", defaultBcryptCost),
		AdminEmails: parseList("GENX_ADMIN_EMAILS", ""),

		UploadDir:        readEnv("GENX_UPLOAD_DIR", filepath.Join(os.TempDir(), "genx-uploads")),
		MaxFileSize:      parseInt64("GENX_MAX_FILE_BYTES", defaultMaxFileSize),
		AllowedTypes:     parseList("GENX_ALLOWED_TYPES", defaultAllowedTypes),
		MaxBatchFiles:    parseInt("GENX_MAX_BATCH_FILES", defaultBatchFiles),
		MaxGalleryPhotos: parseInt("GENX_MAX_GALLERY_PHOTOS", defaultGalleryPhotos),
		UploadTimeout:    parseDuration("GENX_UPLOAD_TIMEOUT", defaultUploadTimeout),
		UploadGap:        parseDuration("GENX_UPLOAD_GAP", defaultUploadGap),
		ThumbnailMaxDim:  parseInt("GENX_THUMBNAIL_MAX_DIM", defaultThumbnailDim),

		S3Endpoint:    readEnv("GENX_S3_ENDPOINT", defaultS3Endpoint),
		S3AccessKey:   readEnv("GENX_S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:   readEnv("GENX_S3_SECRET_KEY", "minioadmin"),
		S3UseSSL:      parseBool("GENX_S3_USE_SSL", false),
		S3Region:      readEnv("GENX_S3_REGION", defaultS3Region),
		S3Bucket:      readEnv("GENX_S3_BUCKET", defaultS3Bucket),
		PublicBaseURL: readEnv("GENX_PUBLIC_BASE_URL", ""),

		RedisAddr:      readEnv("GENX_REDIS_ADDR", ""),
		RedisPassword:  readEnv("GENX_REDIS_PASSWORD", ""),
		RedisDB:        parseInt("GENX_REDIS_DB", 0),
		WorkerPoolSize: parseInt("GENX_WORKERS", defaultWorkerCount),

		SMTPHost:     readEnv("GENX_SMTP_HOST", ""),
		SMTPPort:     parseInt("GENX_SMTP_PORT", defaultSMTPPort),
		SMTPUsername: readEnv("GENX_SMTP_USERNAME", ""),
		SMTPPassword: readEnv("GENX_SMTP_PASSWORD", ""),
		MailFrom:     readEnv("GENX_MAIL_FROM", "GenX Club <no-reply@genx.local>"),
	}
	if cfg.JWTSecret == nil {
		// Tokens signed with a generated secret do not survive a restart.
		cfg.JWTSecret = randomSecret()
	}
	for i, email := range cfg.AdminEmails {
		cfg.AdminEmails[i] = strings.ToLower(email)
	}
	if cfg.PublicBaseURL == "" {
		scheme := "http"
		if cfg.S3UseSSL {
			scheme = "https"
		}
		cfg.PublicBaseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.S3Endpoint, cfg.S3Bucket)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerCount
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}
	if cfg.MaxBatchFiles <= 0 {
		cfg.MaxBatchFiles = defaultBatchFiles
	}
	if cfg.MaxGalleryPhotos <= 0 {
		cfg.MaxGalleryPhotos = defaultGalleryPhotos
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = defaultUploadTimeout
	}
	if cfg.UploadGap < 0 {
		cfg.UploadGap = defaultUploadGap
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, fmt.Errorf("GENX_BCRYPT_COST must be between 4 and 31, got %d", cfg.BcryptCost)
	}
	return cfg, nil
}

// SMTPEnabled reports whether outgoing mail is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseList(key, def string) []string {
	val := readEnv(key, def)
	if strings.TrimSpace(val) == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseInt64(key string, def int64) int64 {
	// Invalid input falls back to the default.
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}

func parseInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	// time.ParseDuration understands inputs like "5m" or "30s".
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseSecret(key string) []byte {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return []byte(v)
	}
	return nil
}

func randomSecret() []byte {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return []byte(hex.EncodeToString([]byte("fallbacksecret")))
	}
	return buf
}
