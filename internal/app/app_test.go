package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhay-kr-0705/GEN-X/internal/config"
	"github.com/abhay-kr-0705/GEN-X/internal/logging"
	"github.com/abhay-kr-0705/GEN-X/internal/mail"
	"github.com/abhay-kr-0705/GEN-X/internal/processing"
)

type nopHost struct{}

func (nopHost) Destroy(ctx context.Context, publicID string) error { return nil }

func TestInMemoryWiring(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{JWTSecret: []byte("s"), TokenTTL: time.Hour, BcryptCost: 4, UploadGap: 100 * time.Millisecond, WorkerPoolSize: 1}
	log := logging.Discard()

	st, err := OpenStores(ctx, cfg, log)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.DB.Ping(ctx))

	tasks := OpenTasks(ctx, cfg, nopHost{}, log)
	defer tasks.Close()
	assert.IsType(t, &processing.Pool{}, tasks.Queue)
	assert.Nil(t, tasks.Redis)

	svc := Services(cfg, st, nil, tasks.Queue, log)
	assert.NotNil(t, svc.Auth)
	assert.NotNil(t, svc.Galleries)
	assert.Equal(t, "store=memory tasks=in-process bucket=", Describe(cfg))
}

func TestNewMailer(t *testing.T) {
	log := logging.Discard()
	assert.IsType(t, mail.LogMailer{}, NewMailer(&config.Config{}, log))
	assert.IsType(t, &mail.SMTPMailer{}, NewMailer(&config.Config{SMTPHost: "smtp.test", SMTPPort: 587}, log))
}
