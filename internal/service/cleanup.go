package service

import (
	"context"
	"log/slog"

	"github.com/abhay-kr-0705/GEN-X/internal/model"
	"github.com/abhay-kr-0705/GEN-X/internal/queue"
)

// cleaner releases what a failed or finished request leaves behind. Nothing
// it does can fail the request; failures are logged and orphaned remote
// assets are queued for reconciliation.
type cleaner struct {
	host  ImageHost
	tasks TaskQueue
	log   *slog.Logger
}

func (c *cleaner) removeFiles(files ...model.LocalFile) {
	for _, f := range files {
		if err := f.Remove(); err != nil {
			c.log.Warn("remove temp file", "path", f.Path, "error", err)
		}
	}
}

// destroyAssets attempts every id independently. It runs detached from ctx's
// cancellation so a client hang-up does not leave orphans behind.
func (c *cleaner) destroyAssets(ctx context.Context, reason string, publicIDs ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range publicIDs {
		if id == "" {
			continue
		}
		err := c.host.Destroy(ctx, id)
		if err == nil {
			continue
		}
		c.log.Error("destroy remote asset", "public_id", id, "reason", reason, "error", err)
		if c.tasks == nil {
			continue
		}
		payload := queue.DestroyAssetPayload{PublicID: id, Reason: reason}
		if err := c.tasks.EnqueueAssetDestroy(ctx, payload); err != nil {
			c.log.Error("queue asset reconciliation", "public_id", id, "error", err)
		}
	}
}
