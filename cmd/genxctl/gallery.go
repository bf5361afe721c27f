package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhay-kr-0705/GEN-X/internal/app"
	"github.com/abhay-kr-0705/GEN-X/internal/batchupload"
	"github.com/abhay-kr-0705/GEN-X/internal/client"
	"github.com/abhay-kr-0705/GEN-X/internal/model"
)

func newGalleryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Manage gallery photos",
	}
	cmd.AddCommand(newGalleryUploadCmd(), newBackfillCmd())
	return cmd
}

func newGalleryUploadCmd() *cobra.Command {
	var (
		batchSize int
		delay     time.Duration
		barWidth  int
	)
	cmd := &cobra.Command{
		Use:   "upload GALLERY_ID PATH...",
		Short: "Upload photos to a gallery in batches",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := loadToken(tokenFile)
			if err != nil {
				return err
			}
			galleryID := args[0]
			stderr := cmd.ErrOrStderr()

			var files []batchupload.File
			for _, path := range args[1:] {
				f, err := batchupload.Stat(path)
				if err != nil {
					return err
				}
				files = append(files, f)
			}
			files, rejected := batchupload.DefaultLimits.Filter(files)
			for _, err := range rejected {
				fmt.Fprintf(stderr, "skipping: %v\n", err)
			}

			c := client.New(apiURL, token)
			opts := batchupload.Options[*model.Gallery]{
				BatchSize: batchSize,
				Delay:     delay,
				OnProgress: func(p batchupload.Progress) {
					fmt.Fprintf(stderr, "\r%s", renderBar(p, barWidth))
				},
			}
			if delay <= 0 {
				opts.Delay = -1
			}
			uploader := batchupload.New[*model.Gallery](writerNotifier{w: stderr})
			upload := func(ctx context.Context, batch []batchupload.File) (*model.Gallery, error) {
				return c.UploadPhotos(ctx, galleryID, batch)
			}
			if err := uploader.Upload(cmd.Context(), files, upload, opts); err != nil {
				return err
			}

			p := uploader.Progress()
			for _, fe := range p.Errors {
				fmt.Fprintf(stderr, "failed: %s: %s\n", fe.File, fe.Error)
			}
			if p.Failed > 0 {
				return fmt.Errorf("%d of %d files failed to upload", p.Failed, p.Total)
			}
			if len(files) == 0 && len(rejected) > 0 {
				return errors.New("no valid files to upload")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d files to gallery %s\n", p.Successful, galleryID)
			return nil
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", batchupload.DefaultBatchSize, "Files per request")
	cmd.Flags().DurationVar(&delay, "delay", batchupload.DefaultDelay, "Pause between batches (0 disables)")
	cmd.Flags().IntVar(&barWidth, "bar-width", 30, "Width of the progress bar")
	return cmd
}

func newBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-ids",
		Short: "Derive missing image host ids for stored galleries",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			svc := app.Services(env.cfg, env.stores, nil, nil, env.log)
			n, err := svc.Galleries.BackfillPublicIDs(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d galleries\n", n)
			return nil
		},
	}
}

// writerNotifier prints notifications on their own line below the
// progress bar.
type writerNotifier struct {
	w io.Writer
}

func (n writerNotifier) Notify(level batchupload.Level, msg string) {
	fmt.Fprintf(n.w, "\n[%s] %s\n", level, msg)
}
