// Package imagehost stores uploaded media in an S3-compatible bucket and
// addresses each asset by a public id of the form "<folder>/<uuid>".
package imagehost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/abhay-kr-0705/GEN-X/internal/config"
)

// ResourceType tells the host how to treat an upload. Auto derives it from
// the sniffed content type.
type ResourceType string

const (
	ResourceAuto  ResourceType = "auto"
	ResourceImage ResourceType = "image"
	ResourceVideo ResourceType = "video"
	ResourceRaw   ResourceType = "raw"
)

// UploadOptions controls a single upload.
type UploadOptions struct {
	Folder       string
	ResourceType ResourceType
	// Timeout bounds the remote call. Zero means no timeout beyond ctx.
	Timeout time.Duration
}

// Asset is a stored upload.
type Asset struct {
	SecureURL    string       `json:"secure_url"`
	PublicID     string       `json:"public_id"`
	ResourceType ResourceType `json:"resource_type"`
	Bytes        int64        `json:"bytes"`
}

// ErrEmptyPublicID is returned by Destroy when there is nothing to delete.
var ErrEmptyPublicID = errors.New("empty public id")

// objectStore is the subset of the minio client the host uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
}

// Client wraps MinIO/S3 interactions for gallery and resource media.
type Client struct {
	store   objectStore
	bucket  string
	region  string
	baseURL string
	newKey  func() string
}

// New creates a MinIO client from the Config.
func New(cfg *config.Config) (*Client, error) {
	mc, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return newClient(mc, cfg.S3Bucket, cfg.S3Region, cfg.PublicBaseURL), nil
}

func newClient(store objectStore, bucket, region, baseURL string) *Client {
	return &Client{
		store:   store,
		bucket:  bucket,
		region:  region,
		baseURL: strings.TrimRight(baseURL, "/"),
		newKey:  uuid.NewString,
	}
}

// EnsureBucket makes sure the media bucket exists before use.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.store.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}
	if !exists {
		if err := c.store.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", c.bucket, err)
		}
	}
	return nil
}

// Upload stores the file at path and returns its public URL and id.
func (c *Client) Upload(ctx context.Context, path string, opts UploadOptions) (Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Asset{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return Asset{}, fmt.Errorf("stat upload: %w", err)
	}
	contentType, err := sniff(f)
	if err != nil {
		return Asset{}, err
	}
	resourceType := opts.ResourceType
	if resourceType == "" || resourceType == ResourceAuto {
		resourceType = resourceTypeFor(contentType)
	}

	publicID := c.newKey()
	if folder := strings.Trim(opts.Folder, "/"); folder != "" {
		publicID = folder + "/" + publicID
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	putOpts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"resource-type": string(resourceType)},
	}
	if _, err := c.store.PutObject(ctx, c.bucket, publicID, f, info.Size(), putOpts); err != nil {
		return Asset{}, fmt.Errorf("put object: %w", err)
	}
	return Asset{
		SecureURL:    c.baseURL + "/" + publicID,
		PublicID:     publicID,
		ResourceType: resourceType,
		Bytes:        info.Size(),
	}, nil
}

// Destroy removes the asset with the given public id. Removing an asset that
// does not exist succeeds.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return ErrEmptyPublicID
	}
	if err := c.store.RemoveObject(ctx, c.bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", publicID, err)
	}
	return nil
}

// Ping checks that the bucket is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.store.BucketExists(ctx, c.bucket)
	return err
}

func sniff(f *os.File) (string, error) {
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	return http.DetectContentType(buf[:n]), nil
}

func resourceTypeFor(contentType string) ResourceType {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return ResourceImage
	case strings.HasPrefix(contentType, "video/"):
		return ResourceVideo
	default:
		return ResourceRaw
	}
}
