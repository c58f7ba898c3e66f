package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

// Blob key prefixes. Original files and rendered page images share one
// bucket, separated by prefix.
const (
	PrefixFiles  = "files/"
	PrefixImages = "images/"

	maxKeyBytes = 1024
)

// BlobStore is the durable byte store behind the pipeline: original
// files under files/, rendered page PNGs under images/.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	// URL returns a time-limited presigned URL for the object.
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type blobStore struct {
	log          *logger.Logger
	client       *gcs.Client
	mode         ObjectStorageMode
	emulatorHost string
	bucket       string
}

func NewBlobStore(log *logger.Logger) (BlobStore, error) {
	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("resolve object storage config: %w", err)
	}
	return NewBlobStoreWithConfig(log, cfg)
}

func NewBlobStoreWithConfig(log *logger.Logger, cfg ObjectStorageConfig) (BlobStore, error) {
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	serviceLog := log.With("service", "BlobStore")

	bucketName := strings.TrimSpace(os.Getenv("BLOB_GCS_BUCKET_NAME"))
	if bucketName == "" {
		return nil, fmt.Errorf("missing env var BLOB_GCS_BUCKET_NAME")
	}

	ctx := context.Background()
	client, err := newStorageClientForMode(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info(
		"Object storage initialized",
		"mode", cfg.Mode,
		"emulator_host", cfg.EmulatorHost,
		"bucket", bucketName,
	)

	return &blobStore{
		log:          serviceLog,
		client:       client,
		mode:         cfg.Mode,
		emulatorHost: strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"),
		bucket:       bucketName,
	}, nil
}

func newStorageClientForMode(ctx context.Context, cfg ObjectStorageConfig) (*gcs.Client, error) {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		return gcs.NewClient(ctx, option.WithScopes(gcs.ScopeReadWrite))
	case ObjectStorageModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return gcs.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{
			Code: ObjectStorageConfigErrorInvalidMode,
			Mode: string(cfg.Mode),
		}
	}
}

// ValidateKey rejects keys outside the files/ and images/ namespaces or
// over the key length limit.
func ValidateKey(key string) error {
	if key == "" || len(key) > maxKeyBytes {
		return apperr.Newf(apperr.KindInvalidArgument, "invalid blob key %q", key)
	}
	if !strings.HasPrefix(key, PrefixFiles) && !strings.HasPrefix(key, PrefixImages) {
		return apperr.Newf(apperr.KindInvalidArgument, "blob key %q outside files/ and images/", key)
	}
	return nil
}

func (bs *blobStore) Put(ctx context.Context, key string, r io.Reader) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.client.Bucket(bs.bucket).Object(key).NewWriter(ctx2)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return apperr.Wrap(apperr.KindTransientUpstream, "write blob", err)
	}
	if err := w.Close(); err != nil {
		return apperr.Wrap(apperr.KindTransientUpstream, "close blob writer", err)
	}
	return nil
}

// Attach the reader's lifetime to the timeout context; cancelling before
// the caller reads would truncate the stream to 0 bytes.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (bs *blobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	r, err := bs.client.Bucket(bs.bucket).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, apperr.Wrap(apperr.KindNotFound, "blob "+key, err)
		}
		return nil, apperr.Wrap(apperr.KindTransientUpstream, "open blob reader", err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (bs *blobStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	ctx2, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := bs.client.Bucket(bs.bucket).Object(key).Attrs(ctx2)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Wrap(apperr.KindTransientUpstream, "blob attrs", err)
	}
	return true, nil
}

func (bs *blobStore) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if bs.mode == ObjectStorageModeGCSEmulator {
		// The emulator serves objects unauthenticated; no signing needed.
		return fmt.Sprintf(
			"%s/storage/v1/b/%s/o/%s?alt=media",
			bs.emulatorHost,
			url.PathEscape(bs.bucket),
			url.PathEscape(key),
		), nil
	}
	signed, err := bs.client.Bucket(bs.bucket).SignedURL(key, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(ttl),
		Scheme:  gcs.SigningSchemeV4,
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindTransientUpstream, "sign blob url", err)
	}
	return signed, nil
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".tif"), strings.HasSuffix(s, ".tiff"):
		return "image/tiff"
	case strings.HasSuffix(s, ".bmp"):
		return "image/bmp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return ""
	}
}
