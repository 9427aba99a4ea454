package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
)

// BucketService stores uploaded documents in a GCS bucket.
type BucketService interface {
	UploadFile(ctx context.Context, key string, file io.Reader) error
	DeleteFile(ctx context.Context, key string) error
	ReadFile(ctx context.Context, key string) ([]byte, error)
	PublicURL(key string) string
}

type Config struct {
	BucketName string
	CredsFile  string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucketName    string
}

func NewBucketService(ctx context.Context, log *logger.Logger, cfg Config) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("storage: bucket name required")
	}

	var (
		client *storage.Client
		err    error
	)
	if cfg.CredsFile != "" {
		client, err = storage.NewClient(ctx,
			option.WithCredentialsFile(cfg.CredsFile),
			option.WithScopes(storage.ScopeReadWrite),
		)
	} else {
		// Fall back to application default credentials.
		client, err = storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	}
	if err != nil {
		return nil, fmt.Errorf("storage: create client: %w", err)
	}

	return &bucketService{
		log:           serviceLog,
		storageClient: client,
		bucketName:    cfg.BucketName,
	}, nil
}

func (bs *bucketService) UploadFile(ctx context.Context, key string, file io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(bs.bucketName).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("storage: write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: close writer for %q: %w", key, err)
	}
	return nil
}

func (bs *bucketService) DeleteFile(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := bs.storageClient.Bucket(bs.bucketName).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("storage: delete object %q: %w", key, err)
	}
	return nil
}

func (bs *bucketService) ReadFile(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	r, err := bs.storageClient.Bucket(bs.bucketName).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: open object %q: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("storage: read object %q: %w", key, err)
	}
	return data, nil
}

func (bs *bucketService) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, key)
}
