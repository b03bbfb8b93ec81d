package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"docbin/internal/config"
)

// MinIOMirror implements Mirror on an S3-compatible backend (MinIO, AWS S3, etc.).
// Resolved paths map to object keys by dropping the leading separator; a directory is a key prefix.
// It is safe for concurrent use by multiple goroutines.
type MinIOMirror struct {
	client *minio.Client
	bucket string
}

// NewMinIO creates a new S3-compatible mirror backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig) (*MinIOMirror, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure bucket exists.
	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &MinIOMirror{client: cli, bucket: cfg.Bucket}, nil
}

// ObjectKey maps a resolved path to its object key.
func ObjectKey(path string) string {
	return strings.TrimPrefix(filepath.ToSlash(path), "/")
}

// Remove deletes a single object. RemoveObject succeeds on missing keys, so the object is stat'ed first.
func (m *MinIOMirror) Remove(ctx context.Context, path string) error {
	key := ObjectKey(path)
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return fmt.Errorf("remove %s: %w", key, ErrObjectNotFound)
		}
		return fmt.Errorf("stat %s: %w", key, err)
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Exists stats the object key, then falls back to looking for any object under it as a prefix.
func (m *MinIOMirror) Exists(ctx context.Context, path string) (bool, error) {
	key := ObjectKey(path)
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	switch {
	case err == nil:
		return true, nil
	case !isNoSuchKey(err):
		return false, fmt.Errorf("stat %s: %w", key, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	prefix := strings.TrimSuffix(key, "/") + "/"
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true, MaxKeys: 1}) {
		if obj.Err != nil {
			return false, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		return true, nil
	}
	return false, nil
}

// RemoveAll deletes every object under the directory prefix in bulk.
func (m *MinIOMirror) RemoveAll(ctx context.Context, path string) error {
	prefix := strings.TrimSuffix(ObjectKey(path), "/") + "/"

	objectsCh := make(chan minio.ObjectInfo)
	var listErr error
	listed := 0
	go func() {
		defer close(objectsCh)
		for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			listed++
			objectsCh <- obj
		}
	}()

	var removeErr error
	failed := 0
	for rErr := range m.client.RemoveObjects(ctx, m.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		failed++
		if removeErr == nil {
			removeErr = rErr.Err
		}
	}

	switch {
	case listErr != nil:
		return fmt.Errorf("list %s: %w", prefix, listErr)
	case removeErr != nil:
		return fmt.Errorf("remove tree %s: %d objects failed: %w", prefix, failed, removeErr)
	case listed == 0:
		return fmt.Errorf("remove tree %s: %w", prefix, ErrObjectNotFound)
	}
	return nil
}


func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
