package network

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/anecdotario/photo-services/models/service"
	"github.com/minio/minio-go/v7"
)

// ObjectStore is the gateway to the photo bucket. We define it
// formally so the pipeline can be tested against an in-memory fake.
// Only object-level operations appear here. The pipeline has no
// business creating buckets or changing bucket policy, so it can't.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	BatchDelete(ctx context.Context, keys []string) *BatchDeleteResult
	ListByPrefix(ctx context.Context, prefix string) ([]string, error)
	Presign(ctx context.Context, key string, expiry time.Duration) (string, error)
	PublicURL(key string) string
	Exists(ctx context.Context, key string) (bool, error)
}

// BatchDeleteResult reports a batch delete item by item. Keys in
// Deleted are gone; keys in Errors are still in the bucket and the
// caller should know it.
type BatchDeleteResult struct {
	Deleted []string
	Errors  []*service.ProcessingError
}

// MinioStore is the production ObjectStore, backed by a single bucket
// reachable through a minio client.
type MinioStore struct {
	client       *minio.Client
	bucket       string
	cacheControl string
}

func NewMinioStore(client *minio.Client, bucket, cacheControl string) *MinioStore {
	return &MinioStore{
		client:       client,
		bucket:       bucket,
		cacheControl: cacheControl,
	}
}

// Put stores one object. Uploads overwrite by key, which is what makes
// interrupted-upload retries safe: a fresh photo id gives a retry a
// disjoint key set, and re-putting the same key is idempotent.
func (m *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: m.cacheControl,
		UserMetadata: metadata,
	}
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return fmt.Errorf("put %s/%s: %v", m.bucket, key, err)
	}
	return nil
}

// BatchDelete removes the given keys, accumulating per-key errors
// instead of stopping at the first failure. A key that does not exist
// counts as deleted, since it may have been removed in a prior
// attempt.
func (m *MinioStore) BatchDelete(ctx context.Context, keys []string) *BatchDeleteResult {
	result := &BatchDeleteResult{
		Deleted: make([]string, 0, len(keys)),
		Errors:  make([]*service.ProcessingError, 0),
	}
	if len(keys) == 0 {
		return result
	}
	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)

	failed := make(map[string]bool)
	for removeErr := range m.client.RemoveObjects(ctx, m.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if removeErr.Err != nil && !isNoSuchKey(removeErr.Err) {
			failed[removeErr.ObjectName] = true
			result.Errors = append(result.Errors, service.NewProcessingError(
				"object_delete",
				removeErr.ObjectName,
				removeErr.Err.Error(),
				false,
			))
		}
	}
	for _, key := range keys {
		if !failed[key] {
			result.Deleted = append(result.Deleted, key)
		}
	}
	return result
}

// ListByPrefix returns the keys of all objects under prefix. This is
// the fallback path for bulk deletes when metadata is unavailable.
func (m *MinioStore) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}
	for obj := range m.client.ListObjects(ctx, m.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s/%s: %v", m.bucket, prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// Presign returns a time-limited signed GET URL for a private object.
func (m *MinioStore) Presign(ctx context.Context, key string, expiry time.Duration) (string, error) {
	signed, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %v", m.bucket, key, err)
	}
	return signed.String(), nil
}

// PublicURL returns the stable, unsigned URL for a public object.
// It never expires and requires no signing step.
func (m *MinioStore) PublicURL(key string) string {
	endpoint := m.client.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", endpoint.Scheme, endpoint.Host, m.bucket, key)
}

// Exists reports whether the object is actually in the bucket. The
// refresher uses this to tell an object miss from a record miss.
func (m *MinioStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" {
		return true
	}
	return strings.Contains(err.Error(), "key does not exist")
}
