package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MediaClass selects which bucket an object lands in.
type MediaClass string

const (
	MediaImage    MediaClass = "image"
	MediaVideo    MediaClass = "video"
	MediaDocument MediaClass = "document"
)

// ClassForContentType maps a MIME type onto a media class. Anything that is
// not an image or video goes to the document bucket.
func ClassForContentType(contentType string) MediaClass {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MediaImage
	case strings.HasPrefix(contentType, "video/"):
		return MediaVideo
	default:
		return MediaDocument
	}
}

// ObjectStore provides access to user-uploaded media.
type ObjectStore interface {
	Upload(ctx context.Context, userID string, r io.Reader, size int64, contentType string) (key string, err error)
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Buckets names the per-class buckets.
type Buckets struct {
	Image    string
	Video    string
	Document string
}

// MinioStore implements ObjectStore for MinIO/S3 compatible storage, with one
// bucket per media class.
type MinioStore struct {
	client  *minio.Client
	buckets Buckets
}

// NewMinioStore connects to MinIO and ensures all three buckets exist.
func NewMinioStore(endpoint, accessKey, secretKey string, buckets Buckets, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, bucket := range []string{buckets.Image, buckets.Video, buckets.Document} {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return &MinioStore{client: client, buckets: buckets}, nil
}

// Upload stores the object under a fresh key scoped to the owner and returns
// the key, prefixed with the media class so reads can find the bucket again.
func (m *MinioStore) Upload(ctx context.Context, userID string, r io.Reader, size int64, contentType string) (string, error) {
	key := NewObjectKey(userID, contentType)
	_, err := m.client.PutObject(ctx, m.bucketFor(key), objectName(key), r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return key, nil
}

// PresignGet generates a pre-signed GET URL for the key.
func (m *MinioStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucketFor(key), objectName(key), expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return url.String(), nil
}

// Get streams the object back.
func (m *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucketFor(key), objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	return obj, nil
}

// Delete removes the object.
func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucketFor(key), objectName(key), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (m *MinioStore) bucketFor(key string) string {
	switch classOf(key) {
	case MediaImage:
		return m.buckets.Image
	case MediaVideo:
		return m.buckets.Video
	default:
		return m.buckets.Document
	}
}

// NewObjectKey builds "<class>/user_<id>/<uuid><ext>".
func NewObjectKey(userID, contentType string) string {
	ext := ""
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	class := ClassForContentType(contentType)
	return path.Join(string(class), "user_"+userID, uuid.NewString()+ext)
}

func classOf(key string) MediaClass {
	prefix, _, _ := strings.Cut(key, "/")
	switch MediaClass(prefix) {
	case MediaImage, MediaVideo, MediaDocument:
		return MediaClass(prefix)
	default:
		return MediaDocument
	}
}

func objectName(key string) string {
	_, rest, ok := strings.Cut(key, "/")
	if !ok {
		return key
	}
	return rest
}

// MemoryObjectStore keeps objects in memory for tests.
type MemoryObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: make(map[string][]byte)}
}

func (m *MemoryObjectStore) Upload(_ context.Context, userID string, r io.Reader, _ int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	key := NewObjectKey(userID, contentType)
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return key, nil
}

func (m *MemoryObjectStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	m.mu.Lock()
	_, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("object %s not found", key)
	}
	return "memory://" + key, nil
}

func (m *MemoryObjectStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	data, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (m *MemoryObjectStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}
