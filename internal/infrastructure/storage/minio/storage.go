package minio

import (
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"sapirag/internal/core/domain"
)

// Storage keeps one bucket per workspace and the uploaded PDFs as objects
// inside it.
type Storage struct {
	client *minio.Client
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func NewStorage(cfg Config) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "minio client", err)
	}
	return &Storage{client: client}, nil
}

func (s *Storage) EnsureBucket(ctx context.Context, workspace string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, workspace)
	if err != nil {
		return false, domain.WrapError(domain.ErrTemporary, "bucket exists", err)
	}
	if exists {
		return false, nil
	}
	if err := s.client.MakeBucket(ctx, workspace, minio.MakeBucketOptions{}); err != nil {
		return false, domain.WrapError(domain.ErrTemporary, "make bucket", err)
	}
	return true, nil
}

func (s *Storage) BucketExists(ctx context.Context, workspace string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, workspace)
	if err != nil {
		return false, domain.WrapError(domain.ErrTemporary, "bucket exists", err)
	}
	return exists, nil
}

func (s *Storage) ListBuckets(ctx context.Context) ([]string, error) {
	buckets, err := s.client.ListBuckets(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "list buckets", err)
	}
	names := make([]string, 0, len(buckets))
	for _, b := range buckets {
		names = append(names, b.Name)
	}
	return names, nil
}

// RemoveBucket empties the workspace bucket first; MinIO refuses to drop a
// non-empty bucket.
func (s *Storage) RemoveBucket(ctx context.Context, workspace string) error {
	for object := range s.client.ListObjects(ctx, workspace, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return mapObjectError("list objects", object.Err)
		}
		if err := s.client.RemoveObject(ctx, workspace, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return mapObjectError("remove object", err)
		}
	}
	if err := s.client.RemoveBucket(ctx, workspace); err != nil {
		return mapObjectError("remove bucket", err)
	}
	return nil
}

func (s *Storage) Put(ctx context.Context, workspace, object string, data io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, workspace, object, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return mapObjectError("put object", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, workspace, object string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, workspace, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapObjectError("get object", err)
	}
	// GetObject is lazy; stat now so a missing key surfaces here.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, mapObjectError("stat object", err)
	}
	return obj, nil
}

func (s *Storage) ListObjects(ctx context.Context, workspace, suffix string) ([]string, error) {
	var names []string
	for object := range s.client.ListObjects(ctx, workspace, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return nil, mapObjectError("list objects", object.Err)
		}
		if suffix == "" || strings.HasSuffix(strings.ToLower(object.Key), suffix) {
			names = append(names, object.Key)
		}
	}
	return names, nil
}

func (s *Storage) Remove(ctx context.Context, workspace, object string) error {
	// RemoveObject succeeds on missing keys; stat first so callers can
	// distinguish a deletion from a no-op.
	if _, err := s.client.StatObject(ctx, workspace, object, minio.StatObjectOptions{}); err != nil {
		return mapObjectError("stat object", err)
	}
	if err := s.client.RemoveObject(ctx, workspace, object, minio.RemoveObjectOptions{}); err != nil {
		return mapObjectError("remove object", err)
	}
	return nil
}

func mapObjectError(op string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return domain.WrapError(domain.ErrNotFound, op, err)
	}
	return domain.WrapError(domain.ErrTemporary, op, err)
}
