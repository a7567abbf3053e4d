// Package s3 stores rendered exports as objects in S3-compatible storage.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kailas-cloud/nearby/internal/domain"
	"github.com/kailas-cloud/nearby/internal/export"
)

const objectPrefix = "exports/"

// Config holds S3 connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Store keeps exports under exports/<search id>.<ext>.
type Store struct {
	client *minio.Client
	bucket string
	region string
}

// NewStore creates a MinIO client for the configured endpoint.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put uploads data for searchID in format f.
func (s *Store) Put(ctx context.Context, searchID string, f export.Format, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, ObjectKey(searchID, f),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: f.ContentType()})
	if err != nil {
		return fmt.Errorf("put %s export %s: %w", f, searchID, err)
	}
	return nil
}

// Get downloads the export for searchID in format f, or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, searchID string, f export.Format) ([]byte, error) {
	key := ObjectKey(searchID, f)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrap(key, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.wrap(key, err)
	}
	return data, nil
}

// Ping checks that the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("s3 ping: %w", err)
	}
	return nil
}

func (s *Store) wrap(key string, err error) error {
	if IsNotFound(err) {
		return fmt.Errorf("object %s: %w", key, domain.ErrNotFound)
	}
	return fmt.Errorf("get object %s: %w", key, err)
}

// ObjectKey returns the object name for an export.
func ObjectKey(searchID string, f export.Format) string {
	return objectPrefix + searchID + "." + f.Extension()
}

// IsNotFound reports whether err is a missing-object or missing-bucket response.
func IsNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return true
	}
	return false
}
