// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-scout/pkg/types"
)

const bucketCheckTimeout = 10 * time.Second

// MinioAPI is the subset of the MinIO client the store uses. Tests supply a
// fake.
type MinioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioStore writes artifacts to an S3-compatible bucket as
// <Prefix><slug>.pdf objects.
type MinioStore struct {
	client MinioAPI
	bucket string
	region string
	prefix string
	log    *zap.Logger

	mu          sync.Mutex
	bucketReady bool
}

// NewMinioClient dials the configured endpoint.
func NewMinioClient(cfg types.MinioConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client for %s: %w", cfg.Endpoint, err)
	}
	return client, nil
}

// NewMinioStore wraps client. The bucket is created on first use when it
// does not exist.
func NewMinioStore(client MinioAPI, cfg types.MinioConfig, prefix string, log *zap.Logger) *MinioStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &MinioStore{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		prefix: prefix,
		log:    log.Named("store.minio"),
	}
}

// Location returns the object URI for id.
func (s *MinioStore) Location(id string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key(id))
}

func (s *MinioStore) key(id string) string {
	return s.prefix + Slug(id) + ".pdf"
}

// Put uploads data, overwriting any previous object for id.
func (s *MinioStore) Put(ctx context.Context, id string, data []byte) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", &IOError{Path: s.Location(id), Err: err}
	}
	info, err := s.client.PutObject(ctx, s.bucket, s.key(id), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  "application/pdf",
		UserMetadata: map[string]string{"patent-id": id},
	})
	if err != nil {
		return "", &IOError{Path: s.Location(id), Err: err}
	}
	s.log.Debug("uploaded artifact",
		zap.String("bucket", info.Bucket),
		zap.String("key", info.Key),
		zap.Int64("size", info.Size),
	)
	return s.Location(id), nil
}

// ensureBucket creates the bucket on first use. Only success is remembered,
// so a failed or cancelled check is retried by the next Put. The check runs
// under its own timeout, detached from the caller's cancellation.
func (s *MinioStore) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bucketCheckTimeout)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("creating bucket %s: %w", s.bucket, err)
		}
		s.log.Info("created bucket", zap.String("bucket", s.bucket))
	}
	s.bucketReady = true
	return nil
}
