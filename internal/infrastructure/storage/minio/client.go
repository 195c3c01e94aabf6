// Package minio stores task and accrual attachments in an S3-compatible
// object store.
package minio

import (
	"context"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/KeyIP-Docket/internal/config"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// ObjectAPI is the part of *minio.Client the file store calls.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

var _ ObjectAPI = (*minio.Client)(nil)

const (
	defaultRegion        = "us-east-1"
	defaultPresignExpiry = time.Hour
	defaultMaxFileSize   = 32 << 20
	connectTimeout       = 10 * time.Second
)

func applyDefaults(cfg *config.MinIOConfig) {
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = defaultPresignExpiry
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}
}

// Connect dials the endpoint in cfg, makes sure the bucket exists and
// returns a FileStore on it.
func Connect(cfg config.MinIOConfig, log logging.Logger) (*FileStore, error) {
	applyDefaults(&cfg)
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create minio client")
	}

	fs := NewFileStore(client, cfg, log)
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := fs.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	fs.logger.Info("MinIO file store ready",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket))
	return fs, nil
}

// FileStore keeps uploaded files as objects in a single bucket. Object
// names are the logical paths the services pass in.
type FileStore struct {
	api    ObjectAPI
	cfg    config.MinIOConfig
	logger logging.Logger

	mu      sync.Mutex
	ensured bool
}

// NewFileStore wraps api. It does not contact the server.
func NewFileStore(api ObjectAPI, cfg config.MinIOConfig, log logging.Logger) *FileStore {
	applyDefaults(&cfg)
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &FileStore{api: api, cfg: cfg, logger: log.Named("minio")}
}

// EnsureBucket creates the bucket when it is missing. Once it has succeeded
// later calls return immediately.
func (s *FileStore) EnsureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}
	exists, err := s.api.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCodeExternalService, "failed to check bucket %s", s.cfg.Bucket)
	}
	if !exists {
		if err := s.api.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return errors.Wrapf(err, errors.ErrCodeExternalService, "failed to create bucket %s", s.cfg.Bucket)
		}
		s.logger.Info("Created bucket", logging.String("bucket", s.cfg.Bucket))
	}
	s.ensured = true
	return nil
}

// Ping reports whether the bucket is reachable.
func (s *FileStore) Ping(ctx context.Context) error {
	if _, err := s.api.BucketExists(ctx, s.cfg.Bucket); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "object store unreachable")
	}
	return nil
}

//Personal.AI order the ending
