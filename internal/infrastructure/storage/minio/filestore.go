package minio

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/turtacn/KeyIP-Docket/internal/application/tasking"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

var _ tasking.FileStore = (*FileStore)(nil)

const defaultContentType = "application/octet-stream"

// Upload stores file under path and returns its document record, with a
// presigned URL valid for the configured expiry.
func (s *FileStore) Upload(ctx context.Context, path string, file common.FileUpload) (common.Document, error) {
	object := strings.TrimLeft(path, "/")
	if object == "" {
		return common.Document{}, errors.InvalidParam("upload path is required")
	}
	size := int64(len(file.Content))
	if size > s.cfg.MaxFileSize {
		return common.Document{}, errors.Newf(errors.ErrCodeFileTooLarge,
			"file %s is %d bytes, limit is %d", file.Name, size, s.cfg.MaxFileSize)
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return common.Document{}, err
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	info, err := s.api.PutObject(ctx, s.cfg.Bucket, object, bytes.NewReader(file.Content), size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"original-name": common.SafeFileName(file.Name),
		},
	})
	if err != nil {
		s.logger.Error("object upload failed",
			logging.String("object", object),
			logging.Err(err))
		return common.Document{}, errors.Wrapf(err, errors.ErrCodeFileUploadFailed, "failed to upload %s", file.Name)
	}

	u, err := s.presign(ctx, object)
	if err != nil {
		return common.Document{}, err
	}
	s.logger.Debug("object uploaded",
		logging.String("object", object),
		logging.Int64("size", info.Size))
	return common.Document{
		ID:          uuid.NewString(),
		Name:        file.Name,
		Path:        object,
		URL:         u,
		ContentType: contentType,
		Size:        size,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// ResolveURL returns a fresh presigned URL for a stored path. Missing
// objects yield FIL_003.
func (s *FileStore) ResolveURL(ctx context.Context, path string) (string, error) {
	object := strings.TrimLeft(path, "/")
	if _, err := s.api.StatObject(ctx, s.cfg.Bucket, object, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return "", errors.Newf(errors.ErrCodeFileNotFound, "file %s not found", path)
		}
		return "", errors.Wrapf(err, errors.ErrCodeExternalService, "failed to stat %s", path)
	}
	return s.presign(ctx, object)
}

// Remove deletes a stored path. Removing a missing object is not an error.
func (s *FileStore) Remove(ctx context.Context, path string) error {
	object := strings.TrimLeft(path, "/")
	if err := s.api.RemoveObject(ctx, s.cfg.Bucket, object, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, errors.ErrCodeExternalService, "failed to remove %s", path)
	}
	return nil
}

func (s *FileStore) presign(ctx context.Context, object string) (string, error) {
	u, err := s.api.PresignedGetObject(ctx, s.cfg.Bucket, object, s.cfg.PresignExpiry, nil)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrCodeExternalService, "failed to presign %s", object)
	}
	return u.String(), nil
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchObject"
}

//Personal.AI order the ending
