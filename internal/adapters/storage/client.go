package storage

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	// PresignedURLTTL is the default expiration time for presigned upload URLs.
	PresignedURLTTL = 15 * time.Minute
	// maxPresignTTL is the S3 limit for presigned URLs.
	maxPresignTTL = 7 * 24 * time.Hour
)

// R2Service implements ObjectStore against Cloudflare R2 using the MinIO client.
type R2Service struct {
	client      *minio.Client
	bucket      string
	maxFileSize int64
}

// NewR2Service creates a storage service bound to the configured bucket.
func NewR2Service(cfg Config) (*R2Service, error) {
	if !cfg.IsStorageEnabled() {
		return nil, fmt.Errorf("object storage is not configured")
	}

	client, err := minio.New(cfg.GetStorageEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetStorageAccessKey(), cfg.GetStorageSecretKey(), ""),
		Secure: cfg.GetStorageUseSSL(),
		Region: cfg.GetStorageRegion(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &R2Service{
		client:      client,
		bucket:      cfg.GetStorageBucket(),
		maxFileSize: cfg.GetStorageMaxFileSize(),
	}, nil
}

// SignedUploadURL creates a presigned PUT URL for key.
func (s *R2Service) SignedUploadURL(ctx context.Context, key, contentType string) (*PresignedURL, error) {
	if err := ValidateContentType(contentType); err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(PresignedURLTTL)
	presignedURL, err := s.client.PresignedPutObject(ctx, s.bucket, key, PresignedURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned upload URL: %w", err)
	}

	return &PresignedURL{
		URL:       presignedURL.String(),
		FileKey:   key,
		ExpiresAt: expiresAt,
	}, nil
}

// SignedDownloadURL creates a presigned GET URL for key.
func (s *R2Service) SignedDownloadURL(ctx context.Context, key string, ttl time.Duration, filename string) (*PresignedURL, error) {
	if ttl <= 0 {
		ttl = PresignedURLTTL
	}
	if ttl > maxPresignTTL {
		ttl = maxPresignTTL
	}

	reqParams := make(url.Values)
	if filename != "" {
		reqParams.Set("response-content-disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	}

	expiresAt := time.Now().Add(ttl)
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, reqParams)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return &PresignedURL{
		URL:       presignedURL.String(),
		FileKey:   key,
		ExpiresAt: expiresAt,
	}, nil
}

// Exists stats the object. A NoSuchKey response means false, any other error is returned.
func (s *R2Service) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object %s: %w", key, err)
}

// Delete removes an object from storage.
func (s *R2Service) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// MaxFileSize returns the configured maximum file size in bytes.
func (s *R2Service) MaxFileSize() int64 {
	return s.maxFileSize
}
