// Package storage provides an S3-compatible object storage adapter (Cloudflare R2).
// Callers only generate signed URLs, check existence and delete; binaries never pass
// through the API.
package storage

import (
	"context"
	"time"
)

// PresignedURL contains the URL and metadata for a presigned upload/download operation.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ObjectStore defines the storage operations the application needs.
type ObjectStore interface {
	// SignedUploadURL creates a presigned PUT URL for key.
	SignedUploadURL(ctx context.Context, key, contentType string) (*PresignedURL, error)

	// SignedDownloadURL creates a presigned GET URL valid for ttl. A non-empty
	// filename is sent back as the attachment name.
	SignedDownloadURL(ctx context.Context, key string, ttl time.Duration, filename string) (*PresignedURL, error)

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object under key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetStorageEndpoint() string
	GetStorageAccessKey() string
	GetStorageSecretKey() string
	GetStorageUseSSL() bool
	GetStorageRegion() string
	GetStorageBucket() string
	GetStorageMaxFileSize() int64
	IsStorageEnabled() bool
}
