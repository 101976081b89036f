// Package storage provides access to S3-compatible object storage.
package storage

import (
	"context"
	"io"
)

// Object is a fully downloaded storage object.
type Object struct {
	Key         string
	FileName    string
	ContentType string
	Content     []byte
}

// StorageService defines the object storage operations used by the application.
type StorageService interface {
	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// DownloadFile streams a file from storage.
	// The caller is responsible for closing the returned io.ReadCloser.
	DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error)

	// FetchObject downloads a whole object after checking its size and content type.
	FetchObject(ctx context.Context, bucket, fileKey string) (Object, error)
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}
