package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOService implements StorageService using MinIO.
type MinIOService struct {
	client      *minio.Client
	maxFileSize int64
}

// NewMinIOService creates a new MinIO storage service.
func NewMinIOService(cfg Config) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOService{
		client:      client,
		maxFileSize: cfg.GetMinIOMaxFileSize(),
	}, nil
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (s *MinIOService) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	return nil
}

// DownloadFile downloads a file directly from storage.
// The caller is responsible for closing the returned io.ReadCloser.
func (s *MinIOService) DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, fileKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", fileKey, err)
	}
	return obj, nil
}

// FetchObject stats the object, checks it against the upload rules and reads it
// into memory.
func (s *MinIOService) FetchObject(ctx context.Context, bucket, fileKey string) (Object, error) {
	info, err := s.client.StatObject(ctx, bucket, fileKey, minio.StatObjectOptions{})
	if err != nil {
		return Object{}, fmt.Errorf("failed to stat object %s: %w", fileKey, err)
	}
	if err := ValidateFileSize(info.Size, s.maxFileSize); err != nil {
		return Object{}, fmt.Errorf("object %s: %w", fileKey, err)
	}
	if err := ValidateContentType(info.ContentType); err != nil {
		return Object{}, fmt.Errorf("object %s: %w", fileKey, err)
	}

	reader, err := s.DownloadFile(ctx, bucket, fileKey)
	if err != nil {
		return Object{}, err
	}
	defer func() { _ = reader.Close() }()

	content, err := io.ReadAll(io.LimitReader(reader, info.Size+1))
	if err != nil {
		return Object{}, fmt.Errorf("failed to read object %s: %w", fileKey, err)
	}

	return Object{
		Key:         fileKey,
		FileName:    DisplayFileName(fileKey),
		ContentType: info.ContentType,
		Content:     content,
	}, nil
}

// DisplayFileName strips the folder and the upload suffix from a file key, so
// "tenant/devis_1a2b3c4d.pdf" becomes "devis.pdf".
func DisplayFileName(fileKey string) string {
	name := path.Base(fileKey)
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if i := strings.LastIndex(base, "_"); i > 0 && len(base)-i-1 == 8 {
		base = base[:i]
	}
	return base + ext
}
