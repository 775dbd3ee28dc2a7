package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"admix-studio/pkg/storage"
)

// PresignExpiry durée de validité des URLs remises aux fournisseurs
const PresignExpiry = 2 * time.Hour

type minioStorage struct {
	client *minio.Client
	bucket string
}

// NewMinioStorage crée un storage MinIO pour les médias transitoires
func NewMinioStorage(ctx context.Context, cfg *storage.StorageConfig) (storage.Storage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	m := &minioStorage{client: client, bucket: cfg.Bucket}
	if err := m.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}
	return m, nil
}

func (m *minioStorage) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
}

func cleanKey(path string) string {
	return strings.TrimPrefix(path, "/")
}

func (m *minioStorage) Upload(ctx context.Context, path string, data io.Reader) error {
	key := cleanKey(path)
	_, err := m.client.PutObject(ctx, m.bucket, key, data, -1, minio.PutObjectOptions{
		ContentType: "audio/mpeg",
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s to bucket %s: %w", key, m.bucket, err)
	}
	return nil
}

func (m *minioStorage) Download(ctx context.Context, path string) (io.Reader, error) {
	key := cleanKey(path)
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to download object %s from bucket %s: %w", key, m.bucket, err)
	}
	// GetObject est paresseux, Stat révèle une clé absente
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("failed to download object %s from bucket %s: %w", key, m.bucket, err)
	}
	return obj, nil
}

func (m *minioStorage) Exists(ctx context.Context, path string) (bool, error) {
	key := cleanKey(path)
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence %s: %w", key, err)
	}
	return true, nil
}

func (m *minioStorage) Delete(ctx context.Context, path string) error {
	key := cleanKey(path)
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s from bucket %s: %w", key, m.bucket, err)
	}
	return nil
}

func (m *minioStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    cleanKey(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (m *minioStorage) GetURL(ctx context.Context, path string) (string, error) {
	key := cleanKey(path)
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, PresignExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL for %s: %w", key, err)
	}
	return u.String(), nil
}
