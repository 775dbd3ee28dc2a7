package storage

import (
	"context"
	"fmt"
	"strings"

	"admix-studio/internal/storage/filesystem"
	"admix-studio/internal/storage/garage"
	"admix-studio/internal/storage/minio"
	"admix-studio/pkg/storage"
)

// NewStorage crée une nouvelle instance de storage basée sur la configuration
func NewStorage(ctx context.Context, config *storage.StorageConfig) (storage.Storage, error) {
	switch config.Type {
	case "filesystem":
		return filesystem.NewFilesystemStorage(config.BasePath, config.PublicBaseURL)
	case "garage":
		return garage.NewGarageStorage(ctx, config)
	case "minio":
		return minio.NewMinioStorage(ctx, config)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", config.Type)
	}
}

// NewDurableStorage storage des synthèses et des échantillons. Les URLs sont
// enregistrées en base et servies pendant toute la rétention : une URL
// publique stable est obligatoire, une URL présignée expirerait avant.
func NewDurableStorage(ctx context.Context, config *storage.StorageConfig) (storage.Storage, error) {
	if strings.TrimSpace(config.PublicBaseURL) == "" {
		return nil, fmt.Errorf("durable %s storage requires a public base URL (STORAGE_PUBLIC_URL)", config.Type)
	}
	return NewStorage(ctx, config)
}
