package storage

import (
	"context"
	"io"
)

// Storage définit l'interface pour le stockage des fichiers audio et média
type Storage interface {
	// Upload un fichier vers le storage
	Upload(ctx context.Context, path string, data io.Reader) error

	// Download un fichier depuis le storage
	Download(ctx context.Context, path string) (io.Reader, error)

	// Exists vérifie si un fichier existe
	Exists(ctx context.Context, path string) (bool, error)

	// Delete supprime un fichier, sans erreur s'il est déjà absent
	Delete(ctx context.Context, path string) error

	// List liste les fichiers avec un préfixe donné
	List(ctx context.Context, prefix string) ([]string, error)

	// GetURL retourne l'URL d'accès à un fichier, consommable par les fournisseurs externes
	GetURL(ctx context.Context, path string) (string, error)
}

// StorageConfig contient la configuration du storage
type StorageConfig struct {
	Type          string // "filesystem", "garage" ou "minio"
	BasePath      string // Pour filesystem
	PublicBaseURL string // Préfixe des URLs publiques
	Endpoint      string // Pour S3/Garage/MinIO
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
}
