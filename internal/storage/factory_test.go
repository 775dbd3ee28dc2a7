package storage

import (
	"context"
	"testing"

	"admix-studio/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDurableStorageRequiresPublicURL(t *testing.T) {
	ctx := context.Background()

	t.Run("garage without public url", func(t *testing.T) {
		_, err := NewDurableStorage(ctx, &storage.StorageConfig{
			Type:      "garage",
			Endpoint:  "http://localhost:3900",
			AccessKey: "a",
			SecretKey: "s",
			Bucket:    "speech-audio",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "STORAGE_PUBLIC_URL")
	})

	t.Run("filesystem without public url", func(t *testing.T) {
		_, err := NewDurableStorage(ctx, &storage.StorageConfig{Type: "filesystem", BasePath: t.TempDir(), PublicBaseURL: "  "})
		assert.Error(t, err)
	})

	t.Run("stored location is the public url", func(t *testing.T) {
		s, err := NewDurableStorage(ctx, &storage.StorageConfig{
			Type:          "filesystem",
			BasePath:      t.TempDir(),
			PublicBaseURL: "https://cdn.example.com/audio",
		})
		require.NoError(t, err)

		res, err := NewMediaService(s, nil).UploadSpeech(ctx, "u1", "s1", []byte("ID3"))
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/audio/"+res.Key, res.URL)
	})
}

func TestNewStorageUnknownType(t *testing.T) {
	_, err := NewStorage(context.Background(), &storage.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}
