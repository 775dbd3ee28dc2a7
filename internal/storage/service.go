package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"admix-studio/internal/apperrors"
	"admix-studio/pkg/storage"
)

// UploadResult décrit un objet écrit dans le storage
type UploadResult struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// MediaService associe les artefacts audio aux clés de storage. Le storage
// durable garde les synthèses et les échantillons, le storage média garde
// la narration transitoire des vidéos.
type MediaService struct {
	durable   storage.Storage
	transient storage.Storage
	now       func() time.Time
}

func NewMediaService(durable, transient storage.Storage) *MediaService {
	if transient == nil {
		transient = durable
	}
	return &MediaService{
		durable:   durable,
		transient: transient,
		now:       time.Now,
	}
}

func SpeechKey(userID, speechID string, at time.Time) string {
	return fmt.Sprintf("speeches/%s/speech-%s-%d.mp3", userID, speechID, at.UnixMilli())
}

func VoiceSampleKey(userID string, at time.Time, index int) string {
	return fmt.Sprintf("voice-samples/%s/%d_%d.mp3", userID, at.UnixMilli(), index)
}

func NarrationKey(videoID string) string {
	return fmt.Sprintf("narration/audio_%s.mp3", videoID)
}

func put(ctx context.Context, s storage.Storage, key string, data []byte) (*UploadResult, error) {
	if err := s.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, apperrors.Storage("upload", key, err)
	}
	u, err := s.GetURL(ctx, key)
	if err != nil {
		return nil, apperrors.Storage("url", key, err)
	}
	return &UploadResult{URL: u, Key: key, Size: int64(len(data))}, nil
}

// UploadSpeech stocke l'audio d'une synthèse
func (s *MediaService) UploadSpeech(ctx context.Context, userID, speechID string, audio []byte) (*UploadResult, error) {
	return put(ctx, s.durable, SpeechKey(userID, speechID, s.now()), audio)
}

// UploadVoiceSample stocke l'échantillon index d'un clonage
func (s *MediaService) UploadVoiceSample(ctx context.Context, userID string, index int, audio []byte) (*UploadResult, error) {
	return put(ctx, s.durable, VoiceSampleKey(userID, s.now(), index), audio)
}

// UploadNarration stocke l'audio de narration d'une vidéo dans le storage média
func (s *MediaService) UploadNarration(ctx context.Context, videoID string, audio []byte) (*UploadResult, error) {
	return put(ctx, s.transient, NarrationKey(videoID), audio)
}

// DeleteNarration supprime l'audio de narration une fois la vidéo terminée
func (s *MediaService) DeleteNarration(ctx context.Context, videoID string) error {
	key := NarrationKey(videoID)
	return apperrors.Storage("delete", key, s.transient.Delete(ctx, key))
}

// DeleteDurable supprime un objet du storage durable
func (s *MediaService) DeleteDurable(ctx context.Context, key string) error {
	return apperrors.Storage("delete", key, s.durable.Delete(ctx, key))
}

// Download lit un objet durable en entier
func (s *MediaService) Download(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.durable.Download(ctx, key)
	if err != nil {
		return nil, apperrors.Storage("download", key, err)
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.Storage("download", key, err)
	}
	return data, nil
}

// KeyFromURL retrouve la clé d'un objet à partir de son URL publique, pour
// les anciennes lignes qui n'ont pas gardé la clé.
func KeyFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return ""
	}
	path := strings.TrimPrefix(u.Path, "/")
	for _, root := range []string{"speeches/", "voice-samples/", "narration/"} {
		if idx := strings.Index(path, root); idx >= 0 {
			return path[idx:]
		}
	}
	return path
}
