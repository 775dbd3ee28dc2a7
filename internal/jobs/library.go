package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"admix-studio/internal/apperrors"
	"admix-studio/internal/storage"
	"admix-studio/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
)

const (
	DefaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type SpeechLibrary interface {
	ListCompletedByUser(ctx context.Context, userID string, page, limit int) ([]models.SpeechJob, int64, error)
	GetSpeech(ctx context.Context, id uuid.UUID) (*models.SpeechJob, error)
	DeleteSpeeches(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type VoiceCatalog interface {
	ListVoices(ctx context.Context, userID string) ([]models.VoiceProfile, error)
	GetVoice(ctx context.Context, id uuid.UUID) (*models.VoiceProfile, error)
	GetVoiceByExternalID(ctx context.Context, externalID string) (*models.VoiceProfile, error)
	CreateVoiceWithSamples(ctx context.Context, profile *models.VoiceProfile) (*models.VoiceProfile, error)
	DeleteVoice(ctx context.Context, id uuid.UUID) error
}

type VideoHistoryReader interface {
	ListVideosByUser(ctx context.Context, userID string, page, limit int) ([]models.VideoJob, int64, error)
}

type ObjectDeleter interface {
	DeleteDurable(ctx context.Context, key string) error
}

// SpeechHistoryPage page de l'historique des synthèses
type SpeechHistoryPage struct {
	Speeches   []models.SpeechJob    `json:"speeches"`
	Pagination models.PaginationInfo `json:"pagination"`
}

// VideoHistoryPage page de l'historique des vidéos
type VideoHistoryPage struct {
	Videos     []models.VideoJob     `json:"videos"`
	Pagination models.PaginationInfo `json:"pagination"`
}

// VoiceRegistration voix déjà présente chez le fournisseur, ajoutée au catalogue
type VoiceRegistration struct {
	VoiceID     string            `json:"voiceId"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Language    string            `json:"language"`
	Accent      string            `json:"accent"`
	Labels      map[string]string `json:"labels"`
}

// LibraryService historique, catalogue de voix et suppressions à la demande
type LibraryService struct {
	speeches SpeechLibrary
	voices   VoiceCatalog
	videos   VideoHistoryReader
	objects  ObjectDeleter
}

func NewLibraryService(speeches SpeechLibrary, voices VoiceCatalog, videos VideoHistoryReader, objects ObjectDeleter) *LibraryService {
	return &LibraryService{speeches: speeches, voices: voices, videos: videos, objects: objects}
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return page, limit
}

func (s *LibraryService) SpeechHistory(ctx context.Context, userID string, page, limit int) (*SpeechHistoryPage, error) {
	page, limit = clampPage(page, limit)

	speeches, total, err := s.speeches.ListCompletedByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	if speeches == nil {
		speeches = []models.SpeechJob{}
	}
	return &SpeechHistoryPage{
		Speeches:   speeches,
		Pagination: models.NewPaginationInfo(page, limit, int(total)),
	}, nil
}

func (s *LibraryService) VideoHistory(ctx context.Context, userID string, page, limit int) (*VideoHistoryPage, error) {
	page, limit = clampPage(page, limit)

	videos, total, err := s.videos.ListVideosByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []models.VideoJob{}
	}
	return &VideoHistoryPage{
		Videos:     videos,
		Pagination: models.NewPaginationInfo(page, limit, int(total)),
	}, nil
}

func (s *LibraryService) ListVoices(ctx context.Context, userID string) ([]models.VoiceProfile, error) {
	voices, err := s.voices.ListVoices(ctx, userID)
	if err != nil {
		return nil, err
	}
	if voices == nil {
		voices = []models.VoiceProfile{}
	}
	return voices, nil
}

// AddVoice enregistre une voix existante du fournisseur. Un identifiant
// fournisseur déjà connu est un conflit.
func (s *LibraryService) AddVoice(ctx context.Context, userID string, req VoiceRegistration) (*models.VoiceProfile, error) {
	req.VoiceID = strings.TrimSpace(req.VoiceID)
	req.Name = strings.TrimSpace(req.Name)
	if req.VoiceID == "" || req.Name == "" {
		return nil, apperrors.Validation("voiceId and name are required")
	}

	_, err := s.voices.GetVoiceByExternalID(ctx, req.VoiceID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: voice %s already exists", apperrors.ErrConflict, req.VoiceID)
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = "multilingual"
	}
	labels := req.Labels
	if labels == nil {
		labels = map[string]string{}
	}
	rawLabels, err := json.Marshal(labels)
	if err != nil {
		return nil, apperrors.Validation("invalid labels: %v", err)
	}

	return s.voices.CreateVoiceWithSamples(ctx, &models.VoiceProfile{
		ExternalVoiceID: req.VoiceID,
		UserID:          userID,
		Name:            req.Name,
		Description:     req.Description,
		Language:        language,
		Accent:          req.Accent,
		Labels:          datatypes.JSON(rawLabels),
		IsCustom:        false,
	})
}

// DeleteSpeech supprime une synthèse de l'utilisateur : l'audio d'abord
// (échec non bloquant), puis la ligne. Une synthèse d'un autre utilisateur
// est introuvable.
func (s *LibraryService) DeleteSpeech(ctx context.Context, userID string, id uuid.UUID) error {
	speech, err := s.speeches.GetSpeech(ctx, id)
	if err != nil {
		return err
	}
	if speech.UserID != userID {
		return apperrors.NotFound("speech", id.String())
	}

	s.deleteObject(ctx, speech.AudioKey, speech.AudioLocation)
	_, err = s.speeches.DeleteSpeeches(ctx, []uuid.UUID{id})
	return err
}

// DeleteVoice supprime une voix et ses échantillons. userID vide : appel
// anonyme, pas de contrôle de propriétaire.
func (s *LibraryService) DeleteVoice(ctx context.Context, userID string, id uuid.UUID) error {
	voice, err := s.voices.GetVoice(ctx, id)
	if err != nil {
		return err
	}
	if userID != "" && voice.UserID != "" && voice.UserID != userID {
		return fmt.Errorf("%w: not authorized to delete this voice", apperrors.ErrForbidden)
	}

	for _, sample := range voice.Samples {
		s.deleteObject(ctx, sample.AudioKey, sample.AudioLocation)
	}
	return s.voices.DeleteVoice(ctx, id)
}

func (s *LibraryService) deleteObject(ctx context.Context, key, location string) {
	if key == "" {
		key = storage.KeyFromURL(location)
	}
	if key == "" {
		return
	}
	if err := s.objects.DeleteDurable(ctx, key); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("LibraryService: could not delete stored object")
	}
}
