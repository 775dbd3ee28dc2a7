package workflow

import (
	"context"
	"time"

	"admix-studio/internal/gateway/elevenlabs"
	"admix-studio/internal/gateway/heygen"
	"admix-studio/internal/storage"
	"admix-studio/pkg/models"

	"github.com/google/uuid"
)

// Fournisseurs externes

type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string, settings models.VoiceSettings) ([]byte, error)
}

type VoiceCloner interface {
	CloneVoice(ctx context.Context, samples []elevenlabs.SampleFile, meta elevenlabs.VoiceMetadata) (string, error)
}

type VideoProvider interface {
	Submit(ctx context.Context, req heygen.VideoRequest) (string, error)
	PollStatus(ctx context.Context, videoID string) (*heygen.VideoStatus, error)
}

// Media stockage des artefacts audio
type Media interface {
	UploadSpeech(ctx context.Context, userID, speechID string, audio []byte) (*storage.UploadResult, error)
	UploadVoiceSample(ctx context.Context, userID string, index int, audio []byte) (*storage.UploadResult, error)
	UploadNarration(ctx context.Context, videoID string, audio []byte) (*storage.UploadResult, error)
	DeleteNarration(ctx context.Context, videoID string) error
	DeleteDurable(ctx context.Context, key string) error
	Download(ctx context.Context, key string) ([]byte, error)
}

// Dépôts. Chaque création est idempotente pour supporter le rejeu d'une
// étape interrompue avant son checkpoint.

type ContentStore interface {
	CreateContent(ctx context.Context, job *models.ContentJob) (*models.ContentJob, error)
	CompleteContent(ctx context.Context, runID, text, language string) error
	FailContent(ctx context.Context, runID, message string) error
}

type SpeechStore interface {
	CreateSpeech(ctx context.Context, job *models.SpeechJob) (*models.SpeechJob, error)
	CompleteSpeech(ctx context.Context, id uuid.UUID, location, key string, size int64) error
	FailSpeech(ctx context.Context, id uuid.UUID, message string) error
	ListExpiredSpeeches(ctx context.Context, now time.Time) ([]models.SpeechJob, error)
	DeleteSpeeches(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type ScriptStore interface {
	MarkVoiceGenerated(ctx context.Context, id uuid.UUID) error
	DeleteVoicedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type VoiceStore interface {
	CreateVoiceWithSamples(ctx context.Context, profile *models.VoiceProfile) (*models.VoiceProfile, error)
}

type VideoStore interface {
	CreateVideo(ctx context.Context, job *models.VideoJob) (*models.VideoJob, error)
	MarkVideoSubmitted(ctx context.Context, id uuid.UUID, externalID string) error
	CompleteVideo(ctx context.Context, id uuid.UUID, videoURL, thumbnailURL string, duration float64, deleteAt time.Time) error
	FailVideo(ctx context.Context, id uuid.UUID, message string) error
}
