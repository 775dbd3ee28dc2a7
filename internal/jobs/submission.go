package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"admix-studio/internal/apperrors"
	"admix-studio/internal/queue"
	"admix-studio/internal/workflow"
	"admix-studio/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Publisher publie un événement de workflow
type Publisher interface {
	Publish(ctx context.Context, event queue.Event) error
}

type VoiceLookup interface {
	GetVoiceByExternalID(ctx context.Context, externalID string) (*models.VoiceProfile, error)
}

type ContentSubmission struct {
	UserMessage string `json:"userMessage"`
	QuickAction string `json:"quickAction"`
}

type SpeechSubmission struct {
	Text              string                     `json:"text"`
	VoiceID           string                     `json:"voiceId"`
	Language          string                     `json:"language"`
	VoiceSettings     *models.VoiceSettingsInput `json:"voiceSettings"`
	IsElevenLabsVoice bool                       `json:"isElevenLabsVoice"`
	ScriptID          string                     `json:"scriptId"`
}

type VoiceCloneSubmission struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Labels      map[string]string `json:"labels"`
	Language    string            `json:"language"`
	Accent      string            `json:"accent"`
	// FilePaths fichiers déjà écrits dans le répertoire d'upload
	FilePaths []string `json:"-"`
}

type VideoSubmission struct {
	AvatarID string `json:"avatarId"`
	VoiceID  string `json:"voiceId"`
	Script   string `json:"script"`
	Duration string `json:"duration"`
}

// SubmissionService valide les demandes, attribue l'identifiant du run et
// publie l'événement. Rien n'est publié si la validation échoue.
type SubmissionService struct {
	publisher Publisher
	voices    VoiceLookup
	tracer    trace.Tracer
	newID     func() string
}

func NewSubmissionService(publisher Publisher, voices VoiceLookup) *SubmissionService {
	return &SubmissionService{
		publisher: publisher,
		voices:    voices,
		tracer:    otel.Tracer("admix-studio/jobs"),
		newID:     uuid.NewString,
	}
}

func (s *SubmissionService) submit(ctx context.Context, name, statusPath, message string, data interface{}) (*models.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SubmissionService.Submit", trace.WithAttributes(attribute.String("event", name)))
	defer span.End()

	id := s.newID()
	event, err := queue.NewEvent(id, name, data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Str("event", name).Msg("SubmissionService.Submit: failed to publish event")
		return nil, fmt.Errorf("%w: publish %s: %w", apperrors.ErrTransient, name, err)
	}

	zerolog.Ctx(ctx).Info().Str("event", name).Str("run_id", id).Msg("SubmissionService.Submit: workflow requested")
	return &models.SubmissionResponse{
		JobID:     id,
		StatusURL: fmt.Sprintf(statusPath, id),
		Status:    "processing",
		Message:   message,
	}, nil
}

func (s *SubmissionService) SubmitContent(ctx context.Context, userID string, req ContentSubmission) (*models.SubmissionResponse, error) {
	message := strings.TrimSpace(req.UserMessage)
	if message == "" {
		return nil, apperrors.Validation("userMessage is required")
	}
	contentType := models.ContentCustom
	if req.QuickAction != "" {
		ct, ok := models.ParseContentType(req.QuickAction)
		if !ok {
			return nil, apperrors.Validation("unknown quickAction %q", req.QuickAction)
		}
		contentType = ct
	}

	return s.submit(ctx, queue.EventContentOptimize, "/api/v1/agent/generated-result/%s", "Content generation started", workflow.ContentRequest{
		UserID:      userID,
		UserMessage: message,
		QuickAction: contentType,
	})
}

func (s *SubmissionService) SubmitSpeech(ctx context.Context, userID string, req SpeechSubmission) (*models.SubmissionResponse, error) {
	if req.Text == "" || req.VoiceID == "" {
		return nil, apperrors.Validation("text and voiceId are required")
	}
	if utf8.RuneCountInString(req.Text) > models.MaxSpeechTextLength {
		return nil, apperrors.Validation("text exceeds maximum length of %d characters", models.MaxSpeechTextLength)
	}
	if req.ScriptID != "" {
		if _, err := uuid.Parse(req.ScriptID); err != nil {
			return nil, apperrors.Validation("invalid scriptId %q", req.ScriptID)
		}
	}

	// une voix personnalisée doit exister, une voix du fournisseur est liée si connue
	var profileID string
	voice, err := s.voices.GetVoiceByExternalID(ctx, req.VoiceID)
	switch {
	case err == nil:
		profileID = voice.ID.String()
	case errors.Is(err, apperrors.ErrNotFound):
		if !req.IsElevenLabsVoice {
			return nil, apperrors.NotFound("custom voice", req.VoiceID)
		}
	default:
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = "multilingual"
	}

	return s.submit(ctx, queue.EventTextToSpeech, "/api/v1/speech/%s/status", "Speech generation started", workflow.SpeechRequest{
		UserID:         userID,
		Text:           req.Text,
		VoiceID:        req.VoiceID,
		VoiceProfileID: profileID,
		Language:       language,
		ScriptID:       req.ScriptID,
		Settings:       req.VoiceSettings.WithDefaults(),
	})
}

func (s *SubmissionService) SubmitVoiceClone(ctx context.Context, userID string, req VoiceCloneSubmission) (*models.SubmissionResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.Validation("voice name is required")
	}
	if len(req.FilePaths) == 0 {
		return nil, apperrors.Validation("at least one audio file is required")
	}
	if len(req.FilePaths) > models.MaxVoiceSamples {
		return nil, apperrors.Validation("maximum %d audio files allowed", models.MaxVoiceSamples)
	}
	language := req.Language
	if language == "" {
		language = "multilingual"
	}

	return s.submit(ctx, queue.EventVoiceClone, "/api/v1/runs/%s", "Voice creation started", workflow.VoiceCloneRequest{
		UserID:         userID,
		Name:           req.Name,
		Description:    req.Description,
		Labels:         req.Labels,
		Language:       language,
		Accent:         req.Accent,
		AudioFilePaths: req.FilePaths,
	})
}

func (s *SubmissionService) SubmitVideo(ctx context.Context, userID string, req VideoSubmission) (*models.SubmissionResponse, error) {
	if req.AvatarID == "" || req.VoiceID == "" || strings.TrimSpace(req.Script) == "" {
		return nil, apperrors.Validation("avatarId, voiceId and script are required")
	}
	duration := req.Duration
	if duration == "" {
		duration = "Auto"
	}

	return s.submit(ctx, queue.EventVideoGenerate, "/api/v1/video/%s/status", "Video generation started", workflow.VideoRequest{
		UserID:   userID,
		AvatarID: req.AvatarID,
		VoiceID:  req.VoiceID,
		Script:   req.Script,
		Duration: duration,
	})
}
