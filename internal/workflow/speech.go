package workflow

import (
	"context"
	"time"
	"unicode/utf8"

	"admix-studio/internal/apperrors"
	"admix-studio/internal/queue"
	"admix-studio/internal/storage"
	"admix-studio/pkg/models"

	"github.com/google/uuid"
)

const WorkflowTextToSpeech = "text-to-speech"

type SpeechWorkflow struct {
	store   SpeechStore
	scripts ScriptStore
	synth   SpeechSynthesizer
	media   Media
	now     func() time.Time
}

func NewSpeechWorkflow(store SpeechStore, scripts ScriptStore, synth SpeechSynthesizer, media Media) *SpeechWorkflow {
	return &SpeechWorkflow{store: store, scripts: scripts, synth: synth, media: media, now: time.Now}
}

func (w *SpeechWorkflow) Definition() Definition {
	return Definition{Name: WorkflowTextToSpeech, Event: queue.EventTextToSpeech, Handler: w.Run}
}

func parseOptionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.Validation("invalid id %q", raw)
	}
	return &id, nil
}

func (w *SpeechWorkflow) Run(ctx context.Context, run *Run, event queue.Event) (interface{}, error) {
	var req SpeechRequest
	if err := event.Decode(&req); err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	speechID, err := uuid.Parse(run.ID)
	if err != nil {
		return nil, apperrors.Validation("run id %q is not a uuid", run.ID)
	}
	if utf8.RuneCountInString(req.Text) > models.MaxSpeechTextLength {
		return nil, apperrors.Validation("text exceeds %d characters", models.MaxSpeechTextLength)
	}
	profileID, err := parseOptionalUUID(req.VoiceProfileID)
	if err != nil {
		return nil, err
	}
	scriptID, err := parseOptionalUUID(req.ScriptID)
	if err != nil {
		return nil, err
	}

	_, err = Step(ctx, run, "create-speech-record", func(ctx context.Context) (*models.SpeechJob, error) {
		return w.store.CreateSpeech(ctx, &models.SpeechJob{
			ID:              speechID,
			UserID:          req.UserID,
			Text:            req.Text,
			Language:        req.Language,
			VoiceRef:        req.VoiceID,
			VoiceProfileID:  profileID,
			ScriptID:        scriptID,
			Stability:       req.Settings.Stability,
			SimilarityBoost: req.Settings.SimilarityBoost,
			Style:           req.Settings.Style,
			UseSpeakerBoost: req.Settings.UseSpeakerBoost,
			Status:          models.StatusProcessing,
			ExpiresAt:       w.now().Add(models.SpeechRetention),
		})
	})
	if err != nil {
		return nil, err
	}

	result, err := w.synthesize(ctx, run, speechID, scriptID, req)
	if err != nil {
		return nil, Fail(ctx, run, "update-speech-error", err, func(ctx context.Context, message string) error {
			return w.store.FailSpeech(ctx, speechID, message)
		})
	}
	return result, nil
}

func (w *SpeechWorkflow) synthesize(ctx context.Context, run *Run, speechID uuid.UUID, scriptID *uuid.UUID, req SpeechRequest) (*models.SpeechResult, error) {
	// Synthèse et upload dans la même étape : aucun audio généré sans référence stockée
	upload, err := Step(ctx, run, "generate-and-upload", func(ctx context.Context) (*storage.UploadResult, error) {
		audio, err := w.synth.Synthesize(ctx, req.Text, req.VoiceID, req.Settings)
		if err != nil {
			return nil, err
		}
		return w.media.UploadSpeech(ctx, req.UserID, speechID.String(), audio)
	})
	if err != nil {
		return nil, err
	}

	if err := Do(ctx, run, "update-speech-record", func(ctx context.Context) error {
		return w.store.CompleteSpeech(ctx, speechID, upload.URL, upload.Key, upload.Size)
	}); err != nil {
		return nil, err
	}

	if scriptID != nil {
		if err := Do(ctx, run, "update-script-voice-status", func(ctx context.Context) error {
			return w.scripts.MarkVoiceGenerated(ctx, *scriptID)
		}); err != nil {
			return nil, err
		}
	}

	return &models.SpeechResult{
		ID:       speechID,
		AudioURL: upload.URL,
		FileSize: upload.Size,
		Language: req.Language,
	}, nil
}
