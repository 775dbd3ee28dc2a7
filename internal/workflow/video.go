package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admix-studio/internal/apperrors"
	"admix-studio/internal/gateway/heygen"
	"admix-studio/internal/queue"
	"admix-studio/internal/storage"
	"admix-studio/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	WorkflowVideoGenerate = "video-generate"

	DefaultPollInterval = 30 * time.Second
	DefaultMaxPolls     = 60
)

// narrationSettings réglages fixes de la voix off des vidéos
var narrationSettings = models.VoiceSettings{
	Stability:       0.5,
	SimilarityBoost: 0.8,
	Style:           0.0,
	UseSpeakerBoost: true,
}

type VideoOptions struct {
	PollInterval time.Duration
	MaxPolls     int
	// Sleep attend d entre deux interrogations, time.Timer par défaut
	Sleep func(ctx context.Context, d time.Duration) error
}

type VideoWorkflow struct {
	store    VideoStore
	synth    SpeechSynthesizer
	media    Media
	provider VideoProvider

	pollInterval time.Duration
	maxPolls     int
	sleep        func(ctx context.Context, d time.Duration) error
	now          func() time.Time
}

func NewVideoWorkflow(store VideoStore, synth SpeechSynthesizer, media Media, provider VideoProvider, opts VideoOptions) *VideoWorkflow {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = DefaultMaxPolls
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &VideoWorkflow{
		store:        store,
		synth:        synth,
		media:        media,
		provider:     provider,
		pollInterval: opts.PollInterval,
		maxPolls:     opts.MaxPolls,
		sleep:        opts.Sleep,
		now:          time.Now,
	}
}

func (w *VideoWorkflow) Definition() Definition {
	return Definition{Name: WorkflowVideoGenerate, Event: queue.EventVideoGenerate, Long: true, Handler: w.Run}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (w *VideoWorkflow) Run(ctx context.Context, run *Run, event queue.Event) (interface{}, error) {
	var req VideoRequest
	if err := event.Decode(&req); err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	videoID, err := uuid.Parse(run.ID)
	if err != nil {
		return nil, apperrors.Validation("run id %q is not a uuid", run.ID)
	}
	duration := req.Duration
	if duration == "" {
		duration = "Auto"
	}

	_, err = Step(ctx, run, "create-video-record", func(ctx context.Context) (*models.VideoJob, error) {
		return w.store.CreateVideo(ctx, &models.VideoJob{
			ID:        videoID,
			UserID:    req.UserID,
			Status:    models.StatusPending,
			AvatarRef: req.AvatarID,
			VoiceRef:  req.VoiceID,
			Script:    req.Script,
			Duration:  duration,
			Language:  "hi",
		})
	})
	if err != nil {
		return nil, err
	}

	result, err := w.generate(ctx, run, videoID, req)
	if err != nil {
		return nil, Fail(ctx, run, "update-error-status", err, func(ctx context.Context, message string) error {
			return w.store.FailVideo(ctx, videoID, message)
		})
	}
	return result, nil
}

func (w *VideoWorkflow) generate(ctx context.Context, run *Run, videoID uuid.UUID, req VideoRequest) (*models.VideoResult, error) {
	audio, err := Step(ctx, run, "generate-and-upload-audio", func(ctx context.Context) (*storage.UploadResult, error) {
		data, err := w.synth.Synthesize(ctx, req.Script, req.VoiceID, narrationSettings)
		if err != nil {
			return nil, err
		}
		return w.media.UploadNarration(ctx, videoID.String(), data)
	})
	if err != nil {
		return nil, err
	}

	externalID, err := Step(ctx, run, "request-video-generation", func(ctx context.Context) (string, error) {
		return w.provider.Submit(ctx, heygen.VideoRequest{AvatarID: req.AvatarID, AudioURL: audio.URL})
	})
	if err != nil {
		return nil, err
	}

	if err := Do(ctx, run, "save-provider-id", func(ctx context.Context) error {
		return w.store.MarkVideoSubmitted(ctx, videoID, externalID)
	}); err != nil {
		return nil, err
	}

	status, err := w.poll(ctx, run, externalID)
	if err != nil {
		return nil, err
	}

	if err := Do(ctx, run, "save-video-url", func(ctx context.Context) error {
		deleteAt := w.now().Add(models.VideoRetention)
		return w.store.CompleteVideo(ctx, videoID, status.VideoURL, status.ThumbnailURL, status.Duration, deleteAt)
	}); err != nil {
		return nil, err
	}

	if err := Do(ctx, run, "cleanup-audio", func(ctx context.Context) error {
		if err := w.media.DeleteNarration(ctx, videoID.String()); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("VideoWorkflow: failed to cleanup narration audio")
		}
		return nil
	}); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("VideoWorkflow: cleanup-audio step failed")
	}

	return &models.VideoResult{
		ID:           videoID,
		VideoURL:     status.VideoURL,
		ThumbnailURL: status.ThumbnailURL,
		Duration:     status.Duration,
	}, nil
}

// pollOutcome résultat mémorisé d'une interrogation. Status est nil quand
// l'appel a échoué côté transport.
type pollOutcome struct {
	Status         *heygen.VideoStatus `json:"status,omitempty"`
	Failure        string              `json:"failure,omitempty"`
	TransportError string              `json:"transportError,omitempty"`
}

// poll interroge le fournisseur jusqu'à un statut terminal. Chaque
// interrogation est sa propre étape, un run repris continue au rang suivant.
func (w *VideoWorkflow) poll(ctx context.Context, run *Run, externalID string) (*heygen.VideoStatus, error) {
	log := zerolog.Ctx(ctx)

	for attempt := 1; attempt <= w.maxPolls; attempt++ {
		outcome, err := Step(ctx, run, fmt.Sprintf("poll-video-status-%d", attempt), func(ctx context.Context) (pollOutcome, error) {
			if err := w.sleep(ctx, w.pollInterval); err != nil {
				return pollOutcome{}, err
			}
			status, err := w.provider.PollStatus(ctx, externalID)
			if err != nil {
				if ctx.Err() != nil {
					return pollOutcome{}, ctx.Err()
				}
				if rejectedByProvider(err) {
					return pollOutcome{}, err
				}
				log.Warn().Err(err).Int("poll", attempt).Msg("VideoWorkflow: status check failed")
				return pollOutcome{TransportError: err.Error()}, nil
			}
			return pollOutcome{Status: status, Failure: status.Error}, nil
		})
		if err != nil {
			return nil, err
		}
		if outcome.Status == nil {
			continue
		}

		switch outcome.Status.Status {
		case heygen.StatusCompleted:
			return outcome.Status, nil
		case heygen.StatusFailed:
			message := outcome.Failure
			if message == "" {
				message = "Video generation failed"
			}
			return nil, &apperrors.ProviderError{Provider: "heygen", Message: message}
		}
	}

	return nil, fmt.Errorf("%w: video generation exceeded %s",
		apperrors.ErrTimeout, time.Duration(w.maxPolls)*w.pollInterval)
}

// rejectedByProvider vrai pour une réponse HTTP définitive du fournisseur
// (4xx hors 429). Les erreurs réseau et 5xx comptent comme un poll manqué.
func rejectedByProvider(err error) bool {
	var providerErr *apperrors.ProviderError
	return errors.As(err, &providerErr) && providerErr.StatusCode != 0 && !providerErr.Retryable()
}
