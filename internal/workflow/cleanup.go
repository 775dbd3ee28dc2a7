package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admix-studio/internal/queue"
	"admix-studio/internal/storage"
	"admix-studio/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const WorkflowCleanup = "cleanup-old-records"

// CleanupWorkflow supprime les scripts déjà mis en voix depuis plus de
// dix jours et les synthèses expirées. Les deux étapes sont indépendantes.
type CleanupWorkflow struct {
	scripts  ScriptStore
	speeches SpeechStore
	media    Media
	now      func() time.Time
}

func NewCleanupWorkflow(scripts ScriptStore, speeches SpeechStore, media Media) *CleanupWorkflow {
	return &CleanupWorkflow{scripts: scripts, speeches: speeches, media: media, now: time.Now}
}

func (w *CleanupWorkflow) Definition() Definition {
	return Definition{Name: WorkflowCleanup, Event: queue.EventCleanup, Handler: w.Run}
}

func (w *CleanupWorkflow) Run(ctx context.Context, run *Run, event queue.Event) (interface{}, error) {
	log := zerolog.Ctx(ctx)
	now := w.now()
	var errs []error

	scripts, err := Step(ctx, run, "delete-old-scripts", func(ctx context.Context) (int64, error) {
		return w.scripts.DeleteVoicedBefore(ctx, now.Add(-models.ScriptRetention))
	})
	if err != nil {
		log.Error().Err(err).Msg("CleanupWorkflow: delete-old-scripts failed")
		errs = append(errs, fmt.Errorf("delete-old-scripts: %w", err))
	}

	speeches, err := Step(ctx, run, "delete-expired-speeches", func(ctx context.Context) (int64, error) {
		return w.deleteExpiredSpeeches(ctx, now)
	})
	if err != nil {
		log.Error().Err(err).Msg("CleanupWorkflow: delete-expired-speeches failed")
		errs = append(errs, fmt.Errorf("delete-expired-speeches: %w", err))
	}

	result := &CleanupResult{
		ScriptsDeleted:  scripts,
		SpeechesDeleted: speeches,
		Timestamp:       now.UTC().Format(time.RFC3339),
	}
	log.Info().Int64("scripts_deleted", scripts).Int64("speeches_deleted", speeches).Msg("CleanupWorkflow: sweep finished")

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}
	return result, nil
}

// deleteExpiredSpeeches retire d'abord chaque audio (échec non bloquant) puis les lignes
func (w *CleanupWorkflow) deleteExpiredSpeeches(ctx context.Context, now time.Time) (int64, error) {
	expired, err := w.speeches.ListExpiredSpeeches(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(expired))
	for _, speech := range expired {
		ids = append(ids, speech.ID)

		key := speech.AudioKey
		if key == "" {
			key = storage.KeyFromURL(speech.AudioLocation)
		}
		if key == "" {
			continue
		}
		if err := w.media.DeleteDurable(ctx, key); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("speech_id", speech.ID.String()).Msg("CleanupWorkflow: could not delete audio file")
		}
	}

	return w.speeches.DeleteSpeeches(ctx, ids)
}
