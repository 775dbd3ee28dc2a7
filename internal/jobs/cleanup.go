package jobs

import (
	"context"
	"time"

	"admix-studio/internal/queue"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// cleanupNamespace espace des identifiants UUIDv5 des balayages quotidiens
var cleanupNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("admix-studio/cleanup"))

// CleanupRunID identifiant du balayage d'un jour donné. Un déclenchement en
// double rejoue le run mémorisé au lieu d'en créer un second.
func CleanupRunID(day time.Time) string {
	name := "cleanup-" + day.UTC().Format("2006-01-02")
	return uuid.NewSHA1(cleanupNamespace, []byte(name)).String()
}

// CleanupScheduler publie l'événement de nettoyage une fois par jour à hour (UTC)
type CleanupScheduler struct {
	publisher Publisher
	hour      int
	now       func() time.Time
	stopCh    chan struct{}
}

func NewCleanupScheduler(publisher Publisher, hour int) *CleanupScheduler {
	if hour < 0 || hour > 23 {
		hour = 2
	}
	return &CleanupScheduler{
		publisher: publisher,
		hour:      hour,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// NextRun prochaine échéance strictement après from
func (c *CleanupScheduler) NextRun(from time.Time) time.Time {
	from = from.UTC()
	next := time.Date(from.Year(), from.Month(), from.Day(), c.hour, 0, 0, 0, time.UTC)
	if !next.After(from) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// Trigger publie le balayage du jour de at
func (c *CleanupScheduler) Trigger(ctx context.Context, at time.Time) (string, error) {
	runID := CleanupRunID(at)
	event, err := queue.NewEvent(runID, queue.EventCleanup, struct{}{})
	if err != nil {
		return "", err
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		return "", err
	}
	return runID, nil
}

func (c *CleanupScheduler) Start(ctx context.Context) {
	log := zerolog.Ctx(ctx)
	log.Info().Int("hour_utc", c.hour).Msg("CleanupScheduler: started")

	for {
		next := c.NextRun(c.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("CleanupScheduler: stopped due to context cancellation")
			return
		case <-c.stopCh:
			timer.Stop()
			log.Info().Msg("CleanupScheduler: stopped")
			return
		case <-timer.C:
			runID, err := c.Trigger(ctx, next)
			if err != nil {
				log.Error().Err(err).Msg("CleanupScheduler: failed to publish cleanup")
				continue
			}
			log.Info().Str("run_id", runID).Msg("CleanupScheduler: cleanup requested")
		}
	}
}

func (c *CleanupScheduler) Stop() {
	close(c.stopCh)
}
