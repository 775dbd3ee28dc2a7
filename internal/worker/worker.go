package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"admix-studio/internal/queue"

	"github.com/rs/zerolog"
)

const (
	statusIdle    = "idle"
	statusBusy    = "busy"
	statusStopped = "stopped"
)

// Runner exécute le run associé à un événement
type Runner interface {
	Execute(ctx context.Context, event queue.Event) (interface{}, error)
}

// Worker exécute un run à la fois dans une voie du pool
type Worker struct {
	id     int
	lane   string
	runner Runner

	// état protégé par mu
	mu           sync.RWMutex
	status       string
	currentRunID string

	// statistiques en atomic pour éviter les locks
	runsTotal   int64
	runsSuccess int64
	runsFailed  int64
}

func NewWorker(id int, lane string, runner Runner) *Worker {
	return &Worker{
		id:     id,
		lane:   lane,
		runner: runner,
		status: statusIdle,
	}
}

func (w *Worker) setState(status, runID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.status = status
	w.currentRunID = runID
}

func (w *Worker) getState() (string, string) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.status, w.currentRunID
}

// process exécute un run dans la limite de timeout
func (w *Worker) process(ctx context.Context, event queue.Event, timeout time.Duration) error {
	w.setState(statusBusy, event.ID)
	defer w.setState(statusIdle, "")
	atomic.AddInt64(&w.runsTotal, 1)

	log := zerolog.Ctx(ctx).With().Int("worker", w.id).Str("lane", w.lane).Str("event", event.Name).Logger()
	log.Debug().Str("run_id", event.ID).Int("attempt", event.Attempt).Msg("Worker: processing run")

	runCtx := log.WithContext(ctx)
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}

	start := time.Now()
	_, err := w.runner.Execute(runCtx, event)
	if err != nil {
		atomic.AddInt64(&w.runsFailed, 1)
		log.Warn().Err(err).Str("run_id", event.ID).Dur("duration", time.Since(start)).Msg("Worker: run failed")
		return err
	}

	atomic.AddInt64(&w.runsSuccess, 1)
	log.Info().Str("run_id", event.ID).Dur("duration", time.Since(start)).Msg("Worker: run completed")
	return nil
}

func (w *Worker) stop() {
	w.setState(statusStopped, "")
}

func (w *Worker) GetStats() WorkerStats {
	status, runID := w.getState()

	return WorkerStats{
		ID:           w.id,
		Lane:         w.lane,
		Status:       status,
		CurrentRunID: runID,
		RunsTotal:    atomic.LoadInt64(&w.runsTotal),
		RunsSuccess:  atomic.LoadInt64(&w.runsSuccess),
		RunsFailed:   atomic.LoadInt64(&w.runsFailed),
	}
}

// WorkerStats contient les statistiques d'un worker
type WorkerStats struct {
	ID           int    `json:"id"`
	Lane         string `json:"lane"`
	Status       string `json:"status"` // idle, busy, stopped
	CurrentRunID string `json:"current_run_id,omitempty"`
	RunsTotal    int64  `json:"runs_total"`
	RunsSuccess  int64  `json:"runs_success"`
	RunsFailed   int64  `json:"runs_failed"`
}
