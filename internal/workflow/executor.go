// Package workflow exécute les workflows durables : chaque étape nommée est
// mémorisée par (run, étape) afin qu'un run repris ne rejoue jamais une
// étape déjà enregistrée.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"admix-studio/internal/apperrors"
	"admix-studio/internal/queue"
	"admix-studio/pkg/models"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxAttempts nombre de livraisons d'un même run avant abandon
const DefaultMaxAttempts = 3

// Store persiste les runs et les checkpoints d'étapes
type Store interface {
	// StartRun crée le run ou le reprend, et renvoie son état courant
	StartRun(ctx context.Context, id, workflow string, attempt int) (*models.WorkflowRun, error)
	UpdateRun(ctx context.Context, id string, status models.RunStatus, output []byte, errMsg string) error
	GetRun(ctx context.Context, id string) (*models.WorkflowRun, error)
	LoadCheckpoint(ctx context.Context, runID, step string) ([]byte, bool, error)
	SaveCheckpoint(ctx context.Context, runID, step string, result []byte) error
}

// HandlerFunc corps d'un workflow
type HandlerFunc func(ctx context.Context, run *Run, event queue.Event) (interface{}, error)

// Definition associe un événement à un workflow. Long place le run dans la
// voie dédiée du pool de workers.
type Definition struct {
	Name    string
	Event   string
	Long    bool
	Handler HandlerFunc
}

// Run est l'exécution courante d'un workflow
type Run struct {
	ID          string
	Workflow    string
	Attempt     int
	MaxAttempts int

	store  Store
	tracer trace.Tracer
}

// FinalAttempt vrai quand le runtime ne relancera plus ce run
func (r *Run) FinalAttempt() bool {
	return r.Attempt >= r.MaxAttempts
}

type Executor struct {
	store       Store
	maxAttempts int
	tracer      trace.Tracer

	mu          sync.RWMutex
	definitions map[string]Definition
}

func NewExecutor(store Store, maxAttempts int) *Executor {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Executor{
		store:       store,
		maxAttempts: maxAttempts,
		tracer:      otel.Tracer("admix-studio/workflow"),
		definitions: make(map[string]Definition),
	}
}

func (e *Executor) Register(defs ...Definition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, def := range defs {
		e.definitions[def.Event] = def
	}
}

// Lookup retrouve la définition associée à un nom d'événement
func (e *Executor) Lookup(eventName string) (Definition, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	def, ok := e.definitions[eventName]
	return def, ok
}

func (e *Executor) MaxAttempts() int {
	return e.maxAttempts
}

// Execute exécute le run d'un événement. Un run déjà COMPLETED n'est pas
// rejoué. Le run passe FAILED si l'erreur n'est pas rejouable ou si c'est
// la dernière tentative, sinon il reste RUNNING pour la livraison suivante.
func (e *Executor) Execute(ctx context.Context, event queue.Event) (interface{}, error) {
	def, ok := e.Lookup(event.Name)
	if !ok {
		return nil, apperrors.Validation("no workflow registered for event %q", event.Name)
	}
	if event.ID == "" {
		return nil, apperrors.Validation("event %q has no run id", event.Name)
	}
	attempt := event.Attempt
	if attempt < 1 {
		attempt = 1
	}

	ctx, span := e.tracer.Start(ctx, "Workflow."+def.Name, trace.WithAttributes(
		attribute.String("run_id", event.ID),
		attribute.Int("attempt", attempt),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx).With().
		Str("run_id", event.ID).
		Str("workflow", def.Name).
		Int("attempt", attempt).
		Logger()
	ctx = logger.WithContext(ctx)

	row, err := e.store.StartRun(ctx, event.ID, def.Name, attempt)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("start run %s: %w", event.ID, err)
	}
	if row.Status == models.RunCompleted {
		logger.Info().Msg("Executor.Execute: run already completed, skipping")
		return nil, nil
	}

	run := &Run{
		ID:          event.ID,
		Workflow:    def.Name,
		Attempt:     attempt,
		MaxAttempts: e.maxAttempts,
		store:       e.store,
		tracer:      e.tracer,
	}

	logger.Info().Msg("Executor.Execute: run started")
	output, runErr := def.Handler(ctx, run, event)
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())

		status := models.RunRunning
		if !interrupted(ctx) && (!apperrors.Retryable(runErr) || run.FinalAttempt()) {
			status = models.RunFailed
		}
		if err := e.store.UpdateRun(context.WithoutCancel(ctx), run.ID, status, nil, runErr.Error()); err != nil {
			logger.Error().Err(err).Msg("Executor.Execute: failed to record run error")
		}
		logger.Error().Err(runErr).Str("status", string(status)).Msg("Executor.Execute: run failed")
		return nil, runErr
	}

	raw, err := json.Marshal(output)
	if err != nil {
		raw = nil
	}
	if err := e.store.UpdateRun(ctx, run.ID, models.RunCompleted, raw, ""); err != nil {
		logger.Error().Err(err).Msg("Executor.Execute: failed to mark run completed")
		return output, err
	}
	logger.Info().Msg("Executor.Execute: run completed")
	return output, nil
}
