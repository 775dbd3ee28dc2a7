package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"admix-studio/internal/apperrors"
	"admix-studio/internal/queue"
	"admix-studio/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvent(t *testing.T, id, name string, data interface{}, attempt int) queue.Event {
	t.Helper()
	event, err := queue.NewEvent(id, name, data)
	require.NoError(t, err)
	event.Attempt = attempt
	return event
}

func runStatus(t *testing.T, store *MemoryStore, id string) models.RunStatus {
	t.Helper()
	run, err := store.GetRun(context.Background(), id)
	require.NoError(t, err)
	return run.Status
}

func TestExecutorStepMemoization(t *testing.T) {
	store := NewMemoryStore()
	exec := NewExecutor(store, 3)

	var firstCalls, secondCalls, handlerCalls int
	exec.Register(Definition{
		Name:  "two-steps",
		Event: "test/two-steps",
		Handler: func(ctx context.Context, run *Run, event queue.Event) (interface{}, error) {
			handlerCalls++
			a, err := Step(ctx, run, "first", func(ctx context.Context) (string, error) {
				firstCalls++
				return "value-a", nil
			})
			if err != nil {
				return nil, err
			}
			b, err := Step(ctx, run, "second", func(ctx context.Context) (int, error) {
				secondCalls++
				if secondCalls == 1 {
					return 0, fmt.Errorf("%w: connection reset", apperrors.ErrTransient)
				}
				return 42, nil
			})
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"a": a, "b": b}, nil
		},
	})

	runID := uuid.NewString()

	_, err := exec.Execute(context.Background(), newEvent(t, runID, "test/two-steps", nil, 1))
	require.Error(t, err)
	assert.Equal(t, models.RunRunning, runStatus(t, store, runID))

	out, err := exec.Execute(context.Background(), newEvent(t, runID, "test/two-steps", nil, 2))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": "value-a", "b": 42}, out)
	assert.Equal(t, 1, firstCalls, "a recorded step is never re-executed")
	assert.Equal(t, 2, secondCalls)
	assert.Equal(t, 1, store.Steps(runID, "first"))
	assert.Equal(t, models.RunCompleted, runStatus(t, store, runID))

	// livraison en double d'un run terminé
	out, err = exec.Execute(context.Background(), newEvent(t, runID, "test/two-steps", nil, 3))
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, 2, handlerCalls)
}

func TestExecutorFailureStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		attempt  int
		expected models.RunStatus
	}{
		{"retryable first attempt", fmt.Errorf("%w: db down", apperrors.ErrTransient), 1, models.RunRunning},
		{"retryable final attempt", fmt.Errorf("%w: db down", apperrors.ErrTransient), 3, models.RunFailed},
		{"validation error", apperrors.Validation("bad input"), 1, models.RunFailed},
		{"provider 401", &apperrors.ProviderError{Provider: "x", StatusCode: 401, Message: "nope"}, 1, models.RunFailed},
		{"provider 503", &apperrors.ProviderError{Provider: "x", StatusCode: 503, Message: "busy"}, 2, models.RunRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			exec := NewExecutor(store, 3)
			exec.Register(Definition{
				Name:  "failing",
				Event: "test/failing",
				Handler: func(ctx context.Context, run *Run, event queue.Event) (interface{}, error) {
					return nil, tt.err
				},
			})

			runID := uuid.NewString()
			_, err := exec.Execute(context.Background(), newEvent(t, runID, "test/failing", nil, tt.attempt))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err))

			run, err := store.GetRun(context.Background(), runID)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, run.Status)
			assert.Equal(t, tt.err.Error(), run.Error)
		})
	}
}

func TestExecutorCancelledRunStaysRunning(t *testing.T) {
	store := NewMemoryStore()
	exec := NewExecutor(store, 1)

	ctx, cancel := context.WithCancel(context.Background())
	exec.Register(Definition{
		Name:  "interrupted",
		Event: "test/interrupted",
		Handler: func(ctx context.Context, run *Run, event queue.Event) (interface{}, error) {
			cancel()
			return nil, ctx.Err()
		},
	})

	runID := uuid.NewString()
	_, err := exec.Execute(ctx, newEvent(t, runID, "test/interrupted", nil, 1))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.RunRunning, runStatus(t, store, runID))
}

func TestExecutorRejectsUnknownEvent(t *testing.T) {
	exec := NewExecutor(NewMemoryStore(), 0)
	assert.Equal(t, DefaultMaxAttempts, exec.MaxAttempts())

	_, err := exec.Execute(context.Background(), newEvent(t, "run-1", "unknown/event", nil, 1))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	exec.Register(Definition{Name: "noop", Event: "test/noop", Handler: func(ctx context.Context, run *Run, event queue.Event) (interface{}, error) {
		return nil, nil
	}})
	_, err = exec.Execute(context.Background(), newEvent(t, "", "test/noop", nil, 1))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestFailSkipsRecoveryWhileRetriesRemain(t *testing.T) {
	store := NewMemoryStore()
	run := &Run{ID: "run-1", Attempt: 1, MaxAttempts: 3, store: store, tracer: NewExecutor(store, 3).tracer}

	marked := 0
	mark := func(ctx context.Context, message string) error {
		marked++
		return nil
	}

	cause := fmt.Errorf("%w: timeout", apperrors.ErrTransient)
	err := Fail(context.Background(), run, "mark-failed", cause, mark)
	assert.Equal(t, cause, err)
	assert.Equal(t, 0, marked)

	run.Attempt = 3
	err = Fail(context.Background(), run, "mark-failed", cause, mark)
	assert.Equal(t, cause, err)
	assert.Equal(t, 1, marked)

	// l'étape de récupération est elle-même mémorisée
	_ = Fail(context.Background(), run, "mark-failed", cause, mark)
	assert.Equal(t, 1, marked)
}
