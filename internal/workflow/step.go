package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"admix-studio/internal/apperrors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
)

// Step exécute fn une seule fois par run. Un résultat déjà enregistré est
// décodé et renvoyé sans appeler fn. Une erreur n'est jamais enregistrée.
func Step[T any](ctx context.Context, run *Run, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	log := zerolog.Ctx(ctx)

	raw, found, err := run.store.LoadCheckpoint(ctx, run.ID, name)
	if err != nil {
		return zero, fmt.Errorf("load checkpoint %s: %w", name, err)
	}
	if found {
		var out T
		if err := json.Unmarshal(raw, &out); err != nil {
			return zero, fmt.Errorf("decode checkpoint %s: %w", name, err)
		}
		log.Debug().Str("step", name).Msg("Step: replayed from checkpoint")
		return out, nil
	}

	ctx, span := run.tracer.Start(ctx, "Step."+name)
	defer span.End()

	out, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn().Err(err).Str("step", name).Msg("Step: failed")
		return zero, err
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return zero, fmt.Errorf("encode checkpoint %s: %w", name, err)
	}
	if err := run.store.SaveCheckpoint(ctx, run.ID, name, encoded); err != nil {
		return zero, fmt.Errorf("save checkpoint %s: %w", name, err)
	}
	log.Debug().Str("step", name).Msg("Step: completed")
	return out, nil
}

// Do est Step pour une étape sans résultat
func Do(ctx context.Context, run *Run, name string, fn func(ctx context.Context) error) error {
	_, err := Step(ctx, run, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Fail exécute l'étape de récupération qui persiste FAILED, puis renvoie
// cause. Tant que le runtime peut relancer une erreur rejouable, la ligne
// reste dans son statut courant.
func Fail(ctx context.Context, run *Run, name string, cause error, mark func(ctx context.Context, message string) error) error {
	if interrupted(ctx) {
		// arrêt du processus, le run reprendra
		return cause
	}
	if apperrors.Retryable(cause) && !run.FinalAttempt() {
		return cause
	}
	// une tentative expirée doit encore pouvoir écrire son échec
	ctx = context.WithoutCancel(ctx)
	if err := Do(ctx, run, name, func(ctx context.Context) error {
		return mark(ctx, cause.Error())
	}); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("step", name).Msg("Step: failure handler failed")
	}
	return cause
}

// interrupted vrai quand le contexte a été annulé par l'arrêt du processus,
// par opposition à une tentative qui a dépassé son délai
func interrupted(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}
