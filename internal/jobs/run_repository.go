package jobs

import (
	"context"
	"errors"
	"time"

	"admix-studio/pkg/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RunRepository persiste les runs et les checkpoints de l'exécuteur
type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) StartRun(ctx context.Context, id, workflow string, attempt int) (*models.WorkflowRun, error) {
	return retryTransient(ctx, "run.start", func() (*models.WorkflowRun, error) {
		var run models.WorkflowRun
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&run, "id = ?", id).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				run = models.WorkflowRun{ID: id, Workflow: workflow, Status: models.RunRunning, Attempt: attempt}
				return tx.Create(&run).Error
			}
			if err != nil {
				return err
			}
			if run.Status == models.RunCompleted {
				return nil
			}
			run.Status = models.RunRunning
			run.Attempt = attempt
			return tx.Model(&run).Updates(map[string]interface{}{
				"status":     run.Status,
				"attempt":    attempt,
				"updated_at": time.Now(),
			}).Error
		})
		if err != nil {
			return nil, err
		}
		return &run, nil
	})
}

func (r *RunRepository) UpdateRun(ctx context.Context, id string, status models.RunStatus, output []byte, errMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"error":      errMsg,
		"updated_at": time.Now(),
	}
	if output != nil {
		updates["output"] = datatypes.JSON(output)
	}
	if status != models.RunRunning {
		updates["finished_at"] = time.Now()
	}
	return exec(ctx, "run.update", func() error {
		result := r.db.WithContext(ctx).Model(&models.WorkflowRun{}).Where("id = ?", id).Updates(updates)
		return requireRow(result, "workflow run", id)
	})
}

func (r *RunRepository) GetRun(ctx context.Context, id string) (*models.WorkflowRun, error) {
	return retryTransient(ctx, "run.get", func() (*models.WorkflowRun, error) {
		var run models.WorkflowRun
		if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
			return nil, notFound(err, "workflow run", id)
		}
		return &run, nil
	})
}

func (r *RunRepository) LoadCheckpoint(ctx context.Context, runID, step string) ([]byte, bool, error) {
	cp, err := retryTransient(ctx, "checkpoint.load", func() (*models.StepCheckpoint, error) {
		var cp models.StepCheckpoint
		err := r.db.WithContext(ctx).Where("run_id = ? AND step_name = ?", runID, step).First(&cp).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return &cp, err
	})
	if err != nil || cp == nil {
		return nil, false, err
	}
	return cp.Result, true, nil
}

// SaveCheckpoint écrase le résultat d'une étape déjà enregistrée
func (r *RunRepository) SaveCheckpoint(ctx context.Context, runID, step string, result []byte) error {
	return exec(ctx, "checkpoint.save", func() error {
		cp := models.StepCheckpoint{RunID: runID, StepName: step, Result: datatypes.JSON(result)}
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}, {Name: "step_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"result"}),
		}).Create(&cp).Error
	})
}
