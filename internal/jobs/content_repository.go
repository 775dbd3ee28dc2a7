package jobs

import (
	"context"
	"time"

	"admix-studio/pkg/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// CreateContent insère la ligne du run, ou renvoie celle déjà créée
func (r *ContentRepository) CreateContent(ctx context.Context, job *models.ContentJob) (*models.ContentJob, error) {
	return retryTransient(ctx, "content.create", func() (*models.ContentJob, error) {
		err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "run_id"}}, DoNothing: true}).
			Create(job).Error
		if err != nil {
			return nil, err
		}
		var stored models.ContentJob
		if err := r.db.WithContext(ctx).Where("run_id = ?", job.RunID).First(&stored).Error; err != nil {
			return nil, err
		}
		return &stored, nil
	})
}

func (r *ContentRepository) GetContentByRunID(ctx context.Context, runID string) (*models.ContentJob, error) {
	return retryTransient(ctx, "content.get", func() (*models.ContentJob, error) {
		var job models.ContentJob
		if err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&job).Error; err != nil {
			return nil, notFound(err, "content", runID)
		}
		return &job, nil
	})
}

func (r *ContentRepository) CompleteContent(ctx context.Context, runID, text, language string) error {
	return exec(ctx, "content.complete", func() error {
		result := r.db.WithContext(ctx).Model(&models.ContentJob{}).
			Where("run_id = ?", runID).
			Updates(map[string]interface{}{
				"generated_text": text,
				"language":       language,
				"status":         models.StatusCompleted,
				"updated_at":     time.Now(),
			})
		return requireRow(result, "content", runID)
	})
}

func (r *ContentRepository) FailContent(ctx context.Context, runID, message string) error {
	return exec(ctx, "content.fail", func() error {
		result := r.db.WithContext(ctx).Model(&models.ContentJob{}).
			Where("run_id = ?", runID).
			Updates(map[string]interface{}{
				"status":        models.StatusFailed,
				"error_message": message,
				"updated_at":    time.Now(),
			})
		return requireRow(result, "content", runID)
	})
}
