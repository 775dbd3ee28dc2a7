package jobs

import (
	"context"
	"time"

	"admix-studio/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SpeechRepository struct {
	db *gorm.DB
}

func NewSpeechRepository(db *gorm.DB) *SpeechRepository {
	return &SpeechRepository{db: db}
}

func (r *SpeechRepository) CreateSpeech(ctx context.Context, job *models.SpeechJob) (*models.SpeechJob, error) {
	return retryTransient(ctx, "speech.create", func() (*models.SpeechJob, error) {
		if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(job).Error; err != nil {
			return nil, err
		}
		var stored models.SpeechJob
		if err := r.db.WithContext(ctx).First(&stored, "id = ?", job.ID).Error; err != nil {
			return nil, err
		}
		return &stored, nil
	})
}

func (r *SpeechRepository) GetSpeech(ctx context.Context, id uuid.UUID) (*models.SpeechJob, error) {
	return retryTransient(ctx, "speech.get", func() (*models.SpeechJob, error) {
		var job models.SpeechJob
		if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
			return nil, notFound(err, "speech", id.String())
		}
		return &job, nil
	})
}

func (r *SpeechRepository) CompleteSpeech(ctx context.Context, id uuid.UUID, location, key string, size int64) error {
	return exec(ctx, "speech.complete", func() error {
		result := r.db.WithContext(ctx).Model(&models.SpeechJob{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":         models.StatusCompleted,
				"audio_location": location,
				"audio_key":      key,
				"file_size":      size,
				"updated_at":     time.Now(),
			})
		return requireRow(result, "speech", id.String())
	})
}

func (r *SpeechRepository) FailSpeech(ctx context.Context, id uuid.UUID, message string) error {
	return exec(ctx, "speech.fail", func() error {
		result := r.db.WithContext(ctx).Model(&models.SpeechJob{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":        models.StatusFailed,
				"error_message": message,
				"updated_at":    time.Now(),
			})
		return requireRow(result, "speech", id.String())
	})
}

func (r *SpeechRepository) ListExpiredSpeeches(ctx context.Context, now time.Time) ([]models.SpeechJob, error) {
	return retryTransient(ctx, "speech.list_expired", func() ([]models.SpeechJob, error) {
		var jobs []models.SpeechJob
		err := r.db.WithContext(ctx).
			Select("id", "audio_location", "audio_key").
			Where("expires_at < ?", now).
			Find(&jobs).Error
		return jobs, err
	})
}

func (r *SpeechRepository) DeleteSpeeches(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return retryTransient(ctx, "speech.delete", func() (int64, error) {
		result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.SpeechJob{})
		return result.RowsAffected, result.Error
	})
}

// ListCompletedByUser renvoie une page de synthèses terminées, les plus récentes d'abord
func (r *SpeechRepository) ListCompletedByUser(ctx context.Context, userID string, page, limit int) ([]models.SpeechJob, int64, error) {
	type pageResult struct {
		jobs  []models.SpeechJob
		total int64
	}
	out, err := retryTransient(ctx, "speech.history", func() (pageResult, error) {
		var res pageResult
		scope := func() *gorm.DB {
			return r.db.WithContext(ctx).Model(&models.SpeechJob{}).
				Where("user_id = ? AND status = ?", userID, models.StatusCompleted)
		}
		if err := scope().Count(&res.total).Error; err != nil {
			return res, err
		}
		err := scope().Order("created_at DESC").
			Limit(limit).
			Offset((page - 1) * limit).
			Find(&res.jobs).Error
		return res, err
	})
	return out.jobs, out.total, err
}
