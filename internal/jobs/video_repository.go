package jobs

import (
	"context"
	"time"

	"admix-studio/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VideoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) CreateVideo(ctx context.Context, job *models.VideoJob) (*models.VideoJob, error) {
	return retryTransient(ctx, "video.create", func() (*models.VideoJob, error) {
		if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(job).Error; err != nil {
			return nil, err
		}
		var stored models.VideoJob
		if err := r.db.WithContext(ctx).First(&stored, "id = ?", job.ID).Error; err != nil {
			return nil, err
		}
		return &stored, nil
	})
}

func (r *VideoRepository) GetVideo(ctx context.Context, id uuid.UUID) (*models.VideoJob, error) {
	return retryTransient(ctx, "video.get", func() (*models.VideoJob, error) {
		var job models.VideoJob
		if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
			return nil, notFound(err, "video", id.String())
		}
		return &job, nil
	})
}

func (r *VideoRepository) update(ctx context.Context, name string, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return exec(ctx, name, func() error {
		result := r.db.WithContext(ctx).Model(&models.VideoJob{}).Where("id = ?", id).Updates(updates)
		return requireRow(result, "video", id.String())
	})
}

func (r *VideoRepository) MarkVideoSubmitted(ctx context.Context, id uuid.UUID, externalID string) error {
	return r.update(ctx, "video.submitted", id, map[string]interface{}{
		"external_video_id": externalID,
		"status":            models.StatusProcessing,
	})
}

func (r *VideoRepository) CompleteVideo(ctx context.Context, id uuid.UUID, videoURL, thumbnailURL string, duration float64, deleteAt time.Time) error {
	return r.update(ctx, "video.complete", id, map[string]interface{}{
		"status":             models.StatusCompleted,
		"video_location":     videoURL,
		"thumbnail_location": thumbnailURL,
		"video_duration":     duration,
		"delete_at":          deleteAt,
	})
}

func (r *VideoRepository) FailVideo(ctx context.Context, id uuid.UUID, message string) error {
	return r.update(ctx, "video.fail", id, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": message,
	})
}

// ListVideosByUser renvoie une page des vidéos d'un utilisateur, toutes
// statuts confondus, les plus récentes d'abord
func (r *VideoRepository) ListVideosByUser(ctx context.Context, userID string, page, limit int) ([]models.VideoJob, int64, error) {
	type pageResult struct {
		videos []models.VideoJob
		total  int64
	}
	out, err := retryTransient(ctx, "video.history", func() (pageResult, error) {
		var res pageResult
		scope := func() *gorm.DB {
			return r.db.WithContext(ctx).Model(&models.VideoJob{}).Where("user_id = ?", userID)
		}
		if err := scope().Count(&res.total).Error; err != nil {
			return res, err
		}
		err := scope().Order("created_at DESC").
			Limit(limit).
			Offset((page - 1) * limit).
			Find(&res.videos).Error
		return res, err
	})
	return out.videos, out.total, err
}
