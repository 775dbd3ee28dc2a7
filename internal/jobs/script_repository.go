package jobs

import (
	"context"
	"time"

	"admix-studio/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScriptRepository ne couvre que le drapeau de mise en voix et le balayage,
// le reste du cycle de vie des scripts est géré ailleurs
type ScriptRepository struct {
	db *gorm.DB
}

func NewScriptRepository(db *gorm.DB) *ScriptRepository {
	return &ScriptRepository{db: db}
}

func (r *ScriptRepository) MarkVoiceGenerated(ctx context.Context, id uuid.UUID) error {
	return exec(ctx, "script.voiced", func() error {
		result := r.db.WithContext(ctx).Model(&models.Script{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"is_voice_generated": true, "updated_at": time.Now()})
		return requireRow(result, "script", id.String())
	})
}

func (r *ScriptRepository) DeleteVoicedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return retryTransient(ctx, "script.sweep", func() (int64, error) {
		result := r.db.WithContext(ctx).
			Where("is_voice_generated = ? AND updated_at < ?", true, cutoff).
			Delete(&models.Script{})
		return result.RowsAffected, result.Error
	})
}
