package jobs

import (
	"context"
	"errors"

	"admix-studio/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VoiceRepository struct {
	db *gorm.DB
}

func NewVoiceRepository(db *gorm.DB) *VoiceRepository {
	return &VoiceRepository{db: db}
}

// CreateVoiceWithSamples insère la voix et ses échantillons dans une seule
// transaction. Un profil déjà enregistré pour le run est renvoyé tel quel.
func (r *VoiceRepository) CreateVoiceWithSamples(ctx context.Context, profile *models.VoiceProfile) (*models.VoiceProfile, error) {
	return retryTransient(ctx, "voice.create", func() (*models.VoiceProfile, error) {
		var stored models.VoiceProfile
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if profile.RunID != nil {
				err := tx.Preload("Samples").Where("run_id = ?", *profile.RunID).First(&stored).Error
				if err == nil {
					return nil
				}
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
			}
			if err := tx.Create(profile).Error; err != nil {
				return err
			}
			stored = *profile
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &stored, nil
	})
}

func (r *VoiceRepository) GetVoiceByExternalID(ctx context.Context, externalID string) (*models.VoiceProfile, error) {
	return retryTransient(ctx, "voice.get_external", func() (*models.VoiceProfile, error) {
		var profile models.VoiceProfile
		if err := r.db.WithContext(ctx).Where("external_voice_id = ?", externalID).First(&profile).Error; err != nil {
			return nil, notFound(err, "voice", externalID)
		}
		return &profile, nil
	})
}

func (r *VoiceRepository) GetVoice(ctx context.Context, id uuid.UUID) (*models.VoiceProfile, error) {
	return retryTransient(ctx, "voice.get", func() (*models.VoiceProfile, error) {
		var profile models.VoiceProfile
		if err := r.db.WithContext(ctx).Preload("Samples").First(&profile, "id = ?", id).Error; err != nil {
			return nil, notFound(err, "voice", id.String())
		}
		return &profile, nil
	})
}

// DeleteVoice supprime la voix et ses échantillons. Les synthèses qui
// l'utilisent gardent leur référence fournisseur.
func (r *VoiceRepository) DeleteVoice(ctx context.Context, id uuid.UUID) error {
	_, err := retryTransient(ctx, "voice.delete", func() (struct{}, error) {
		return struct{}{}, r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("voice_id = ?", id).Delete(&models.AudioSample{}).Error; err != nil {
				return err
			}
			return requireRow(tx.Delete(&models.VoiceProfile{ID: id}), "voice", id.String())
		})
	})
	return err
}

// ListVoices renvoie toutes les voix, ou celles d'un utilisateur
func (r *VoiceRepository) ListVoices(ctx context.Context, userID string) ([]models.VoiceProfile, error) {
	return retryTransient(ctx, "voice.list", func() ([]models.VoiceProfile, error) {
		var voices []models.VoiceProfile
		query := r.db.WithContext(ctx).Order("created_at DESC")
		if userID != "" {
			query = query.Where("user_id = ?", userID)
		}
		err := query.Find(&voices).Error
		return voices, err
	})
}
