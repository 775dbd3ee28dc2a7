package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxVoiceSamples nombre maximum d'échantillons par demande de clonage
const MaxVoiceSamples = 25

// VoiceProfile est une voix connue du fournisseur TTS (clonée ou existante)
type VoiceProfile struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	ExternalVoiceID string         `json:"voiceId" gorm:"type:varchar(128);not null;uniqueIndex"`
	RunID           *string        `json:"runId,omitempty" gorm:"type:varchar(64);uniqueIndex"`
	UserID          string         `json:"userId" gorm:"type:varchar(64);index"`
	Name            string         `json:"name" gorm:"type:varchar(255);not null"`
	Description     string         `json:"description,omitempty" gorm:"type:text"`
	Language        string         `json:"language" gorm:"type:varchar(32);default:'multilingual'"`
	Accent          string         `json:"accent,omitempty" gorm:"type:varchar(64)"`
	Labels          datatypes.JSON `json:"labels,omitempty" gorm:"type:jsonb"`
	IsCustom        bool           `json:"isCustom"`
	Samples         []AudioSample  `json:"samples,omitempty" gorm:"foreignKey:VoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time      `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func (VoiceProfile) TableName() string {
	return "voices"
}

func (v *VoiceProfile) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// AudioSample est un échantillon audio rattaché à une voix clonée
type AudioSample struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	VoiceID       uuid.UUID `json:"voiceId" gorm:"type:uuid;not null;index"`
	FileName      string    `json:"fileName" gorm:"type:varchar(255)"`
	AudioLocation string    `json:"audioLocation" gorm:"type:text"`
	AudioKey      string    `json:"-" gorm:"type:text"`
	FileSize      int64     `json:"fileSize"`
	MimeType      string    `json:"mimeType" gorm:"type:varchar(64);default:'audio/mpeg'"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (AudioSample) TableName() string {
	return "audio_samples"
}

func (s *AudioSample) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// VoiceCloneResult est le résultat d'un clonage terminé
type VoiceCloneResult struct {
	ProfileID    uuid.UUID `json:"profileId"`
	VoiceID      string    `json:"voiceId"`
	VoiceName    string    `json:"voiceName"`
	SamplesCount int       `json:"samplesCount"`
}
