package models

import (
	"time"

	"github.com/google/uuid"
)

// VideoJob est une génération de vidéo avatar. L'ID est l'identifiant du run.
type VideoJob struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	UserID            string     `json:"userId" gorm:"type:varchar(64);index"`
	Status            JobStatus  `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	AvatarRef         string     `json:"avatarId" gorm:"type:varchar(128);not null"`
	VoiceRef          string     `json:"voiceId" gorm:"type:varchar(128);not null"`
	Script            string     `json:"script" gorm:"type:text;not null"`
	Duration          string     `json:"duration" gorm:"type:varchar(16);default:'Auto'"`
	Language          string     `json:"language" gorm:"type:varchar(8)"`
	ExternalVideoID   string     `json:"externalVideoId,omitempty" gorm:"type:varchar(128);index"`
	VideoLocation     string     `json:"videoUrl,omitempty" gorm:"type:text"`
	ThumbnailLocation string     `json:"thumbnailUrl,omitempty" gorm:"type:text"`
	VideoDuration     float64    `json:"videoDuration,omitempty"`
	ErrorMessage      string     `json:"errorMessage,omitempty" gorm:"type:text"`
	DeleteAt          *time.Time `json:"deleteAt,omitempty" gorm:"index"`
	CreatedAt         time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (VideoJob) TableName() string {
	return "videos"
}

// VideoResult est le résultat exposé d'une vidéo terminée
type VideoResult struct {
	ID           uuid.UUID `json:"id"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Duration     float64   `json:"duration"`
}
