package models

import (
	"time"

	"github.com/google/uuid"
)

// Script texte rédigé par un SCRIPT_WRITER puis mis en voix.
// Le CRUD est géré ailleurs, seul le drapeau IsVoiceGenerated est écrit ici.
type Script struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID           string    `json:"userId" gorm:"type:varchar(64);index"`
	Title            string    `json:"title" gorm:"type:varchar(255)"`
	Content          string    `json:"content" gorm:"type:text"`
	IsVoiceGenerated bool      `json:"isVoiceGenerated" gorm:"index"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" gorm:"index"`
}

func (Script) TableName() string {
	return "scripts"
}
