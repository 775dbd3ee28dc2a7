package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin          = "ADMIN"
	RoleScriptWriter   = "SCRIPT_WRITER"
	RoleAudioGenerator = "AUDIO_GENERATOR"
	RoleVideoGenerator = "VIDEO_GENERATOR"
	RoleUser           = "USER"
)

// User est lu par le collaborateur d'authentification uniquement
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	Role         string    `json:"role" gorm:"type:varchar(32);not null;default:'USER'"`
	AssignedRole string    `json:"assignedRole,omitempty" gorm:"type:varchar(32)"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
