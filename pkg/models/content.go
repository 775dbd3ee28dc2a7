package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContentType string

const (
	ContentTitle       ContentType = "title"
	ContentDescription ContentType = "description"
	ContentHashtags    ContentType = "hashtags"
	ContentTags        ContentType = "tags"
	ContentCustom      ContentType = "custom"
)

// ParseContentType accepte une valeur vide (custom par défaut)
func ParseContentType(s string) (ContentType, bool) {
	switch ContentType(s) {
	case "":
		return ContentCustom, true
	case ContentTitle, ContentDescription, ContentHashtags, ContentTags, ContentCustom:
		return ContentType(s), true
	default:
		return "", false
	}
}

const (
	LanguageHindi   = "hin"
	LanguageEnglish = "eng"
)

// ContentJob est une demande d'optimisation de contenu (news agent)
type ContentJob struct {
	ID            uuid.UUID   `json:"id" gorm:"type:uuid;primary_key"`
	RunID         string      `json:"runId" gorm:"type:varchar(64);not null;uniqueIndex"`
	UserID        string      `json:"userId" gorm:"type:varchar(64);index"`
	InputText     string      `json:"inputText" gorm:"type:text;not null"`
	GeneratedText string      `json:"generatedText" gorm:"type:text"`
	ContentType   ContentType `json:"contentType" gorm:"type:varchar(20);not null;default:'custom'"`
	Language      string      `json:"language" gorm:"type:varchar(8);not null;default:'eng'"`
	Status        JobStatus   `json:"status" gorm:"type:varchar(20);not null;index"`
	ErrorMessage  string      `json:"errorMessage,omitempty" gorm:"type:text"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

func (ContentJob) TableName() string {
	return "generated_contents"
}

func (j *ContentJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// ContentResult est le résultat exposé quand le job est terminé
type ContentResult struct {
	Text        string      `json:"text"`
	RecordID    uuid.UUID   `json:"recordId"`
	Language    string      `json:"language"`
	ContentType ContentType `json:"contentType"`
}
