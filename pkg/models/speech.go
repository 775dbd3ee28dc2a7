package models

import (
	"time"

	"github.com/google/uuid"
)

// VoiceSettings paramètres de synthèse transmis au fournisseur TTS
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// VoiceSettingsInput est la forme reçue de l'API, chaque champ est optionnel
type VoiceSettingsInput struct {
	Stability       *float64 `json:"stability,omitempty"`
	SimilarityBoost *float64 `json:"similarity_boost,omitempty"`
	Style           *float64 `json:"style,omitempty"`
	UseSpeakerBoost *bool    `json:"use_speaker_boost,omitempty"`
}

// WithDefaults applique 0.5 / 0.75 / 0.0 / true aux champs absents
func (in *VoiceSettingsInput) WithDefaults() VoiceSettings {
	s := VoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Style:           0.0,
		UseSpeakerBoost: true,
	}
	if in == nil {
		return s
	}
	if in.Stability != nil {
		s.Stability = *in.Stability
	}
	if in.SimilarityBoost != nil {
		s.SimilarityBoost = *in.SimilarityBoost
	}
	if in.Style != nil {
		s.Style = *in.Style
	}
	if in.UseSpeakerBoost != nil {
		s.UseSpeakerBoost = *in.UseSpeakerBoost
	}
	return s
}

// MaxSpeechTextLength limite de caractères d'une demande TTS
const MaxSpeechTextLength = 5000

// SpeechJob correspond à une ligne de l'historique de synthèse vocale.
// L'ID est l'identifiant du run de workflow.
type SpeechJob struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	UserID          string     `json:"userId" gorm:"type:varchar(64);index"`
	Text            string     `json:"text" gorm:"type:text;not null"`
	Language        string     `json:"language" gorm:"type:varchar(32)"`
	VoiceRef        string     `json:"voiceRef" gorm:"type:varchar(128);not null"`
	VoiceProfileID  *uuid.UUID `json:"voiceProfileId,omitempty" gorm:"type:uuid;index"`
	ScriptID        *uuid.UUID `json:"scriptId,omitempty" gorm:"type:uuid"`
	Stability       float64    `json:"stability"`
	SimilarityBoost float64    `json:"similarityBoost"`
	Style           float64    `json:"style"`
	UseSpeakerBoost bool       `json:"useSpeakerBoost"`
	Status          JobStatus  `json:"status" gorm:"type:varchar(20);not null;index"`
	AudioLocation   string     `json:"audioLocation,omitempty" gorm:"type:text"`
	AudioKey        string     `json:"-" gorm:"type:text"`
	FileSize        int64      `json:"fileSize,omitempty"`
	Duration        float64    `json:"duration,omitempty"`
	ErrorMessage    string     `json:"errorMessage,omitempty" gorm:"type:text"`
	ExpiresAt       time.Time  `json:"expiresAt" gorm:"index"`
	CreatedAt       time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (SpeechJob) TableName() string {
	return "speech_histories"
}

// Settings retourne les paramètres de voix enregistrés
func (j *SpeechJob) Settings() VoiceSettings {
	return VoiceSettings{
		Stability:       j.Stability,
		SimilarityBoost: j.SimilarityBoost,
		Style:           j.Style,
		UseSpeakerBoost: j.UseSpeakerBoost,
	}
}

// SpeechResult est le résultat exposé d'une synthèse terminée
type SpeechResult struct {
	ID       uuid.UUID `json:"id"`
	AudioURL string    `json:"audioUrl"`
	FileSize int64     `json:"fileSize"`
	Duration float64   `json:"duration,omitempty"`
	Language string    `json:"language"`
}
