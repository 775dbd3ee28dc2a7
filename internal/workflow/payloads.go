package workflow

import (
	"admix-studio/pkg/models"
)

// Charges utiles des événements

type ContentRequest struct {
	UserID      string             `json:"userId"`
	UserMessage string             `json:"userMessage"`
	QuickAction models.ContentType `json:"quickAction"`
}

type SpeechRequest struct {
	UserID         string               `json:"userId"`
	Text           string               `json:"text"`
	VoiceID        string               `json:"voiceId"`
	VoiceProfileID string               `json:"voiceProfileId,omitempty"`
	Language       string               `json:"language"`
	ScriptID       string               `json:"scriptId,omitempty"`
	Settings       models.VoiceSettings `json:"voiceSettings"`
}

type VoiceCloneRequest struct {
	UserID      string            `json:"userId"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Language    string            `json:"language,omitempty"`
	Accent      string            `json:"accent,omitempty"`
	// AudioFilePaths fichiers temporaires locaux déposés par l'API
	AudioFilePaths []string `json:"audioFilePaths"`
}

type VideoRequest struct {
	UserID   string `json:"userId"`
	AvatarID string `json:"avatarId"`
	VoiceID  string `json:"voiceId"`
	Script   string `json:"script"`
	Duration string `json:"duration,omitempty"`
}

// CleanupResult résultat du balayage quotidien
type CleanupResult struct {
	ScriptsDeleted  int64  `json:"scriptsDeleted"`
	SpeechesDeleted int64  `json:"speechesDeleted"`
	Timestamp       string `json:"timestamp"`
}
