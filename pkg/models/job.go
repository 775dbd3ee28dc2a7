package models

import (
	"strings"
	"time"
)

type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// StatusNotFound est renvoyé par les requêtes de statut quand la ligne n'existe pas (encore)
const StatusNotFound = "not_found"

// IsTerminal retourne true si le statut est final
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Public retourne la forme exposée aux clients ("processing", "completed", "failed").
// PENDING est exposé comme "processing".
func (s JobStatus) Public() string {
	if s == StatusPending {
		return strings.ToLower(string(StatusProcessing))
	}
	return strings.ToLower(string(s))
}

// Retention windows
const (
	SpeechRetention = 7 * 24 * time.Hour
	VideoRetention  = 7 * 24 * time.Hour
	ScriptRetention = 10 * 24 * time.Hour
)

// StatusResponse est la réponse commune des endpoints de statut
type StatusResponse struct {
	Status string      `json:"status"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// SubmissionResponse est renvoyée immédiatement à la création d'un job
type SubmissionResponse struct {
	JobID     string `json:"jobId"`
	StatusURL string `json:"statusUrl"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}
