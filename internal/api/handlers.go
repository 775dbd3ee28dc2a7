package api

import (
	"context"
	"net/http"
	"time"

	"admix-studio/internal/apperrors"
	"admix-studio/internal/auth"
	"admix-studio/internal/jobs"
	"admix-studio/internal/validation"
	"admix-studio/internal/worker"
	"admix-studio/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Submitter interface {
	SubmitContent(ctx context.Context, userID string, req jobs.ContentSubmission) (*models.SubmissionResponse, error)
	SubmitSpeech(ctx context.Context, userID string, req jobs.SpeechSubmission) (*models.SubmissionResponse, error)
	SubmitVoiceClone(ctx context.Context, userID string, req jobs.VoiceCloneSubmission) (*models.SubmissionResponse, error)
	SubmitVideo(ctx context.Context, userID string, req jobs.VideoSubmission) (*models.SubmissionResponse, error)
}

type StatusReader interface {
	ContentStatus(ctx context.Context, runID string) (*models.StatusResponse, error)
	SpeechStatus(ctx context.Context, id string) (*models.StatusResponse, error)
	VideoStatus(ctx context.Context, id string) (*models.StatusResponse, error)
	RunStatus(ctx context.Context, runID string) (*models.StatusResponse, error)
}

type Library interface {
	SpeechHistory(ctx context.Context, userID string, page, limit int) (*jobs.SpeechHistoryPage, error)
	VideoHistory(ctx context.Context, userID string, page, limit int) (*jobs.VideoHistoryPage, error)
	ListVoices(ctx context.Context, userID string) ([]models.VoiceProfile, error)
	AddVoice(ctx context.Context, userID string, req jobs.VoiceRegistration) (*models.VoiceProfile, error)
	DeleteSpeech(ctx context.Context, userID string, id uuid.UUID) error
	DeleteVoice(ctx context.Context, userID string, id uuid.UUID) error
}

type PoolStats interface {
	GetStats() worker.PoolStats
}

type Handlers struct {
	submissions Submitter
	statuses    StatusReader
	library     Library
	pool        PoolStats
	validator   *validation.APIValidator
	uploadDir   string
}

func NewHandlers(submissions Submitter, statuses StatusReader, library Library, pool PoolStats, validator *validation.APIValidator, uploadDir string) *Handlers {
	return &Handlers{
		submissions: submissions,
		statuses:    statuses,
		library:     library,
		pool:        pool,
		validator:   validator,
		uploadDir:   uploadDir,
	}
}

// Health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "admix-studio",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// WorkerStats expose l'état du pool
func (h *Handlers) WorkerStats(c *gin.Context) {
	if h.pool == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "worker pool not running in this process"})
		return
	}
	c.JSON(http.StatusOK, h.pool.GetStats())
}

// respondError traduit une erreur de domaine en réponse JSON.
// Les erreurs internes ne sont pas détaillées au client.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	logger := zerolog.Ctx(c.Request.Context())
	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("request failed")
		if status == http.StatusInternalServerError {
			message = "internal server error"
		}
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format", "details": err.Error()})
		return false
	}
	return true
}

// userID retourne l'identifiant du principal, vide pour un appel anonyme
func userID(c *gin.Context) string {
	if principal, ok := auth.PrincipalFrom(c); ok {
		return principal.ID.String()
	}
	return ""
}

func (h *Handlers) writeStatus(c *gin.Context, resp *models.StatusResponse, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RunStatus statut générique d'un run de workflow
func (h *Handlers) RunStatus(c *gin.Context) {
	resp, err := h.statuses.RunStatus(c.Request.Context(), validation.ValidatedID(c).String())
	h.writeStatus(c, resp, err)
}
