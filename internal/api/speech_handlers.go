package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"admix-studio/internal/apperrors"
	"admix-studio/internal/jobs"
	"admix-studio/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// nombre d'octets lus pour contrôler la signature audio
const signatureLength = 12

type speechStatusRequest struct {
	SpeechID string `json:"speechId"`
}

type voiceDeleteRequest struct {
	VoiceID string `json:"voiceId"`
}

func (h *Handlers) GenerateSpeech(c *gin.Context) {
	var req jobs.SpeechSubmission
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.submissions.SubmitSpeech(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// SpeechStatusByBody variante POST {speechId}
func (h *Handlers) SpeechStatusByBody(c *gin.Context) {
	var req speechStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	id, result := h.validator.ValidateIDParam("speechId", req.SpeechID)
	if !result.Valid {
		respondError(c, result.Err())
		return
	}
	resp, err := h.statuses.SpeechStatus(c.Request.Context(), id.String())
	h.writeStatus(c, resp, err)
}

func (h *Handlers) SpeechStatus(c *gin.Context) {
	resp, err := h.statuses.SpeechStatus(c.Request.Context(), validation.ValidatedID(c).String())
	h.writeStatus(c, resp, err)
}

func (h *Handlers) SpeechHistory(c *gin.Context) {
	pagination := validation.ValidatedPagination(c)
	page, err := h.library.SpeechHistory(c.Request.Context(), userID(c), pagination.Page, pagination.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handlers) ListVoices(c *gin.Context) {
	voices, err := h.library.ListVoices(c.Request.Context(), c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"voices": voices})
}

// DeleteSpeech supprime une synthèse de l'utilisateur {speechId}
func (h *Handlers) DeleteSpeech(c *gin.Context) {
	var req speechStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	id, result := h.validator.ValidateIDParam("speechId", req.SpeechID)
	if !result.Valid {
		respondError(c, result.Err())
		return
	}
	if err := h.library.DeleteSpeech(c.Request.Context(), userID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Speech deleted successfully", "deletedId": id})
}

// AddVoice ajoute au catalogue une voix existante du fournisseur
func (h *Handlers) AddVoice(c *gin.Context) {
	var req jobs.VoiceRegistration
	if !bindJSON(c, &req) {
		return
	}
	voice, err := h.library.AddVoice(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Voice added successfully", "voice": voice})
}

// DeleteVoice supprime une voix du catalogue avec ses échantillons {voiceId}
func (h *Handlers) DeleteVoice(c *gin.Context) {
	var req voiceDeleteRequest
	if !bindJSON(c, &req) {
		return
	}
	id, result := h.validator.ValidateIDParam("voiceId", req.VoiceID)
	if !result.Valid {
		respondError(c, result.Err())
		return
	}
	if err := h.library.DeleteVoice(c.Request.Context(), userID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Voice deleted successfully", "deletedVoiceId": id})
}

// CreateVoice enregistre les échantillons dans le répertoire d'upload puis
// soumet le clonage. Les fichiers sont supprimés si la soumission échoue.
func (h *Handlers) CreateVoice(c *gin.Context) {
	files := validation.ValidatedFiles(c)

	req := jobs.VoiceCloneSubmission{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Language:    c.PostForm("language"),
		Accent:      c.PostForm("accent"),
	}
	if raw := c.PostForm("labels"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Labels); err != nil {
			respondError(c, apperrors.Validation("labels must be a JSON object of strings"))
			return
		}
	}

	paths, err := h.saveSamples(files)
	if err != nil {
		removeFiles(c, paths)
		respondError(c, err)
		return
	}
	req.FilePaths = paths

	resp, err := h.submissions.SubmitVoiceClone(c.Request.Context(), userID(c), req)
	if err != nil {
		removeFiles(c, paths)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *Handlers) saveSamples(files []*multipart.FileHeader) ([]string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	paths := make([]string, 0, len(files))
	for _, file := range files {
		if err := h.checkSignature(file); err != nil {
			return paths, err
		}

		name := uuid.NewString() + "-" + h.validator.SanitizeFilename(file.Filename)
		dst := filepath.Join(h.uploadDir, name)
		if err := saveUploadedFile(file, dst); err != nil {
			return paths, fmt.Errorf("failed to save %s: %w", file.Filename, err)
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

func (h *Handlers) checkSignature(file *multipart.FileHeader) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.Filename, err)
	}
	defer src.Close()

	head := make([]byte, signatureLength)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read %s: %w", file.Filename, err)
	}
	return h.validator.ValidateAudioSignature(head[:n], file.Filename).Err()
}

func saveUploadedFile(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func removeFiles(c *gin.Context, paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Str("path", path).Msg("failed to remove uploaded sample")
		}
	}
}
