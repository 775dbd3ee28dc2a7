package api

import (
	"net/http"

	"admix-studio/internal/jobs"
	"admix-studio/internal/validation"

	"github.com/gin-gonic/gin"
)

// GenerateContent lance une génération de texte et répond 202
func (h *Handlers) GenerateContent(c *gin.Context) {
	var req jobs.ContentSubmission
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.submissions.SubmitContent(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *Handlers) GeneratedResult(c *gin.Context) {
	resp, err := h.statuses.ContentStatus(c.Request.Context(), validation.ValidatedID(c).String())
	h.writeStatus(c, resp, err)
}
