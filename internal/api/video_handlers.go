package api

import (
	"net/http"

	"admix-studio/internal/jobs"
	"admix-studio/internal/validation"

	"github.com/gin-gonic/gin"
)

type videoStatusRequest struct {
	VideoID string `json:"videoId"`
}

func (h *Handlers) CreateVideo(c *gin.Context) {
	var req jobs.VideoSubmission
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.submissions.SubmitVideo(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// VideoStatusByBody variante POST {videoId}
func (h *Handlers) VideoStatusByBody(c *gin.Context) {
	var req videoStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	id, result := h.validator.ValidateIDParam("videoId", req.VideoID)
	if !result.Valid {
		respondError(c, result.Err())
		return
	}
	resp, err := h.statuses.VideoStatus(c.Request.Context(), id.String())
	h.writeStatus(c, resp, err)
}

func (h *Handlers) VideoStatus(c *gin.Context) {
	resp, err := h.statuses.VideoStatus(c.Request.Context(), validation.ValidatedID(c).String())
	h.writeStatus(c, resp, err)
}

// VideoHistory vidéos de l'utilisateur connecté, tous statuts
func (h *Handlers) VideoHistory(c *gin.Context) {
	pagination := validation.ValidatedPagination(c)
	page, err := h.library.VideoHistory(c.Request.Context(), userID(c), pagination.Page, pagination.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
