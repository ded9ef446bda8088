package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/starbound-health/navigator-backend/internal/middleware"
	"github.com/starbound-health/navigator-backend/internal/services"
)

type IngestHandler struct {
	ingestService services.IngestService
}

func NewIngestHandler(ingestService services.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

// Submit runs the full pipeline for one free-text submission and returns
// the response model plus the decision snapshot.
func (h *IngestHandler) Submit(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	result, err := h.ingestService.SubmitEvent(c.Request.Context(), userID, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

// SubmitAnswers ingests structured instrument answers and reports which
// were accepted into the factor log and which were rejected.
func (h *IngestHandler) SubmitAnswers(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req services.AnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	result, err := h.ingestService.SubmitAnswers(c.Request.Context(), userID, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}
