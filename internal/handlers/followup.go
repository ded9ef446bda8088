package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/starbound-health/navigator-backend/internal/middleware"
	"github.com/starbound-health/navigator-backend/internal/services"
)

type FollowUpHandler struct {
	followUpService services.FollowUpService
}

func NewFollowUpHandler(followUpService services.FollowUpService) *FollowUpHandler {
	return &FollowUpHandler{followUpService: followUpService}
}

func (h *FollowUpHandler) Status(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	status, err := h.followUpService.Status(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, status)
}

func (h *FollowUpHandler) Resolve(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	followUpID, err := uuid.Parse(c.Param("followUpID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.followUpService.Resolve(c.Request.Context(), userID, followUpID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "resolved"})
}
