package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/starbound-health/navigator-backend/internal/middleware"
	snapshotrepo "github.com/starbound-health/navigator-backend/internal/repos/snapshot"
	"github.com/starbound-health/navigator-backend/internal/services"
)

type ProfileHandler struct {
	profileService services.ProfileService
	snapRepo       snapshotrepo.SnapshotRepo
}

func NewProfileHandler(profileService services.ProfileService, snapRepo snapshotrepo.SnapshotRepo) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, snapRepo: snapRepo}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	view, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}

// Rebuild replays the factor log into a fresh profile state.
func (h *ProfileHandler) Rebuild(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	view, err := h.profileService.RebuildProfile(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}

// FactorAudit returns the append-only factor log.
func (h *ProfileHandler) FactorAudit(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	factors, err := h.profileService.FactorAudit(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"factors": factors})
}

// Snapshot returns the audit snapshot for one event.
func (h *ProfileHandler) Snapshot(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	eventID, err := uuid.Parse(c.Param("eventID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	snap, err := h.snapRepo.GetByEventID(c.Request.Context(), nil, eventID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if snap.UserID != userID {
		RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	RespondOK(c, snap)
}
