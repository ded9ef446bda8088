package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/starbound-health/navigator-backend/internal/middleware"
	"github.com/starbound-health/navigator-backend/internal/services"
	"github.com/starbound-health/navigator-backend/internal/types"
)

type HabitHandler struct {
	habitService services.HabitService
}

func NewHabitHandler(habitService services.HabitService) *HabitHandler {
	return &HabitHandler{habitService: habitService}
}

type createHabitRequest struct {
	Title     string  `json:"title" binding:"required"`
	Cadence   string  `json:"cadence"`
	SourceKey *string `json:"source_key"`
}

func (h *HabitHandler) Create(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	habit, err := h.habitService.Create(c.Request.Context(), userID, req.Title, req.Cadence, req.SourceKey)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, habit)
}

func (h *HabitHandler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	habits, err := h.habitService.List(c.Request.Context(), userID, c.Query("archived") == "true")
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"habits": habits})
}

func (h *HabitHandler) Checkin(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	habitID, err := uuid.Parse(c.Param("habitID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	habit, err := h.habitService.Checkin(c.Request.Context(), userID, habitID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, habit)
}

func (h *HabitHandler) Archive(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	habitID, err := uuid.Parse(c.Param("habitID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.habitService.Archive(c.Request.Context(), userID, habitID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "archived"})
}

type NudgeHandler struct {
	nudgeService services.NudgeService
}

func NewNudgeHandler(nudgeService services.NudgeService) *NudgeHandler {
	return &NudgeHandler{nudgeService: nudgeService}
}

func (h *NudgeHandler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	nudges, err := h.nudgeService.ListUnseen(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"nudges": nudges})
}

func (h *NudgeHandler) MarkSeen(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	nudgeID, err := uuid.Parse(c.Param("nudgeID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.nudgeService.MarkSeen(c.Request.Context(), userID, nudgeID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "seen"})
}

func (h *NudgeHandler) MarkActed(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	nudgeID, err := uuid.Parse(c.Param("nudgeID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.nudgeService.MarkActed(c.Request.Context(), userID, nudgeID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "acted"})
}

type ChatThreadHandler struct {
	chatService services.ChatThreadService
}

func NewChatThreadHandler(chatService services.ChatThreadService) *ChatThreadHandler {
	return &ChatThreadHandler{chatService: chatService}
}

type chatThreadRequest struct {
	Title string `json:"title"`
}

func (h *ChatThreadHandler) Create(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req chatThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	thread, err := h.chatService.Create(c.Request.Context(), userID, req.Title)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, thread)
}

func (h *ChatThreadHandler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	threads, err := h.chatService.List(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"threads": threads})
}

func (h *ChatThreadHandler) Rename(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	threadID, err := uuid.Parse(c.Param("threadID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req chatThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.chatService.Rename(c.Request.Context(), userID, threadID, req.Title); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "renamed"})
}

func (h *ChatThreadHandler) Delete(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	threadID, err := uuid.Parse(c.Param("threadID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.chatService.Delete(c.Request.Context(), userID, threadID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}

type FeedbackHandler struct {
	feedbackService services.FeedbackService
}

func NewFeedbackHandler(feedbackService services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

type feedbackRequest struct {
	EventID   *uuid.UUID `json:"event_id"`
	InsightID *uuid.UUID `json:"insight_id"`
	Rating    *int       `json:"rating"`
	Body      string     `json:"body"`
}

func (h *FeedbackHandler) Submit(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	fb := &types.Feedback{
		UserID:    userID,
		EventID:   req.EventID,
		InsightID: req.InsightID,
		Rating:    req.Rating,
		Body:      req.Body,
	}
	created, err := h.feedbackService.Submit(c.Request.Context(), fb)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, created)
}

func (h *FeedbackHandler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	items, err := h.feedbackService.List(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"feedback": items})
}
