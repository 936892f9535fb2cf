package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SaidjonAlixon/testblok/internal/repositories"
	"github.com/SaidjonAlixon/testblok/internal/services"
	"github.com/SaidjonAlixon/testblok/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

type startSessionRequest struct {
	DirectionID string `json:"direction_id" binding:"required"`
}

// StartSession begins a timed exam session for a direction. If the user
// already has an active session it is resumed instead.
func (h *SessionHandler) StartSession(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Starting exam session", "direction_id", req.DirectionID)

	snapshot, err := h.sessionService.Start(c.Request.Context(), userID, req.DirectionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, snapshot)
}

// GetSession returns the current snapshot of a session
func (h *SessionHandler) GetSession(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	snapshot, err := h.sessionService.Snapshot(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetActiveSession returns the user's in-progress session, if any
func (h *SessionHandler) GetActiveSession(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	snapshot, err := h.sessionService.Active(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// SubmitAnswer records or overwrites the answer for one question
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req services.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.sessionService.Answer(c.Request.Context(), c.Param("id"), userID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Answer recorded"})
}

// Navigate moves the session cursor and returns the new snapshot
func (h *SessionHandler) Navigate(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req services.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	snapshot, err := h.sessionService.Navigate(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// ReportViolation logs a browser integrity event against the session
func (h *SessionHandler) ReportViolation(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req services.ViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.sessionService.ReportViolation(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CompleteSession submits the exam for scoring and returns the result
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	result, err := h.sessionService.Complete(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExitSession abandons the session without producing a result
func (h *SessionHandler) ExitSession(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.sessionService.Exit(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Session abandoned"})
}

// GetResult returns the persisted result of a finished session
func (h *SessionHandler) GetResult(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	result, err := h.sessionService.GetResult(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListResults lists results; students see their own, admins can filter by
// user and direction
func (h *SessionHandler) ListResults(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	filters := repositories.ResultFilters{
		SortBy:    c.DefaultQuery("sort_by", "completed_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	filters.Limit, filters.Offset = parsePagination(c)

	if uid := c.Query("user_id"); uid != "" {
		filters.UserID = &uid
	}
	if did := c.Query("direction_id"); did != "" {
		filters.DirectionID = &did
	}
	if from := c.Query("date_from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filters.DateFrom = &t
		}
	}
	if to := c.Query("date_to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filters.DateTo = &t
		}
	}

	results, err := h.sessionService.ListResults(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
