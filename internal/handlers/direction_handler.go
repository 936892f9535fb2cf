package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SaidjonAlixon/testblok/internal/repositories"
	"github.com/SaidjonAlixon/testblok/internal/services"
	"github.com/SaidjonAlixon/testblok/internal/utils"
)

type DirectionHandler struct {
	BaseHandler
	directionService services.DirectionService
}

func NewDirectionHandler(directionService services.DirectionService, logger utils.Logger) *DirectionHandler {
	return &DirectionHandler{
		BaseHandler:      NewBaseHandler(logger),
		directionService: directionService,
	}
}

// ListDirections returns the student catalog with per-user access flags
func (h *DirectionHandler) ListDirections(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	directions, err := h.directionService.ListForStudent(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, directions)
}

// GetDirection returns one direction with aggregates
func (h *DirectionHandler) GetDirection(c *gin.Context) {
	direction, err := h.directionService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, direction)
}

// ===== ADMIN OPERATIONS =====

// ListAllDirections lists directions without access filtering, for the admin
// panel
func (h *DirectionHandler) ListAllDirections(c *gin.Context) {
	filters := repositories.DirectionFilters{}
	filters.Limit, filters.Offset = parsePagination(c)

	if active := c.Query("is_active"); active != "" {
		b := active == "true"
		filters.IsActive = &b
	}
	if free := c.Query("is_free"); free != "" {
		b := free == "true"
		filters.IsFree = &b
	}

	directions, err := h.directionService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, directions)
}

// GetDirectionDetails returns the direction with nested subjects and
// questions, correct answers included
func (h *DirectionHandler) GetDirectionDetails(c *gin.Context) {
	direction, err := h.directionService.GetByIDWithDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, direction)
}

// CreateDirection creates a direction
func (h *DirectionHandler) CreateDirection(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	var req services.CreateDirectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	direction, err := h.directionService.Create(c.Request.Context(), &req, adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, direction)
}

// UpdateDirection updates direction fields
func (h *DirectionHandler) UpdateDirection(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	var req services.UpdateDirectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	direction, err := h.directionService.Update(c.Request.Context(), c.Param("id"), &req, adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, direction)
}

// DeleteDirection removes a direction and its subjects and questions
func (h *DirectionHandler) DeleteDirection(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.directionService.Delete(c.Request.Context(), c.Param("id"), adminID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Direction deleted"})
}

// CreateSubject adds a subject to a direction
func (h *DirectionHandler) CreateSubject(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	var req services.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	subject, err := h.directionService.CreateSubject(c.Request.Context(), c.Param("id"), &req, adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, subject)
}

// UpdateSubject updates a subject
func (h *DirectionHandler) UpdateSubject(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	var req services.UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	subject, err := h.directionService.UpdateSubject(c.Request.Context(), c.Param("subject_id"), &req, adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, subject)
}

// DeleteSubject removes a subject and its questions
func (h *DirectionHandler) DeleteSubject(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.directionService.DeleteSubject(c.Request.Context(), c.Param("subject_id"), adminID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Subject deleted"})
}

// CreateQuestion adds a question to a subject
func (h *DirectionHandler) CreateQuestion(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	question, err := h.directionService.CreateQuestion(c.Request.Context(), c.Param("subject_id"), &req, adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// UpdateQuestion updates a question
func (h *DirectionHandler) UpdateQuestion(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	var req services.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	question, err := h.directionService.UpdateQuestion(c.Request.Context(), c.Param("question_id"), &req, adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// DeleteQuestion removes a question
func (h *DirectionHandler) DeleteQuestion(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.directionService.DeleteQuestion(c.Request.Context(), c.Param("question_id"), adminID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question deleted"})
}
