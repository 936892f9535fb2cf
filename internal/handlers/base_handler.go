package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SaidjonAlixon/testblok/internal/services"
	"github.com/SaidjonAlixon/testblok/internal/utils"
)

// ErrorResponse is the uniform error body of every failed request.
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps operations that have no natural payload.
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the logging and error translation shared by all
// handlers.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs a handler entry with the request-scoped logger when one is
// present.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c.Request.Context()).Info(msg, args...)
}

// userID returns the authenticated user id or writes a 401 and reports false.
func (h *BaseHandler) userID(c *gin.Context) (string, bool) {
	id, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	return id.(string), true
}

// handleServiceError translates service-layer errors into HTTP responses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var permissionErr *services.PermissionError
	var businessErr *services.BusinessRuleError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: validationErr.Message,
			Details: validationErr.Errors,
		})

	case errors.As(err, &permissionErr):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: permissionErr.Error(),
		})

	case errors.As(err, &businessErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessErr.Message,
		})

	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Invalid credentials",
		})

	case errors.Is(err, services.ErrUserBlocked):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Account is blocked",
		})

	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Email is already registered",
		})

	case errors.Is(err, services.ErrPaymentRequired):
		c.JSON(http.StatusPaymentRequired, ErrorResponse{
			Message: "Payment required for this direction",
		})

	case errors.Is(err, services.ErrAttemptsExhausted):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "No test attempts remaining",
		})

	case errors.Is(err, services.ErrDirectionInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Direction is not active",
		})

	case errors.Is(err, services.ErrSessionNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Session is no longer active",
		})

	case errors.Is(err, services.ErrPaymentDecided):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Payment has already been decided",
		})

	case errors.Is(err, services.ErrTicketClosed):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Ticket is closed",
		})

	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: err.Error(),
		})

	default:
		utils.FromContext(c.Request.Context()).Error("internal error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
