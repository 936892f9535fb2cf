package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
	"github.com/SaidjonAlixon/testblok/internal/services"
	"github.com/SaidjonAlixon/testblok/internal/utils"
)

type PaymentHandler struct {
	BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService, logger utils.Logger) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    NewBaseHandler(logger),
		paymentService: paymentService,
	}
}

// SubmitPayment files a payment claim for a paid direction; it stays pending
// until an admin decides it
func (h *PaymentHandler) SubmitPayment(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req services.SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	payment, err := h.paymentService.Submit(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// ListPayments lists payments; students see their own submissions only
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	filters := repositories.PaymentFilters{}
	filters.Limit, filters.Offset = parsePagination(c)

	if status := c.Query("status"); status != "" {
		s := models.PaymentStatus(status)
		filters.Status = &s
	}
	if uid := c.Query("user_id"); uid != "" {
		filters.UserID = &uid
	}
	if did := c.Query("direction_id"); did != "" {
		filters.DirectionID = &did
	}

	payments, total, err := h.paymentService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": payments,
		"total":    total,
	})
}

// ConfirmPayment approves a pending payment, granting direction access and
// attempts in the same transaction
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.Confirm(c.Request.Context(), c.Param("id"), adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// RejectPayment declines a pending payment
func (h *PaymentHandler) RejectPayment(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.Reject(c.Request.Context(), c.Param("id"), adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}
