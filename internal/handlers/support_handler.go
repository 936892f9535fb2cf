package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
	"github.com/SaidjonAlixon/testblok/internal/services"
	"github.com/SaidjonAlixon/testblok/internal/utils"
)

type SupportHandler struct {
	BaseHandler
	supportService services.SupportService
}

func NewSupportHandler(supportService services.SupportService, logger utils.Logger) *SupportHandler {
	return &SupportHandler{
		BaseHandler:    NewBaseHandler(logger),
		supportService: supportService,
	}
}

// CreateTicket opens a support ticket
func (h *SupportHandler) CreateTicket(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req services.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	ticket, err := h.supportService.CreateTicket(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

// GetTicket returns a ticket with its response thread
func (h *SupportHandler) GetTicket(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	ticket, err := h.supportService.GetTicket(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// ListTickets lists tickets; students see their own only
func (h *SupportHandler) ListTickets(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	filters := repositories.TicketFilters{}
	filters.Limit, filters.Offset = parsePagination(c)

	if status := c.Query("status"); status != "" {
		s := models.TicketStatus(status)
		filters.Status = &s
	}
	if priority := c.Query("priority"); priority != "" {
		p := models.TicketPriority(priority)
		filters.Priority = &p
	}

	tickets, total, err := h.supportService.ListTickets(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tickets": tickets,
		"total":   total,
	})
}

// RespondToTicket appends a reply to a ticket thread
func (h *SupportHandler) RespondToTicket(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req services.TicketResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	response, err := h.supportService.Respond(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

type ticketStatusRequest struct {
	Status models.TicketStatus `json:"status" binding:"required"`
}

// UpdateTicketStatus moves a ticket through its lifecycle
func (h *SupportHandler) UpdateTicketStatus(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	var req ticketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.supportService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, adminID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Ticket status updated"})
}
