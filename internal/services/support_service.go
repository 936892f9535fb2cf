package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
	"github.com/SaidjonAlixon/testblok/internal/validator"
)

type supportService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewSupportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) SupportService {
	return &supportService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *supportService) CreateTicket(ctx context.Context, userID string, req *CreateTicketRequest) (*models.SupportTicket, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, NewValidationError("invalid ticket", errs)
	}

	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	ticket := &models.SupportTicket{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Subject:   req.Subject,
		Message:   req.Message,
		Status:    models.TicketOpen,
		Priority:  priority,
		UserName:  user.FullName,
		UserEmail: user.Email,
	}

	if err := s.repo.Ticket().Create(ctx, nil, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	s.logger.Info("support ticket created", "ticket_id", ticket.ID, "user_id", user.ID, "priority", priority)
	return ticket, nil
}

func (s *supportService) GetTicket(ctx context.Context, id, userID string) (*models.SupportTicket, error) {
	ticket, err := s.repo.Ticket().GetByIDWithResponses(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	if ticket.UserID != userID {
		requester, err := s.repo.User().GetByID(ctx, nil, userID)
		if err != nil || !requester.IsAdmin() {
			return nil, NewPermissionError(userID, id, "ticket", "read", "not the ticket owner")
		}
	}

	return ticket, nil
}

// ListTickets returns the requester's own tickets; admins see everything and
// may filter freely.
func (s *supportService) ListTickets(ctx context.Context, filters repositories.TicketFilters, userID string) ([]*models.SupportTicket, int64, error) {
	requester, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, 0, ErrUserNotFound
		}
		return nil, 0, fmt.Errorf("failed to get user: %w", err)
	}

	if !requester.IsAdmin() {
		filters.UserID = &requester.ID
	}

	tickets, total, err := s.repo.Ticket().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, total, nil
}

func (s *supportService) Respond(ctx context.Context, ticketID, userID string, req *TicketResponseRequest) (*models.SupportResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, NewValidationError("invalid response", errs)
	}

	ticket, err := s.repo.Ticket().GetByID(ctx, nil, ticketID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket.Status == models.TicketClosed {
		return nil, ErrTicketClosed
	}

	requester, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !requester.IsAdmin() && ticket.UserID != requester.ID {
		return nil, NewPermissionError(userID, ticketID, "ticket", "respond", "not the ticket owner")
	}

	response := &models.SupportResponse{
		ID:       uuid.New().String(),
		TicketID: ticket.ID,
		UserID:   requester.ID,
		UserName: requester.FullName,
		Message:  req.Message,
		IsAdmin:  requester.IsAdmin(),
	}

	if err := s.repo.Ticket().AddResponse(ctx, nil, response); err != nil {
		return nil, fmt.Errorf("failed to add response: %w", err)
	}

	// First admin reply moves a fresh ticket into work.
	if requester.IsAdmin() && ticket.Status == models.TicketOpen {
		ticket.Status = models.TicketInProgress
		if err := s.repo.Ticket().Update(ctx, nil, ticket); err != nil {
			s.logger.Warn("failed to advance ticket status", "ticket_id", ticket.ID, "error", err)
		}
	}

	return response, nil
}

func (s *supportService) UpdateStatus(ctx context.Context, ticketID string, status models.TicketStatus, adminID string) error {
	switch status {
	case models.TicketOpen, models.TicketInProgress, models.TicketResolved, models.TicketClosed:
	default:
		return NewBusinessRuleError("ticket_status", fmt.Sprintf("unknown ticket status: %s", status))
	}

	ticket, err := s.repo.Ticket().GetByID(ctx, nil, ticketID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTicketNotFound
		}
		return fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket.Status == status {
		return nil
	}

	ticket.Status = status
	if err := s.repo.Ticket().Update(ctx, nil, ticket); err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}

	s.logger.Info("ticket status changed", "ticket_id", ticket.ID, "status", status, "admin_id", adminID)
	return nil
}
