package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/events"
	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
	"github.com/SaidjonAlixon/testblok/internal/validator"
)

type paymentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewPaymentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) PaymentService {
	return &paymentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *paymentService) Submit(ctx context.Context, userID string, req *SubmitPaymentRequest) (*models.Payment, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, NewValidationError("invalid payment request", errs)
	}

	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsBlocked {
		return nil, ErrUserBlocked
	}

	direction, err := s.repo.Direction().GetByID(ctx, nil, req.DirectionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDirectionNotFound
		}
		return nil, fmt.Errorf("failed to get direction: %w", err)
	}
	if direction.IsFree {
		return nil, NewBusinessRuleError("payment", "direction is free, no payment needed")
	}

	payment := &models.Payment{
		ID:            uuid.New().String(),
		UserID:        userID,
		Status:        models.PaymentPending,
		DirectionID:   direction.ID,
		DirectionName: direction.Name,
		Amount:        req.Amount,
		UserName:      user.FullName,
		UserEmail:     user.Email,
	}

	if err := s.repo.Payment().Create(ctx, nil, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.logger.Info("payment submitted",
		"payment_id", payment.ID, "user_id", userID,
		"direction_id", direction.ID, "amount", req.Amount)
	return payment, nil
}

func (s *paymentService) List(ctx context.Context, filters repositories.PaymentFilters, userID string) ([]*models.Payment, int64, error) {
	requester, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, 0, ErrUserNotFound
		}
		return nil, 0, fmt.Errorf("failed to get user: %w", err)
	}

	// Students only see their own payments.
	if requester.Role != models.RoleAdmin {
		filters.UserID = &userID
	}

	payments, total, err := s.repo.Payment().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, total, nil
}

// Confirm marks the payment confirmed and grants the purchase in the same
// transaction: the direction joins the student's allowed set and the attempt
// cap grows by the per-purchase amount.
func (s *paymentService) Confirm(ctx context.Context, paymentID, adminID string) (*models.Payment, error) {
	var payment *models.Payment

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		payment, err = txRepo.Payment().GetByID(ctx, nil, paymentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("failed to get payment: %w", err)
		}
		if payment.Status != models.PaymentPending {
			return ErrPaymentDecided
		}

		now := time.Now()
		payment.Status = models.PaymentConfirmed
		payment.DecidedBy = &adminID
		payment.DecidedAt = &now
		if err := txRepo.Payment().Update(ctx, nil, payment); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}

		user, err := txRepo.User().GetByID(ctx, nil, payment.UserID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if !user.HasDirection(payment.DirectionID) {
			user.AllowedDirections = append(user.AllowedDirections, payment.DirectionID)
		}
		if !user.HasUnlimitedAttempts() {
			user.MaxTestAttempts += models.AttemptsPerPurchase
		}
		if err := txRepo.User().Update(ctx, nil, user); err != nil {
			return fmt.Errorf("failed to grant purchase: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDecision(ctx, payment, true)
	s.logger.Info("payment confirmed",
		"payment_id", paymentID, "user_id", payment.UserID, "admin_id", adminID)
	return payment, nil
}

func (s *paymentService) Reject(ctx context.Context, paymentID, adminID string) (*models.Payment, error) {
	payment, err := s.repo.Payment().GetByID(ctx, nil, paymentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment.Status != models.PaymentPending {
		return nil, ErrPaymentDecided
	}

	now := time.Now()
	payment.Status = models.PaymentRejected
	payment.DecidedBy = &adminID
	payment.DecidedAt = &now
	if err := s.repo.Payment().Update(ctx, nil, payment); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	s.publishDecision(ctx, payment, false)
	s.logger.Info("payment rejected",
		"payment_id", paymentID, "user_id", payment.UserID, "admin_id", adminID)
	return payment, nil
}

func (s *paymentService) publishDecision(ctx context.Context, payment *models.Payment, confirmed bool) {
	if s.publisher == nil {
		return
	}

	topic := events.TopicPaymentRejected
	if confirmed {
		topic = events.TopicPaymentConfirmed
	}
	event := events.NewEvent(topic, events.PaymentDecidedEvent{
		PaymentID:     payment.ID,
		UserID:        payment.UserID,
		DirectionID:   payment.DirectionID,
		DirectionName: payment.DirectionName,
		Amount:        payment.Amount,
		Confirmed:     confirmed,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish payment event", "error", err)
	}
}
