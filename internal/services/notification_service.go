package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/events"
	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
	"github.com/SaidjonAlixon/testblok/internal/validator"
)

type notificationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	bus       *events.Bus
	publisher events.EventPublisher

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

func NewNotificationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, bus *events.Bus, publisher events.EventPublisher) NotificationService {
	return &notificationService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		bus:       bus,
		publisher: publisher,
	}
}

// ===== CONSUMER LIFECYCLE =====

// Start subscribes to every domain topic and turns events into stored
// notifications. Consumers run until Stop or context cancellation.
func (s *notificationService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.bus == nil {
		s.logger.Warn("notification consumers disabled, no event bus")
		return nil
	}

	consumerCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	topics := map[string]func(context.Context, json.RawMessage) error{
		events.TopicResultCompleted:    s.onResultCompleted,
		events.TopicPaymentConfirmed:   s.onPaymentDecided,
		events.TopicPaymentRejected:    s.onPaymentDecided,
		events.TopicSystemNotification: s.onSystemNotification,
	}

	for topic, handler := range topics {
		messages, err := s.bus.Subscribe(consumerCtx, topic)
		if err != nil {
			cancel()
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}

		s.wg.Add(1)
		go s.consume(consumerCtx, topic, messages, handler)
	}

	s.started = true
	s.logger.Info("notification consumers started", "topics", len(topics))
	return nil
}

func (s *notificationService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	s.started = false
	return nil
}

func (s *notificationService) consume(ctx context.Context, topic string, messages <-chan *message.Message, handler func(context.Context, json.RawMessage) error) {
	defer s.wg.Done()

	for msg := range messages {
		_, data, err := events.UnmarshalEvent(msg)
		if err != nil {
			s.logger.Error("failed to decode event", "topic", topic, "error", err)
			msg.Ack()
			continue
		}

		if err := handler(ctx, data); err != nil {
			s.logger.Error("failed to handle event", "topic", topic, "error", err)
		}
		msg.Ack()
	}
}

func (s *notificationService) onResultCompleted(ctx context.Context, data json.RawMessage) error {
	var event events.ResultCompletedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}

	actionURL := fmt.Sprintf("/results/%s", event.ResultID)
	title := "Test natijangiz tayyor"
	message := fmt.Sprintf("%s: %.1f ball (%d/%d to'g'ri javob)",
		event.DirectionName, event.TotalScore, event.Correct, event.Total)

	return s.Notify(ctx, event.UserID, models.NotificationResultReady, title, message, &actionURL)
}

func (s *notificationService) onPaymentDecided(ctx context.Context, data json.RawMessage) error {
	var event events.PaymentDecidedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}

	if event.Confirmed {
		title := "To'lov tasdiqlandi"
		message := fmt.Sprintf("%s yo'nalishi uchun to'lovingiz tasdiqlandi. Sizga %d ta urinish qo'shildi.",
			event.DirectionName, models.AttemptsPerPurchase)
		return s.Notify(ctx, event.UserID, models.NotificationTestAvailable, title, message, nil)
	}

	title := "To'lov rad etildi"
	message := fmt.Sprintf("%s yo'nalishi uchun to'lovingiz rad etildi. Qo'llab-quvvatlash xizmatiga murojaat qiling.",
		event.DirectionName)
	return s.Notify(ctx, event.UserID, models.NotificationWarning, title, message, nil)
}

func (s *notificationService) onSystemNotification(ctx context.Context, data json.RawMessage) error {
	var event events.BulkNotificationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}

	var actionURL *string
	if event.ActionURL != "" {
		actionURL = &event.ActionURL
	}

	notifications := make([]*models.Notification, 0, len(event.UserIDs))
	for _, userID := range event.UserIDs {
		notifications = append(notifications, &models.Notification{
			ID:        uuid.New().String(),
			UserID:    userID,
			Title:     event.Title,
			Message:   event.Message,
			Type:      models.NotificationType(event.Kind),
			ActionURL: actionURL,
		})
	}

	return s.repo.Notification().CreateBatch(ctx, nil, notifications)
}

// ===== DIRECT OPERATIONS =====

func (s *notificationService) Notify(ctx context.Context, userID string, kind models.NotificationType, title, message string, actionURL *string) error {
	notification := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      kind,
		ActionURL: actionURL,
	}

	if err := s.repo.Notification().Create(ctx, nil, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// Broadcast fans an announcement out to every active student through the
// event bus, so delivery shares the same consumer path as domain events.
func (s *notificationService) Broadcast(ctx context.Context, req *BroadcastRequest, adminID string) (int, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return 0, NewValidationError("invalid broadcast", errs)
	}

	role := models.RoleStudent
	blocked := false
	users, _, err := s.repo.User().List(ctx, nil, repositories.UserFilters{
		Role:      &role,
		IsBlocked: &blocked,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list recipients: %w", err)
	}

	userIDs := make([]string, 0, len(users))
	for _, u := range users {
		userIDs = append(userIDs, u.ID)
	}

	if s.publisher != nil {
		event := events.NewEvent(events.TopicSystemNotification, events.BulkNotificationEvent{
			UserIDs:   userIDs,
			Title:     req.Title,
			Message:   req.Message,
			Kind:      string(req.Type),
			ActionURL: req.ActionURL,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			return 0, fmt.Errorf("failed to publish broadcast: %w", err)
		}
	} else {
		// No bus configured: store directly.
		var actionURL *string
		if req.ActionURL != "" {
			actionURL = &req.ActionURL
		}
		notifications := make([]*models.Notification, 0, len(userIDs))
		for _, userID := range userIDs {
			notifications = append(notifications, &models.Notification{
				ID:        uuid.New().String(),
				UserID:    userID,
				Title:     req.Title,
				Message:   req.Message,
				Type:      req.Type,
				ActionURL: actionURL,
			})
		}
		if err := s.repo.Notification().CreateBatch(ctx, nil, notifications); err != nil {
			return 0, fmt.Errorf("failed to store broadcast: %w", err)
		}
	}

	s.logger.Info("broadcast sent", "recipients", len(userIDs), "admin_id", adminID)
	return len(userIDs), nil
}

func (s *notificationService) ListByUser(ctx context.Context, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	notifications, total, err := s.repo.Notification().ListByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	notification, err := s.repo.Notification().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to get notification: %w", err)
	}
	if notification.UserID != userID {
		return NewPermissionError(userID, id, "notification", "mark_read", "not the recipient")
	}

	return s.repo.Notification().MarkRead(ctx, nil, id)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.Notification().MarkAllRead(ctx, nil, userID)
}

func (s *notificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.repo.Notification().CountUnread(ctx, nil, userID)
}
