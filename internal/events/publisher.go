package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// Event topics. Topic and event type are the same string.
const (
	TopicResultCompleted    = "result.completed"
	TopicPaymentConfirmed   = "payment.confirmed"
	TopicPaymentRejected    = "payment.rejected"
	TopicSystemNotification = "system.notification"
)

// Event is the envelope every domain event travels in.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// NewEvent stamps an envelope with id and time.
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now(),
		Data:       data,
	}
}

// EventPublisher publishes domain events. Implementations must be safe for
// concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// ResultCompletedEvent is emitted when an exam session produces a result.
type ResultCompletedEvent struct {
	ResultID      string  `json:"result_id"`
	UserID        string  `json:"user_id"`
	DirectionID   string  `json:"direction_id"`
	DirectionName string  `json:"direction_name"`
	TotalScore    float64 `json:"total_score"`
	Correct       int     `json:"correct"`
	Total         int     `json:"total"`
	EndReason     string  `json:"end_reason"`
}

// PaymentDecidedEvent is emitted when an admin confirms or rejects a payment.
type PaymentDecidedEvent struct {
	PaymentID     string  `json:"payment_id"`
	UserID        string  `json:"user_id"`
	DirectionID   string  `json:"direction_id"`
	DirectionName string  `json:"direction_name"`
	Amount        float64 `json:"amount"`
	Confirmed     bool    `json:"confirmed"`
}

// BulkNotificationEvent carries an admin broadcast to many users.
type BulkNotificationEvent struct {
	UserIDs   []string `json:"user_ids"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	Kind      string   `json:"kind"`
	ActionURL string   `json:"action_url,omitempty"`
}

// marshalMessage converts an envelope into a watermill message.
func marshalMessage(event Event) (*message.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("type", event.Type)
	return msg, nil
}

// UnmarshalEvent decodes a watermill message back into the envelope. Data
// stays as raw JSON for the consumer to decode into its own type.
func UnmarshalEvent(msg *message.Message) (Event, json.RawMessage, error) {
	var raw struct {
		ID         string          `json:"id"`
		Type       string          `json:"type"`
		OccurredAt time.Time       `json:"occurred_at"`
		Data       json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(msg.Payload, &raw); err != nil {
		return Event{}, nil, err
	}
	return Event{ID: raw.ID, Type: raw.Type, OccurredAt: raw.OccurredAt}, raw.Data, nil
}

// TeePublisher fans every event out to several publishers (e.g. the local
// bus plus a Kafka forwarder). The first error wins but all publishers are
// attempted.
type TeePublisher struct {
	publishers []EventPublisher
}

func NewTeePublisher(publishers ...EventPublisher) *TeePublisher {
	return &TeePublisher{publishers: publishers}
}

func (t *TeePublisher) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, p := range t.publishers {
		if err := p.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *TeePublisher) Close() error {
	var firstErr error
	for _, p := range t.publishers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
