package models

import "time"

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
)

type SupportTicket struct {
	ID      string         `json:"id" gorm:"primaryKey;size:64"`
	UserID  string         `json:"user_id" gorm:"not null;index;size:64"`
	Subject string         `json:"subject" gorm:"not null;size:200" validate:"required,max=200"`
	Message string         `json:"message" gorm:"type:text;not null" validate:"required,max=5000"`
	Status  TicketStatus   `json:"status" gorm:"not null;default:open;index" validate:"omitempty,oneof=open in_progress resolved closed"`
	Priority TicketPriority `json:"priority" gorm:"not null;default:medium" validate:"omitempty,oneof=low medium high"`

	UserName  string `json:"user_name" gorm:"size:100"`
	UserEmail string `json:"user_email" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Responses []SupportResponse `json:"responses" gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE"`
}

type SupportResponse struct {
	ID       string `json:"id" gorm:"primaryKey;size:64"`
	TicketID string `json:"ticket_id" gorm:"not null;index;size:64"`
	UserID   string `json:"user_id" gorm:"not null;size:64"`
	UserName string `json:"user_name" gorm:"size:100"`
	Message  string `json:"message" gorm:"type:text;not null" validate:"required,max=5000"`
	IsAdmin  bool   `json:"is_admin" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
}

func (SupportTicket) TableName() string   { return "support_tickets" }
func (SupportResponse) TableName() string { return "support_responses" }
