package models

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentRejected  PaymentStatus = "rejected"
)

// AttemptsPerPurchase is how many attempts a confirmed payment grants.
const AttemptsPerPurchase = 5

// Payment is one payment request for a direction. The request and the admin
// decision are two disconnected submissions; no transaction is held between
// them.
type Payment struct {
	ID     string        `json:"id" gorm:"primaryKey;size:64"`
	UserID string        `json:"user_id" gorm:"not null;index;size:64"`
	Status PaymentStatus `json:"status" gorm:"not null;default:pending;index" validate:"omitempty,oneof=pending confirmed rejected"`

	DirectionID   string  `json:"direction_id" gorm:"not null;index;size:64"`
	DirectionName string  `json:"direction_name" gorm:"size:200"`
	Amount        float64 `json:"amount" gorm:"not null" validate:"required,gt=0"`
	PaymentMethod *string `json:"payment_method" gorm:"size:50"`

	// Denormalized requester info for the admin list view.
	UserName  string `json:"user_name" gorm:"size:100"`
	UserEmail string `json:"user_email" gorm:"size:255"`

	DecidedBy *string    `json:"decided_by" gorm:"size:64"`
	DecidedAt *time.Time `json:"decided_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User      User      `json:"-" gorm:"foreignKey:UserID"`
	Direction Direction `json:"-" gorm:"foreignKey:DirectionID"`
}

func (Payment) TableName() string {
	return "payments"
}
