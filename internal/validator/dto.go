package validator

import (
	"github.com/SaidjonAlixon/testblok/internal/models"
)

// RegisterRequest represents the request structure for student registration
type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,person_name"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest represents the request structure for authentication
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DirectionCreateRequest represents the request structure for creating directions
type DirectionCreateRequest struct {
	Name        string  `json:"name" validate:"required,direction_name"`
	Description string  `json:"description" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active"`
	IsFree      bool    `json:"is_free"`
	Price       float64 `json:"price" validate:"omitempty,min=0"`
}

// DirectionUpdateRequest represents the request structure for updating directions
type DirectionUpdateRequest struct {
	Name        *string  `json:"name" validate:"omitempty,direction_name"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	IsActive    *bool    `json:"is_active"`
	IsFree      *bool    `json:"is_free"`
	Price       *float64 `json:"price" validate:"omitempty,min=0"`
}

// SubjectCreateRequest represents adding a subject to a direction
type SubjectCreateRequest struct {
	Name              string             `json:"name" validate:"required,min=1,max=200"`
	Type              models.SubjectType `json:"type" validate:"required,subject_type"`
	QuestionCount     int                `json:"question_count" validate:"required,min=1,max=200"`
	PointsPerQuestion float64            `json:"points_per_question" validate:"required,gt=0"`
	Position          int                `json:"position" validate:"min=0"`
}

// SubjectUpdateRequest represents updating a subject
type SubjectUpdateRequest struct {
	Name              *string             `json:"name" validate:"omitempty,min=1,max=200"`
	Type              *models.SubjectType `json:"type" validate:"omitempty,subject_type"`
	QuestionCount     *int                `json:"question_count" validate:"omitempty,min=1,max=200"`
	PointsPerQuestion *float64            `json:"points_per_question" validate:"omitempty,gt=0"`
	Position          *int                `json:"position" validate:"omitempty,min=0"`
}

// QuestionOptionsRequest carries the four answer texts of a request
type QuestionOptionsRequest struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// QuestionCreateRequest represents the request structure for creating questions
type QuestionCreateRequest struct {
	Text          string                  `json:"text" validate:"required,min=1,max=2000"`
	ImageURL      string                  `json:"image_url" validate:"omitempty,max=500"`
	Options       QuestionOptionsRequest  `json:"options" validate:"required"`
	OptionImages  *QuestionOptionsRequest `json:"option_images"`
	CorrectAnswer models.AnswerLabel      `json:"correct_answer" validate:"required,answer_label"`
	Position      int                     `json:"position" validate:"min=0"`
}

// QuestionUpdateRequest represents the request structure for updating questions
type QuestionUpdateRequest struct {
	Text          *string                 `json:"text" validate:"omitempty,min=1,max=2000"`
	ImageURL      *string                 `json:"image_url" validate:"omitempty,max=500"`
	Options       *QuestionOptionsRequest `json:"options"`
	OptionImages  *QuestionOptionsRequest `json:"option_images"`
	CorrectAnswer *models.AnswerLabel     `json:"correct_answer" validate:"omitempty,answer_label"`
	Position      *int                    `json:"position" validate:"omitempty,min=0"`
}

// PaymentSubmitRequest represents a student submitting a payment for review
type PaymentSubmitRequest struct {
	DirectionID string  `json:"direction_id" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Receipt     string  `json:"receipt" validate:"omitempty,max=500"`
	Note        string  `json:"note" validate:"omitempty,max=1000"`
}

// TicketCreateRequest represents opening a support ticket
type TicketCreateRequest struct {
	Subject  string                `json:"subject" validate:"required,min=1,max=200"`
	Message  string                `json:"message" validate:"required,min=1,max=4000"`
	Priority models.TicketPriority `json:"priority" validate:"omitempty,ticket_priority"`
}

// TicketResponseRequest represents a reply on a ticket thread
type TicketResponseRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

// BroadcastRequest represents an admin announcement to all students
type BroadcastRequest struct {
	Type      models.NotificationType `json:"type" validate:"required,notification_type"`
	Title     string                  `json:"title" validate:"required,min=1,max=200"`
	Message   string                  `json:"message" validate:"required,min=1,max=2000"`
	ActionURL string                  `json:"action_url" validate:"omitempty,max=500"`
}

// UserUpdateRequest represents an admin updating a student account
type UserUpdateRequest struct {
	FullName        *string `json:"full_name" validate:"omitempty,person_name"`
	Phone           *string `json:"phone" validate:"omitempty,max=32"`
	IsBlocked       *bool   `json:"is_blocked"`
	MaxTestAttempts *int    `json:"max_test_attempts" validate:"omitempty,min=-1"`
	Bio             *string `json:"bio" validate:"omitempty,max=1000"`
	ProfileImage    *string `json:"profile_image" validate:"omitempty,max=500"`
}
