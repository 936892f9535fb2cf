package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Role      *models.UserRole `json:"role"`
	IsBlocked *bool            `json:"is_blocked"`
	Query     string           `json:"q"` // name or email substring
	Limit     int              `json:"limit"`
	Offset    int              `json:"offset"`
	SortBy    string           `json:"sort_by"`    // "created_at", "full_name"
	SortOrder string           `json:"sort_order"` // "asc", "desc"
}

type DirectionFilters struct {
	IsActive  *bool  `json:"is_active"`
	IsFree    *bool  `json:"is_free"`
	Query     string `json:"q"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

type ResultFilters struct {
	UserID      *string    `json:"user_id"`
	DirectionID *string    `json:"direction_id"`
	DateFrom    *time.Time `json:"date_from"`
	DateTo      *time.Time `json:"date_to"`
	Limit       int        `json:"limit"`
	Offset      int        `json:"offset"`
	SortBy      string     `json:"sort_by"`
	SortOrder   string     `json:"sort_order"`
}

type PaymentFilters struct {
	Status      *models.PaymentStatus `json:"status"`
	UserID      *string               `json:"user_id"`
	DirectionID *string               `json:"direction_id"`
	Limit       int                   `json:"limit"`
	Offset      int                   `json:"offset"`
}

type NotificationFilters struct {
	IsRead *bool `json:"is_read"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type TicketFilters struct {
	Status   *models.TicketStatus   `json:"status"`
	Priority *models.TicketPriority `json:"priority"`
	UserID   *string                `json:"user_id"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

// ===== ANALYTICS STRUCTS =====

type PlatformStats struct {
	TotalUsers     int64   `json:"total_users"`
	ActiveUsers    int64   `json:"active_users"` // not blocked
	TotalTests     int64   `json:"total_tests"`
	AverageScore   float64 `json:"average_score"`
	PendingPayments int64  `json:"pending_payments"`
	OpenTickets    int64   `json:"open_tickets"`
}

type DirectionPopularity struct {
	DirectionID string `json:"direction_id"`
	Name        string `json:"name"`
	Attempts    int64  `json:"attempts"`
}

type DifficultQuestion struct {
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	WrongCount int    `json:"wrong_count"`
}

// ===== REPOSITORY INTERFACES =====

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
}

type DirectionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, direction *models.Direction) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Direction, error)
	// GetByIDWithDetails loads nested subjects and questions in stored order.
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id string) (*models.Direction, error)
	Update(ctx context.Context, tx *gorm.DB, direction *models.Direction) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	List(ctx context.Context, tx *gorm.DB, filters DirectionFilters) ([]*models.Direction, int64, error)

	// Subject management
	CreateSubject(ctx context.Context, tx *gorm.DB, subject *models.Subject) error
	UpdateSubject(ctx context.Context, tx *gorm.DB, subject *models.Subject) error
	DeleteSubject(ctx context.Context, tx *gorm.DB, id string) error
	GetSubject(ctx context.Context, tx *gorm.DB, id string) (*models.Subject, error)

	// Question management
	CreateQuestion(ctx context.Context, tx *gorm.DB, question *models.Question) error
	CreateQuestions(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	UpdateQuestion(ctx context.Context, tx *gorm.DB, question *models.Question) error
	DeleteQuestion(ctx context.Context, tx *gorm.DB, id string) error
	GetQuestion(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error)
	IncrementWrongAnswers(ctx context.Context, tx *gorm.DB, questionIDs []string) error
}

type ResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.TestResult) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.TestResult, error)
	GetBySession(ctx context.Context, tx *gorm.DB, sessionID string) (*models.TestResult, error)
	List(ctx context.Context, tx *gorm.DB, filters ResultFilters) ([]*models.TestResult, int64, error)
	// ListAll returns every result without pagination, for the leaderboard
	// recompute and the Excel export.
	ListAll(ctx context.Context, tx *gorm.DB) ([]*models.TestResult, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Payment, error)
	Update(ctx context.Context, tx *gorm.DB, payment *models.Payment) error
	List(ctx context.Context, tx *gorm.DB, filters PaymentFilters) ([]*models.Payment, int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error
	CreateBatch(ctx context.Context, tx *gorm.DB, notifications []*models.Notification) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Notification, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters NotificationFilters) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, tx *gorm.DB, id string) error
	MarkAllRead(ctx context.Context, tx *gorm.DB, userID string) error
	CountUnread(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
}

type TicketRepository interface {
	Create(ctx context.Context, tx *gorm.DB, ticket *models.SupportTicket) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.SupportTicket, error)
	// GetByIDWithResponses loads the response thread in chronological order.
	GetByIDWithResponses(ctx context.Context, tx *gorm.DB, id string) (*models.SupportTicket, error)
	Update(ctx context.Context, tx *gorm.DB, ticket *models.SupportTicket) error
	List(ctx context.Context, tx *gorm.DB, filters TicketFilters) ([]*models.SupportTicket, int64, error)
	AddResponse(ctx context.Context, tx *gorm.DB, response *models.SupportResponse) error
}

type DashboardRepository interface {
	GetPlatformStats(ctx context.Context, tx *gorm.DB) (*PlatformStats, error)
	GetPopularDirections(ctx context.Context, tx *gorm.DB, limit int) ([]*DirectionPopularity, error)
	GetDifficultQuestions(ctx context.Context, tx *gorm.DB, limit int) ([]*DifficultQuestion, error)
}
