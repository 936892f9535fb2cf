package services

import (
	"context"

	"github.com/SaidjonAlixon/testblok/internal/exam"
	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
	"github.com/SaidjonAlixon/testblok/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type CreateDirectionRequest = validator.DirectionCreateRequest
type UpdateDirectionRequest = validator.DirectionUpdateRequest
type CreateSubjectRequest = validator.SubjectCreateRequest
type UpdateSubjectRequest = validator.SubjectUpdateRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type SubmitPaymentRequest = validator.PaymentSubmitRequest
type CreateTicketRequest = validator.TicketCreateRequest
type TicketResponseRequest = validator.TicketResponseRequest
type BroadcastRequest = validator.BroadcastRequest
type UpdateUserRequest = validator.UserUpdateRequest

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

type DirectionResponse struct {
	*models.Direction
	TotalQuestions   int     `json:"total_questions"`
	MaxPossibleScore float64 `json:"max_possible_score"`

	// Access flags for the requesting student; zero-valued for admins.
	HasAccess    bool `json:"has_access"`
	CanStart     bool `json:"can_start"`
	NeedsPayment bool `json:"needs_payment"`
}

type DirectionListResponse struct {
	Directions []*DirectionResponse `json:"directions"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Size       int                  `json:"size"`
}

// ===== SESSION RELATED DTOs =====

type AnswerRequest struct {
	QuestionID string             `json:"question_id" validate:"required"`
	Answer     models.AnswerLabel `json:"answer" validate:"required,oneof=A B C D"`
}

type NavigateRequest struct {
	Action string `json:"action" validate:"required,oneof=next prev jump"`
	Index  int    `json:"index"`
}

type ViolationRequest struct {
	Kind models.ViolationKind `json:"kind" validate:"required,oneof=tab_switch window_blur right_click devtools_attempt"`
}

type ViolationResponse struct {
	Event models.IntegrityEvent `json:"event"`
	// Warn tells the UI to surface the escalating tab-switch warning.
	Warn bool `json:"warn"`
	// Suppress tells the UI to block the default browser action.
	Suppress bool `json:"suppress"`
}

type ResultResponse struct {
	*models.TestResult
	Percentage       int     `json:"percentage"`
	MaxPossibleScore float64 `json:"max_possible_score"`
}

type ResultListResponse struct {
	Results []*ResultResponse `json:"results"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

// ===== LEADERBOARD DTOs =====

type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	UserID     string  `json:"user_id"`
	FullName   string  `json:"full_name"`
	TotalScore float64 `json:"total_score"`
	TestCount  int     `json:"test_count"`
}

// ===== DASHBOARD DTOs =====

type AdminDashboard struct {
	Stats              *repositories.PlatformStats         `json:"stats"`
	PopularDirections  []*repositories.DirectionPopularity `json:"popular_directions"`
	DifficultQuestions []*repositories.DifficultQuestion   `json:"difficult_questions"`
}

type StudentDirectionStatus struct {
	*DirectionResponse
	BestScore    *float64 `json:"best_score,omitempty"`
	AttemptsUsed int      `json:"attempts_used"`
}

type StudentDashboard struct {
	Directions    []*StudentDirectionStatus `json:"directions"`
	RecentResults []*ResultResponse         `json:"recent_results"`
	Rank          *LeaderboardEntry         `json:"rank,omitempty"`
	Unread        int64                     `json:"unread_notifications"`
}

// ===== SERVICE INTERFACES =====

type UserService interface {
	// Authentication
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*models.User, error)

	// Profile
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *UpdateUserRequest) (*models.User, error)

	// Admin operations
	List(ctx context.Context, filters repositories.UserFilters) (*UserListResponse, error)
	Update(ctx context.Context, id string, req *UpdateUserRequest, adminID string) (*models.User, error)
	SetBlocked(ctx context.Context, id string, blocked bool, adminID string) error
	GrantDirection(ctx context.Context, userID, directionID string, attempts int, adminID string) error
	Delete(ctx context.Context, id string, adminID string) error
}

type DirectionService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateDirectionRequest, adminID string) (*DirectionResponse, error)
	GetByID(ctx context.Context, id string) (*DirectionResponse, error)
	GetByIDWithDetails(ctx context.Context, id string) (*models.Direction, error)
	Update(ctx context.Context, id string, req *UpdateDirectionRequest, adminID string) (*DirectionResponse, error)
	Delete(ctx context.Context, id string, adminID string) error
	List(ctx context.Context, filters repositories.DirectionFilters) (*DirectionListResponse, error)

	// Student-facing catalog with access flags resolved per user
	ListForStudent(ctx context.Context, userID string) ([]*DirectionResponse, error)

	// Subject management
	CreateSubject(ctx context.Context, directionID string, req *CreateSubjectRequest, adminID string) (*models.Subject, error)
	UpdateSubject(ctx context.Context, subjectID string, req *UpdateSubjectRequest, adminID string) (*models.Subject, error)
	DeleteSubject(ctx context.Context, subjectID string, adminID string) error

	// Question management
	CreateQuestion(ctx context.Context, subjectID string, req *CreateQuestionRequest, adminID string) (*models.Question, error)
	UpdateQuestion(ctx context.Context, questionID string, req *UpdateQuestionRequest, adminID string) (*models.Question, error)
	DeleteQuestion(ctx context.Context, questionID string, adminID string) error
}

type SessionService interface {
	// Lifecycle
	Start(ctx context.Context, userID, directionID string) (*exam.Snapshot, error)
	Snapshot(ctx context.Context, sessionID, userID string) (*exam.Snapshot, error)
	Active(ctx context.Context, userID string) (*exam.Snapshot, error)

	// In-exam operations
	Answer(ctx context.Context, sessionID, userID string, req *AnswerRequest) error
	Navigate(ctx context.Context, sessionID, userID string, req *NavigateRequest) (*exam.Snapshot, error)
	ReportViolation(ctx context.Context, sessionID, userID string, req *ViolationRequest) (*ViolationResponse, error)

	// Completion
	Complete(ctx context.Context, sessionID, userID string) (*ResultResponse, error)
	Exit(ctx context.Context, sessionID, userID string) error

	// Results
	GetResult(ctx context.Context, sessionID, userID string) (*ResultResponse, error)
	ListResults(ctx context.Context, filters repositories.ResultFilters, userID string) (*ResultListResponse, error)
}

type LeaderboardService interface {
	Get(ctx context.Context) ([]*LeaderboardEntry, error)
	ForUser(ctx context.Context, userID string) (*LeaderboardEntry, error)
}

type PaymentService interface {
	Submit(ctx context.Context, userID string, req *SubmitPaymentRequest) (*models.Payment, error)
	List(ctx context.Context, filters repositories.PaymentFilters, userID string) ([]*models.Payment, int64, error)
	Confirm(ctx context.Context, paymentID, adminID string) (*models.Payment, error)
	Reject(ctx context.Context, paymentID, adminID string) (*models.Payment, error)
}

type NotificationService interface {
	// Consumer lifecycle: drains bus topics into stored notifications.
	Start(ctx context.Context) error
	Stop() error

	Notify(ctx context.Context, userID string, kind models.NotificationType, title, message string, actionURL *string) error
	Broadcast(ctx context.Context, req *BroadcastRequest, adminID string) (int, error)

	ListByUser(ctx context.Context, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type SupportService interface {
	CreateTicket(ctx context.Context, userID string, req *CreateTicketRequest) (*models.SupportTicket, error)
	GetTicket(ctx context.Context, id, userID string) (*models.SupportTicket, error)
	ListTickets(ctx context.Context, filters repositories.TicketFilters, userID string) ([]*models.SupportTicket, int64, error)
	Respond(ctx context.Context, ticketID, userID string, req *TicketResponseRequest) (*models.SupportResponse, error)
	UpdateStatus(ctx context.Context, ticketID string, status models.TicketStatus, adminID string) error
}

type DashboardService interface {
	AdminOverview(ctx context.Context, adminID string) (*AdminDashboard, error)
	StudentOverview(ctx context.Context, userID string) (*StudentDashboard, error)
}

type ExportService interface {
	// ExportResults renders all results into an xlsx workbook.
	ExportResults(ctx context.Context, adminID string) ([]byte, error)
	// ExportLeaderboard renders the current ranking into an xlsx workbook.
	ExportLeaderboard(ctx context.Context, adminID string) ([]byte, error)
	// ImportQuestions bulk-loads questions for a subject from an xlsx sheet.
	// Returns the number of imported questions.
	ImportQuestions(ctx context.Context, subjectID string, data []byte, adminID string) (int, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	User() UserService
	Direction() DirectionService
	Session() SessionService
	Leaderboard() LeaderboardService
	Payment() PaymentService
	Notification() NotificationService
	Support() SupportService
	Dashboard() DashboardService
	Export() ExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
