package services

import (
	"context"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
)

// memoryRepository is an in-memory repositories.Repository for service
// tests. Stored pointers are shared with the caller, matching how services
// mutate fetched models before calling Update.
type memoryRepository struct {
	mu sync.Mutex

	users      map[string]*models.User
	userOrder  []string
	directions map[string]*models.Direction

	results     map[string]*models.TestResult
	resultOrder []string

	payments      map[string]*models.Payment
	notifications map[string]*models.Notification
	notifOrder    []string

	tickets   map[string]*models.SupportTicket
	responses map[string][]*models.SupportResponse

	wrongAnswerCounts map[string]int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		users:             make(map[string]*models.User),
		directions:        make(map[string]*models.Direction),
		results:           make(map[string]*models.TestResult),
		payments:          make(map[string]*models.Payment),
		notifications:     make(map[string]*models.Notification),
		tickets:           make(map[string]*models.SupportTicket),
		responses:         make(map[string][]*models.SupportResponse),
		wrongAnswerCounts: make(map[string]int),
	}
}

func (m *memoryRepository) User() repositories.UserRepository                 { return (*memoryUserRepo)(m) }
func (m *memoryRepository) Direction() repositories.DirectionRepository      { return (*memoryDirectionRepo)(m) }
func (m *memoryRepository) Result() repositories.ResultRepository            { return (*memoryResultRepo)(m) }
func (m *memoryRepository) Payment() repositories.PaymentRepository          { return (*memoryPaymentRepo)(m) }
func (m *memoryRepository) Notification() repositories.NotificationRepository {
	return (*memoryNotificationRepo)(m)
}
func (m *memoryRepository) Ticket() repositories.TicketRepository       { return (*memoryTicketRepo)(m) }
func (m *memoryRepository) Dashboard() repositories.DashboardRepository { return (*memoryDashboardRepo)(m) }

func (m *memoryRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *memoryRepository) Ping(ctx context.Context) error { return nil }
func (m *memoryRepository) Close() error                   { return nil }

// ===== USERS =====

type memoryUserRepo memoryRepository

func (r *memoryUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	r.userOrder = append(r.userOrder, user.ID)
	return nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, id := range r.userOrder {
		user, ok := r.users[id]
		if !ok {
			continue
		}
		if filters.Role != nil && user.Role != *filters.Role {
			continue
		}
		if filters.IsBlocked != nil && user.IsBlocked != *filters.IsBlocked {
			continue
		}
		out = append(out, user)
	}
	return out, int64(len(out)), nil
}

// ===== DIRECTIONS =====

type memoryDirectionRepo memoryRepository

func (r *memoryDirectionRepo) Create(ctx context.Context, tx *gorm.DB, direction *models.Direction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.directions[direction.ID] = direction
	return nil
}

func (r *memoryDirectionRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Direction, error) {
	return r.GetByIDWithDetails(ctx, tx, id)
}

func (r *memoryDirectionRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id string) (*models.Direction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	direction, ok := r.directions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return direction, nil
}

func (r *memoryDirectionRepo) Update(ctx context.Context, tx *gorm.DB, direction *models.Direction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.directions[direction.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.directions[direction.ID] = direction
	return nil
}

func (r *memoryDirectionRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.directions, id)
	return nil
}

func (r *memoryDirectionRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.DirectionFilters) ([]*models.Direction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Direction
	for _, direction := range r.directions {
		if filters.IsActive != nil && direction.IsActive != *filters.IsActive {
			continue
		}
		if filters.IsFree != nil && direction.IsFree != *filters.IsFree {
			continue
		}
		out = append(out, direction)
	}
	return out, int64(len(out)), nil
}

func (r *memoryDirectionRepo) CreateSubject(ctx context.Context, tx *gorm.DB, subject *models.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	direction, ok := r.directions[subject.DirectionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	direction.Subjects = append(direction.Subjects, *subject)
	return nil
}

func (r *memoryDirectionRepo) UpdateSubject(ctx context.Context, tx *gorm.DB, subject *models.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, direction := range r.directions {
		for i := range direction.Subjects {
			if direction.Subjects[i].ID == subject.ID {
				direction.Subjects[i] = *subject
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memoryDirectionRepo) DeleteSubject(ctx context.Context, tx *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, direction := range r.directions {
		for i := range direction.Subjects {
			if direction.Subjects[i].ID == id {
				direction.Subjects = append(direction.Subjects[:i], direction.Subjects[i+1:]...)
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memoryDirectionRepo) GetSubject(ctx context.Context, tx *gorm.DB, id string) (*models.Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, direction := range r.directions {
		for i := range direction.Subjects {
			if direction.Subjects[i].ID == id {
				return &direction.Subjects[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryDirectionRepo) CreateQuestion(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	return r.CreateQuestions(ctx, tx, []*models.Question{question})
}

func (r *memoryDirectionRepo) CreateQuestions(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range questions {
		placed := false
		for _, direction := range r.directions {
			for i := range direction.Subjects {
				if direction.Subjects[i].ID == q.SubjectID {
					direction.Subjects[i].Questions = append(direction.Subjects[i].Questions, *q)
					placed = true
				}
			}
		}
		if !placed {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

func (r *memoryDirectionRepo) UpdateQuestion(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, direction := range r.directions {
		for i := range direction.Subjects {
			for j := range direction.Subjects[i].Questions {
				if direction.Subjects[i].Questions[j].ID == question.ID {
					direction.Subjects[i].Questions[j] = *question
					return nil
				}
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memoryDirectionRepo) DeleteQuestion(ctx context.Context, tx *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, direction := range r.directions {
		for i := range direction.Subjects {
			questions := direction.Subjects[i].Questions
			for j := range questions {
				if questions[j].ID == id {
					direction.Subjects[i].Questions = append(questions[:j], questions[j+1:]...)
					return nil
				}
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memoryDirectionRepo) GetQuestion(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, direction := range r.directions {
		for i := range direction.Subjects {
			for j := range direction.Subjects[i].Questions {
				if direction.Subjects[i].Questions[j].ID == id {
					return &direction.Subjects[i].Questions[j], nil
				}
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryDirectionRepo) IncrementWrongAnswers(ctx context.Context, tx *gorm.DB, questionIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range questionIDs {
		r.wrongAnswerCounts[id]++
	}
	return nil
}

// ===== RESULTS =====

type memoryResultRepo memoryRepository

func (r *memoryResultRepo) Create(ctx context.Context, tx *gorm.DB, result *models.TestResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[result.ID] = result
	r.resultOrder = append(r.resultOrder, result.ID)
	return nil
}

func (r *memoryResultRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.TestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result, ok := r.results[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return result, nil
}

func (r *memoryResultRepo) GetBySession(ctx context.Context, tx *gorm.DB, sessionID string) (*models.TestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, result := range r.results {
		if result.SessionID == sessionID {
			return result, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryResultRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.TestResult, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TestResult
	for _, id := range r.resultOrder {
		result := r.results[id]
		if filters.UserID != nil && result.UserID != *filters.UserID {
			continue
		}
		if filters.DirectionID != nil && result.DirectionID != *filters.DirectionID {
			continue
		}
		out = append(out, result)
	}
	return out, int64(len(out)), nil
}

func (r *memoryResultRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*models.TestResult, error) {
	results, _, err := r.List(ctx, tx, repositories.ResultFilters{})
	return results, err
}

// ===== PAYMENTS =====

type memoryPaymentRepo memoryRepository

func (r *memoryPaymentRepo) Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[payment.ID] = payment
	return nil
}

func (r *memoryPaymentRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return payment, nil
}

func (r *memoryPaymentRepo) Update(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[payment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.payments[payment.ID] = payment
	return nil
}

func (r *memoryPaymentRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.PaymentFilters) ([]*models.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Payment
	for _, payment := range r.payments {
		if filters.Status != nil && payment.Status != *filters.Status {
			continue
		}
		if filters.UserID != nil && payment.UserID != *filters.UserID {
			continue
		}
		out = append(out, payment)
	}
	return out, int64(len(out)), nil
}

// ===== NOTIFICATIONS =====

type memoryNotificationRepo memoryRepository

func (r *memoryNotificationRepo) Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	return r.CreateBatch(ctx, tx, []*models.Notification{notification})
}

func (r *memoryNotificationRepo) CreateBatch(ctx context.Context, tx *gorm.DB, notifications []*models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range notifications {
		r.notifications[n.ID] = n
		r.notifOrder = append(r.notifOrder, n.ID)
	}
	return nil
}

func (r *memoryNotificationRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification, ok := r.notifications[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return notification, nil
}

func (r *memoryNotificationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Notification
	for _, id := range r.notifOrder {
		n := r.notifications[id]
		if n.UserID != userID {
			continue
		}
		if filters.IsRead != nil && n.IsRead != *filters.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, int64(len(out)), nil
}

func (r *memoryNotificationRepo) MarkRead(ctx context.Context, tx *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification, ok := r.notifications[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	notification.IsRead = true
	return nil
}

func (r *memoryNotificationRepo) MarkAllRead(ctx context.Context, tx *gorm.DB, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *memoryNotificationRepo) CountUnread(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// ===== TICKETS =====

type memoryTicketRepo memoryRepository

func (r *memoryTicketRepo) Create(ctx context.Context, tx *gorm.DB, ticket *models.SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[ticket.ID] = ticket
	return nil
}

func (r *memoryTicketRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ticket, nil
}

func (r *memoryTicketRepo) GetByIDWithResponses(ctx context.Context, tx *gorm.DB, id string) (*models.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	ticket.Responses = nil
	for _, resp := range r.responses[id] {
		ticket.Responses = append(ticket.Responses, *resp)
	}
	return ticket, nil
}

func (r *memoryTicketRepo) Update(ctx context.Context, tx *gorm.DB, ticket *models.SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.tickets[ticket.ID] = ticket
	return nil
}

func (r *memoryTicketRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.TicketFilters) ([]*models.SupportTicket, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SupportTicket
	for _, ticket := range r.tickets {
		if filters.Status != nil && ticket.Status != *filters.Status {
			continue
		}
		if filters.UserID != nil && ticket.UserID != *filters.UserID {
			continue
		}
		out = append(out, ticket)
	}
	return out, int64(len(out)), nil
}

func (r *memoryTicketRepo) AddResponse(ctx context.Context, tx *gorm.DB, response *models.SupportResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[response.TicketID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.responses[response.TicketID] = append(r.responses[response.TicketID], response)
	return nil
}

// ===== DASHBOARD =====

type memoryDashboardRepo memoryRepository

func (r *memoryDashboardRepo) GetPlatformStats(ctx context.Context, tx *gorm.DB) (*repositories.PlatformStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repositories.PlatformStats{}
	for _, user := range r.users {
		if user.Role == models.RoleStudent {
			stats.TotalUsers++
			if !user.IsBlocked {
				stats.ActiveUsers++
			}
		}
	}
	stats.TotalTests = int64(len(r.results))
	return stats, nil
}

func (r *memoryDashboardRepo) GetPopularDirections(ctx context.Context, tx *gorm.DB, limit int) ([]*repositories.DirectionPopularity, error) {
	return nil, nil
}

func (r *memoryDashboardRepo) GetDifficultQuestions(ctx context.Context, tx *gorm.DB, limit int) ([]*repositories.DifficultQuestion, error) {
	return nil, nil
}
