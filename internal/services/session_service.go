package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/events"
	"github.com/SaidjonAlixon/testblok/internal/exam"
	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/policy"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
	"github.com/SaidjonAlixon/testblok/internal/validator"
)

// liveSession couples an in-memory exam session with its countdown goroutine
// and a once-guard so the user-triggered and timeout-triggered completions
// cannot both persist a result.
type liveSession struct {
	session       *exam.Session
	directionName string
	directionFree bool
	cancel        context.CancelFunc
	persistOnce   sync.Once
}

type sessionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher

	clockInterval time.Duration

	mu       sync.RWMutex
	sessions map[string]*liveSession // session id -> live session
	byUser   map[string]string       // user id -> active session id
}

func NewSessionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) SessionService {
	return &sessionService{
		repo:          repo,
		db:            db,
		logger:        logger,
		validator:     validator,
		publisher:     publisher,
		clockInterval: time.Second,
		sessions:      make(map[string]*liveSession),
		byUser:        make(map[string]string),
	}
}

// ===== LIFECYCLE =====

func (s *sessionService) Start(ctx context.Context, userID, directionID string) (*exam.Snapshot, error) {
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

	// An in-flight session is resumed, never restarted.
	s.mu.RLock()
	existingID, hasExisting := s.byUser[userID]
	s.mu.RUnlock()
	if hasExisting {
		if live := s.lookup(existingID); live != nil && live.session.State() == exam.StateActive {
			snap := live.session.Snapshot()
			return &snap, nil
		}
	}

	direction, err := s.repo.Direction().GetByIDWithDetails(ctx, nil, directionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDirectionNotFound
		}
		return nil, fmt.Errorf("failed to get direction: %w", err)
	}
	if !direction.IsActive {
		return nil, ErrDirectionInactive
	}

	if !policy.HasAccess(user, direction) {
		if policy.NeedsPayment(user, direction) {
			return nil, ErrPaymentRequired
		}
		return nil, NewPermissionError(userID, directionID, "direction", "start", "no access to direction")
	}
	if !policy.CanStart(user, direction) {
		return nil, ErrAttemptsExhausted
	}

	session, err := exam.NewSession(uuid.New().String(), userID, direction)
	if err != nil {
		return nil, err
	}

	clockCtx, cancel := context.WithCancel(context.Background())
	live := &liveSession{
		session:       session,
		directionName: direction.Name,
		directionFree: direction.IsFree,
		cancel:        cancel,
	}

	s.mu.Lock()
	s.sessions[session.ID()] = live
	s.byUser[userID] = session.ID()
	s.mu.Unlock()

	go exam.Clock{Interval: s.clockInterval}.Run(clockCtx, session, func(expired *exam.Session) {
		s.finalize(context.Background(), live)
	})

	s.logger.Info("session started",
		"session_id", session.ID(), "user_id", userID, "direction_id", directionID)

	snap := session.Snapshot()
	return &snap, nil
}

func (s *sessionService) Snapshot(ctx context.Context, sessionID, userID string) (*exam.Snapshot, error) {
	live, err := s.owned(sessionID, userID, "read")
	if err != nil {
		return nil, err
	}
	snap := live.session.Snapshot()
	return &snap, nil
}

func (s *sessionService) Active(ctx context.Context, userID string) (*exam.Snapshot, error) {
	s.mu.RLock()
	sessionID, ok := s.byUser[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Snapshot(ctx, sessionID, userID)
}

// ===== IN-EXAM OPERATIONS =====

func (s *sessionService) Answer(ctx context.Context, sessionID, userID string, req *AnswerRequest) error {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return NewValidationError("invalid answer", errs)
	}

	live, err := s.owned(sessionID, userID, "answer")
	if err != nil {
		return err
	}
	if live.session.State() != exam.StateActive {
		return ErrSessionNotActive
	}

	live.session.SelectAnswer(req.QuestionID, req.Answer)
	return nil
}

func (s *sessionService) Navigate(ctx context.Context, sessionID, userID string, req *NavigateRequest) (*exam.Snapshot, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, NewValidationError("invalid navigation", errs)
	}

	live, err := s.owned(sessionID, userID, "navigate")
	if err != nil {
		return nil, err
	}
	if live.session.State() != exam.StateActive {
		return nil, ErrSessionNotActive
	}

	switch req.Action {
	case "next":
		live.session.Advance()
	case "prev":
		live.session.Retreat()
	case "jump":
		live.session.JumpTo(req.Index)
	}

	snap := live.session.Snapshot()
	return &snap, nil
}

func (s *sessionService) ReportViolation(ctx context.Context, sessionID, userID string, req *ViolationRequest) (*ViolationResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, NewValidationError("invalid violation report", errs)
	}

	live, err := s.owned(sessionID, userID, "report_violation")
	if err != nil {
		return nil, err
	}
	if live.session.State() != exam.StateActive {
		return nil, ErrSessionNotActive
	}

	event, warn := live.session.RecordViolation(req.Kind)

	// Right clicks and devtools attempts are logged and blocked client-side;
	// they never end the exam or change the score.
	suppress := req.Kind == models.ViolationRightClick || req.Kind == models.ViolationDevTools

	s.logger.Warn("integrity violation",
		"session_id", sessionID, "user_id", userID,
		"kind", req.Kind, "count", event.Count)

	return &ViolationResponse{Event: event, Warn: warn, Suppress: suppress}, nil
}

// ===== COMPLETION =====

func (s *sessionService) Complete(ctx context.Context, sessionID, userID string) (*ResultResponse, error) {
	live, err := s.owned(sessionID, userID, "complete")
	if err != nil {
		return nil, err
	}

	live.session.Complete()
	live.cancel()
	if err := s.finalize(ctx, live); err != nil {
		return nil, err
	}

	return s.GetResult(ctx, sessionID, userID)
}

// Exit abandons a session. An active session is discarded without a result
// and without consuming an attempt; a completed one is just dropped from
// memory since its result is already persisted.
func (s *sessionService) Exit(ctx context.Context, sessionID, userID string) error {
	live, err := s.owned(sessionID, userID, "exit")
	if err != nil {
		return err
	}

	live.cancel()
	s.mu.Lock()
	delete(s.sessions, sessionID)
	if s.byUser[userID] == sessionID {
		delete(s.byUser, userID)
	}
	s.mu.Unlock()

	s.logger.Info("session exited", "session_id", sessionID, "user_id", userID)
	return nil
}

// finalize persists the score report exactly once per session: the result
// row, the attempt counters, and the per-question miss statistics all commit
// in one transaction.
func (s *sessionService) finalize(ctx context.Context, live *liveSession) error {
	var persistErr error
	live.persistOnce.Do(func() {
		report := live.session.Result()
		if report == nil {
			report = live.session.Complete()
		}

		session := live.session
		result := &models.TestResult{
			ID:             uuid.New().String(),
			SessionID:      session.ID(),
			UserID:         session.UserID(),
			DirectionID:    session.DirectionID(),
			DirectionName:  live.directionName,
			TotalScore:     report.TotalScore,
			CorrectAnswers: report.CorrectAnswers,
			TotalQuestions: report.TotalQuestions,
			SubjectScores:  datatypes.NewJSONType(report.SubjectScores),
			Answers:        datatypes.NewJSONType(report.Answers),
			IntegrityEvents: datatypes.NewJSONSlice(report.IntegrityEvents),
			TimeSpent:      report.TimeSpent,
			CompletedAt:    report.CompletedAt,
		}

		persistErr = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
			user, err := txRepo.User().GetByID(ctx, nil, session.UserID())
			if err != nil {
				return fmt.Errorf("failed to get user: %w", err)
			}
			result.UserName = user.FullName
			result.UserEmail = user.Email

			if err := txRepo.Result().Create(ctx, nil, result); err != nil {
				return fmt.Errorf("failed to persist result: %w", err)
			}

			user.TestAttempts++
			if live.directionFree {
				user.FreeTestUsed = true
			}
			if err := txRepo.User().Update(ctx, nil, user); err != nil {
				return fmt.Errorf("failed to update attempt counters: %w", err)
			}

			if len(report.MissedQuestionIDs) > 0 {
				if err := txRepo.Direction().IncrementWrongAnswers(ctx, nil, report.MissedQuestionIDs); err != nil {
					return fmt.Errorf("failed to record missed questions: %w", err)
				}
			}

			return nil
		})
		if persistErr != nil {
			s.logger.Error("failed to finalize session",
				"session_id", session.ID(), "error", persistErr)
			return
		}

		// The completed session no longer counts as the user's active one.
		s.mu.Lock()
		if s.byUser[session.UserID()] == session.ID() {
			delete(s.byUser, session.UserID())
		}
		s.mu.Unlock()

		if s.publisher != nil {
			event := events.NewEvent(events.TopicResultCompleted, events.ResultCompletedEvent{
				ResultID:      result.ID,
				UserID:        result.UserID,
				DirectionID:   result.DirectionID,
				DirectionName: result.DirectionName,
				TotalScore:    result.TotalScore,
				Correct:       result.CorrectAnswers,
				Total:         result.TotalQuestions,
				EndReason:     report.EndReason,
			})
			if err := s.publisher.Publish(ctx, event); err != nil {
				s.logger.Error("failed to publish result event", "error", err)
			}
		}

		s.logger.Info("session finalized",
			"session_id", session.ID(), "user_id", session.UserID(),
			"score", result.TotalScore, "end_reason", report.EndReason)
	})
	return persistErr
}

// ===== RESULTS =====

func (s *sessionService) GetResult(ctx context.Context, sessionID, userID string) (*ResultResponse, error) {
	result, err := s.repo.Result().GetBySession(ctx, nil, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	if result.UserID != userID {
		requester, err := s.repo.User().GetByID(ctx, nil, userID)
		if err != nil || requester.Role != models.RoleAdmin {
			return nil, NewPermissionError(userID, sessionID, "result", "read", "not the result owner")
		}
	}

	return s.toResultResponse(ctx, result), nil
}

func (s *sessionService) ListResults(ctx context.Context, filters repositories.ResultFilters, userID string) (*ResultListResponse, error) {
	requester, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Students only ever see their own results.
	if requester.Role != models.RoleAdmin {
		filters.UserID = &userID
	}

	results, total, err := s.repo.Result().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	responses := make([]*ResultResponse, 0, len(results))
	for _, r := range results {
		responses = append(responses, s.toResultResponse(ctx, r))
	}

	page := 1
	size := len(responses)
	if filters.Limit > 0 {
		size = filters.Limit
		page = filters.Offset/filters.Limit + 1
	}

	return &ResultListResponse{Results: responses, Total: total, Page: page, Size: size}, nil
}

func (s *sessionService) toResultResponse(ctx context.Context, result *models.TestResult) *ResultResponse {
	resp := &ResultResponse{
		TestResult: result,
		Percentage: result.Percentage(),
	}
	// Max score comes from the persisted per-question weights; a direction
	// deleted after the attempt just leaves the field at zero.
	if direction, err := s.repo.Direction().GetByIDWithDetails(ctx, nil, result.DirectionID); err == nil {
		resp.MaxPossibleScore = direction.MaxPossibleScore()
	}
	return resp
}

// ===== HELPERS =====

func (s *sessionService) lookup(sessionID string) *liveSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}

func (s *sessionService) owned(sessionID, userID, action string) (*liveSession, error) {
	live := s.lookup(sessionID)
	if live == nil {
		return nil, ErrSessionNotFound
	}
	if live.session.UserID() != userID {
		return nil, NewPermissionError(userID, sessionID, "session", action, "not the session owner")
	}
	return live, nil
}
