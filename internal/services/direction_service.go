package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/policy"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
	"github.com/SaidjonAlixon/testblok/internal/validator"
)

type directionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewDirectionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) DirectionService {
	return &directionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD =====

func (s *directionService) Create(ctx context.Context, req *CreateDirectionRequest, adminID string) (*DirectionResponse, error) {
	if errs := s.validator.ValidateDirectionCreate(req); len(errs) > 0 {
		return nil, NewValidationError("invalid direction", errs)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	direction := &models.Direction{
		ID:       uuid.New().String(),
		Name:     req.Name,
		IsActive: isActive,
		IsFree:   req.IsFree,
		Price:    req.Price,
	}
	if req.Description != "" {
		direction.Description = &req.Description
	}
	if direction.IsFree {
		direction.Price = 0
	}

	if err := s.repo.Direction().Create(ctx, nil, direction); err != nil {
		return nil, fmt.Errorf("failed to create direction: %w", err)
	}

	s.logger.Info("direction created", "direction_id", direction.ID, "admin_id", adminID)
	return s.toResponse(direction, nil), nil
}

func (s *directionService) GetByID(ctx context.Context, id string) (*DirectionResponse, error) {
	direction, err := s.repo.Direction().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDirectionNotFound
		}
		return nil, fmt.Errorf("failed to get direction: %w", err)
	}
	return s.toResponse(direction, nil), nil
}

func (s *directionService) GetByIDWithDetails(ctx context.Context, id string) (*models.Direction, error) {
	direction, err := s.repo.Direction().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDirectionNotFound
		}
		return nil, fmt.Errorf("failed to get direction: %w", err)
	}
	return direction, nil
}

func (s *directionService) Update(ctx context.Context, id string, req *UpdateDirectionRequest, adminID string) (*DirectionResponse, error) {
	direction, err := s.repo.Direction().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDirectionNotFound
		}
		return nil, fmt.Errorf("failed to get direction: %w", err)
	}

	if errs := s.validator.ValidateDirectionUpdate(req, direction); len(errs) > 0 {
		return nil, NewValidationError("invalid direction update", errs)
	}

	if req.Name != nil {
		direction.Name = *req.Name
	}
	if req.Description != nil {
		direction.Description = req.Description
	}
	if req.IsActive != nil {
		direction.IsActive = *req.IsActive
	}
	if req.IsFree != nil {
		direction.IsFree = *req.IsFree
	}
	if req.Price != nil {
		direction.Price = *req.Price
	}
	if direction.IsFree {
		direction.Price = 0
	}

	if err := s.repo.Direction().Update(ctx, nil, direction); err != nil {
		return nil, fmt.Errorf("failed to update direction: %w", err)
	}

	s.logger.Info("direction updated", "direction_id", id, "admin_id", adminID)
	return s.toResponse(direction, nil), nil
}

func (s *directionService) Delete(ctx context.Context, id string, adminID string) error {
	if err := s.repo.Direction().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrDirectionNotFound
		}
		return fmt.Errorf("failed to delete direction: %w", err)
	}

	s.logger.Info("direction deleted", "direction_id", id, "admin_id", adminID)
	return nil
}

func (s *directionService) List(ctx context.Context, filters repositories.DirectionFilters) (*DirectionListResponse, error) {
	directions, total, err := s.repo.Direction().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list directions: %w", err)
	}

	responses := make([]*DirectionResponse, 0, len(directions))
	for _, d := range directions {
		responses = append(responses, s.toResponse(d, nil))
	}

	page := 1
	size := len(responses)
	if filters.Limit > 0 {
		size = filters.Limit
		page = filters.Offset/filters.Limit + 1
	}

	return &DirectionListResponse{Directions: responses, Total: total, Page: page, Size: size}, nil
}

// ListForStudent returns all active directions with the access predicates
// resolved against the student's grants and attempt counters.
func (s *directionService) ListForStudent(ctx context.Context, userID string) ([]*DirectionResponse, error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	active := true
	directions, _, err := s.repo.Direction().List(ctx, nil, repositories.DirectionFilters{IsActive: &active})
	if err != nil {
		return nil, fmt.Errorf("failed to list directions: %w", err)
	}

	responses := make([]*DirectionResponse, 0, len(directions))
	for _, d := range directions {
		responses = append(responses, s.toResponse(d, user))
	}
	return responses, nil
}

func (s *directionService) toResponse(direction *models.Direction, user *models.User) *DirectionResponse {
	resp := &DirectionResponse{
		Direction:        direction,
		TotalQuestions:   direction.TotalQuestions(),
		MaxPossibleScore: direction.MaxPossibleScore(),
	}
	if user != nil {
		resp.HasAccess = policy.HasAccess(user, direction)
		resp.CanStart = policy.CanStart(user, direction)
		resp.NeedsPayment = policy.NeedsPayment(user, direction)
	}
	return resp
}

// ===== SUBJECT MANAGEMENT =====

func (s *directionService) CreateSubject(ctx context.Context, directionID string, req *CreateSubjectRequest, adminID string) (*models.Subject, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, NewValidationError("invalid subject", errs)
	}

	if _, err := s.repo.Direction().GetByID(ctx, nil, directionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDirectionNotFound
		}
		return nil, fmt.Errorf("failed to get direction: %w", err)
	}

	subject := &models.Subject{
		ID:                uuid.New().String(),
		DirectionID:       directionID,
		Name:              req.Name,
		Type:              req.Type,
		QuestionCount:     req.QuestionCount,
		PointsPerQuestion: req.PointsPerQuestion,
		Position:          req.Position,
	}

	if err := s.repo.Direction().CreateSubject(ctx, nil, subject); err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}

	s.logger.Info("subject created", "subject_id", subject.ID, "direction_id", directionID, "admin_id", adminID)
	return subject, nil
}

func (s *directionService) UpdateSubject(ctx context.Context, subjectID string, req *UpdateSubjectRequest, adminID string) (*models.Subject, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, NewValidationError("invalid subject update", errs)
	}

	subject, err := s.repo.Direction().GetSubject(ctx, nil, subjectID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	if req.Name != nil {
		subject.Name = *req.Name
	}
	if req.Type != nil {
		subject.Type = *req.Type
	}
	if req.QuestionCount != nil {
		subject.QuestionCount = *req.QuestionCount
	}
	if req.PointsPerQuestion != nil {
		subject.PointsPerQuestion = *req.PointsPerQuestion
	}
	if req.Position != nil {
		subject.Position = *req.Position
	}

	if err := s.repo.Direction().UpdateSubject(ctx, nil, subject); err != nil {
		return nil, fmt.Errorf("failed to update subject: %w", err)
	}

	s.logger.Info("subject updated", "subject_id", subjectID, "admin_id", adminID)
	return subject, nil
}

func (s *directionService) DeleteSubject(ctx context.Context, subjectID string, adminID string) error {
	if err := s.repo.Direction().DeleteSubject(ctx, nil, subjectID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSubjectNotFound
		}
		return fmt.Errorf("failed to delete subject: %w", err)
	}

	s.logger.Info("subject deleted", "subject_id", subjectID, "admin_id", adminID)
	return nil
}

// ===== QUESTION MANAGEMENT =====

func (s *directionService) CreateQuestion(ctx context.Context, subjectID string, req *CreateQuestionRequest, adminID string) (*models.Question, error) {
	if errs := s.validator.ValidateQuestionCreate(req); len(errs) > 0 {
		return nil, NewValidationError("invalid question", errs)
	}

	subject, err := s.repo.Direction().GetSubject(ctx, nil, subjectID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	question := buildQuestion(subject, req)

	if err := s.repo.Direction().CreateQuestion(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("question created", "question_id", question.ID, "subject_id", subjectID, "admin_id", adminID)
	return question, nil
}

// buildQuestion snapshots the subject's per-question weight into the
// question row so later subject edits never rescore old exams.
func buildQuestion(subject *models.Subject, req *CreateQuestionRequest) *models.Question {
	question := &models.Question{
		ID:        uuid.New().String(),
		SubjectID: subject.ID,
		Text:      req.Text,
		Options: datatypes.NewJSONType(models.QuestionOptions{
			A: req.Options.A,
			B: req.Options.B,
			C: req.Options.C,
			D: req.Options.D,
		}),
		CorrectAnswer: req.CorrectAnswer,
		Points:        subject.PointsPerQuestion,
		Position:      req.Position,
	}
	if req.ImageURL != "" {
		question.ImageURL = &req.ImageURL
	}
	if req.OptionImages != nil {
		question.OptionImages = datatypes.NewJSONType(models.OptionImages{
			A: optional(req.OptionImages.A),
			B: optional(req.OptionImages.B),
			C: optional(req.OptionImages.C),
			D: optional(req.OptionImages.D),
		})
	}
	return question
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *directionService) UpdateQuestion(ctx context.Context, questionID string, req *UpdateQuestionRequest, adminID string) (*models.Question, error) {
	if errs := s.validator.ValidateQuestionUpdate(req); len(errs) > 0 {
		return nil, NewValidationError("invalid question update", errs)
	}

	question, err := s.repo.Direction().GetQuestion(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.ImageURL != nil {
		question.ImageURL = req.ImageURL
	}
	if req.Options != nil {
		question.Options = datatypes.NewJSONType(models.QuestionOptions{
			A: req.Options.A,
			B: req.Options.B,
			C: req.Options.C,
			D: req.Options.D,
		})
	}
	if req.OptionImages != nil {
		question.OptionImages = datatypes.NewJSONType(models.OptionImages{
			A: optional(req.OptionImages.A),
			B: optional(req.OptionImages.B),
			C: optional(req.OptionImages.C),
			D: optional(req.OptionImages.D),
		})
	}
	if req.CorrectAnswer != nil {
		question.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Position != nil {
		question.Position = *req.Position
	}

	if err := s.repo.Direction().UpdateQuestion(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	s.logger.Info("question updated", "question_id", questionID, "admin_id", adminID)
	return question, nil
}

func (s *directionService) DeleteQuestion(ctx context.Context, questionID string, adminID string) error {
	if err := s.repo.Direction().DeleteQuestion(ctx, nil, questionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("question deleted", "question_id", questionID, "admin_id", adminID)
	return nil
}
