package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
	"github.com/SaidjonAlixon/testblok/internal/validator"
)

const tokenKeyPrefix = "auth:token:"

type userService struct {
	repo        repositories.Repository
	db          *gorm.DB
	logger      *slog.Logger
	validator   *validator.Validator
	redisClient *redis.Client
	tokenTTL    time.Duration
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, redisClient *redis.Client, tokenTTL time.Duration) UserService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &userService{
		repo:        repo,
		db:          db,
		logger:      logger,
		validator:   validator,
		redisClient: redisClient,
		tokenTTL:    tokenTTL,
	}
}

// ===== AUTHENTICATION =====

func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, NewValidationError("invalid registration request", errs)
	}

	if _, err := s.repo.User().GetByEmail(ctx, nil, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         models.RoleStudent,
		PasswordHash: string(hash),
		// New accounts get the free attempt plus one purchasable slot.
		MaxTestAttempts: 1,
	}

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return &AuthResponse{Token: token, User: user}, nil
}

func (s *userService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, NewValidationError("invalid login request", errs)
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.IsBlocked {
		return nil, ErrUserBlocked
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &AuthResponse{Token: token, User: user}, nil
}

func (s *userService) Logout(ctx context.Context, token string) error {
	if s.redisClient == nil {
		return nil
	}
	return s.redisClient.Del(ctx, tokenKeyPrefix+token).Err()
}

func (s *userService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if s.redisClient == nil {
		return nil, fmt.Errorf("token store not available")
	}

	userID, err := s.redisClient.Get(ctx, tokenKeyPrefix+token).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

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

	return user, nil
}

func (s *userService) issueToken(ctx context.Context, userID string) (string, error) {
	if s.redisClient == nil {
		return "", fmt.Errorf("token store not available")
	}

	token := uuid.New().String()
	if err := s.redisClient.Set(ctx, tokenKeyPrefix+token, userID, s.tokenTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	return token, nil
}

// ===== PROFILE =====

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *UpdateUserRequest) (*models.User, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, NewValidationError("invalid profile update", errs)
	}

	// Students may only touch their own profile fields.
	if req.IsBlocked != nil || req.MaxTestAttempts != nil {
		return nil, NewPermissionError(userID, userID, "user", "update", "access fields are admin-only")
	}

	return s.applyUserUpdate(ctx, userID, req)
}

// ===== ADMIN OPERATIONS =====

func (s *userService) List(ctx context.Context, filters repositories.UserFilters) (*UserListResponse, error) {
	users, total, err := s.repo.User().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	page := 1
	size := len(users)
	if filters.Limit > 0 {
		size = filters.Limit
		page = filters.Offset/filters.Limit + 1
	}

	return &UserListResponse{Users: users, Total: total, Page: page, Size: size}, nil
}

func (s *userService) Update(ctx context.Context, id string, req *UpdateUserRequest, adminID string) (*models.User, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, NewValidationError("invalid user update", errs)
	}

	user, err := s.applyUserUpdate(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated by admin", "user_id", id, "admin_id", adminID)
	return user, nil
}

func (s *userService) applyUserUpdate(ctx context.Context, id string, req *UpdateUserRequest) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.IsBlocked != nil {
		user.IsBlocked = *req.IsBlocked
	}
	if req.MaxTestAttempts != nil {
		user.MaxTestAttempts = *req.MaxTestAttempts
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.ProfileImage != nil {
		user.ProfileImage = req.ProfileImage
	}

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func (s *userService) SetBlocked(ctx context.Context, id string, blocked bool, adminID string) error {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsBlocked == blocked {
		return nil
	}

	user.IsBlocked = blocked
	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("user block state changed", "user_id", id, "blocked", blocked, "admin_id", adminID)
	return nil
}

func (s *userService) GrantDirection(ctx context.Context, userID, directionID string, attempts int, adminID string) error {
	if _, err := s.repo.Direction().GetByID(ctx, nil, directionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrDirectionNotFound
		}
		return fmt.Errorf("failed to get direction: %w", err)
	}

	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasDirection(directionID) {
		user.AllowedDirections = append(user.AllowedDirections, directionID)
	}
	if attempts > 0 && !user.HasUnlimitedAttempts() {
		user.MaxTestAttempts += attempts
	}

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("direction granted",
		"user_id", userID, "direction_id", directionID,
		"attempts", attempts, "admin_id", adminID)
	return nil
}

func (s *userService) Delete(ctx context.Context, id string, adminID string) error {
	if err := s.repo.User().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user deleted", "user_id", id, "admin_id", adminID)
	return nil
}
