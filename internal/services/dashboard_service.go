package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
)

const (
	popularDirectionsLimit  = 5
	difficultQuestionsLimit = 10
	recentResultsLimit      = 5
)

type dashboardService struct {
	repo          repositories.Repository
	db            *gorm.DB
	logger        *slog.Logger
	directions    DirectionService
	leaderboard   LeaderboardService
	notifications NotificationService
}

func NewDashboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, directions DirectionService, leaderboard LeaderboardService, notifications NotificationService) DashboardService {
	return &dashboardService{
		repo:          repo,
		db:            db,
		logger:        logger,
		directions:    directions,
		leaderboard:   leaderboard,
		notifications: notifications,
	}
}

func (s *dashboardService) AdminOverview(ctx context.Context, adminID string) (*AdminDashboard, error) {
	admin, err := s.repo.User().GetByID(ctx, nil, adminID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !admin.IsAdmin() {
		return nil, NewPermissionError(adminID, "", "dashboard", "admin_overview", "admin role required")
	}

	stats, err := s.repo.Dashboard().GetPlatformStats(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform stats: %w", err)
	}

	popular, err := s.repo.Dashboard().GetPopularDirections(ctx, nil, popularDirectionsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get popular directions: %w", err)
	}

	difficult, err := s.repo.Dashboard().GetDifficultQuestions(ctx, nil, difficultQuestionsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get difficult questions: %w", err)
	}

	return &AdminDashboard{
		Stats:              stats,
		PopularDirections:  popular,
		DifficultQuestions: difficult,
	}, nil
}

func (s *dashboardService) StudentOverview(ctx context.Context, userID string) (*StudentDashboard, error) {
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

	catalog, err := s.directions.ListForStudent(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list directions: %w", err)
	}

	results, _, err := s.repo.Result().List(ctx, nil, repositories.ResultFilters{
		UserID:    &user.ID,
		SortBy:    "completed_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	dashboard := &StudentDashboard{
		Directions:    s.directionStatuses(catalog, results),
		RecentResults: s.recentResults(ctx, results),
	}

	rank, err := s.leaderboard.ForUser(ctx, user.ID)
	switch {
	case err == nil:
		dashboard.Rank = rank
	case errors.Is(err, ErrUserNotFound):
		// No completed tests yet, no rank.
	default:
		return nil, fmt.Errorf("failed to resolve rank: %w", err)
	}

	unread, err := s.notifications.CountUnread(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	dashboard.Unread = unread

	return dashboard, nil
}

// directionStatuses annotates the student catalog with the user's own
// history: best score and attempts used per direction.
func (s *dashboardService) directionStatuses(catalog []*DirectionResponse, results []*models.TestResult) []*StudentDirectionStatus {
	best := make(map[string]float64)
	attempts := make(map[string]int)
	for _, r := range results {
		attempts[r.DirectionID]++
		if score, ok := best[r.DirectionID]; !ok || r.TotalScore > score {
			best[r.DirectionID] = r.TotalScore
		}
	}

	statuses := make([]*StudentDirectionStatus, 0, len(catalog))
	for _, direction := range catalog {
		status := &StudentDirectionStatus{
			DirectionResponse: direction,
			AttemptsUsed:      attempts[direction.ID],
		}
		if score, ok := best[direction.ID]; ok {
			status.BestScore = &score
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func (s *dashboardService) recentResults(ctx context.Context, results []*models.TestResult) []*ResultResponse {
	if len(results) > recentResultsLimit {
		results = results[:recentResultsLimit]
	}

	responses := make([]*ResultResponse, 0, len(results))
	for _, result := range results {
		resp := &ResultResponse{
			TestResult: result,
			Percentage: result.Percentage(),
		}
		if direction, err := s.repo.Direction().GetByIDWithDetails(ctx, nil, result.DirectionID); err == nil {
			resp.MaxPossibleScore = direction.MaxPossibleScore()
		}
		responses = append(responses, resp)
	}
	return responses
}
