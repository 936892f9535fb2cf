package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/cache"
	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
)

const leaderboardCacheKey = "leaderboard:global"

type leaderboardService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	cacheManager *cache.CacheManager
}

func NewLeaderboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, cacheManager *cache.CacheManager) LeaderboardService {
	return &leaderboardService{
		repo:         repo,
		db:           db,
		logger:       logger,
		cacheManager: cacheManager,
	}
}

func (s *leaderboardService) Get(ctx context.Context) ([]*LeaderboardEntry, error) {
	if s.cacheManager != nil {
		var entries []*LeaderboardEntry
		err := s.cacheManager.Leaderboard.CacheOrExecute(ctx, leaderboardCacheKey, &entries,
			cache.LeaderboardCacheConfig.TTL, func() (interface{}, error) {
				return s.compute(ctx)
			})
		if err == nil {
			return entries, nil
		}
		s.logger.Warn("leaderboard cache path failed, recomputing", "error", err)
	}
	return s.compute(ctx)
}

func (s *leaderboardService) ForUser(ctx context.Context, userID string) (*LeaderboardEntry, error) {
	entries, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.UserID == userID {
			return entry, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *leaderboardService) compute(ctx context.Context) ([]*LeaderboardEntry, error) {
	role := models.RoleStudent
	users, _, err := s.repo.User().List(ctx, nil, repositories.UserFilters{
		Role:      &role,
		SortBy:    "created_at",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	results, err := s.repo.Result().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	return ComputeLeaderboard(users, results), nil
}

// ComputeLeaderboard sums every student's result scores and ranks them by
// total, descending. The sort is stable: students with equal totals keep
// their relative order from the input user list, and rank is the position
// in the sorted order starting at 1.
func ComputeLeaderboard(users []*models.User, results []*models.TestResult) []*LeaderboardEntry {
	totals := make(map[string]float64, len(users))
	counts := make(map[string]int, len(users))
	for _, r := range results {
		totals[r.UserID] += r.TotalScore
		counts[r.UserID]++
	}

	entries := make([]*LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, &LeaderboardEntry{
			UserID:     u.ID,
			FullName:   u.FullName,
			TotalScore: totals[u.ID],
			TestCount:  counts[u.ID],
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalScore > entries[j].TotalScore
	})

	for i, entry := range entries {
		entry.Rank = i + 1
	}
	return entries
}
