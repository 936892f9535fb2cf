package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/cache"
	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
)

type ResultPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewResultPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ResultRepository {
	return &ResultPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *ResultPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.TestResult) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(result).Error; err != nil {
		return err
	}
	// A new result changes the ranking.
	cache.InvalidateLeaderboardCache(ctx, r.cacheManager)
	return nil
}

func (r *ResultPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.TestResult, error) {
	db := r.getDB(tx)
	var result models.TestResult
	if err := db.WithContext(ctx).First(&result, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) GetBySession(ctx context.Context, tx *gorm.DB, sessionID string) (*models.TestResult, error) {
	db := r.getDB(tx)
	var result models.TestResult
	if err := db.WithContext(ctx).First(&result, "session_id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.TestResult, int64, error) {
	db := r.getDB(tx)
	var results []*models.TestResult
	var total int64

	query := db.WithContext(ctx).Model(&models.TestResult{})
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.DirectionID != nil {
		query = query.Where("direction_id = ?", *filters.DirectionID)
	}
	if filters.DateFrom != nil {
		query = query.Where("completed_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("completed_at <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filters.SortBy
	switch sortBy {
	case "total_score", "completed_at":
	default:
		sortBy = "completed_at"
	}
	order := "DESC"
	if filters.SortOrder == "asc" {
		order = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, order))
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&results).Error; err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

// ListAll returns every result ordered by completion time. The leaderboard
// recompute and the Excel export both consume the full list.
func (r *ResultPostgreSQL) ListAll(ctx context.Context, tx *gorm.DB) ([]*models.TestResult, error) {
	db := r.getDB(tx)
	var results []*models.TestResult
	if err := db.WithContext(ctx).Order("completed_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
