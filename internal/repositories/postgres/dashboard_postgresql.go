package postgres

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/cache"
	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
)

type DashboardPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewDashboardPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.DashboardRepository {
	return &DashboardPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *DashboardPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *DashboardPostgreSQL) GetPlatformStats(ctx context.Context, tx *gorm.DB) (*repositories.PlatformStats, error) {
	if tx == nil && r.cacheManager != nil {
		cacheKey := "dashboard:platform_stats"
		var stats repositories.PlatformStats
		err := r.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
			return r.computePlatformStats(ctx, r.db)
		})
		if err == nil {
			return &stats, nil
		}
	}
	return r.computePlatformStats(ctx, r.getDB(tx))
}

func (r *DashboardPostgreSQL) computePlatformStats(ctx context.Context, db *gorm.DB) (*repositories.PlatformStats, error) {
	stats := &repositories.PlatformStats{}

	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleStudent).
		Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND is_blocked = ?", models.RoleStudent, false).
		Count(&stats.ActiveUsers).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&models.TestResult{}).
		Count(&stats.TotalTests).Error; err != nil {
		return nil, err
	}

	var avg *float64
	if err := db.WithContext(ctx).Model(&models.TestResult{}).
		Select("AVG(total_score)").
		Scan(&avg).Error; err != nil {
		return nil, err
	}
	if avg != nil {
		stats.AverageScore = *avg
	}

	if err := db.WithContext(ctx).Model(&models.Payment{}).
		Where("status = ?", models.PaymentPending).
		Count(&stats.PendingPayments).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&models.SupportTicket{}).
		Where("status = ?", models.TicketOpen).
		Count(&stats.OpenTickets).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *DashboardPostgreSQL) GetPopularDirections(ctx context.Context, tx *gorm.DB, limit int) ([]*repositories.DirectionPopularity, error) {
	if limit <= 0 {
		limit = 5
	}
	db := r.getDB(tx)
	var rows []*repositories.DirectionPopularity
	err := db.WithContext(ctx).Model(&models.TestResult{}).
		Select("test_results.direction_id, directions.name, COUNT(*) as attempts").
		Joins("JOIN directions ON directions.id = test_results.direction_id").
		Group("test_results.direction_id, directions.name").
		Order("attempts DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *DashboardPostgreSQL) GetDifficultQuestions(ctx context.Context, tx *gorm.DB, limit int) ([]*repositories.DifficultQuestion, error) {
	if limit <= 0 {
		limit = 10
	}
	db := r.getDB(tx)
	var rows []*repositories.DifficultQuestion
	err := db.WithContext(ctx).Model(&models.Question{}).
		Select("id as question_id, text, wrong_answer_count as wrong_count").
		Where("wrong_answer_count > 0").
		Order("wrong_answer_count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
