package postgres

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/cache"
	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
)

type PaymentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewPaymentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.PaymentRepository {
	return &PaymentPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *PaymentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *PaymentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).Create(payment).Error
}

func (r *PaymentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Payment, error) {
	db := r.getDB(tx)
	var payment models.Payment
	if err := db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(payment).Error; err != nil {
		return err
	}
	// Confirming a payment changes the payer's access set.
	cache.InvalidateUserCache(ctx, r.cacheManager, payment.UserID)
	return nil
}

func (r *PaymentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.PaymentFilters) ([]*models.Payment, int64, error) {
	db := r.getDB(tx)
	var payments []*models.Payment
	var total int64

	query := db.WithContext(ctx).Model(&models.Payment{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.DirectionID != nil {
		query = query.Where("direction_id = ?", *filters.DirectionID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}
