package postgres

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
)

type TicketPostgreSQL struct {
	db *gorm.DB
}

func NewTicketPostgreSQL(db *gorm.DB, _ *redis.Client) repositories.TicketRepository {
	return &TicketPostgreSQL{db: db}
}

func (r *TicketPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *TicketPostgreSQL) Create(ctx context.Context, tx *gorm.DB, ticket *models.SupportTicket) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).Create(ticket).Error
}

func (r *TicketPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.SupportTicket, error) {
	db := r.getDB(tx)
	var ticket models.SupportTicket
	if err := db.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketPostgreSQL) GetByIDWithResponses(ctx context.Context, tx *gorm.DB, id string) (*models.SupportTicket, error) {
	db := r.getDB(tx)
	var ticket models.SupportTicket
	err := db.WithContext(ctx).
		Preload("Responses", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&ticket, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketPostgreSQL) Update(ctx context.Context, tx *gorm.DB, ticket *models.SupportTicket) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).Save(ticket).Error
}

func (r *TicketPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.TicketFilters) ([]*models.SupportTicket, int64, error) {
	db := r.getDB(tx)
	var tickets []*models.SupportTicket
	var total int64

	query := db.WithContext(ctx).Model(&models.SupportTicket{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Priority != nil {
		query = query.Where("priority = ?", *filters.Priority)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
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

	if err := query.Find(&tickets).Error; err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

func (r *TicketPostgreSQL) AddResponse(ctx context.Context, tx *gorm.DB, response *models.SupportResponse) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).Create(response).Error
}
