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

type DirectionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewDirectionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.DirectionRepository {
	return &DirectionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (d *DirectionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return d.db
}

func (d *DirectionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, direction *models.Direction) error {
	db := d.getDB(tx)
	if err := db.WithContext(ctx).Create(direction).Error; err != nil {
		return err
	}
	cache.InvalidateDirectionCache(ctx, d.cacheManager, direction.ID)
	return nil
}

func (d *DirectionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Direction, error) {
	db := d.getDB(tx)
	var direction models.Direction
	if err := db.WithContext(ctx).First(&direction, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &direction, nil
}

// GetByIDWithDetails loads the full nested catalog: subjects in admin order,
// questions in stored order within each subject. The exam engine flattens
// exactly this ordering.
func (d *DirectionPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id string) (*models.Direction, error) {
	db := d.getDB(tx)

	fetch := func() (interface{}, error) {
		var direction models.Direction
		if err := db.WithContext(ctx).
			Preload("Subjects", func(db *gorm.DB) *gorm.DB {
				return db.Order("subjects.position ASC, subjects.created_at ASC")
			}).
			Preload("Subjects.Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("questions.position ASC, questions.created_at ASC")
			}).
			First(&direction, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &direction, nil
	}

	if tx != nil {
		direction, err := fetch()
		if err != nil {
			return nil, err
		}
		return direction.(*models.Direction), nil
	}

	cacheKey := fmt.Sprintf("details:%s", id)
	var direction models.Direction
	err := d.cacheManager.Direction.CacheOrExecute(ctx, cacheKey, &direction, cache.DirectionCacheConfig.TTL, fetch)
	if err != nil {
		return nil, err
	}
	return &direction, nil
}

func (d *DirectionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, direction *models.Direction) error {
	db := d.getDB(tx)
	if err := db.WithContext(ctx).Save(direction).Error; err != nil {
		return err
	}
	cache.InvalidateDirectionCache(ctx, d.cacheManager, direction.ID)
	return nil
}

func (d *DirectionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := d.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Direction{}, "id = ?", id).Error; err != nil {
		return err
	}
	cache.InvalidateDirectionCache(ctx, d.cacheManager, id)
	return nil
}

func (d *DirectionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.DirectionFilters) ([]*models.Direction, int64, error) {
	db := d.getDB(tx)
	var directions []*models.Direction
	var total int64

	query := db.WithContext(ctx).Model(&models.Direction{})
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.IsFree != nil {
		query = query.Where("is_free = ?", *filters.IsFree)
	}
	if filters.Query != "" {
		query = query.Where("name ILIKE ?", "%"+filters.Query+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filters.SortBy
	if sortBy != "name" {
		sortBy = "created_at"
	}
	order := "ASC"
	if filters.SortOrder == "desc" {
		order = "DESC"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, order))
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Preload("Subjects", func(db *gorm.DB) *gorm.DB {
		return db.Order("subjects.position ASC")
	}).Find(&directions).Error; err != nil {
		return nil, 0, err
	}

	return directions, total, nil
}

// ===== SUBJECTS =====

func (d *DirectionPostgreSQL) CreateSubject(ctx context.Context, tx *gorm.DB, subject *models.Subject) error {
	db := d.getDB(tx)
	if err := db.WithContext(ctx).Create(subject).Error; err != nil {
		return err
	}
	cache.InvalidateDirectionCache(ctx, d.cacheManager, subject.DirectionID)
	return nil
}

func (d *DirectionPostgreSQL) UpdateSubject(ctx context.Context, tx *gorm.DB, subject *models.Subject) error {
	db := d.getDB(tx)
	if err := db.WithContext(ctx).Save(subject).Error; err != nil {
		return err
	}
	cache.InvalidateDirectionCache(ctx, d.cacheManager, subject.DirectionID)
	return nil
}

func (d *DirectionPostgreSQL) DeleteSubject(ctx context.Context, tx *gorm.DB, id string) error {
	db := d.getDB(tx)
	subject, err := d.GetSubject(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Delete(&models.Subject{}, "id = ?", id).Error; err != nil {
		return err
	}
	cache.InvalidateDirectionCache(ctx, d.cacheManager, subject.DirectionID)
	return nil
}

func (d *DirectionPostgreSQL) GetSubject(ctx context.Context, tx *gorm.DB, id string) (*models.Subject, error) {
	db := d.getDB(tx)
	var subject models.Subject
	if err := db.WithContext(ctx).First(&subject, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}

// ===== QUESTIONS =====

func (d *DirectionPostgreSQL) CreateQuestion(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := d.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return err
	}
	d.invalidateForQuestion(ctx, tx, question.SubjectID)
	return nil
}

func (d *DirectionPostgreSQL) CreateQuestions(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	db := d.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return err
	}
	d.invalidateForQuestion(ctx, tx, questions[0].SubjectID)
	return nil
}

func (d *DirectionPostgreSQL) UpdateQuestion(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := d.getDB(tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return err
	}
	d.invalidateForQuestion(ctx, tx, question.SubjectID)
	return nil
}

func (d *DirectionPostgreSQL) DeleteQuestion(ctx context.Context, tx *gorm.DB, id string) error {
	db := d.getDB(tx)
	question, err := d.GetQuestion(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Delete(&models.Question{}, "id = ?", id).Error; err != nil {
		return err
	}
	d.invalidateForQuestion(ctx, tx, question.SubjectID)
	return nil
}

func (d *DirectionPostgreSQL) GetQuestion(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error) {
	db := d.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).First(&question, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// IncrementWrongAnswers bumps the analytics miss counter for every missed
// question of a completed attempt in one statement.
func (d *DirectionPostgreSQL) IncrementWrongAnswers(ctx context.Context, tx *gorm.DB, questionIDs []string) error {
	if len(questionIDs) == 0 {
		return nil
	}
	db := d.getDB(tx)
	return db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id IN ?", questionIDs).
		UpdateColumn("wrong_answer_count", gorm.Expr("wrong_answer_count + 1")).Error
}

func (d *DirectionPostgreSQL) invalidateForQuestion(ctx context.Context, tx *gorm.DB, subjectID string) {
	subject, err := d.GetSubject(ctx, tx, subjectID)
	if err != nil {
		return
	}
	cache.InvalidateDirectionCache(ctx, d.cacheManager, subject.DirectionID)
}
