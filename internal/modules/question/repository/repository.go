package repository

import (
	"context"
	"time"

	"anoa.com/dailydebate/internal/entity"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	FindActive(ctx context.Context) (*entity.Question, error)
	FindNextDue(ctx context.Context, today time.Time) (*entity.Question, error)
	FindByID(ctx context.Context, id uint) (*entity.Question, error)
	LatestPublishedOnOrAfter(ctx context.Context, from time.Time) (*time.Time, error)
	// LockSchedule serializes question scheduling until the surrounding
	// transaction ends. SQLite already serializes writers, so it is a no-op there.
	LockSchedule(ctx context.Context) error
	Create(ctx context.Context, q *entity.Question) error

	// Close and Activate are conditional transitions. They report false when
	// the row was not in the expected source status.
	Close(ctx context.Context, id uint) (bool, error)
	Activate(ctx context.Context, id uint) (bool, error)
}

// scheduleLockKey is the postgres advisory lock id held while a publish date
// is picked.
const scheduleLockKey int64 = 0x64656261

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) Repository {
	return &questionRepository{db: db}
}

func (r *questionRepository) WithTx(tx *gorm.DB) Repository {
	return &questionRepository{db: tx}
}

func (r *questionRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// first loads at most one row without the "record not found" noise of First.
func first(query *gorm.DB) (*entity.Question, error) {
	var rows []entity.Question
	if err := query.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *questionRepository) FindActive(ctx context.Context) (*entity.Question, error) {
	return first(r.db.WithContext(ctx).
		Where("status = ?", entity.QuestionActive).
		Order("id DESC"))
}

func (r *questionRepository) FindNextDue(ctx context.Context, today time.Time) (*entity.Question, error) {
	return first(r.db.WithContext(ctx).
		Where("status = ? AND published_date <= ?", entity.QuestionScheduled, today).
		Order("published_date ASC, id ASC"))
}

func (r *questionRepository) FindByID(ctx context.Context, id uint) (*entity.Question, error) {
	return first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *questionRepository) LatestPublishedOnOrAfter(ctx context.Context, from time.Time) (*time.Time, error) {
	q, err := first(r.db.WithContext(ctx).
		Where("published_date >= ?", from).
		Order("published_date DESC"))
	if err != nil || q == nil {
		return nil, err
	}
	return &q.PublishedDate, nil
}

func (r *questionRepository) LockSchedule(ctx context.Context) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	return scheduleLock(r.db.WithContext(ctx)).Error
}

func scheduleLock(db *gorm.DB) *gorm.DB {
	return db.Exec("SELECT pg_advisory_xact_lock(?)", scheduleLockKey)
}

func (r *questionRepository) Create(ctx context.Context, q *entity.Question) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *questionRepository) Close(ctx context.Context, id uint) (bool, error) {
	return r.transition(ctx, id, entity.QuestionActive, entity.QuestionClosed)
}

func (r *questionRepository) Activate(ctx context.Context, id uint) (bool, error) {
	return r.transition(ctx, id, entity.QuestionScheduled, entity.QuestionActive)
}

func (r *questionRepository) transition(ctx context.Context, id uint, from, to entity.QuestionStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Question{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
