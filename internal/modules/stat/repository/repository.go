package repository

import (
	"context"

	"anoa.com/dailydebate/internal/entity"
	"gorm.io/gorm"
)

type StatusCount struct {
	Status entity.QuestionStatus
	Count  int64
}

type StatRepository interface {
	CountUsers(ctx context.Context) (int64, error)
	CountAnswers(ctx context.Context) (int64, error)
	CountQuestionsByStatus(ctx context.Context) ([]StatusCount, error)
}

type statRepository struct {
	db *gorm.DB
}

func NewStatRepository(db *gorm.DB) StatRepository {
	return &statRepository{db: db}
}

func (r *statRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&count).Error
	return count, err
}

func (r *statRepository) CountAnswers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Answer{}).Count(&count).Error
	return count, err
}

func (r *statRepository) CountQuestionsByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Model(&entity.Question{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}
