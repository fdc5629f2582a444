package repository

import (
	"context"
	"time"

	"anoa.com/dailydebate/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreakUpdate is the full set of columns one participation writes.
type StreakUpdate struct {
	Streak  int
	Grace   int
	Last    time.Time
	AwardXP float64
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EnsureStats(ctx context.Context, userID uint) error
	GetStats(ctx context.Context, userID uint) (*entity.UserStats, error)
	// UpdateIfUnchanged writes the update only when last_participation_date
	// still equals prevLast, reporting whether a row was written.
	UpdateIfUnchanged(ctx context.Context, userID uint, prevLast *time.Time, u StreakUpdate) (bool, error)
	AddParticipation(ctx context.Context, userID, questionID uint) error
}

type streakRepository struct {
	db *gorm.DB
}

func NewStreakRepository(db *gorm.DB) Repository {
	return &streakRepository{db: db}
}

func (r *streakRepository) WithTx(tx *gorm.DB) Repository {
	return &streakRepository{db: tx}
}

func (r *streakRepository) EnsureStats(ctx context.Context, userID uint) error {
	stats := entity.NewUserStats(userID)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&stats).Error
}

func (r *streakRepository) GetStats(ctx context.Context, userID uint) (*entity.UserStats, error) {
	var stats entity.UserStats
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *streakRepository) UpdateIfUnchanged(ctx context.Context, userID uint, prevLast *time.Time, u StreakUpdate) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.UserStats{}).
		Where("user_id = ?", userID)
	if prevLast == nil {
		query = query.Where("last_participation_date IS NULL")
	} else {
		query = query.Where("last_participation_date = ?", *prevLast)
	}

	result := query.Updates(map[string]interface{}{
		"streak_days":             u.Streak,
		"weekly_grace_tokens":     u.Grace,
		"last_participation_date": u.Last,
		"total_xp":                gorm.Expr("total_xp + ?", u.AwardXP),
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *streakRepository) AddParticipation(ctx context.Context, userID, questionID uint) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.Participation{UserID: userID, QuestionID: questionID}).Error
}
