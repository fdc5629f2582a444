package repository

import (
	"context"

	"anoa.com/dailydebate/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(repo Repository) error) error
	// ClaimAnonymous assigns anonymous answers from ip to the user, skipping
	// questions the user already answered under their account and answers the
	// user has liked, which would otherwise become self-likes.
	ClaimAnonymous(ctx context.Context, userID uint, ip string) (int64, error)
	EnsureStats(ctx context.Context, userID uint) error
	BackfillParticipations(ctx context.Context, userID uint) (int64, error)
}

type identityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) Repository {
	return &identityRepository{db: db}
}

func (r *identityRepository) Transaction(ctx context.Context, fn func(repo Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&identityRepository{db: tx})
	})
}

func (r *identityRepository) ClaimAnonymous(ctx context.Context, userID uint, ip string) (int64, error) {
	owned := r.db.Model(&entity.Answer{}).
		Select("question_id").
		Where("user_id = ?", userID)

	liked := r.db.Model(&entity.AnswerLike{}).
		Select("answer_id").
		Where("user_id = ?", userID)

	result := r.db.WithContext(ctx).
		Model(&entity.Answer{}).
		Where("user_id IS NULL AND ip_address = ?", ip).
		Where("question_id NOT IN (?)", owned).
		Where("id NOT IN (?)", liked).
		Update("user_id", userID)
	return result.RowsAffected, result.Error
}

func (r *identityRepository) EnsureStats(ctx context.Context, userID uint) error {
	stats := entity.NewUserStats(userID)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&stats).Error
}

func (r *identityRepository) BackfillParticipations(ctx context.Context, userID uint) (int64, error) {
	var questionIDs []uint
	err := r.db.WithContext(ctx).
		Model(&entity.Answer{}).
		Where("user_id = ?", userID).
		Where("question_id NOT IN (?)",
			r.db.Model(&entity.Participation{}).Select("question_id").Where("user_id = ?", userID)).
		Distinct().
		Pluck("question_id", &questionIDs).Error
	if err != nil || len(questionIDs) == 0 {
		return 0, err
	}

	rows := make([]entity.Participation, len(questionIDs))
	for i, qid := range questionIDs {
		rows[i] = entity.Participation{UserID: userID, QuestionID: qid}
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	return result.RowsAffected, result.Error
}
