package repository

import (
	"context"

	"anoa.com/dailydebate/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LikeSumRow struct {
	UserID   uint
	LikesSum int64
}

type RankingRow struct {
	UserID       uint   `json:"user_id"`
	DisplayName  string `json:"display_name"`
	LikesSum     int64  `json:"likes_sum"`
	RankPosition int    `json:"rank_position"`
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LikeSums(ctx context.Context, questionID uint) ([]LikeSumRow, error)
	Replace(ctx context.Context, questionID uint, rows []entity.DailyUserInfluence) error
	IncrementInfluence(ctx context.Context, userID uint, likes int64) error
	Ranking(ctx context.Context, questionID uint, limit int) ([]RankingRow, error)
}

type influenceRepository struct {
	db *gorm.DB
}

func NewInfluenceRepository(db *gorm.DB) Repository {
	return &influenceRepository{db: db}
}

func (r *influenceRepository) WithTx(tx *gorm.DB) Repository {
	return &influenceRepository{db: tx}
}

// LikeSums returns identified users ordered by likes received, then user id.
func (r *influenceRepository) LikeSums(ctx context.Context, questionID uint) ([]LikeSumRow, error) {
	var rows []LikeSumRow
	err := r.db.WithContext(ctx).
		Model(&entity.Answer{}).
		Select("user_id, COALESCE(SUM(likes_count), 0) AS likes_sum").
		Where("question_id = ? AND user_id IS NOT NULL", questionID).
		Group("user_id").
		Order("likes_sum DESC, user_id ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *influenceRepository) Replace(ctx context.Context, questionID uint, rows []entity.DailyUserInfluence) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("question_id = ?", questionID).Delete(&entity.DailyUserInfluence{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return db.CreateInBatches(&rows, 200).Error
}

func (r *influenceRepository) IncrementInfluence(ctx context.Context, userID uint, likes int64) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"influence_total": gorm.Expr("user_stats.influence_total + ?", likes),
			"updated_at":      gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&entity.UserStats{
		UserID:            userID,
		InfluenceTotal:    likes,
		WeeklyGraceTokens: entity.WeeklyGraceTokens,
	}).Error
}

func (r *influenceRepository) Ranking(ctx context.Context, questionID uint, limit int) ([]RankingRow, error) {
	var rows []RankingRow
	err := r.db.WithContext(ctx).
		Table("daily_user_influence AS d").
		Select("d.user_id, COALESCE(u.display_name, '') AS display_name, d.likes_sum, d.rank_position").
		Joins("LEFT JOIN users u ON u.id = d.user_id").
		Where("d.question_id = ?", questionID).
		Order("d.rank_position ASC, d.user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
