package repository

import (
	"context"
	"errors"

	"anoa.com/dailydebate/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAlreadySettled is returned when a settlement row for the question exists.
var ErrAlreadySettled = errors.New("question already settled")

type SideTally struct {
	Side  entity.Side
	Votes int64
	Likes int64
}

type ParticipantRow struct {
	UserID uint
	Side   entity.Side
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	TallyBySide(ctx context.Context, questionID uint) ([]SideTally, error)
	Participants(ctx context.Context, questionID uint) ([]ParticipantRow, error)
	IncrementPower(ctx context.Context, userID uint, majorityHit bool) error
	IsSettled(ctx context.Context, questionID uint) (bool, error)
	Create(ctx context.Context, s *entity.Settlement) error
}

type settlementRepository struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) Repository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) WithTx(tx *gorm.DB) Repository {
	return &settlementRepository{db: tx}
}

func (r *settlementRepository) TallyBySide(ctx context.Context, questionID uint) ([]SideTally, error) {
	var rows []SideTally
	err := r.db.WithContext(ctx).
		Model(&entity.Answer{}).
		Select("side, COUNT(*) AS votes, COALESCE(SUM(likes_count), 0) AS likes").
		Where("question_id = ?", questionID).
		Group("side").
		Scan(&rows).Error
	return rows, err
}

func (r *settlementRepository) Participants(ctx context.Context, questionID uint) ([]ParticipantRow, error) {
	var rows []ParticipantRow
	err := r.db.WithContext(ctx).
		Model(&entity.Answer{}).
		Distinct("user_id", "side").
		Where("question_id = ? AND user_id IS NOT NULL", questionID).
		Order("user_id").
		Scan(&rows).Error
	return rows, err
}

func (r *settlementRepository) IncrementPower(ctx context.Context, userID uint, majorityHit bool) error {
	var hit int64
	if majorityHit {
		hit = 1
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"power_participations": gorm.Expr("user_stats.power_participations + ?", 1),
			"power_majority_hits":  gorm.Expr("user_stats.power_majority_hits + ?", hit),
			"updated_at":           gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&entity.UserStats{
		UserID:              userID,
		PowerParticipations: 1,
		PowerMajorityHits:   hit,
		WeeklyGraceTokens:   entity.WeeklyGraceTokens,
	}).Error
}

func (r *settlementRepository) IsSettled(ctx context.Context, questionID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Settlement{}).
		Where("question_id = ?", questionID).
		Count(&count).Error
	return count > 0, err
}

func (r *settlementRepository) Create(ctx context.Context, s *entity.Settlement) error {
	err := r.db.WithContext(ctx).Create(s).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadySettled
	}
	return err
}
