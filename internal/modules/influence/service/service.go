package service

import (
	"cmp"
	"context"
	"fmt"

	"anoa.com/dailydebate/internal/entity"
	influenceRepo "anoa.com/dailydebate/internal/modules/influence/repository"
	"gorm.io/gorm"
)

const (
	DefaultRankingLimit = 20
	MaxRankingLimit     = 100
)

// AssignRanks gives competition ranks to values sorted in descending order:
// equal values share a rank and the next distinct value takes its 1-based
// position, so [10 10 7 5] ranks as [1 1 3 4].
func AssignRanks[T cmp.Ordered](sorted []T) []int {
	ranks := make([]int, len(sorted))
	for i, v := range sorted {
		if i > 0 && v == sorted[i-1] {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}

type InfluenceService interface {
	// Rank recomputes the daily influence table for a question and adds each
	// user's likes to their lifetime influence. Runs inside the settlement
	// transaction only.
	Rank(ctx context.Context, tx *gorm.DB, questionID uint) ([]entity.DailyUserInfluence, error)
	GetQuestionRanking(ctx context.Context, questionID uint, limit int) ([]influenceRepo.RankingRow, error)
}

type influenceService struct {
	repo influenceRepo.Repository
}

func NewInfluenceService(repo influenceRepo.Repository) InfluenceService {
	return &influenceService{repo: repo}
}

func (s *influenceService) Rank(ctx context.Context, tx *gorm.DB, questionID uint) ([]entity.DailyUserInfluence, error) {
	repo := s.repo.WithTx(tx)

	sums, err := repo.LikeSums(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("sum likes: %w", err)
	}

	values := make([]int64, len(sums))
	for i, row := range sums {
		values[i] = row.LikesSum
	}
	ranks := AssignRanks(values)

	rows := make([]entity.DailyUserInfluence, len(sums))
	for i, row := range sums {
		rows[i] = entity.DailyUserInfluence{
			QuestionID:   questionID,
			UserID:       row.UserID,
			LikesSum:     row.LikesSum,
			RankPosition: ranks[i],
		}
	}

	if err := repo.Replace(ctx, questionID, rows); err != nil {
		return nil, fmt.Errorf("store influence: %w", err)
	}

	for _, row := range sums {
		if err := repo.IncrementInfluence(ctx, row.UserID, row.LikesSum); err != nil {
			return nil, fmt.Errorf("update influence for user %d: %w", row.UserID, err)
		}
	}

	return rows, nil
}

func (s *influenceService) GetQuestionRanking(ctx context.Context, questionID uint, limit int) ([]influenceRepo.RankingRow, error) {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}
	if limit > MaxRankingLimit {
		limit = MaxRankingLimit
	}

	rows, err := s.repo.Ranking(ctx, questionID, limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []influenceRepo.RankingRow{}
	}
	return rows, nil
}
