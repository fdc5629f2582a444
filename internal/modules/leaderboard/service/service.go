package service

import (
	"context"

	influenceService "anoa.com/dailydebate/internal/modules/influence/service"
	leaderboardDto "anoa.com/dailydebate/internal/modules/leaderboard/dto"
	leaderboardRepo "anoa.com/dailydebate/internal/modules/leaderboard/repository"
	userService "anoa.com/dailydebate/internal/modules/user/service"
	"anoa.com/dailydebate/pkg/apperror"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, metric string, limit int) ([]leaderboardDto.LeaderboardEntry, error)
}

type leaderboardService struct {
	repo leaderboardRepo.LeaderboardRepository
}

func NewLeaderboardService(repo leaderboardRepo.LeaderboardRepository) LeaderboardService {
	return &leaderboardService{repo: repo}
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, metric string, limit int) ([]leaderboardDto.LeaderboardEntry, error) {
	if metric == "" {
		metric = leaderboardRepo.MetricXP
	}
	if !leaderboardRepo.ValidMetric(metric) {
		return nil, apperror.Invalid("by must be one of [xp influence streak power]")
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	rows, err := s.repo.TopUsers(ctx, metric, limit)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(rows))
	for i, row := range rows {
		scores[i] = score(metric, row)
	}
	positions := influenceService.AssignRanks(scores)

	entries := make([]leaderboardDto.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, leaderboardDto.LeaderboardEntry{
			UserID:      row.UserID,
			DisplayName: row.DisplayName,
			Position:    positions[i],
			Score:       scores[i],
			Tier:        GetTier(row.TotalXP),
			StreakDays:  row.StreakDays,
			PowerPct:    userService.PowerPct(row.PowerMajorityHits, row.PowerParticipations),
		})
	}

	return entries, nil
}

func score(metric string, row leaderboardRepo.LeaderboardRow) float64 {
	switch metric {
	case leaderboardRepo.MetricInfluence:
		return float64(row.InfluenceTotal)
	case leaderboardRepo.MetricStreak:
		return float64(row.StreakDays)
	case leaderboardRepo.MetricPower:
		return float64(row.PowerMajorityHits)
	default:
		return row.TotalXP
	}
}
