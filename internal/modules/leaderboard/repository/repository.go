package repository

import (
	"context"

	"anoa.com/dailydebate/internal/entity"
	"gorm.io/gorm"
)

// Leaderboard metrics.
const (
	MetricXP        = "xp"
	MetricInfluence = "influence"
	MetricStreak    = "streak"
	MetricPower     = "power"
)

var metricOrder = map[string]string{
	MetricXP:        "user_stats.total_xp DESC",
	MetricInfluence: "user_stats.influence_total DESC",
	MetricStreak:    "user_stats.streak_days DESC",
	MetricPower:     "user_stats.power_majority_hits DESC",
}

type LeaderboardRow struct {
	UserID              uint    `json:"user_id"`
	DisplayName         string  `json:"display_name"`
	TotalXP             float64 `json:"total_xp"`
	InfluenceTotal      int64   `json:"influence_total"`
	StreakDays          int     `json:"streak_days"`
	PowerMajorityHits   int64   `json:"power_majority_hits"`
	PowerParticipations int64   `json:"power_participations"`
}

type LeaderboardRepository interface {
	// TopUsers orders users by metric, breaking ties by user id.
	TopUsers(ctx context.Context, metric string, limit int) ([]LeaderboardRow, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

// ValidMetric reports whether metric names a leaderboard ordering.
func ValidMetric(metric string) bool {
	_, ok := metricOrder[metric]
	return ok
}

func (r *leaderboardRepository) TopUsers(ctx context.Context, metric string, limit int) ([]LeaderboardRow, error) {
	order, ok := metricOrder[metric]
	if !ok {
		order = metricOrder[MetricXP]
	}

	var rows []LeaderboardRow
	err := r.db.WithContext(ctx).
		Model(&entity.UserStats{}).
		Select(`user_stats.user_id, users.display_name, user_stats.total_xp, user_stats.influence_total,
			user_stats.streak_days, user_stats.power_majority_hits, user_stats.power_participations`).
		Joins("JOIN users ON users.id = user_stats.user_id").
		Order(order).
		Order("user_stats.user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
