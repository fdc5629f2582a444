package dto

import (
	"time"

	"anoa.com/dailydebate/internal/entity"
)

type RegisterInput struct {
	Email       string `json:"email" binding:"required,email,max=100"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	DisplayName string `json:"display_name" binding:"required,max=80"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *entity.User `json:"user"`
	Role        *entity.Role `json:"role"`
}

type StatsResponse struct {
	TotalXP               float64 `json:"total_xp"`
	InfluenceTotal        int64   `json:"influence_total"`
	PowerMajorityHits     int64   `json:"power_majority_hits"`
	PowerParticipations   int64   `json:"power_participations"`
	PowerPct              float64 `json:"power_pct"`
	StreakDays            int     `json:"streak_days"`
	LastParticipationDate *string `json:"last_participation_date"`
	WeeklyGraceTokens     int     `json:"weekly_grace_tokens"`
}

type MeResponse struct {
	ID          uint          `json:"id"`
	Email       string        `json:"email"`
	DisplayName string        `json:"display_name"`
	Role        string        `json:"role"`
	CreatedAt   time.Time     `json:"created_at"`
	Stats       StatsResponse `json:"stats"`
}
