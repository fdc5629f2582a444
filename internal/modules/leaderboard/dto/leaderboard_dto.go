package dto

// LeaderboardEntry is one user on the global leaderboard. Position uses
// competition ranking on the requested metric, so tied users share it.
type LeaderboardEntry struct {
	UserID      uint    `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Position    int     `json:"position"`
	Score       float64 `json:"score"`
	Tier        Tier    `json:"tier"`
	StreakDays  int     `json:"streak_days"`
	PowerPct    float64 `json:"power_pct"`
}

// Tier is the XP level of a user.
type Tier struct {
	Name      string  `json:"name"`
	NextTier  string  `json:"next_tier"`
	CurrentXP float64 `json:"current_xp"`
	TargetXP  float64 `json:"target_xp"`
	Progress  float64 `json:"progress"`
}
