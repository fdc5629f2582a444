package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WeeklyGraceTokens is both the default and the upper bound of a user's
// weekly grace budget.
const WeeklyGraceTokens = 1

type UserStats struct {
	UserID                uint       `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	TotalXP               float64    `gorm:"column:total_xp;not null;default:0" json:"total_xp"`
	InfluenceTotal        int64      `gorm:"not null;default:0" json:"influence_total"`
	PowerMajorityHits     int64      `gorm:"not null;default:0" json:"power_majority_hits"`
	PowerParticipations   int64      `gorm:"not null;default:0" json:"power_participations"`
	StreakDays            int        `gorm:"not null;default:0" json:"streak_days"`
	LastParticipationDate *time.Time `gorm:"type:date" json:"last_participation_date"`
	WeeklyGraceTokens     int        `gorm:"not null;default:1" json:"weekly_grace_tokens"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserStats) TableName() string {
	return "user_stats"
}

// NewUserStats returns the row a user starts with before any participation.
func NewUserStats(userID uint) UserStats {
	return UserStats{UserID: userID, WeeklyGraceTokens: WeeklyGraceTokens}
}

type DailyUserInfluence struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	QuestionID   uint      `gorm:"not null;uniqueIndex:ux_daily_influence_pair,priority:1" json:"question_id"`
	UserID       uint      `gorm:"not null;uniqueIndex:ux_daily_influence_pair,priority:2" json:"user_id"`
	LikesSum     int64     `gorm:"not null" json:"likes_sum"`
	RankPosition int       `gorm:"not null" json:"rank_position"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DailyUserInfluence) TableName() string {
	return "daily_user_influence"
}

// Settlement records that a question's scoring was finalized. Its unique
// question_id is what keeps settlement and influence ranking single-shot.
type Settlement struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID   uint      `gorm:"not null;uniqueIndex" json:"question_id"`
	MajoritySide Side      `gorm:"size:1;not null" json:"majority_side"`
	VotesA       int64     `gorm:"not null" json:"votes_a"`
	VotesB       int64     `gorm:"not null" json:"votes_b"`
	LikesA       int64     `gorm:"not null" json:"likes_a"`
	LikesB       int64     `gorm:"not null" json:"likes_b"`
	Participants int       `gorm:"not null" json:"participants"`
	SettledAt    time.Time `gorm:"autoCreateTime" json:"settled_at"`
}

func (Settlement) TableName() string {
	return "question_settlements"
}

func (s *Settlement) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
