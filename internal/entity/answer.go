package entity

import "time"

type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// Answer is a user's (or an anonymous visitor's) take on a question.
// Anonymous answers carry no UserID and are keyed by IPAddress until claimed.
type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;uniqueIndex:ux_answers_question_user,priority:1;index:idx_answers_question_side,priority:1" json:"question_id"`
	Question   Question  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID     *uint     `gorm:"uniqueIndex:ux_answers_question_user,priority:2" json:"user_id"`
	IPAddress  string    `gorm:"column:ip_address;size:45;index" json:"-"`
	Side       Side      `gorm:"size:1;not null;index:idx_answers_question_side,priority:2" json:"side"`
	Body       string    `gorm:"size:280;not null" json:"body"`
	LikesCount int64     `gorm:"not null;default:0" json:"likes_count"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Answer) TableName() string {
	return "answers"
}

type AnswerLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AnswerID  uint      `gorm:"not null;uniqueIndex:ux_answer_likes_pair,priority:1" json:"answer_id"`
	Answer    Answer    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:ux_answer_likes_pair,priority:2" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AnswerLike) TableName() string {
	return "answer_likes"
}

type Participation struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:ux_participations_pair,priority:1" json:"user_id"`
	QuestionID uint      `gorm:"not null;uniqueIndex:ux_participations_pair,priority:2" json:"question_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Participation) TableName() string {
	return "participations"
}
