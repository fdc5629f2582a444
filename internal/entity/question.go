package entity

import "time"

type QuestionStatus string

const (
	QuestionScheduled QuestionStatus = "scheduled"
	QuestionActive    QuestionStatus = "active"
	QuestionClosed    QuestionStatus = "closed"
)

type Question struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Text          string         `gorm:"size:500;not null" json:"text"`
	OptionA       string         `gorm:"column:option_a;size:150;not null" json:"option_a"`
	OptionB       string         `gorm:"column:option_b;size:150;not null" json:"option_b"`
	PublishedDate time.Time      `gorm:"type:date;not null;index:idx_questions_due,priority:2" json:"published_date"`
	Status        QuestionStatus `gorm:"size:16;not null;default:scheduled;index:idx_questions_due,priority:1" json:"status"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (Question) TableName() string {
	return "questions"
}
