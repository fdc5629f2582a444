package dto

import (
	"anoa.com/dailydebate/internal/entity"
	"anoa.com/dailydebate/pkg/calendar"
)

type CreateQuestionRequest struct {
	Text    string `json:"text" binding:"required,max=500"`
	OptionA string `json:"option_a" binding:"required,max=150"`
	OptionB string `json:"option_b" binding:"required,max=150"`
}

type QuestionResponse struct {
	ID            uint   `json:"id"`
	Text          string `json:"text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	PublishedDate string `json:"published_date"`
	Status        string `json:"status"`
}

func NewQuestionResponse(q *entity.Question) QuestionResponse {
	return QuestionResponse{
		ID:            q.ID,
		Text:          q.Text,
		OptionA:       q.OptionA,
		OptionB:       q.OptionB,
		PublishedDate: calendar.Format(q.PublishedDate),
		Status:        string(q.Status),
	}
}

type RolloverResponse struct {
	Outcome    string             `json:"outcome"`
	Closed     *QuestionResponse  `json:"closed,omitempty"`
	Settlement *entity.Settlement `json:"settlement,omitempty"`
	Activated  *QuestionResponse  `json:"activated,omitempty"`
}
