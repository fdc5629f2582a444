package dto

import "time"

type CreateAnswerRequest struct {
	Side string `json:"side" binding:"required,oneof=A B"`
	Body string `json:"body" binding:"required,max=280"`
}

type AnswerResponse struct {
	ID         uint      `json:"id"`
	QuestionID uint      `json:"question_id"`
	Side       string    `json:"side"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type SideResult struct {
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

type ResultsResponse struct {
	QuestionID uint       `json:"question_id"`
	Status     string     `json:"status"`
	Total      int64      `json:"total"`
	A          SideResult `json:"A"`
	B          SideResult `json:"B"`
}

type LikeResponse struct {
	AnswerID uint `json:"answer_id"`
	Liked    bool `json:"liked"`
	Changed  bool `json:"changed"`
}
