package service

import (
	"context"

	"anoa.com/dailydebate/internal/entity"
	statRepo "anoa.com/dailydebate/internal/modules/stat/repository"
)

type Overview struct {
	TotalUsers         int64 `json:"total_users"`
	TotalAnswers       int64 `json:"total_answers"`
	ScheduledQuestions int64 `json:"scheduled_questions"`
	ActiveQuestions    int64 `json:"active_questions"`
	ClosedQuestions    int64 `json:"closed_questions"`
}

type StatService interface {
	GetOverview(ctx context.Context) (*Overview, error)
}

type statService struct {
	repo statRepo.StatRepository
}

func NewStatService(repo statRepo.StatRepository) StatService {
	return &statService{
		repo: repo,
	}
}

func (s *statService) GetOverview(ctx context.Context) (*Overview, error) {
	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	answers, err := s.repo.CountAnswers(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.repo.CountQuestionsByStatus(ctx)
	if err != nil {
		return nil, err
	}

	overview := &Overview{TotalUsers: users, TotalAnswers: answers}
	for _, row := range byStatus {
		switch row.Status {
		case entity.QuestionScheduled:
			overview.ScheduledQuestions = row.Count
		case entity.QuestionActive:
			overview.ActiveQuestions = row.Count
		case entity.QuestionClosed:
			overview.ClosedQuestions = row.Count
		}
	}
	return overview, nil
}
