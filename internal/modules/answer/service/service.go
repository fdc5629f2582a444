package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"anoa.com/dailydebate/internal/entity"
	answerDto "anoa.com/dailydebate/internal/modules/answer/dto"
	answerRepo "anoa.com/dailydebate/internal/modules/answer/repository"
	eventService "anoa.com/dailydebate/internal/modules/event/service"
	streakService "anoa.com/dailydebate/internal/modules/streak/service"
	"anoa.com/dailydebate/pkg/apperror"
	"anoa.com/dailydebate/pkg/metrics"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	MaxBodyLength   = 280
	DefaultPageSize = 20
	MaxPageSize     = 50
	DefaultTopLimit = 10
)

var (
	ErrAlreadyAnswered   = apperror.Conflict("already answered")
	ErrAlreadyLiked      = apperror.Conflict("already liked")
	ErrSelfLike          = apperror.Conflict("cannot like your own answer")
	ErrQuestionNotActive = apperror.Conflict("question is not active")
)

type CreateAnswerInput struct {
	QuestionID uint
	UserID     *uint
	IP         string
	Side       entity.Side
	Body       string
}

type AnswerService interface {
	CreateAnswer(ctx context.Context, in CreateAnswerInput) (*entity.Answer, error)
	LikeAnswer(ctx context.Context, answerID, userID uint) error
	// UnlikeAnswer reports whether a like was actually removed.
	UnlikeAnswer(ctx context.Context, answerID, userID uint) (bool, error)
	GetResults(ctx context.Context, questionID uint) (*answerDto.ResultsResponse, error)
	ListAnswers(ctx context.Context, filter answerRepo.ListFilter) ([]answerRepo.AnswerRow, error)
	TopAnswers(ctx context.Context, questionID uint, side entity.Side, limit int) ([]answerRepo.AnswerRow, error)
	MyAnswer(ctx context.Context, questionID, userID uint) (*answerRepo.AnswerRow, error)
}

type answerService struct {
	repo        answerRepo.Repository
	streak      streakService.StreakService
	events      eventService.Publisher
	redisClient *redis.Client
	cacheTTL    time.Duration
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

func NewAnswerService(
	repo answerRepo.Repository,
	streak streakService.StreakService,
	events eventService.Publisher,
	redisClient *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) AnswerService {
	return &answerService{
		repo:        repo,
		streak:      streak,
		events:      events,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger,
	}
}

// Percent returns count/total as a percentage with two decimals, rounding
// half up on hundredths of a percent.
func Percent(count, total int64) float64 {
	if total <= 0 {
		return 0
	}
	hundredths := (count*10000*2 + total) / (2 * total)
	return float64(hundredths) / 100
}

func (s *answerService) cleanBody(body string) (string, error) {
	clean := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(body)))
	if clean == "" {
		return "", apperror.Invalid("answer must not be empty")
	}
	if utf8.RuneCountInString(clean) > MaxBodyLength {
		return "", apperror.Invalid(fmt.Sprintf("answer must be at most %d characters", MaxBodyLength))
	}
	return clean, nil
}

func (s *answerService) CreateAnswer(ctx context.Context, in CreateAnswerInput) (*entity.Answer, error) {
	if !in.Side.Valid() {
		return nil, apperror.Invalid("side must be A or B")
	}
	body, err := s.cleanBody(in.Body)
	if err != nil {
		return nil, err
	}

	answer := &entity.Answer{
		QuestionID: in.QuestionID,
		UserID:     in.UserID,
		IPAddress:  in.IP,
		Side:       in.Side,
		Body:       body,
	}

	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		q, err := repo.LockQuestion(ctx, in.QuestionID)
		if err != nil {
			return err
		}
		if q == nil {
			return apperror.NotFound("question")
		}
		if q.Status != entity.QuestionActive {
			return ErrQuestionNotActive
		}

		var exists bool
		if in.UserID != nil {
			exists, err = repo.ExistsForUser(ctx, in.QuestionID, *in.UserID)
		} else {
			exists, err = repo.ExistsForIP(ctx, in.QuestionID, in.IP)
		}
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyAnswered
		}

		if err := repo.Create(ctx, answer); err != nil {
			if errors.Is(err, answerRepo.ErrDuplicateAnswer) {
				return ErrAlreadyAnswered
			}
			return err
		}

		if in.UserID != nil {
			if _, err := s.streak.RecordParticipation(ctx, tx, *in.UserID, in.QuestionID); err != nil {
				return fmt.Errorf("record participation: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	identity := "anonymous"
	if in.UserID != nil {
		identity = "user"
	}
	metrics.Answers.WithLabelValues(identity).Inc()

	_ = s.events.Publish(ctx, eventService.Event{
		Type:       eventService.TypeAnswerCreated,
		QuestionID: answer.QuestionID,
		Data:       payload{"answer_id": answer.ID, "side": answer.Side},
	})

	return answer, nil
}

type payload map[string]interface{}

// likeTarget loads the answer and checks the question still accepts likes.
func likeTarget(ctx context.Context, repo answerRepo.Repository, answerID uint) (*entity.Answer, error) {
	answer, err := repo.FindByID(ctx, answerID)
	if err != nil {
		return nil, err
	}
	if answer == nil {
		return nil, apperror.NotFound("answer")
	}

	q, err := repo.LockQuestion(ctx, answer.QuestionID)
	if err != nil {
		return nil, err
	}
	if q == nil || q.Status != entity.QuestionActive {
		return nil, ErrQuestionNotActive
	}
	return answer, nil
}

func (s *answerService) LikeAnswer(ctx context.Context, answerID, userID uint) error {
	var questionID uint
	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		answer, err := likeTarget(ctx, repo, answerID)
		if err != nil {
			return err
		}
		if answer.UserID != nil && *answer.UserID == userID {
			return ErrSelfLike
		}
		questionID = answer.QuestionID

		liked, err := repo.LikeExists(ctx, answerID, userID)
		if err != nil {
			return err
		}
		if liked {
			return ErrAlreadyLiked
		}

		if err := repo.CreateLike(ctx, &entity.AnswerLike{AnswerID: answerID, UserID: userID}); err != nil {
			if errors.Is(err, answerRepo.ErrDuplicateLike) {
				return ErrAlreadyLiked
			}
			return err
		}
		return repo.AdjustLikes(ctx, answerID, 1)
	})
	if err != nil {
		return err
	}

	metrics.Likes.WithLabelValues("like").Inc()
	_ = s.events.Publish(ctx, eventService.Event{
		Type:       eventService.TypeAnswerLiked,
		QuestionID: questionID,
		Data:       payload{"answer_id": answerID},
	})
	return nil
}

func (s *answerService) UnlikeAnswer(ctx context.Context, answerID, userID uint) (bool, error) {
	var (
		removed    bool
		questionID uint
	)
	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		answer, err := likeTarget(ctx, repo, answerID)
		if err != nil {
			return err
		}
		questionID = answer.QuestionID

		removed, err = repo.DeleteLike(ctx, answerID, userID)
		if err != nil || !removed {
			return err
		}
		return repo.AdjustLikes(ctx, answerID, -1)
	})
	if err != nil {
		return false, err
	}

	if removed {
		metrics.Likes.WithLabelValues("unlike").Inc()
		_ = s.events.Publish(ctx, eventService.Event{
			Type:       eventService.TypeAnswerUnliked,
			QuestionID: questionID,
			Data:       payload{"answer_id": answerID},
		})
	}
	return removed, nil
}

func resultsKey(questionID uint) string {
	return fmt.Sprintf("debate:results:%d", questionID)
}

func (s *answerService) GetResults(ctx context.Context, questionID uint) (*answerDto.ResultsResponse, error) {
	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, resultsKey(questionID)).Bytes(); err == nil {
			var resp answerDto.ResultsResponse
			if json.Unmarshal(cached, &resp) == nil {
				return &resp, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Uint("question_id", questionID).Msg("results cache read failed")
		}
	}

	q, err := s.repo.FindQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperror.NotFound("question")
	}

	tallies, err := s.repo.Tally(ctx, questionID)
	if err != nil {
		return nil, err
	}

	resp := &answerDto.ResultsResponse{QuestionID: questionID, Status: string(q.Status)}
	for _, t := range tallies {
		switch t.Side {
		case entity.SideA:
			resp.A.Count = t.Votes
		case entity.SideB:
			resp.B.Count = t.Votes
		}
	}
	resp.Total = resp.A.Count + resp.B.Count
	resp.A.Percent = Percent(resp.A.Count, resp.Total)
	resp.B.Percent = Percent(resp.B.Count, resp.Total)

	// Only closed questions have final numbers worth caching.
	if s.redisClient != nil && q.Status == entity.QuestionClosed {
		if encoded, err := json.Marshal(resp); err == nil {
			if err := s.redisClient.Set(ctx, resultsKey(questionID), encoded, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Uint("question_id", questionID).Msg("results cache write failed")
			}
		}
	}

	return resp, nil
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

func (s *answerService) ListAnswers(ctx context.Context, filter answerRepo.ListFilter) ([]answerRepo.AnswerRow, error) {
	if filter.Side != "" && !filter.Side.Valid() {
		return nil, apperror.Invalid("side must be A or B")
	}
	filter.Limit = clampLimit(filter.Limit, DefaultPageSize)
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []answerRepo.AnswerRow{}
	}
	return rows, nil
}

func (s *answerService) TopAnswers(ctx context.Context, questionID uint, side entity.Side, limit int) ([]answerRepo.AnswerRow, error) {
	if !side.Valid() {
		return nil, apperror.Invalid("side must be A or B")
	}
	return s.ListAnswers(ctx, answerRepo.ListFilter{
		QuestionID: questionID,
		Side:       side,
		Sort:       answerRepo.SortLikesDesc,
		Limit:      clampLimit(limit, DefaultTopLimit),
	})
}

func (s *answerService) MyAnswer(ctx context.Context, questionID, userID uint) (*answerRepo.AnswerRow, error) {
	row, err := s.repo.FindRowForUser(ctx, questionID, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperror.NotFound("answer")
	}
	return row, nil
}
