package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"anoa.com/dailydebate/internal/entity"
	eventService "anoa.com/dailydebate/internal/modules/event/service"
	influenceService "anoa.com/dailydebate/internal/modules/influence/service"
	questionDto "anoa.com/dailydebate/internal/modules/question/dto"
	questionRepo "anoa.com/dailydebate/internal/modules/question/repository"
	settlementService "anoa.com/dailydebate/internal/modules/settlement/service"
	"anoa.com/dailydebate/pkg/apperror"
	"anoa.com/dailydebate/pkg/calendar"
	"anoa.com/dailydebate/pkg/metrics"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// RolloverResult describes what one rollover call changed. Current is the
// question left active afterwards, if any.
type RolloverResult struct {
	Outcome    string
	Current    *entity.Question
	Closed     *entity.Question
	Settlement *entity.Settlement
	Activated  *entity.Question
}

type QuestionService interface {
	GetActiveQuestion(ctx context.Context) (*entity.Question, error)
	GetNextDueQuestion(ctx context.Context, today time.Time) (*entity.Question, error)
	// Rollover closes and settles a stale active question, then activates the
	// next due one. Repeated calls on the same civil day converge on the same
	// state.
	Rollover(ctx context.Context) (*RolloverResult, error)
	GetOrActivateActive(ctx context.Context) (*entity.Question, error)
	CreateQuestion(ctx context.Context, req questionDto.CreateQuestionRequest) (*entity.Question, error)
	GetByID(ctx context.Context, id uint) (*entity.Question, error)
}

type questionService struct {
	repo       questionRepo.Repository
	settlement settlementService.SettlementService
	influence  influenceService.InfluenceService
	events     eventService.Publisher
	cal        calendar.Calendar
	logger     zerolog.Logger
}

func NewQuestionService(
	repo questionRepo.Repository,
	settlement settlementService.SettlementService,
	influence influenceService.InfluenceService,
	events eventService.Publisher,
	cal calendar.Calendar,
	logger zerolog.Logger,
) QuestionService {
	return &questionService{
		repo:       repo,
		settlement: settlement,
		influence:  influence,
		events:     events,
		cal:        cal,
		logger:     logger,
	}
}

func (s *questionService) GetActiveQuestion(ctx context.Context) (*entity.Question, error) {
	q, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperror.NotFound("active question")
	}
	return q, nil
}

func (s *questionService) GetNextDueQuestion(ctx context.Context, today time.Time) (*entity.Question, error) {
	q, err := s.repo.FindNextDue(ctx, calendar.Normalize(today))
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperror.NotFound("due question")
	}
	return q, nil
}

func (s *questionService) Rollover(ctx context.Context) (*RolloverResult, error) {
	today := s.cal.Today()
	result := &RolloverResult{Outcome: metrics.OutcomeNoop}

	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		active, err := repo.FindActive(ctx)
		if err != nil {
			return fmt.Errorf("load active question: %w", err)
		}

		if active != nil {
			if !calendar.Normalize(active.PublishedDate).Before(today) {
				result.Current = active
				return nil
			}

			claimed, err := repo.Close(ctx, active.ID)
			if err != nil {
				return fmt.Errorf("close question %d: %w", active.ID, err)
			}
			if !claimed {
				// Another trigger is closing it.
				return nil
			}

			started := time.Now()
			settlement, err := s.settlement.Settle(ctx, tx, active.ID)
			if err != nil {
				return fmt.Errorf("settle question %d: %w", active.ID, err)
			}
			if _, err := s.influence.Rank(ctx, tx, active.ID); err != nil {
				return fmt.Errorf("rank influence for question %d: %w", active.ID, err)
			}
			metrics.SettlementDuration.Observe(time.Since(started).Seconds())

			active.Status = entity.QuestionClosed
			result.Closed = active
			result.Settlement = settlement
			result.Outcome = metrics.OutcomeClosedOnly
		}

		next, err := repo.FindNextDue(ctx, today)
		if err != nil {
			return fmt.Errorf("find next due question: %w", err)
		}
		if next == nil {
			if result.Closed == nil {
				result.Outcome = metrics.OutcomeIdle
			}
			return nil
		}

		activated, err := repo.Activate(ctx, next.ID)
		if err != nil {
			return fmt.Errorf("activate question %d: %w", next.ID, err)
		}
		if !activated {
			return nil
		}

		next.Status = entity.QuestionActive
		result.Activated = next
		result.Current = next
		result.Outcome = metrics.OutcomeActivated
		return nil
	})
	if err != nil {
		metrics.Rollovers.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	metrics.Rollovers.WithLabelValues(result.Outcome).Inc()
	s.publishRollover(ctx, result)

	s.logger.Info().
		Str("today", calendar.Format(today)).
		Str("outcome", result.Outcome).
		Msg("rollover finished")

	return result, nil
}

func (s *questionService) publishRollover(ctx context.Context, result *RolloverResult) {
	if result.Closed != nil {
		_ = s.events.Publish(ctx, eventService.Event{
			Type:       eventService.TypeQuestionClosed,
			QuestionID: result.Closed.ID,
			Data:       result.Settlement,
		})
	}
	if result.Activated != nil {
		_ = s.events.Publish(ctx, eventService.Event{
			Type:       eventService.TypeQuestionActivated,
			QuestionID: result.Activated.ID,
			Data:       questionDto.NewQuestionResponse(result.Activated),
		})
	}
}

func (s *questionService) GetOrActivateActive(ctx context.Context) (*entity.Question, error) {
	active, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	if active != nil && !calendar.Normalize(active.PublishedDate).Before(s.cal.Today()) {
		return active, nil
	}

	result, err := s.Rollover(ctx)
	if err != nil {
		return nil, err
	}
	if result.Current != nil {
		return result.Current, nil
	}

	// A concurrent rollover may have done the work; read what it left.
	return s.GetActiveQuestion(ctx)
}

func (s *questionService) CreateQuestion(ctx context.Context, req questionDto.CreateQuestionRequest) (*entity.Question, error) {
	q := &entity.Question{
		Text:    strings.TrimSpace(req.Text),
		OptionA: strings.TrimSpace(req.OptionA),
		OptionB: strings.TrimSpace(req.OptionB),
		Status:  entity.QuestionScheduled,
	}
	if q.Text == "" || q.OptionA == "" || q.OptionB == "" {
		return nil, apperror.Invalid("text and both options are required")
	}

	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.LockSchedule(ctx); err != nil {
			return err
		}

		tomorrow := s.cal.Tomorrow()
		latest, err := repo.LatestPublishedOnOrAfter(ctx, tomorrow)
		if err != nil {
			return err
		}

		q.PublishedDate = tomorrow
		if latest != nil {
			q.PublishedDate = calendar.Normalize(*latest).AddDate(0, 0, 1)
		}
		return repo.Create(ctx, q)
	})
	if err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	s.logger.Info().
		Uint("question_id", q.ID).
		Str("published_date", calendar.Format(q.PublishedDate)).
		Msg("question scheduled")

	return q, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperror.NotFound("question")
	}
	return q, nil
}
