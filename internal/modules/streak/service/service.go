package service

import (
	"context"
	"errors"
	"fmt"

	streakRepo "anoa.com/dailydebate/internal/modules/streak/repository"
	"anoa.com/dailydebate/pkg/calendar"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// maxAttempts bounds how often a participation is re-evaluated when another
// writer moved last_participation_date underneath it.
const maxAttempts = 3

var ErrConcurrentUpdate = errors.New("streak update lost to concurrent writers")

type StreakService interface {
	// RecordParticipation credits an identified user for answering a
	// question: it stores the participation row and advances streak, grace
	// and XP. It runs inside the answer transaction.
	RecordParticipation(ctx context.Context, tx *gorm.DB, userID, questionID uint) (Outcome, error)
}

type streakService struct {
	repo   streakRepo.Repository
	cal    calendar.Calendar
	logger zerolog.Logger
}

func NewStreakService(repo streakRepo.Repository, cal calendar.Calendar, logger zerolog.Logger) StreakService {
	return &streakService{repo: repo, cal: cal, logger: logger}
}

func (s *streakService) RecordParticipation(ctx context.Context, tx *gorm.DB, userID, questionID uint) (Outcome, error) {
	repo := s.repo.WithTx(tx)

	if err := repo.AddParticipation(ctx, userID, questionID); err != nil {
		return Outcome{}, fmt.Errorf("record participation: %w", err)
	}
	if err := repo.EnsureStats(ctx, userID); err != nil {
		return Outcome{}, fmt.Errorf("ensure stats: %w", err)
	}

	today := s.cal.Today()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		stats, err := repo.GetStats(ctx, userID)
		if err != nil {
			return Outcome{}, fmt.Errorf("load stats: %w", err)
		}

		prev := State{Streak: stats.StreakDays, Grace: stats.WeeklyGraceTokens}
		if stats.LastParticipationDate != nil {
			last := calendar.Normalize(*stats.LastParticipationDate)
			prev.Last = &last
		}

		outcome := Apply(prev, today)
		if outcome.Event == EventNone {
			return outcome, nil
		}

		written, err := repo.UpdateIfUnchanged(ctx, userID, stats.LastParticipationDate, streakRepo.StreakUpdate{
			Streak:  outcome.Next.Streak,
			Grace:   outcome.Next.Grace,
			Last:    *outcome.Next.Last,
			AwardXP: outcome.XP,
		})
		if err != nil {
			return Outcome{}, fmt.Errorf("update streak: %w", err)
		}
		if written {
			s.logger.Debug().
				Uint("user_id", userID).
				Str("event", string(outcome.Event)).
				Int("streak", outcome.Next.Streak).
				Float64("xp", outcome.XP).
				Msg("streak updated")
			return outcome, nil
		}

		s.logger.Warn().Uint("user_id", userID).Int("attempt", attempt).Msg("streak row changed concurrently, retrying")
	}

	return Outcome{}, ErrConcurrentUpdate
}
