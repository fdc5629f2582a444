package service

import (
	"context"
	"fmt"

	"anoa.com/dailydebate/internal/entity"
	settlementRepo "anoa.com/dailydebate/internal/modules/settlement/repository"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Tally is the per-side aggregate a majority is resolved from.
type Tally struct {
	VotesA int64
	VotesB int64
	LikesA int64
	LikesB int64
}

// ResolveMajority picks the side with more votes, falling back to more likes,
// and finally to A. A side nobody answered never wins over one that was.
func ResolveMajority(t Tally) entity.Side {
	switch {
	case t.VotesA > t.VotesB:
		return entity.SideA
	case t.VotesB > t.VotesA:
		return entity.SideB
	case t.LikesB > t.LikesA:
		return entity.SideB
	default:
		return entity.SideA
	}
}

type SettlementService interface {
	// Settle scores a question that is being closed. It must run inside the
	// caller's transaction; the settlement row it writes is what makes a
	// second call fail with ErrAlreadySettled.
	Settle(ctx context.Context, tx *gorm.DB, questionID uint) (*entity.Settlement, error)
}

type settlementService struct {
	repo   settlementRepo.Repository
	logger zerolog.Logger
}

func NewSettlementService(repo settlementRepo.Repository, logger zerolog.Logger) SettlementService {
	return &settlementService{repo: repo, logger: logger}
}

func (s *settlementService) Settle(ctx context.Context, tx *gorm.DB, questionID uint) (*entity.Settlement, error) {
	repo := s.repo.WithTx(tx)

	settled, err := repo.IsSettled(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("check settlement: %w", err)
	}
	if settled {
		return nil, settlementRepo.ErrAlreadySettled
	}

	rows, err := repo.TallyBySide(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("tally answers: %w", err)
	}

	var tally Tally
	for _, row := range rows {
		switch row.Side {
		case entity.SideA:
			tally.VotesA, tally.LikesA = row.Votes, row.Likes
		case entity.SideB:
			tally.VotesB, tally.LikesB = row.Votes, row.Likes
		}
	}
	majority := ResolveMajority(tally)

	participants, err := repo.Participants(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}

	seen := make(map[uint]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p.UserID]; dup {
			continue
		}
		seen[p.UserID] = struct{}{}

		if err := repo.IncrementPower(ctx, p.UserID, p.Side == majority); err != nil {
			return nil, fmt.Errorf("update power for user %d: %w", p.UserID, err)
		}
	}

	settlement := &entity.Settlement{
		QuestionID:   questionID,
		MajoritySide: majority,
		VotesA:       tally.VotesA,
		VotesB:       tally.VotesB,
		LikesA:       tally.LikesA,
		LikesB:       tally.LikesB,
		Participants: len(seen),
	}
	if err := repo.Create(ctx, settlement); err != nil {
		return nil, err
	}

	s.logger.Info().
		Uint("question_id", questionID).
		Str("majority", string(majority)).
		Int("participants", len(seen)).
		Msg("question settled")

	return settlement, nil
}
