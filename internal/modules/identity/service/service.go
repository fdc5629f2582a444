package service

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"

	identityRepo "anoa.com/dailydebate/internal/modules/identity/repository"
	"github.com/rs/zerolog"
)

// MaxIPLength matches the answers.ip_address column.
const MaxIPLength = 45

// NormalizeIP reduces a client address to the form stored on anonymous
// answers: no port, no zone, IPv4-mapped IPv6 unwrapped.
func NormalizeIP(raw string) string {
	s := strings.TrimSpace(raw)
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = strings.Trim(s, "[]")

	if addr, err := netip.ParseAddr(s); err == nil {
		s = addr.WithZone("").Unmap().String()
	} else if i := strings.IndexByte(s, '%'); i >= 0 {
		s = s[:i]
	}

	if len(s) > MaxIPLength {
		s = s[:MaxIPLength]
	}
	return s
}

type ReconcileResult struct {
	Claimed        int64 `json:"claimed"`
	Participations int64 `json:"participations"`
}

type IdentityService interface {
	// Reconcile attaches anonymous answers made from clientIP to the user and
	// backfills participation rows. Streak and XP are left untouched.
	Reconcile(ctx context.Context, userID uint, clientIP string) (*ReconcileResult, error)
}

type identityService struct {
	repo   identityRepo.Repository
	logger zerolog.Logger
}

func NewIdentityService(repo identityRepo.Repository, logger zerolog.Logger) IdentityService {
	return &identityService{repo: repo, logger: logger}
}

func (s *identityService) Reconcile(ctx context.Context, userID uint, clientIP string) (*ReconcileResult, error) {
	ip := NormalizeIP(clientIP)
	result := &ReconcileResult{}

	err := s.repo.Transaction(ctx, func(repo identityRepo.Repository) error {
		if ip != "" {
			claimed, err := repo.ClaimAnonymous(ctx, userID, ip)
			if err != nil {
				return fmt.Errorf("claim anonymous answers: %w", err)
			}
			result.Claimed = claimed
		}

		if err := repo.EnsureStats(ctx, userID); err != nil {
			return fmt.Errorf("ensure stats: %w", err)
		}

		added, err := repo.BackfillParticipations(ctx, userID)
		if err != nil {
			return fmt.Errorf("backfill participations: %w", err)
		}
		result.Participations = added
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Claimed > 0 || result.Participations > 0 {
		s.logger.Info().
			Uint("user_id", userID).
			Int64("claimed", result.Claimed).
			Int64("participations", result.Participations).
			Msg("anonymous answers reconciled")
	}
	return result, nil
}
