package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"anoa.com/dailydebate/internal/entity"
	identityService "anoa.com/dailydebate/internal/modules/identity/service"
	"anoa.com/dailydebate/internal/modules/user/dto"
	"anoa.com/dailydebate/internal/modules/user/repository"
	"anoa.com/dailydebate/pkg/apperror"
	"anoa.com/dailydebate/pkg/calendar"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = apperror.New(401, "invalid credentials", apperror.ErrUnauthorized)
	ErrEmailTaken         = apperror.Conflict("email already registered")
)

type AuthService interface {
	// Register and Login both reconcile anonymous answers made from clientIP.
	Register(ctx context.Context, input dto.RegisterInput, clientIP string) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput, clientIP string) (*dto.AuthResponse, error)
	Me(ctx context.Context, userID uint) (*dto.MeResponse, error)
}

type authService struct {
	repo     repository.UserRepository
	identity identityService.IdentityService
	secret   string
	tokenTTL time.Duration
	logger   zerolog.Logger
}

func NewAuthService(repo repository.UserRepository, identity identityService.IdentityService, secret string, tokenTTL time.Duration, logger zerolog.Logger) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &authService{
		repo:     repo,
		identity: identity,
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput, clientIP string) (*dto.AuthResponse, error) {
	role, err := s.repo.FindRoleByName(ctx, entity.RoleMember)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("default role not found")
		}
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		DisplayName:  strings.TrimSpace(input.DisplayName),
		PasswordHash: string(hashed),
		RoleID:       &role.ID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	user.Role = *role

	s.reconcile(ctx, user.ID, clientIP)
	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput, clientIP string) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.reconcile(ctx, user.ID, clientIP)
	return s.buildAuthResponse(user)
}

// reconcile never fails authentication; the next login retries it.
func (s *authService) reconcile(ctx context.Context, userID uint, clientIP string) {
	if s.identity == nil {
		return
	}
	if _, err := s.identity.Reconcile(ctx, userID, clientIP); err != nil {
		s.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to reconcile anonymous answers")
	}
}

func (s *authService) Me(ctx context.Context, userID uint) (*dto.MeResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, err
	}

	stats, err := s.repo.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		fresh := entity.NewUserStats(userID)
		stats = &fresh
	}

	resp := &dto.MeResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role.Name,
		CreatedAt:   user.CreatedAt,
		Stats: dto.StatsResponse{
			TotalXP:             stats.TotalXP,
			InfluenceTotal:      stats.InfluenceTotal,
			PowerMajorityHits:   stats.PowerMajorityHits,
			PowerParticipations: stats.PowerParticipations,
			PowerPct:            PowerPct(stats.PowerMajorityHits, stats.PowerParticipations),
			StreakDays:          stats.StreakDays,
			WeeklyGraceTokens:   stats.WeeklyGraceTokens,
		},
	}
	if stats.LastParticipationDate != nil {
		last := calendar.Format(*stats.LastParticipationDate)
		resp.Stats.LastParticipationDate = &last
	}
	return resp, nil
}

// PowerPct is the share of settled questions where the user sided with the
// majority, as a percentage with two decimals.
func PowerPct(hits, participations int64) float64 {
	if participations <= 0 {
		return 0
	}
	return math.Round(float64(hits)*10000/float64(participations)) / 100
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt,
		User:        user,
		Role:        &user.Role,
	}, nil
}

func (s *authService) generateToken(user *entity.User) (string, int64, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}
