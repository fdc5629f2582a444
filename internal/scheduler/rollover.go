package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	questionService "anoa.com/dailydebate/internal/modules/question/service"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	RolloverJobName = "question-rollover"
	RolloverLockKey = "debate:rollover:lock"
)

// releaseLock deletes the key only while it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type RolloverJob struct {
	questions   questionService.QuestionService
	redisClient *redis.Client
	schedule    string
	lockTTL     time.Duration
	logger      zerolog.Logger
}

// NewRolloverJob builds the daily rollover trigger. A nil redisClient runs
// without the cross-instance lock; the rollover itself stays safe.
func NewRolloverJob(questions questionService.QuestionService, redisClient *redis.Client, schedule string, lockTTL time.Duration, logger zerolog.Logger) *RolloverJob {
	return &RolloverJob{
		questions:   questions,
		redisClient: redisClient,
		schedule:    schedule,
		lockTTL:     lockTTL,
		logger:      logger,
	}
}

func (j *RolloverJob) GetName() string {
	return RolloverJobName
}

func (j *RolloverJob) GetSchedule() string {
	return j.schedule
}

func (j *RolloverJob) Execute(ctx context.Context) error {
	release, acquired, err := j.lock(ctx)
	if err != nil {
		j.logger.Warn().Err(err).Msg("rollover lock unavailable, running unlocked")
	} else if !acquired {
		j.logger.Debug().Msg("rollover already running elsewhere, skipping")
		return nil
	}
	defer release()

	result, err := j.questions.Rollover(ctx)
	if err != nil {
		return fmt.Errorf("rollover: %w", err)
	}

	evt := j.logger.Info().Str("outcome", result.Outcome)
	if result.Closed != nil {
		evt = evt.Uint("closed_id", result.Closed.ID)
	}
	if result.Activated != nil {
		evt = evt.Uint("activated_id", result.Activated.ID)
	}
	evt.Msg("rollover finished")
	return nil
}

func (j *RolloverJob) lock(ctx context.Context) (func(), bool, error) {
	noop := func() {}
	if j.redisClient == nil {
		return noop, true, nil
	}

	token := uuid.NewString()
	ok, err := j.redisClient.SetNX(ctx, RolloverLockKey, token, j.lockTTL).Result()
	if err != nil {
		return noop, false, err
	}
	if !ok {
		return noop, false, nil
	}

	return func() {
		err := releaseLock.Run(context.Background(), j.redisClient, []string{RolloverLockKey}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			j.logger.Warn().Err(err).Msg("failed to release rollover lock")
		}
	}, true, nil
}
