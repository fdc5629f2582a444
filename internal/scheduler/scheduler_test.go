package scheduler

import (
	"context"
	"errors"
	"testing"

	"anoa.com/dailydebate/internal/entity"
	questionService "anoa.com/dailydebate/internal/modules/question/service"
	"anoa.com/dailydebate/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuestions struct {
	questionService.QuestionService
	calls  int
	result *questionService.RolloverResult
	err    error
}

func (s *stubQuestions) Rollover(ctx context.Context) (*questionService.RolloverResult, error) {
	s.calls++
	return s.result, s.err
}

func TestRolloverJobWithoutRedis(t *testing.T) {
	stub := &stubQuestions{result: &questionService.RolloverResult{
		Outcome:   metrics.OutcomeActivated,
		Activated: &entity.Question{ID: 7},
	}}
	job := NewRolloverJob(stub, nil, "0 0 * * *", 0, zerolog.Nop())

	require.NoError(t, job.Execute(context.Background()))
	require.NoError(t, job.Execute(context.Background()))
	assert.Equal(t, 2, stub.calls)
	assert.Equal(t, RolloverJobName, job.GetName())
	assert.Equal(t, "0 0 * * *", job.GetSchedule())
}

func TestRolloverJobPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	job := NewRolloverJob(&stubQuestions{err: boom}, nil, "", 0, zerolog.Nop())

	err := job.Execute(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSchedulerRegister(t *testing.T) {
	s := NewScheduler("Europe/Madrid", zerolog.Nop())
	stub := &stubQuestions{result: &questionService.RolloverResult{Outcome: metrics.OutcomeNoop}}

	require.NoError(t, s.Register(NewRolloverJob(stub, nil, "0 0 * * *", 0, zerolog.Nop())))
	assert.Equal(t, []string{RolloverJobName}, s.JobNames())

	require.NoError(t, s.RunByName(context.Background(), RolloverJobName))
	assert.Equal(t, 1, stub.calls)
	assert.Error(t, s.RunByName(context.Background(), "missing"))

	assert.Error(t, s.Register(NewRolloverJob(stub, nil, "not a cron", 0, zerolog.Nop())))
}

func TestWithZone(t *testing.T) {
	s := NewScheduler("Europe/Madrid", zerolog.Nop())
	assert.Equal(t, "CRON_TZ=Europe/Madrid 0 0 * * *", s.withZone("0 0 * * *"))
	assert.Equal(t, "CRON_TZ=UTC 0 0 * * *", s.withZone("CRON_TZ=UTC 0 0 * * *"))

	assert.Equal(t, "@daily", NewScheduler("", zerolog.Nop()).withZone("@daily"))
}
