package service

import (
	"context"
	"testing"

	"anoa.com/dailydebate/internal/entity"
	streakRepo "anoa.com/dailydebate/internal/modules/streak/repository"
	"anoa.com/dailydebate/internal/testutil"
	"anoa.com/dailydebate/pkg/calendar"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func record(t *testing.T, db *gorm.DB, svc StreakService, userID, questionID uint) Outcome {
	t.Helper()
	var out Outcome
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = svc.RecordParticipation(context.Background(), tx, userID, questionID)
		return err
	}))
	return out
}

func TestRecordParticipationAcrossDays(t *testing.T) {
	db := testutil.NewDB(t)
	cal := &calendar.Fixed{Date: calendar.Date(2025, 3, 4)}
	svc := NewStreakService(streakRepo.NewStreakRepository(db), cal, zerolog.Nop())

	user := testutil.SeedUser(t, db, "sam")
	q1 := testutil.SeedQuestion(t, db, calendar.Date(2025, 3, 4), entity.QuestionClosed)
	q2 := testutil.SeedQuestion(t, db, calendar.Date(2025, 3, 5), entity.QuestionClosed)
	q3 := testutil.SeedQuestion(t, db, calendar.Date(2025, 3, 6), entity.QuestionActive)

	out := record(t, db, svc, user, q1.ID)
	assert.Equal(t, EventStarted, out.Event)

	// Same day, different question: participation stored, no streak change.
	out = record(t, db, svc, user, q2.ID)
	assert.Equal(t, EventNone, out.Event)

	cal.Date = calendar.Date(2025, 3, 5)
	out = record(t, db, svc, user, q3.ID)
	assert.Equal(t, EventExtended, out.Event)

	stats := testutil.Stats(t, db, user)
	assert.Equal(t, 2, stats.StreakDays)
	assert.Equal(t, 1, stats.WeeklyGraceTokens)
	assert.InDelta(t, 10.5, stats.TotalXP, 1e-9)
	require.NotNil(t, stats.LastParticipationDate)
	assert.Equal(t, calendar.Date(2025, 3, 5), calendar.Normalize(*stats.LastParticipationDate))

	var participations int64
	require.NoError(t, db.Model(&entity.Participation{}).Where("user_id = ?", user).Count(&participations).Error)
	assert.EqualValues(t, 3, participations)
}

func TestRecordParticipationHalvesAfterGap(t *testing.T) {
	db := testutil.NewDB(t)
	cal := &calendar.Fixed{Date: calendar.Date(2025, 3, 6)}
	svc := NewStreakService(streakRepo.NewStreakRepository(db), cal, zerolog.Nop())

	user := testutil.SeedUser(t, db, "kim")
	last := calendar.Date(2025, 3, 3)
	require.NoError(t, db.Create(&entity.UserStats{
		UserID:                user,
		StreakDays:            6,
		LastParticipationDate: &last,
		WeeklyGraceTokens:     0,
		TotalXP:               20,
	}).Error)
	// default:1 on the column means a zero value is not written by Create.
	require.NoError(t, db.Model(&entity.UserStats{}).Where("user_id = ?", user).
		Update("weekly_grace_tokens", 0).Error)

	q := testutil.SeedQuestion(t, db, calendar.Date(2025, 3, 6), entity.QuestionActive)
	out := record(t, db, svc, user, q.ID)
	assert.Equal(t, EventReset, out.Event)

	stats := testutil.Stats(t, db, user)
	assert.Equal(t, 3, stats.StreakDays)
	assert.Equal(t, 0, stats.WeeklyGraceTokens)
	assert.InDelta(t, 24.0, stats.TotalXP, 1e-9)
}
