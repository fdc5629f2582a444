package service

import (
	"testing"
	"time"

	"anoa.com/dailydebate/pkg/calendar"
	"github.com/stretchr/testify/assert"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := calendar.Date(y, m, d)
	return &t
}

func TestApply(t *testing.T) {
	// 2025-03-06 is a Thursday; Monday of that ISO week is 2025-03-03.
	today := calendar.Date(2025, 3, 6)

	tests := []struct {
		name       string
		today      time.Time
		prev       State
		wantStreak int
		wantGrace  int
		wantEvent  Event
		wantXP     float64
	}{
		{
			name:       "first participation",
			prev:       State{Streak: 0, Grace: 1},
			wantStreak: 1, wantGrace: 1, wantEvent: EventStarted, wantXP: 5.0,
		},
		{
			name:       "yesterday extends the streak and keeps grace",
			prev:       State{Streak: 4, Grace: 1, Last: datePtr(2025, 3, 5)},
			wantStreak: 5, wantGrace: 1, wantEvent: EventExtended, wantXP: 7.0,
		},
		{
			name:       "missed days with grace consumes a token",
			prev:       State{Streak: 4, Grace: 1, Last: datePtr(2025, 3, 3)},
			wantStreak: 5, wantGrace: 0, wantEvent: EventGraced, wantXP: 7.0,
		},
		{
			name:       "missed days without grace halves the streak",
			prev:       State{Streak: 6, Grace: 0, Last: datePtr(2025, 3, 3)},
			wantStreak: 3, wantGrace: 0, wantEvent: EventReset, wantXP: 4.0,
		},
		{
			name:       "halving never drops below one",
			prev:       State{Streak: 1, Grace: 0, Last: datePtr(2025, 3, 3)},
			wantStreak: 1, wantGrace: 0, wantEvent: EventReset, wantXP: 3.0,
		},
		{
			name:       "gap into a new week without grace halves the streak",
			today:      calendar.Date(2025, 3, 3),
			prev:       State{Streak: 6, Grace: 0, Last: datePtr(2025, 2, 28)},
			wantStreak: 3, wantGrace: 1, wantEvent: EventReset, wantXP: 4.0,
		},
		{
			name:       "long absence without grace halves the streak",
			today:      calendar.Date(2025, 3, 3),
			prev:       State{Streak: 40, Grace: 0, Last: datePtr(2024, 12, 3)},
			wantStreak: 20, wantGrace: 1, wantEvent: EventReset, wantXP: 6.5,
		},
		{
			name:       "last week's token covers the gap and the new week refills",
			prev:       State{Streak: 4, Grace: 1, Last: datePtr(2025, 2, 28)},
			wantStreak: 5, wantGrace: 1, wantEvent: EventGraced, wantXP: 7.0,
		},
		{
			name:       "new week after a consecutive day refills grace",
			today:      calendar.Date(2025, 3, 3),
			prev:       State{Streak: 2, Grace: 0, Last: datePtr(2025, 3, 2)},
			wantStreak: 3, wantGrace: 1, wantEvent: EventExtended, wantXP: 6.0,
		},
		{
			name:       "bonus is capped",
			prev:       State{Streak: 30, Grace: 1, Last: datePtr(2025, 3, 5)},
			wantStreak: 31, wantGrace: 1, wantEvent: EventExtended, wantXP: 8.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day := today
			if !tt.today.IsZero() {
				day = tt.today
			}

			out := Apply(tt.prev, day)
			assert.Equal(t, tt.wantEvent, out.Event)
			assert.Equal(t, tt.wantStreak, out.Next.Streak)
			assert.Equal(t, tt.wantGrace, out.Next.Grace)
			assert.InDelta(t, tt.wantXP, out.XP, 1e-9)
			if assert.NotNil(t, out.Next.Last) {
				assert.Equal(t, day, *out.Next.Last)
			}
		})
	}
}

func TestApplySameDayIsNoop(t *testing.T) {
	today := calendar.Date(2025, 3, 6)
	prev := State{Streak: 5, Grace: 1, Last: datePtr(2025, 3, 6)}

	out := Apply(prev, today)
	assert.Equal(t, EventNone, out.Event)
	assert.Zero(t, out.XP)
	assert.Equal(t, prev, out.Next)
}

func TestAwardXP(t *testing.T) {
	assert.Equal(t, 5.0, AwardXP(EventStarted, 1))
	assert.Equal(t, 5.5, AwardXP(EventExtended, 2))
	assert.Equal(t, 3.5, AwardXP(EventReset, 2))
	assert.Equal(t, 8.5, AwardXP(EventGraced, 100))
	assert.Zero(t, AwardXP(EventNone, 10))
}
