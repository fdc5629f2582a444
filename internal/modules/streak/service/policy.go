package service

import (
	"math"
	"time"

	"anoa.com/dailydebate/internal/entity"
	"anoa.com/dailydebate/pkg/calendar"
)

type Event string

const (
	EventNone     Event = "none"
	EventStarted  Event = "started"
	EventExtended Event = "extended"
	EventGraced   Event = "graced"
	EventReset    Event = "reset"
)

const (
	BaseXP        = 5.0
	ComebackXP    = 3.0
	PerDayBonusXP = 0.5
	MaxBonusXP    = 3.5
)

// State is the streak-relevant slice of a user's stats.
type State struct {
	Streak int
	Last   *time.Time
	Grace  int
}

type Outcome struct {
	Next  State
	Event Event
	XP    float64
}

// Apply evaluates one participation on today against the previous state.
// A second participation on the same civil day changes nothing and awards
// nothing. The first participation of a new ISO week refills the grace
// budget for the rest of that week.
func Apply(prev State, today time.Time) Outcome {
	today = calendar.Normalize(today)

	if prev.Last != nil && calendar.DaysBetween(*prev.Last, today) <= 0 {
		return Outcome{Next: prev, Event: EventNone}
	}

	next := State{Streak: prev.Streak, Grace: prev.Grace, Last: &today}

	var event Event
	switch {
	case prev.Last == nil:
		next.Streak = 1
		event = EventStarted
	case calendar.DaysBetween(*prev.Last, today) == 1:
		next.Streak++
		event = EventExtended
	case next.Grace > 0:
		next.Grace--
		next.Streak++
		event = EventGraced
	default:
		next.Streak = max(1, prev.Streak/2)
		event = EventReset
	}

	// The new week's token is granted only after the gap into it was scored.
	if prev.Last != nil && !calendar.SameISOWeek(*prev.Last, today) {
		next.Grace = entity.WeeklyGraceTokens
	}

	return Outcome{Next: next, Event: event, XP: AwardXP(event, next.Streak)}
}

// AwardXP is the base award for the event plus a streak bonus capped at
// MaxBonusXP, rounded to one decimal.
func AwardXP(event Event, streak int) float64 {
	var base float64
	switch event {
	case EventStarted, EventExtended, EventGraced:
		base = BaseXP
	case EventReset:
		base = ComebackXP
	default:
		return 0
	}

	bonus := math.Min(MaxBonusXP, PerDayBonusXP*float64(streak-1))
	if bonus < 0 {
		bonus = 0
	}
	return math.Round((base+bonus)*10) / 10
}
