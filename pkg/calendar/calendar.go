package calendar

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// DefaultZone is the civil timezone the debate day is observed in.
const DefaultZone = "Europe/Madrid"

const layout = "2006-01-02"

// Calendar resolves civil dates. All returned dates are midnight UTC values
// carrying only the year, month and day of the civil date.
type Calendar interface {
	Today() time.Time
	Tomorrow() time.Time
	Location() *time.Location
}

// Zoned is a Calendar bound to one IANA zone.
type Zoned struct {
	loc *time.Location
	Now func() time.Time
}

func New(zone string) (*Zoned, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return &Zoned{loc: loc, Now: time.Now}, nil
}

func (z *Zoned) Today() time.Time {
	return CivilDate(z.Now(), z.loc)
}

func (z *Zoned) Tomorrow() time.Time {
	return z.Today().AddDate(0, 0, 1)
}

func (z *Zoned) Location() *time.Location {
	return z.loc
}

// Fixed is a Calendar pinned to a single date, used by tests and replays.
type Fixed struct {
	Date time.Time
}

func (f Fixed) Today() time.Time        { return Normalize(f.Date) }
func (f Fixed) Tomorrow() time.Time     { return Normalize(f.Date).AddDate(0, 0, 1) }
func (f Fixed) Location() *time.Location { return time.UTC }

// Date builds a civil date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CivilDate returns the calendar day t falls on in loc.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return Date(local.Year(), local.Month(), local.Day())
}

// Normalize drops the clock part of a stored date. Drivers hand dates back
// in whatever location the column was written with, so only Y/M/D are kept.
func Normalize(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// DaysBetween returns the number of whole days from -> to.
func DaysBetween(from, to time.Time) int {
	a := Normalize(from)
	b := Normalize(to)
	return int(b.Sub(a).Hours() / 24)
}

// SameISOWeek reports whether both dates fall in the same ISO 8601 week.
func SameISOWeek(a, b time.Time) bool {
	ay, aw := Normalize(a).ISOWeek()
	by, bw := Normalize(b).ISOWeek()
	return ay == by && aw == bw
}

func Format(t time.Time) string {
	return Normalize(t).Format(layout)
}

func Parse(s string) (time.Time, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse civil date %q: %w", s, err)
	}
	return t, nil
}
