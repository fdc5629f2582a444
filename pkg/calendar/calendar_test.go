package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZonedTodayUsesCivilZone(t *testing.T) {
	cal, err := New("Europe/Madrid")
	require.NoError(t, err)

	// 23:30 UTC on Oct 17 is already Oct 18 in Madrid (UTC+2 in summer time).
	cal.Now = func() time.Time { return time.Date(2026, 10, 17, 23, 30, 0, 0, time.UTC) }

	assert.Equal(t, Date(2026, 10, 18), cal.Today())
	assert.Equal(t, Date(2026, 10, 19), cal.Tomorrow())
}

func TestNewRejectsUnknownZone(t *testing.T) {
	_, err := New("Mars/Olympus")
	require.Error(t, err)
}

func TestNewDefaultsToMadrid(t *testing.T) {
	cal, err := New("")
	require.NoError(t, err)
	assert.Equal(t, DefaultZone, cal.Location().String())
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"same day", Date(2026, 3, 1), Date(2026, 3, 1), 0},
		{"next day", Date(2026, 3, 1), Date(2026, 3, 2), 1},
		{"across DST change", Date(2026, 3, 28), Date(2026, 3, 30), 2},
		{"across year", Date(2025, 12, 31), Date(2026, 1, 3), 3},
		{"backwards", Date(2026, 3, 5), Date(2026, 3, 1), -4},
		{"clock parts ignored", time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.from, tt.to))
		})
	}
}

func TestSameISOWeek(t *testing.T) {
	// 2026-10-12 is a Monday.
	assert.True(t, SameISOWeek(Date(2026, 10, 12), Date(2026, 10, 18)))
	assert.False(t, SameISOWeek(Date(2026, 10, 18), Date(2026, 10, 19)))
}

func TestFormatAndParse(t *testing.T) {
	d, err := Parse("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", Format(d))

	_, err = Parse("28/02/2026")
	assert.Error(t, err)
}

func TestFixedCalendar(t *testing.T) {
	cal := Fixed{Date: time.Date(2026, 5, 4, 15, 0, 0, 0, time.UTC)}
	assert.Equal(t, Date(2026, 5, 4), cal.Today())
	assert.Equal(t, Date(2026, 5, 5), cal.Tomorrow())
}
