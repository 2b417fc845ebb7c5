package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayMillis(t *testing.T) {
	tests := []struct {
		name   string
		amount int
		unit   Unit
		want   int64
	}{
		{"seconds", 30, Seconds, 30 * 1000},
		{"minutes", 5, Minutes, 5 * 60 * 1000},
		{"hours", 2, Hours, 2 * 60 * 60 * 1000},
		{"days", 1, Days, 24 * 60 * 60 * 1000},
		{"weeks", 1, Weeks, 7 * 24 * 60 * 60 * 1000},
		{"zero amount", 0, Hours, 0},
		{"negative amount", -5, Hours, 0},
		{"unknown unit", 5, Unit("fortnight"), 0},
		{"empty unit", 5, Unit(""), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DelayMillis(tt.amount, tt.unit))
		})
	}
}

func TestSameLocalDate(t *testing.T) {
	t.Run("same date different time", func(t *testing.T) {
		a := time.Date(2026, 7, 31, 1, 0, 0, 0, time.UTC)
		b := time.Date(2026, 7, 31, 23, 59, 0, 0, time.UTC)
		assert.True(t, SameLocalDate(a, b))
	})

	t.Run("different dates", func(t *testing.T) {
		a := time.Date(2026, 7, 31, 23, 59, 0, 0, time.UTC)
		b := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		assert.False(t, SameLocalDate(a, b))
	})
}

func TestDayBoundaryCrossed(t *testing.T) {
	t.Run("zero lastReset always crosses", func(t *testing.T) {
		assert.True(t, DayBoundaryCrossed(time.Now(), time.Time{}))
	})

	t.Run("same day does not cross", func(t *testing.T) {
		now := time.Date(2026, 7, 31, 23, 0, 0, 0, time.UTC)
		last := time.Date(2026, 7, 31, 1, 0, 0, 0, time.UTC)
		assert.False(t, DayBoundaryCrossed(now, last))
	})

	t.Run("next day crosses", func(t *testing.T) {
		now := time.Date(2026, 8, 1, 0, 0, 1, 0, time.UTC)
		last := time.Date(2026, 7, 31, 23, 0, 0, 0, time.UTC)
		assert.True(t, DayBoundaryCrossed(now, last))
	})

	t.Run("now before lastReset does not cross", func(t *testing.T) {
		now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
		last := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
		assert.False(t, DayBoundaryCrossed(now, last))
	})
}

func TestNextMidnight(t *testing.T) {
	now := time.Date(2026, 7, 31, 15, 30, 0, 0, time.UTC)
	want := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, want.Equal(NextMidnight(now)))
}

func TestWeekBoundaryCrossed(t *testing.T) {
	t.Run("zero lastReset always crosses", func(t *testing.T) {
		assert.True(t, WeekBoundaryCrossed(time.Now(), time.Time{}))
	})

	t.Run("same ISO week does not cross", func(t *testing.T) {
		// 2026-07-31 is a Friday; 2026-07-27 is the Monday of the same week.
		now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
		last := time.Date(2026, 7, 27, 1, 0, 0, 0, time.UTC)
		assert.False(t, WeekBoundaryCrossed(now, last))
	})

	t.Run("next ISO week crosses", func(t *testing.T) {
		now := time.Date(2026, 8, 3, 1, 0, 0, 0, time.UTC) // Monday of the following week
		last := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
		assert.True(t, WeekBoundaryCrossed(now, last))
	})

	t.Run("year boundary crosses", func(t *testing.T) {
		now := time.Date(2027, 1, 5, 1, 0, 0, 0, time.UTC)
		last := time.Date(2026, 12, 29, 1, 0, 0, 0, time.UTC)
		assert.True(t, WeekBoundaryCrossed(now, last))
	})
}

func TestNextMonday(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"mid-week",
			time.Date(2026, 7, 31, 15, 0, 0, 0, time.UTC), // Friday
			time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			"sunday night",
			time.Date(2026, 8, 2, 23, 30, 0, 0, time.UTC),
			time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextMonday(tt.now)
			assert.True(t, tt.want.Equal(got), "expected %v, got %v", tt.want, got)
			assert.Equal(t, time.Monday, got.Weekday())
		})
	}
}
