package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var limits = Limits{DailyLimit: 60, WeeklyLimit: 200}

func TestCheck_UnderCapProceeds(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	counters := Counters{
		RequestsSentToday: 10,
		RequestsSentWeek:  50,
		LastDailyReset:    now,
		LastWeeklyReset:   now,
	}

	res := Check(now, counters, limits)

	assert.True(t, res.CanProceed)
	assert.Equal(t, 10, res.RequestsSentToday)
	assert.Equal(t, 50, res.RequestsSentWeek)
	assert.Zero(t, res.WaitUntilMillis)
}

func TestCheck_DailyCapBreachedDefersUntilMidnight(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	counters := Counters{
		RequestsSentToday: 60,
		RequestsSentWeek:  50,
		LastDailyReset:    now,
		LastWeeklyReset:   now,
	}

	res := Check(now, counters, limits)

	assert.False(t, res.CanProceed)
	wantWait := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).Sub(now).Milliseconds()
	assert.Equal(t, wantWait, res.WaitUntilMillis)
}

func TestCheck_WeeklyCapBreachedDefersUntilMonday(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC) // Friday
	counters := Counters{
		RequestsSentToday: 10,
		RequestsSentWeek:  200,
		LastDailyReset:    now,
		LastWeeklyReset:   now,
	}

	res := Check(now, counters, limits)

	assert.False(t, res.CanProceed)
	wantWait := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC).Sub(now).Milliseconds()
	assert.Equal(t, wantWait, res.WaitUntilMillis)
}

func TestCheck_BothBreachedWaitsForTheLaterBoundary(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC) // Friday: Monday is later than tonight's midnight
	counters := Counters{
		RequestsSentToday: 60,
		RequestsSentWeek:  200,
		LastDailyReset:    now,
		LastWeeklyReset:   now,
	}

	res := Check(now, counters, limits)

	assert.False(t, res.CanProceed)
	wantWait := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC).Sub(now).Milliseconds()
	assert.Equal(t, wantWait, res.WaitUntilMillis)
}

func TestCheck_DayBoundaryResetsCounterBeforeCapCheck(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 30, 0, 0, time.UTC)
	lastReset := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	counters := Counters{
		RequestsSentToday: 60, // would have breached yesterday's count
		RequestsSentWeek:  50,
		LastDailyReset:    lastReset,
		LastWeeklyReset:   lastReset,
	}

	res := Check(now, counters, limits)

	assert.True(t, res.CanProceed)
	assert.Equal(t, 0, res.RequestsSentToday)
	assert.True(t, res.Update.ResetDaily)
	assert.True(t, now.Equal(res.Update.NewDailyReset))
}

func TestCheck_ResetStillReturnedEvenWhenStillCannotProceed(t *testing.T) {
	// A day boundary crossed, resetting the daily counter to 0, but the
	// week counter alone still breaches the weekly cap.
	now := time.Date(2026, 8, 1, 0, 30, 0, 0, time.UTC)
	lastDaily := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	lastWeekly := time.Date(2026, 7, 27, 1, 0, 0, 0, time.UTC) // same ISO week as now
	counters := Counters{
		RequestsSentToday: 60,
		RequestsSentWeek:  200,
		LastDailyReset:    lastDaily,
		LastWeeklyReset:   lastWeekly,
	}

	res := Check(now, counters, limits)

	assert.False(t, res.CanProceed)
	assert.True(t, res.Update.ResetDaily)
	assert.False(t, res.Update.ResetWeekly)
	assert.Equal(t, 0, res.RequestsSentToday)
	assert.Equal(t, 200, res.RequestsSentWeek)
}

func TestMergeIncrement(t *testing.T) {
	t.Run("no reset, plain increment", func(t *testing.T) {
		reset := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
		counters := Counters{RequestsSentToday: 5, RequestsSentWeek: 20, LastDailyReset: reset, LastWeeklyReset: reset}

		got := MergeIncrement(counters, Update{}, 1, 1)

		assert.Equal(t, 6, got.RequestsSentToday)
		assert.Equal(t, 21, got.RequestsSentWeek)
		assert.True(t, reset.Equal(got.LastDailyReset))
	})

	t.Run("reset folded in before increment", func(t *testing.T) {
		newReset := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		counters := Counters{RequestsSentToday: 59, RequestsSentWeek: 199}
		upd := Update{ResetDaily: true, NewDailyReset: newReset}

		got := MergeIncrement(counters, upd, 1, 1)

		assert.Equal(t, 1, got.RequestsSentToday, "reset to 0 then incremented by 1")
		assert.Equal(t, 200, got.RequestsSentWeek, "week counter not reset, just incremented")
		assert.True(t, newReset.Equal(got.LastDailyReset))
	})
}
