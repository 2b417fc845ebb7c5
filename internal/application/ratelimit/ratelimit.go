// Package ratelimit implements the rate-limit gate: a pure function over a
// campaign's request counters and configured daily/weekly limits.
package ratelimit

import (
	"time"

	"github.com/campaignflow/engine/internal/application/clock"
)

// Limits are the daily/weekly caps, environment-overridable defaults 60/200.
type Limits struct {
	DailyLimit  int
	WeeklyLimit int
}

// Counters is the subset of campaign state the gate reads and patches.
type Counters struct {
	RequestsSentToday int
	RequestsSentWeek  int
	LastDailyReset    time.Time
	LastWeeklyReset   time.Time
}

// Update is the counter-reset patch the gate wants persisted, separate from
// whatever increment the caller applies on success, so the two can be
// merged into a single write.
type Update struct {
	ResetDaily      bool
	ResetWeekly     bool
	NewDailyReset   time.Time
	NewWeeklyReset  time.Time
}

// Result is the gate's decision.
type Result struct {
	CanProceed         bool
	WaitUntilMillis    int64
	RequestsSentToday  int
	RequestsSentWeek   int
	Update             Update
}

// Check applies boundary-reset detection then the cap comparison, per
// spec: resets always go into the returned Update even when the caller
// ultimately can't proceed.
func Check(now time.Time, counters Counters, limits Limits) Result {
	day := counters.RequestsSentToday
	week := counters.RequestsSentWeek

	var upd Update
	if clock.DayBoundaryCrossed(now, counters.LastDailyReset) {
		day = 0
		upd.ResetDaily = true
		upd.NewDailyReset = now
	}
	if clock.WeekBoundaryCrossed(now, counters.LastWeeklyReset) {
		week = 0
		upd.ResetWeekly = true
		upd.NewWeeklyReset = now
	}

	res := Result{
		RequestsSentToday: day,
		RequestsSentWeek:  week,
		Update:            upd,
	}

	dailyBreached := day >= limits.DailyLimit
	weeklyBreached := week >= limits.WeeklyLimit
	if dailyBreached || weeklyBreached {
		res.CanProceed = false

		var wait time.Time
		if dailyBreached {
			wait = clock.NextMidnight(now)
		}
		if weeklyBreached {
			nextWeek := clock.NextMonday(now)
			if wait.IsZero() || nextWeek.After(wait) {
				wait = nextWeek
			}
		}
		// WaitUntilMillis is a duration from now, so callers can compute
		// execute_after = floor((now + waitUntilMs)/1000) directly.
		res.WaitUntilMillis = wait.Sub(now).Milliseconds()
		return res
	}

	res.CanProceed = true
	return res
}

// MergeIncrement folds a successful-send increment into a previously
// computed reset Update so only one write reaches the store, avoiding the
// lost-reset race spec.md §5 and §9 call out.
func MergeIncrement(counters Counters, upd Update, dayDelta, weekDelta int) Counters {
	day := counters.RequestsSentToday
	week := counters.RequestsSentWeek
	dailyReset := counters.LastDailyReset
	weeklyReset := counters.LastWeeklyReset

	if upd.ResetDaily {
		day = 0
		dailyReset = upd.NewDailyReset
	}
	if upd.ResetWeekly {
		week = 0
		weeklyReset = upd.NewWeeklyReset
	}

	return Counters{
		RequestsSentToday: day + dayDelta,
		RequestsSentWeek:  week + weekDelta,
		LastDailyReset:    dailyReset,
		LastWeeklyReset:   weeklyReset,
	}
}
