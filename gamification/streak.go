// gamification/streak.go - Streak state machine
package gamification

import "time"

// MaxFreezes caps how many streak freezes a user can hold at once.
const MaxFreezes = 3

// FreezeCost is the spark price of one streak freeze.
const FreezeCost = 100

// StreakUpdate is the outcome of advancing the streak machine by one
// activity date.
type StreakUpdate struct {
	Streak      int
	FreezesLeft int
	FreezesUsed int  // freezes consumed by this transition (0 or 1)
	UsedFreeze  bool // reported to the UI when a gap day was forgiven
	Advanced    bool // false when the day was already counted
}

// DayUTC truncates t to UTC midnight. All streak arithmetic happens at
// day granularity in UTC, so the streak boundary is the UTC midnight
// regardless of the user's locale.
func DayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// AdvanceStreak applies one activity date to the streak state:
//
//   - same day as last activity: no change
//   - next day: streak grows by one
//   - one missed day with a freeze available: the freeze is consumed and
//     the streak grows as if unbroken
//   - anything longer: streak resets to 1 (a freeze forgives exactly one
//     missed day)
//
// A nil last means first-ever activity.
func AdvanceStreak(last *time.Time, streak, freezes int, activity time.Time) StreakUpdate {
	day := DayUTC(activity)

	if last == nil {
		return StreakUpdate{Streak: 1, FreezesLeft: freezes, Advanced: true}
	}

	lastDay := DayUTC(*last)
	gap := int(day.Sub(lastDay).Hours() / 24)

	switch {
	case gap <= 0:
		return StreakUpdate{Streak: streak, FreezesLeft: freezes, Advanced: false}
	case gap == 1:
		return StreakUpdate{Streak: streak + 1, FreezesLeft: freezes, Advanced: true}
	case gap == 2 && freezes > 0:
		return StreakUpdate{
			Streak:      streak + 1,
			FreezesLeft: freezes - 1,
			FreezesUsed: 1,
			UsedFreeze:  true,
			Advanced:    true,
		}
	default:
		return StreakUpdate{Streak: 1, FreezesLeft: freezes, Advanced: true}
	}
}
