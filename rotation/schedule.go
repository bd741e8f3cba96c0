/*
Package rotation counts how many times a recurring calendar reset fires
within a span of days.

PURPOSE:
  In-game events reset on fixed calendar boundaries: the Spiral Abyss on the
  16th of every month, the Imaginarium Theater and the shop on the 1st. A
  reward estimate needs the number of resets a player will see in the next N
  days, and month lengths make that a simulation rather than a division.

KEY CONCEPTS:
  - Schedule: a stateless rule "how many days from this date to the next reset"
  - Count:    walks a cursor from reset to reset until the budget runs out
  - Registry: schedules addressable by ID for JSON reward tables and the API

TERMINATION:
  Every Schedule returns a distance >= 1. Count compares the remaining budget
  with that distance once per iteration and either advances the cursor by it
  or returns. There is no other exit and no path that leaves the cursor where
  it was.

SCHEDULES:
  MidMonth{Day: 16}:
    day < 16  -> 16 - day
    day >= 16 -> lastDayOfMonth - day + 16

  MonthStart{}:
    lastDayOfMonth - day + 1

EXAMPLE:
  res, err := rotation.Count(calendar.NewDate(2024, 1, 2), 30, rotation.MonthStart{})
  // res.Rotations == 1 (Feb 1), res.Cursor == 2024-02-01, res.Remaining == 0

SEE ALSO:
  - counter.go: Count and Occurrences
  - registry.go: schedule lookup by ID
  - estimate/estimator.go: turns counts into rewards
*/
package rotation

import (
	"fmt"

	"github.com/warp/primo-estimator/calendar"
)

// =============================================================================
// SCHEDULE - Interface for recurring calendar resets
// =============================================================================

// Schedule describes one recurring reset.
type Schedule interface {
	// ID is the stable identifier used in reward tables and the API.
	ID() string

	// DistanceToNext returns the number of days from d to the next reset
	// strictly after d. It must always be >= 1.
	DistanceToNext(d calendar.Date) int
}

// Well-known schedule IDs.
const (
	IDMidMonth   = "mid_month"
	IDMonthStart = "month_start"
)

// AbyssResetDay is the day of month on which the mid-month rotation resets.
const AbyssResetDay = 16

// maxMidMonthDay keeps the reset day present in every month, February included.
const maxMidMonthDay = 28

// =============================================================================
// MID-MONTH
// =============================================================================

// MidMonth resets on a fixed day of every month.
type MidMonth struct {
	Day int
}

// NewMidMonth validates the reset day.
func NewMidMonth(day int) (MidMonth, error) {
	if day < 1 || day > maxMidMonthDay {
		return MidMonth{}, fmt.Errorf("%w: mid-month day %d not in 1..%d", ErrInvalidSchedule, day, maxMidMonthDay)
	}
	return MidMonth{Day: day}, nil
}

func (m MidMonth) ID() string {
	if m.Day == AbyssResetDay {
		return IDMidMonth
	}
	return fmt.Sprintf("%s_%d", IDMidMonth, m.Day)
}

func (m MidMonth) DistanceToNext(d calendar.Date) int {
	if d.Day() < m.Day {
		return m.Day - d.Day()
	}
	return calendar.LastDayOfMonth(d.Year(), d.Month()) - d.Day() + m.Day
}

// =============================================================================
// MONTH-START
// =============================================================================

// MonthStart resets on the first day of every month. The Imaginarium Theater
// and the shop both use it; they differ only in how the estimator weights the
// count.
type MonthStart struct{}

func (MonthStart) ID() string { return IDMonthStart }

func (MonthStart) DistanceToNext(d calendar.Date) int {
	return calendar.LastDayOfMonth(d.Year(), d.Month()) - d.Day() + 1
}

// Compile-time checks
var (
	_ Schedule = MidMonth{}
	_ Schedule = MonthStart{}
)
