package rotation

import (
	"errors"
	"fmt"

	"github.com/warp/primo-estimator/calendar"
)

var (
	// ErrInvalidSchedule is returned for schedules that cannot guarantee
	// forward progress (distance < 1) or have out-of-range parameters.
	ErrInvalidSchedule = errors.New("invalid rotation schedule")

	// ErrUnknownSchedule is returned by registry lookups for unregistered IDs.
	ErrUnknownSchedule = errors.New("unknown rotation schedule")
)

// Result is the outcome of counting one schedule over a day budget.
type Result struct {
	// Rotations is the number of resets crossed.
	Rotations int

	// Cursor is the date of the last reset crossed, or the start date when
	// none was.
	Cursor calendar.Date

	// Remaining is the part of the budget left after the last reset.
	Remaining int
}

// Count returns the number of resets of s within days days of start.
//
// A reset falling exactly on the last day of the budget counts. A budget of
// zero always yields zero rotations.
func Count(start calendar.Date, days int, s Schedule) (Result, error) {
	return walk(start, days, s, nil)
}

// Occurrences returns the reset dates of s within days days of start, in order.
func Occurrences(start calendar.Date, days int, s Schedule) ([]calendar.Date, error) {
	var dates []calendar.Date
	_, err := walk(start, days, s, func(d calendar.Date) { dates = append(dates, d) })
	if err != nil {
		return nil, err
	}
	return dates, nil
}

// walk advances a cursor from reset to reset while the budget covers the
// distance to the next one. visit, when non-nil, sees every reset date.
func walk(start calendar.Date, days int, s Schedule, visit func(calendar.Date)) (Result, error) {
	if days < 0 {
		return Result{}, fmt.Errorf("%w: %d", calendar.ErrNegativeDays, days)
	}
	if s == nil {
		return Result{}, fmt.Errorf("%w: nil schedule", ErrInvalidSchedule)
	}

	res := Result{Cursor: start, Remaining: days}
	for {
		distance := s.DistanceToNext(res.Cursor)
		if distance < 1 {
			return Result{}, fmt.Errorf("%w: %s returned distance %d from %s", ErrInvalidSchedule, s.ID(), distance, res.Cursor)
		}
		if res.Remaining < distance {
			return res, nil
		}

		next, err := calendar.AdvanceDays(res.Cursor, distance)
		if err != nil {
			return Result{}, fmt.Errorf("advance %s cursor: %w", s.ID(), err)
		}
		res.Cursor = next
		res.Rotations++
		res.Remaining -= distance
		if visit != nil {
			visit(next)
		}
	}
}
