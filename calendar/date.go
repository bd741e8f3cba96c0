/*
Package calendar provides the Gregorian date arithmetic used by the rotation
counter and the reward estimator.

PURPOSE:
  Every reset in the game happens on a calendar boundary (day 16 of the
  month, day 1 of the month). Counting those boundaries correctly depends on
  month lengths, leap years and year rollover, so all of that lives here and
  nowhere else.

KEY CONCEPTS:
  - Date: a calendar day (year, month, day) pinned to UTC midnight
  - Ordinal: days since 0001-01-01 in the proleptic Gregorian calendar
  - Period: an inclusive [Start, End] span of dates

RULES:
  1. Month length is derived from time arithmetic ("first of next month minus
     one day"), never from a hand-written leap-year table.
  2. Dates are only valid in years 1..9999. Advancing past that range is an
     error (ErrDateOverflow), never a silent clamp.
  3. Nothing in this package reads the wall clock except Today(), which
     callers invoke once per estimation.

USAGE:
  start := calendar.NewDate(2024, time.January, 1)
  end, err := calendar.AdvanceDays(start, 30)        // 2024-01-31
  n := calendar.DaysBetween(start, end)              // 30
  last := calendar.LastDayOfMonth(2024, time.February) // 29

SEE ALSO:
  - period.go: Period type
  - errors.go: ErrNegativeDays, ErrDateOverflow
  - rotation/counter.go: main consumer
*/
package calendar

import (
	"fmt"
	"time"
)

const (
	// MinYear and MaxYear bound the representable range of a Date.
	MinYear = 1
	MaxYear = 9999

	dateLayout    = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
)

// =============================================================================
// DATE
// =============================================================================

// Date is a single Gregorian calendar day. The wrapped time is always UTC
// midnight so that comparisons and ordinals never depend on a time zone.
type Date struct {
	Time time.Time
}

// NewDate builds a Date the way time.Date does: out-of-range days roll into
// the following month (Feb 30 becomes Mar 1 or Mar 2). Use FromYMD when the
// input comes from a user and must already be valid.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromYMD builds a Date and rejects anything that is not a real calendar day.
func FromYMD(year int, month time.Month, day int) (Date, error) {
	if year < MinYear || year > MaxYear {
		return Date{}, &OverflowError{Year: year}
	}
	d := NewDate(year, month, day)
	if d.Year() != year || d.Month() != month || d.Day() != day {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, int(month), day)
	}
	return d, nil
}

// FromTime truncates t to its calendar day in t's own location.
func FromTime(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar day in loc (UTC when loc is nil).
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return FromTime(time.Now().In(loc))
}

// Clock returns today's calendar date. Callers read it once per operation.
type Clock func() Date

// SystemClock reads today in loc.
func SystemClock(loc *time.Location) Clock {
	return func() Date { return Today(loc) }
}

// FixedClock always returns d.
func FixedClock(d Date) Clock {
	return func() Date { return d }
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, err)
	}
	return FromYMD(t.Year(), t.Month(), t.Day())
}

// MustParseDate is ParseDate for tests and constants. It panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Properties
func (d Date) Year() int          { return d.Time.Year() }
func (d Date) Month() time.Month  { return d.Time.Month() }
func (d Date) Day() int           { return d.Time.Day() }
func (d Date) IsZero() bool       { return d.Time.IsZero() }
func (d Date) String() string     { return d.Time.Format(dateLayout) }

// Ordinal returns the number of days since 0001-01-01 (which has ordinal 0).
// time.Time.Sub saturates after ~292 years, so the ordinal is computed from
// Unix seconds instead.
func (d Date) Ordinal() int {
	return int((d.Time.Unix() - epoch.Time.Unix()) / secondsPerDay)
}

// MarshalText encodes the date as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a YYYY-MM-DD date.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var (
	epoch   = NewDate(MinYear, time.January, 1)
	maxDate = NewDate(MaxYear, time.December, 31)
)

// MaxDate is the last representable date.
func MaxDate() Date { return maxDate }

// =============================================================================
// ARITHMETIC
// =============================================================================

// DaysBetween returns end.Ordinal() - start.Ordinal(). The result is negative
// when end precedes start; rejecting negative spans is the caller's job.
func DaysBetween(start, end Date) int {
	return end.Ordinal() - start.Ordinal()
}

// LastDayOfMonth returns the number of days in the month (28..31): the day
// before the first day of the following month. time.Date normalizes month 13
// into January of the next year.
func LastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1).Day()
}

// AdvanceDays returns d + n days, rolling over months and years.
// n must be non-negative. A result past MaxDate is an *OverflowError.
func AdvanceDays(d Date, n int) (Date, error) {
	if n < 0 {
		return Date{}, fmt.Errorf("%w: %d", ErrNegativeDays, n)
	}
	if room := DaysBetween(d, maxDate); n > room {
		return Date{}, &OverflowError{From: d, Days: n}
	}
	return Date{Time: d.Time.AddDate(0, 0, n)}, nil
}

// StartOfMonth returns day 1 of the given month.
func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }

// EndOfMonth returns the last day of the given month.
func EndOfMonth(year int, month time.Month) Date {
	return NewDate(year, month, LastDayOfMonth(year, month))
}
