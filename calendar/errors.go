package calendar

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNegativeDays is returned when a day count that must be >= 0 is not.
	ErrNegativeDays = errors.New("negative day count")

	// ErrInvalidDate is returned for strings or components that do not name a
	// real calendar day (Feb 30, month 13, bad format).
	ErrInvalidDate = errors.New("invalid date")

	// ErrDateOverflow is returned when date arithmetic leaves years 1..9999.
	ErrDateOverflow = errors.New("date out of representable range")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// OverflowError carries the operation that left the representable range.
// Either From/Days (an advance) or Year (a construction) is set.
type OverflowError struct {
	From Date
	Days int
	Year int
}

func (e *OverflowError) Error() string {
	if e.From.IsZero() {
		return fmt.Sprintf("year %d outside %d..%d", e.Year, MinYear, MaxYear)
	}
	return fmt.Sprintf("advancing %s by %d days passes %s", e.From, e.Days, maxDate)
}

func (e *OverflowError) Unwrap() error {
	return ErrDateOverflow
}
