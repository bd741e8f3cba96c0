package estimate

import (
	"errors"
	"fmt"

	"github.com/warp/primo-estimator/calendar"
	"github.com/warp/primo-estimator/rotation"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned for inputs outside the documented domain
	// (negative days or unit counts, missing start date, end before start).
	ErrInvalidInput = errors.New("invalid estimation input")

	// ErrInvalidTable is returned when a reward table cannot be used.
	ErrInvalidTable = errors.New("invalid reward table")

	// ErrAmountOverflow is returned when a reward does not fit in int64.
	ErrAmountOverflow = errors.New("reward amount overflows int64")
)

// InvalidInputError names the offending field.
type InvalidInputError struct {
	Field  string
	Value  int
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Value == 0 {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %d: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, calendar.ErrNegativeDays) ||
		errors.Is(err, calendar.ErrInvalidDate) ||
		errors.Is(err, rotation.ErrUnknownSchedule)
}

// IsOverflow returns true if the estimate could not be represented: the
// window leaves the calendar range or an amount leaves int64.
func IsOverflow(err error) bool {
	return errors.Is(err, calendar.ErrDateOverflow) || errors.Is(err, ErrAmountOverflow)
}
