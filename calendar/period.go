package calendar

// Period is an estimation window. Start is the day the estimate begins
// (today, usually) and End is Start advanced by the day budget.
//
// Examples:
//   - 30 days from 2024-01-01: [2024-01-01, 2024-01-31]
//   - 0 days from 2024-03-16:  [2024-03-16, 2024-03-16]
type Period struct {
	Start Date
	End   Date
}

// NewPeriod returns the period covering days days from start.
func NewPeriod(start Date, days int) (Period, error) {
	end, err := AdvanceDays(start, days)
	if err != nil {
		return Period{}, err
	}
	return Period{Start: start, End: end}, nil
}

// Days returns the day budget of the period (End - Start).
func (p Period) Days() int {
	return DaysBetween(p.Start, p.End)
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
