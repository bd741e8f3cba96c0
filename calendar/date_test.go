package calendar_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/primo-estimator/calendar"
)

func date(year int, month time.Month, day int) calendar.Date {
	return calendar.NewDate(year, month, day)
}

// =============================================================================
// LAST DAY OF MONTH
// =============================================================================

func TestLastDayOfMonth(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		want  int
	}{
		{"leap february", 2024, time.February, 29},
		{"common february", 2023, time.February, 28},
		{"december rolls into next year", 2024, time.December, 31},
		{"century is not leap", 1900, time.February, 28},
		{"400-year century is leap", 2000, time.February, 29},
		{"thirty day month", 2023, time.April, 30},
		{"january", 2025, time.January, 31},
		{"last representable month", 9999, time.December, 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calendar.LastDayOfMonth(tt.year, tt.month))
		})
	}
}

func TestEndOfMonth(t *testing.T) {
	assert.Equal(t, date(2024, time.February, 29), calendar.EndOfMonth(2024, time.February))
	assert.Equal(t, date(2024, time.March, 1), calendar.StartOfMonth(2024, time.March))
}

// =============================================================================
// DAYS BETWEEN
// =============================================================================

func TestDaysBetween_SameDayIsZero(t *testing.T) {
	for _, d := range []calendar.Date{
		date(1, time.January, 1),
		date(2024, time.February, 29),
		date(9999, time.December, 31),
	} {
		assert.Equal(t, 0, calendar.DaysBetween(d, d), d.String())
	}
}

func TestDaysBetween_Antisymmetric(t *testing.T) {
	pairs := [][2]calendar.Date{
		{date(2024, time.January, 1), date(2024, time.March, 1)},
		{date(1999, time.December, 31), date(2000, time.January, 1)},
		{date(1, time.January, 1), date(9999, time.December, 31)},
		{date(2023, time.June, 15), date(2021, time.February, 3)},
	}
	for _, p := range pairs {
		a, b := p[0], p[1]
		assert.Equal(t, -calendar.DaysBetween(b, a), calendar.DaysBetween(a, b), "%s / %s", a, b)
	}
}

func TestDaysBetween_CalendarBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		start, end calendar.Date
		want       int
	}{
		{"year boundary", date(2023, time.December, 31), date(2024, time.January, 1), 1},
		{"across leap day", date(2024, time.February, 28), date(2024, time.March, 1), 2},
		{"no leap day", date(2023, time.February, 28), date(2023, time.March, 1), 1},
		{"leap year length", date(2024, time.January, 1), date(2025, time.January, 1), 366},
		{"common year length", date(2023, time.January, 1), date(2024, time.January, 1), 365},
		{"end before start", date(2024, time.January, 31), date(2024, time.January, 1), -30},
		{"spans more than 292 years", date(1, time.January, 1), date(1000, time.January, 1), 364877},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calendar.DaysBetween(tt.start, tt.end))
		})
	}
}

func TestOrdinal_Epoch(t *testing.T) {
	assert.Equal(t, 0, date(1, time.January, 1).Ordinal())
	assert.Equal(t, 1, date(1, time.January, 2).Ordinal())
	assert.Equal(t, 365, date(2, time.January, 1).Ordinal())
}

// =============================================================================
// ADVANCE DAYS
// =============================================================================

func TestAdvanceDays_Rollover(t *testing.T) {
	tests := []struct {
		name  string
		from  calendar.Date
		days  int
		want  calendar.Date
	}{
		{"zero days", date(2024, time.March, 16), 0, date(2024, time.March, 16)},
		{"month end", date(2024, time.January, 31), 1, date(2024, time.February, 1)},
		{"into leap day", date(2024, time.February, 28), 1, date(2024, time.February, 29)},
		{"over leap day", date(2024, time.February, 28), 2, date(2024, time.March, 1)},
		{"year end", date(2023, time.December, 31), 1, date(2024, time.January, 1)},
		{"multi year", date(2020, time.January, 1), 1827, date(2025, time.January, 1)},
		{"last representable day", date(9999, time.December, 30), 1, date(9999, time.December, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calendar.AdvanceDays(tt.from, tt.days)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestAdvanceDays_NegativeIsRejected(t *testing.T) {
	_, err := calendar.AdvanceDays(date(2024, time.January, 1), -1)
	assert.ErrorIs(t, err, calendar.ErrNegativeDays)
}

func TestAdvanceDays_OverflowIsAnError(t *testing.T) {
	// GIVEN: The last representable date
	// WHEN: Advancing by one day (or by an absurd amount)
	// THEN: An OverflowError is returned instead of a wrapped or clamped date

	_, err := calendar.AdvanceDays(calendar.MaxDate(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, calendar.ErrDateOverflow)

	var overflow *calendar.OverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, 1, overflow.Days)
	assert.True(t, calendar.MaxDate().Equal(overflow.From))

	_, err = calendar.AdvanceDays(date(2024, time.January, 1), math.MaxInt)
	assert.ErrorIs(t, err, calendar.ErrDateOverflow)
}

// =============================================================================
// CONSTRUCTION / PARSING
// =============================================================================

func TestFromYMD_RejectsInvalidDays(t *testing.T) {
	_, err := calendar.FromYMD(2023, time.February, 29)
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)

	_, err = calendar.FromYMD(2024, time.April, 31)
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)

	_, err = calendar.FromYMD(10000, time.January, 1)
	assert.ErrorIs(t, err, calendar.ErrDateOverflow)

	d, err := calendar.FromYMD(2024, time.February, 29)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())
}

func TestParseDate(t *testing.T) {
	d, err := calendar.ParseDate("2024-01-16")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.January, d.Month())
	assert.Equal(t, 16, d.Day())

	_, err = calendar.ParseDate("2024-02-30")
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)

	_, err = calendar.ParseDate("16/01/2024")
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)
}

func TestFromTime_UsesLocalCalendarDay(t *testing.T) {
	// 23:30 UTC on Jan 31 is already Feb 1 in Tokyo.
	tokyo := time.FixedZone("JST", 9*60*60)
	instant := time.Date(2024, time.January, 31, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-01-31", calendar.FromTime(instant).String())
	assert.Equal(t, "2024-02-01", calendar.FromTime(instant.In(tokyo)).String())
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Start calendar.Date `json:"start"`
	}

	b, err := json.Marshal(payload{Start: date(2024, time.February, 29)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-02-29"}`, string(b))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2025-12-31"}`), &p))
	assert.Equal(t, "2025-12-31", p.Start.String())

	assert.Error(t, json.Unmarshal([]byte(`{"start":"2025-13-01"}`), &p))
}

// =============================================================================
// PERIOD
// =============================================================================

func TestNewPeriod(t *testing.T) {
	p, err := calendar.NewPeriod(date(2024, time.January, 1), 30)
	require.NoError(t, err)

	assert.Equal(t, "[2024-01-01, 2024-01-31]", p.String())
	assert.Equal(t, 30, p.Days())
	assert.True(t, p.Contains(date(2024, time.January, 16)))
	assert.True(t, p.Contains(date(2024, time.January, 31)))
	assert.False(t, p.Contains(date(2024, time.February, 1)))

	_, err = calendar.NewPeriod(calendar.MaxDate(), 1)
	assert.ErrorIs(t, err, calendar.ErrDateOverflow)
}
