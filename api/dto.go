/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the engine
  types (calendar.Date, estimate.Result) from the wire contract.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Query:   Query-string parameters, bound by hand then validated
  - *Response / *DTO: Response types returned to clients

VALIDATION:
  Struct tags for go-playground/validator. Field names in validation errors
  use the JSON names. The engine validates again; nothing is clamped.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/table.go: RewardTableJSON
*/
package api

import (
	"github.com/samber/lo"

	"github.com/warp/primo-estimator/calendar"
	"github.com/warp/primo-estimator/estimate"
	"github.com/warp/primo-estimator/rotation"
)

// =============================================================================
// ESTIMATES
// =============================================================================

// EstimateRequest is the body of POST /api/estimates. Exactly one of Days and
// EndDate must be set; StartDate defaults to today.
type EstimateRequest struct {
	Days            *int   `json:"days,omitempty" validate:"omitempty,gte=0"`
	StartDate       string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate         string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Blessing        bool   `json:"blessing"`
	MidMonthUnits   int    `json:"mid_month_units" validate:"gte=0"`
	MonthStartUnits int    `json:"month_start_units" validate:"gte=0"`
}

// LineItemDTO is one breakdown row.
type LineItemDTO struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Amount   int64  `json:"amount"`
}

// RotationsDTO counts resets per reward source.
type RotationsDTO struct {
	Abyss   int `json:"abyss"`
	Theater int `json:"theater"`
	Shop    int `json:"shop"`
}

// EstimateResponse is a complete estimate.
type EstimateResponse struct {
	StartDate       string        `json:"start_date"`
	EndDate         string        `json:"end_date"`
	Days            int           `json:"days"`
	Blessing        bool          `json:"blessing"`
	MidMonthUnits   int           `json:"mid_month_units"`
	MonthStartUnits int           `json:"month_start_units"`
	BonusMode       string        `json:"bonus_mode"`
	Total           int64         `json:"total"`
	EquivalentDraws int64         `json:"equivalent_draws"`
	Leftover        int64         `json:"leftover"`
	Rotations       RotationsDTO  `json:"rotations"`
	Breakdown       []LineItemDTO `json:"breakdown"`
	Text            string        `json:"text"`
}

// =============================================================================
// ROTATIONS
// =============================================================================

// RotationQuery binds GET /api/rotations.
type RotationQuery struct {
	Schedule  string `json:"schedule" validate:"required"`
	Days      int    `json:"days" validate:"gte=0"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

// RotationResponse reports a rotation count and the reset dates it saw.
type RotationResponse struct {
	Schedule    string   `json:"schedule"`
	StartDate   string   `json:"start_date"`
	Days        int      `json:"days"`
	Count       int      `json:"count"`
	Cursor      string   `json:"cursor"`
	Remaining   int      `json:"remaining"`
	Occurrences []string `json:"occurrences"`
}

// SchedulesResponse lists registered schedule IDs.
type SchedulesResponse struct {
	Schedules []string `json:"schedules"`
}

// =============================================================================
// CALENDAR
// =============================================================================

// MonthEndQuery binds GET /api/calendar/month-end.
type MonthEndQuery struct {
	Year  int `json:"year" validate:"min=1,max=9999"`
	Month int `json:"month" validate:"min=1,max=12"`
}

// MonthEndResponse is the last day of a month.
type MonthEndResponse struct {
	Year    int `json:"year"`
	Month   int `json:"month"`
	LastDay int `json:"last_day"`
}

// DaysBetweenQuery binds GET /api/calendar/days-between.
type DaysBetweenQuery struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
	End   string `json:"end" validate:"required,datetime=2006-01-02"`
}

// DaysBetweenResponse is a signed day distance.
type DaysBetweenResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// =============================================================================
// MISC
// =============================================================================

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is returned for all failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPING
// =============================================================================

func toEstimateResponse(r *estimate.Result) EstimateResponse {
	return EstimateResponse{
		StartDate:       r.Period.Start.String(),
		EndDate:         r.Period.End.String(),
		Days:            r.Period.Days(),
		Blessing:        r.Inputs.Blessing,
		MidMonthUnits:   r.Inputs.MidMonthUnits,
		MonthStartUnits: r.Inputs.MonthStartUnits,
		BonusMode:       string(r.BonusMode),
		Total:           r.Total,
		EquivalentDraws: r.EquivalentDraws,
		Leftover:        r.Leftover,
		Rotations: RotationsDTO{
			Abyss:   r.Rotations.Abyss,
			Theater: r.Rotations.Theater,
			Shop:    r.Rotations.Shop,
		},
		Breakdown: lo.Map(r.Breakdown, func(li estimate.LineItem, _ int) LineItemDTO {
			return LineItemDTO{Category: string(li.Category), Label: li.Label, Amount: li.Amount}
		}),
		Text: estimate.FormatBreakdown(r),
	}
}

func toRotationResponse(s rotation.Schedule, start calendar.Date, days int, res rotation.Result, dates []calendar.Date) RotationResponse {
	return RotationResponse{
		Schedule:    s.ID(),
		StartDate:   start.String(),
		Days:        days,
		Count:       res.Rotations,
		Cursor:      res.Cursor.String(),
		Remaining:   res.Remaining,
		Occurrences: lo.Map(dates, func(d calendar.Date, _ int) string { return d.String() }),
	}
}
