/*
handlers.go - HTTP API handlers for the primogem estimator

PURPOSE:
  Exposes the estimator, the rotation counter and the calendar helpers via a
  REST API. Handles request parsing and validation, delegates to the engine,
  and serializes responses.

ENDPOINTS:
  Estimates:
    POST   /api/estimates                 Estimate primogems over a window

  Rotations:
    GET    /api/rotations                 Count resets of one schedule
    GET    /api/schedules                 List schedule IDs

  Calendar:
    GET    /api/calendar/month-end        Last day of a month
    GET    /api/calendar/days-between     Signed day distance

  Configuration:
    GET    /api/reward-table              Active reward table

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Estimator: immutable, shared by every request
  - Clock: today in the configured timezone, read once per request
  - Metrics and a logrus logger

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown schedule
  - 422: Window or amount beyond the representable range
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/warp/primo-estimator/calendar"
	"github.com/warp/primo-estimator/estimate"
	"github.com/warp/primo-estimator/factory"
	"github.com/warp/primo-estimator/metrics"
	"github.com/warp/primo-estimator/rotation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Estimator *estimate.Estimator
	Tables    *factory.TableFactory
	Metrics   *metrics.Metrics
	Clock     calendar.Clock
	Log       log.FieldLogger

	validate *validator.Validate
}

// NewHandler creates a handler around est.
func NewHandler(est *estimate.Estimator, m *metrics.Metrics, clock calendar.Clock, logger log.FieldLogger) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		Estimator: est,
		Tables:    factory.NewTableFactory(),
		Metrics:   m,
		Clock:     clock,
		Log:       logger.WithField("component", "api"),
		validate:  v,
	}
}

// =============================================================================
// ESTIMATE ENDPOINTS
// =============================================================================

// CreateEstimate handles POST /api/estimates.
func (h *Handler) CreateEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}
	if (req.Days == nil) == (req.EndDate == "") {
		writeError(w, http.StatusBadRequest, "Validation failed", errors.New("exactly one of days and end_date is required"))
		return
	}

	today := h.Clock()
	start := today
	if req.StartDate != "" {
		d, err := calendar.ParseDate(req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date", err)
			return
		}
		start = d
	}

	opts := estimate.Options{
		Blessing:        req.Blessing,
		MidMonthUnits:   req.MidMonthUnits,
		MonthStartUnits: req.MonthStartUnits,
	}

	var (
		res *estimate.Result
		err error
	)
	if req.Days != nil {
		res, err = h.Estimator.Estimate(estimate.Inputs{
			Days:            *req.Days,
			Start:           start,
			Blessing:        opts.Blessing,
			MidMonthUnits:   opts.MidMonthUnits,
			MonthStartUnits: opts.MonthStartUnits,
		})
	} else {
		end, perr := calendar.ParseDate(req.EndDate)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date", perr)
			return
		}
		res, err = h.Estimator.Between(start, end, opts)
	}
	if err != nil {
		h.Metrics.ObserveFailure(metrics.SourceHTTP, metrics.Reason(err))
		h.Log.WithError(err).WithField("start", start.String()).Warn("estimate rejected")
		writeEngineError(w, "Failed to estimate", err)
		return
	}

	h.Metrics.ObserveEstimate(metrics.SourceHTTP, res.Rotations.ByCategory())
	h.Log.WithFields(log.Fields{
		"days":  res.Period.Days(),
		"total": res.Total,
	}).Debug("estimate computed")

	writeJSON(w, http.StatusOK, toEstimateResponse(res))
}

// =============================================================================
// ROTATION ENDPOINTS
// =============================================================================

// CountRotations handles GET /api/rotations.
func (h *Handler) CountRotations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("days") == "" {
		writeError(w, http.StatusBadRequest, "Validation failed", errors.New("days is required"))
		return
	}
	days, err := strconv.Atoi(q.Get("days"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid days", err)
		return
	}
	query := RotationQuery{
		Schedule:  q.Get("schedule"),
		Days:      days,
		StartDate: q.Get("start_date"),
	}
	if err := h.validate.Struct(query); err != nil {
		writeValidationError(w, err)
		return
	}

	s, err := factory.ParseSchedule(query.Schedule)
	if err != nil {
		writeEngineError(w, "Invalid schedule", err)
		return
	}

	start := h.Clock()
	if query.StartDate != "" {
		if start, err = calendar.ParseDate(query.StartDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date", err)
			return
		}
	}

	res, err := rotation.Count(start, query.Days, s)
	if err != nil {
		writeEngineError(w, "Failed to count rotations", err)
		return
	}
	dates, err := rotation.Occurrences(start, query.Days, s)
	if err != nil {
		writeEngineError(w, "Failed to list rotations", err)
		return
	}

	writeJSON(w, http.StatusOK, toRotationResponse(s, start, query.Days, res, dates))
}

// ListSchedules handles GET /api/schedules.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SchedulesResponse{Schedules: rotation.IDs()})
}

// =============================================================================
// CALENDAR ENDPOINTS
// =============================================================================

// MonthEnd handles GET /api/calendar/month-end.
func (h *Handler) MonthEnd(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	query := MonthEndQuery{Year: year, Month: month}
	if err := h.validate.Struct(query); err != nil {
		writeValidationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MonthEndResponse{
		Year:    query.Year,
		Month:   query.Month,
		LastDay: calendar.LastDayOfMonth(query.Year, time.Month(query.Month)),
	})
}

// DaysBetween handles GET /api/calendar/days-between.
func (h *Handler) DaysBetween(w http.ResponseWriter, r *http.Request) {
	query := DaysBetweenQuery{
		Start: r.URL.Query().Get("start"),
		End:   r.URL.Query().Get("end"),
	}
	if err := h.validate.Struct(query); err != nil {
		writeValidationError(w, err)
		return
	}
	start, err := calendar.ParseDate(query.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start", err)
		return
	}
	end, err := calendar.ParseDate(query.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end", err)
		return
	}

	writeJSON(w, http.StatusOK, DaysBetweenResponse{
		Start: start.String(),
		End:   end.String(),
		Days:  calendar.DaysBetween(start, end),
	})
}

// =============================================================================
// CONFIGURATION ENDPOINTS
// =============================================================================

// GetRewardTable handles GET /api/reward-table.
func (h *Handler) GetRewardTable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Tables.ToJSON(h.Estimator.Table()))
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}
	details := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		if fe.Param() == "" {
			return fmt.Sprintf("%s: %s", fe.Field(), fe.Tag())
		}
		return fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param())
	})
	writeError(w, http.StatusBadRequest, "Validation failed", errors.New(strings.Join(details, "; ")))
}

// writeEngineError maps engine errors to HTTP status codes.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, rotation.ErrUnknownSchedule):
		return http.StatusNotFound
	case estimate.IsOverflow(err):
		return http.StatusUnprocessableEntity
	case estimate.IsClientError(err), errors.Is(err, rotation.ErrInvalidSchedule):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
