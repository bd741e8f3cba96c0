package estimate

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/warp/primo-estimator/calendar"
	"github.com/warp/primo-estimator/rotation"
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// Estimator computes estimates against one reward table. It is immutable and
// safe for concurrent use.
type Estimator struct {
	table RewardTable
}

// NewEstimator validates table and returns an estimator for it.
func NewEstimator(table RewardTable) (*Estimator, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{table: table}, nil
}

// MustNewEstimator is NewEstimator for tables known to be valid.
func MustNewEstimator(table RewardTable) *Estimator {
	e, err := NewEstimator(table)
	if err != nil {
		panic(err)
	}
	return e
}

// Table returns the reward table in use.
func (e *Estimator) Table() RewardTable {
	return e.table
}

// Estimate computes the primogem total for in.
func (e *Estimator) Estimate(in Inputs) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	period, err := calendar.NewPeriod(in.Start, in.Days)
	if err != nil {
		return nil, fmt.Errorf("estimation window: %w", err)
	}

	t := e.table
	abyss, err := rotation.Count(in.Start, in.Days, t.Abyss.Schedule)
	if err != nil {
		return nil, fmt.Errorf("abyss rotations: %w", err)
	}
	theater, err := rotation.Count(in.Start, in.Days, t.Theater.Schedule)
	if err != nil {
		return nil, fmt.Errorf("theater rotations: %w", err)
	}
	shop, err := rotation.Count(in.Start, in.Days, t.Shop.Schedule)
	if err != nil {
		return nil, fmt.Errorf("shop resets: %w", err)
	}

	days := decimal.NewFromInt(int64(in.Days))

	daily := days.Mul(decimal.NewFromInt(t.DailyRate))

	blessing := decimal.Zero
	if in.Blessing {
		blessing = days.Mul(decimal.NewFromInt(t.BlessingRate))
	}

	// 50 per chamber, plus 50 for every complete group of 3 chambers.
	abyssBase := decimal.NewFromInt(t.Abyss.PerUnit).Mul(decimal.NewFromInt(int64(in.MidMonthUnits)))
	abyssBonus := decimal.NewFromInt(int64(in.MidMonthUnits / t.Abyss.GroupSize)).Mul(decimal.NewFromInt(t.Abyss.GroupBonus))
	abyssTotal := e.scale(abyss.Rotations, abyssBase, abyssBonus)

	// 60 per stage, plus an exact-match bonus (3, 6, 8 and 10 stages by default).
	theaterBase := decimal.NewFromInt(t.Theater.PerUnit).Mul(decimal.NewFromInt(int64(in.MonthStartUnits)))
	theaterBonus := decimal.NewFromInt(t.Theater.Bonuses[in.MonthStartUnits])
	theaterTotal := e.scale(theater.Rotations, theaterBase, theaterBonus)

	shopTotal := decimal.NewFromInt(int64(shop.Rotations)).Mul(decimal.NewFromInt(t.Shop.PerReset))

	lines := []struct {
		category Category
		amount   decimal.Decimal
	}{
		{CategoryDaily, daily},
		{CategoryBlessing, blessing},
		{CategoryAbyss, abyssTotal},
		{CategoryTheater, theaterTotal},
		{CategoryShop, shopTotal},
	}

	res := &Result{
		Period: period,
		Inputs: in,
		Rotations: Rotations{
			Abyss:   abyss.Rotations,
			Theater: theater.Rotations,
			Shop:    shop.Rotations,
		},
		Breakdown: make([]LineItem, 0, len(lines)),
		BonusMode: t.BonusMode,
	}

	total := decimal.Zero
	for _, l := range lines {
		amount, err := toInt64(l.category, l.amount)
		if err != nil {
			return nil, err
		}
		res.Breakdown = append(res.Breakdown, LineItem{
			Category: l.category,
			Label:    l.category.Label(),
			Amount:   amount,
		})
		total = total.Add(l.amount)
	}

	if res.Total, err = toInt64("total", total); err != nil {
		return nil, err
	}

	drawCost := decimal.NewFromInt(t.DrawCost)
	res.EquivalentDraws = total.Div(drawCost).Floor().IntPart()
	res.Leftover = total.Mod(drawCost).IntPart()

	return res, nil
}

// scale applies the bonus mode: base always scales with rotations; bonus
// scales with rotations in BonusPerRotation and is paid once in BonusFlat.
func (e *Estimator) scale(rotations int, base, bonus decimal.Decimal) decimal.Decimal {
	if rotations == 0 {
		return decimal.Zero
	}
	r := decimal.NewFromInt(int64(rotations))
	if e.table.BonusMode == BonusFlat {
		return r.Mul(base).Add(bonus)
	}
	return r.Mul(base.Add(bonus))
}

func toInt64[T ~string](what T, d decimal.Decimal) (int64, error) {
	if d.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: %s = %s", ErrAmountOverflow, what, d.String())
	}
	return d.IntPart(), nil
}

// =============================================================================
// DATE-RANGE HELPERS
// =============================================================================

// Options are the per-rotation choices shared by Between and Until.
type Options struct {
	Blessing        bool
	MidMonthUnits   int
	MonthStartUnits int
}

// Between estimates the span [start, end]. An end before start is invalid.
func (e *Estimator) Between(start, end calendar.Date, opts Options) (*Result, error) {
	days := calendar.DaysBetween(start, end)
	if days < 0 {
		return nil, &InvalidInputError{Field: "end", Value: days, Reason: "must not precede start"}
	}
	return e.Estimate(Inputs{
		Days:            days,
		Start:           start,
		Blessing:        opts.Blessing,
		MidMonthUnits:   opts.MidMonthUnits,
		MonthStartUnits: opts.MonthStartUnits,
	})
}

// Until estimates from today to end. today is captured by the caller once.
func (e *Estimator) Until(today, end calendar.Date, opts Options) (*Result, error) {
	return e.Between(today, end, opts)
}
