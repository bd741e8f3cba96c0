/*
Package estimate turns rotation counts into a primogem estimate.

PURPOSE:
  Answers "how many primogems (and wishes) will I have in N days?" for a
  player who claims daily commissions, may own the Blessing of the Welkin
  Moon, and clears a known number of Spiral Abyss chambers and Imaginarium
  Theater stages every rotation.

REWARD SOURCES:
  daily:     flat rate per day (60)
  blessing:  subscription bonus per day (90), additive
  abyss:     mid-month rotation (16th); per-chamber reward plus a bonus for
             every complete group of 3 chambers
  theater:   month-start rotation (1st); per-stage reward plus an exact-match
             bonus at 3, 6, 8 and 10 stages
  shop:      month-start rotation (1st); fixed wishes per reset

BONUS MODE:
  The chamber-group and stage-threshold bonuses can be read two ways:
  BonusPerRotation (default) pays them every rotation; BonusFlat pays them
  once per estimate, provided at least one rotation happens.

DETERMINISM:
  The estimator never reads the clock. Callers capture today once and pass it
  as Inputs.Start (or use Until with an explicit today).

EXAMPLE:
  est, _ := estimate.NewEstimator(estimate.DefaultRewardTable())
  res, err := est.Estimate(estimate.Inputs{
      Days:          16,
      Start:         calendar.NewDate(2024, time.January, 1),
      MidMonthUnits: 3,
  })
  // res.Total == 1160: 960 daily + 200 abyss

SEE ALSO:
  - estimator.go: formulas
  - format.go: text breakdown
  - factory/table.go: reward tables from JSON
*/
package estimate

import (
	"fmt"

	"github.com/warp/primo-estimator/calendar"
	"github.com/warp/primo-estimator/rotation"
)

// =============================================================================
// CATEGORIES
// =============================================================================

// Category identifies one line of the breakdown.
type Category string

const (
	CategoryDaily    Category = "daily"
	CategoryBlessing Category = "blessing"
	CategoryAbyss    Category = "abyss"
	CategoryTheater  Category = "theater"
	CategoryShop     Category = "shop"
)

// Labels used in the text breakdown and API responses.
var categoryLabels = map[Category]string{
	CategoryDaily:    "Daily primogems",
	CategoryBlessing: "Blessing primogems",
	CategoryAbyss:    "Abyss primogems",
	CategoryTheater:  "Imaginarium Theater primogems",
	CategoryShop:     "Shop wishes",
}

// Label returns the human-readable name of c.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// BonusMode selects how group/threshold bonuses scale with rotations.
type BonusMode string

const (
	BonusPerRotation BonusMode = "per_rotation"
	BonusFlat        BonusMode = "flat"
)

// =============================================================================
// REWARD TABLE
// =============================================================================

// AbyssRewards configures the mid-month rotation.
type AbyssRewards struct {
	Schedule   rotation.Schedule
	PerUnit    int64 // per chamber cleared with 3 stars
	GroupSize  int   // chambers per bonus group
	GroupBonus int64 // bonus per complete group
}

// TheaterRewards configures the month-start stage-clear rotation.
type TheaterRewards struct {
	Schedule rotation.Schedule
	PerUnit  int64         // per stage cleared
	Bonuses  map[int]int64 // exact stage count -> bonus
}

// ShopRewards configures the month-start shop refresh.
type ShopRewards struct {
	Schedule rotation.Schedule
	PerReset int64 // wishes per refresh
}

// RewardTable holds every constant the formulas use.
type RewardTable struct {
	DailyRate    int64
	BlessingRate int64
	Abyss        AbyssRewards
	Theater      TheaterRewards
	Shop         ShopRewards
	DrawCost     int64
	BonusMode    BonusMode
}

// DefaultRewardTable returns the current game rewards.
func DefaultRewardTable() RewardTable {
	return RewardTable{
		DailyRate:    60,
		BlessingRate: 90,
		Abyss: AbyssRewards{
			Schedule:   rotation.MidMonth{Day: rotation.AbyssResetDay},
			PerUnit:    50,
			GroupSize:  3,
			GroupBonus: 50,
		},
		Theater: TheaterRewards{
			Schedule: rotation.MonthStart{},
			PerUnit:  60,
			Bonuses:  map[int]int64{3: 40, 6: 80, 8: 140, 10: 200},
		},
		Shop: ShopRewards{
			Schedule: rotation.MonthStart{},
			PerReset: 5,
		},
		DrawCost:  160,
		BonusMode: BonusPerRotation,
	}
}

// Validate checks that the table can produce an estimate.
func (t RewardTable) Validate() error {
	switch {
	case t.Abyss.Schedule == nil || t.Theater.Schedule == nil || t.Shop.Schedule == nil:
		return fmt.Errorf("%w: every reward source needs a schedule", ErrInvalidTable)
	case t.DrawCost <= 0:
		return fmt.Errorf("%w: draw cost must be > 0, got %d", ErrInvalidTable, t.DrawCost)
	case t.Abyss.GroupSize <= 0:
		return fmt.Errorf("%w: abyss group size must be > 0, got %d", ErrInvalidTable, t.Abyss.GroupSize)
	case t.BonusMode != BonusPerRotation && t.BonusMode != BonusFlat:
		return fmt.Errorf("%w: unknown bonus mode %q", ErrInvalidTable, t.BonusMode)
	}
	for name, v := range map[string]int64{
		"daily rate":        t.DailyRate,
		"blessing rate":     t.BlessingRate,
		"abyss per unit":    t.Abyss.PerUnit,
		"abyss group bonus": t.Abyss.GroupBonus,
		"theater per unit":  t.Theater.PerUnit,
		"shop per reset":    t.Shop.PerReset,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must be >= 0, got %d", ErrInvalidTable, name, v)
		}
	}
	for stages, bonus := range t.Theater.Bonuses {
		if stages < 0 || bonus < 0 {
			return fmt.Errorf("%w: theater bonus %d->%d", ErrInvalidTable, stages, bonus)
		}
	}
	return nil
}

// =============================================================================
// INPUTS / RESULT
// =============================================================================

// Inputs are the four user choices plus the start date.
type Inputs struct {
	Days            int
	Start           calendar.Date
	Blessing        bool
	MidMonthUnits   int // abyss chambers 3-starred per rotation
	MonthStartUnits int // theater stages cleared per rotation
}

// Validate rejects inputs outside the engine's domain. Nothing is clamped.
func (in Inputs) Validate() error {
	switch {
	case in.Days < 0:
		return &InvalidInputError{Field: "days", Value: in.Days, Reason: "must be >= 0"}
	case in.MidMonthUnits < 0:
		return &InvalidInputError{Field: "mid_month_units", Value: in.MidMonthUnits, Reason: "must be >= 0"}
	case in.MonthStartUnits < 0:
		return &InvalidInputError{Field: "month_start_units", Value: in.MonthStartUnits, Reason: "must be >= 0"}
	case in.Start.IsZero():
		return &InvalidInputError{Field: "start", Reason: "is required"}
	}
	return nil
}

// LineItem is one row of the breakdown.
type LineItem struct {
	Category Category
	Label    string
	Amount   int64
}

// Rotations records how many resets each source saw.
type Rotations struct {
	Abyss   int
	Theater int
	Shop    int
}

// ByCategory returns the counts keyed by category name.
func (r Rotations) ByCategory() map[string]int {
	return map[string]int{
		string(CategoryAbyss):   r.Abyss,
		string(CategoryTheater): r.Theater,
		string(CategoryShop):    r.Shop,
	}
}

// Result is a complete estimate.
type Result struct {
	Period          calendar.Period
	Inputs          Inputs
	Rotations       Rotations
	Breakdown       []LineItem
	Total           int64
	EquivalentDraws int64
	Leftover        int64
	BonusMode       BonusMode
}

// Amount returns the breakdown amount for c (0 if absent).
func (r *Result) Amount(c Category) int64 {
	for _, li := range r.Breakdown {
		if li.Category == c {
			return li.Amount
		}
	}
	return 0
}
