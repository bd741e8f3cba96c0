/*
Package factory provides JSON to Go reward table conversion.

PURPOSE:
  Converts JSON reward table definitions into estimate.RewardTable values so
  reward constants can change with the game without a rebuild. The server
  loads one from REWARD_TABLE_PATH at startup and serves the active table on
  GET /api/reward-table.

JSON SCHEMA:
  {
    "daily_rate": 60,
    "blessing_rate": 90,
    "abyss": {
      "schedule": "mid_month",
      "per_unit": 50,
      "group_size": 3,
      "group_bonus": 50
    },
    "theater": {
      "schedule": "month_start",
      "per_unit": 60,
      "bonuses": {"3": 40, "6": 80, "8": 140, "10": 200}
    },
    "shop": {"schedule": "month_start", "per_reset": 5},
    "draw_cost": 160,
    "bonus_mode": "per_rotation"
  }

  Amounts are decimals on the wire (numbers or quoted strings) and must be
  whole and fit in int64. Omitted fields take the default table's value.
  Schedules are registry IDs; "mid_month_<day>" builds a MidMonth on any day
  1..28.

USAGE:
  f := factory.NewTableFactory()
  table, err := f.ParseRewardTable(data)
  est, err := estimate.NewEstimator(table)

SEE ALSO:
  - estimate/types.go: RewardTable definition
  - rotation/registry.go: schedule IDs
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/warp/primo-estimator/estimate"
	"github.com/warp/primo-estimator/rotation"
)

// ErrInvalidAmount is returned for amounts that are fractional or out of range.
var ErrInvalidAmount = errors.New("invalid reward amount")

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RewardTableJSON is the JSON representation of a reward table.
type RewardTableJSON struct {
	DailyRate    *decimal.Decimal `json:"daily_rate,omitempty"`
	BlessingRate *decimal.Decimal `json:"blessing_rate,omitempty"`
	Abyss        *AbyssJSON       `json:"abyss,omitempty"`
	Theater      *TheaterJSON     `json:"theater,omitempty"`
	Shop         *ShopJSON        `json:"shop,omitempty"`
	DrawCost     *decimal.Decimal `json:"draw_cost,omitempty"`
	BonusMode    string           `json:"bonus_mode,omitempty"` // per_rotation, flat
}

// AbyssJSON represents the mid-month rotation rewards.
type AbyssJSON struct {
	Schedule   string           `json:"schedule,omitempty"`
	PerUnit    *decimal.Decimal `json:"per_unit,omitempty"`
	GroupSize  int              `json:"group_size,omitempty"`
	GroupBonus *decimal.Decimal `json:"group_bonus,omitempty"`
}

// TheaterJSON represents the month-start stage rewards.
type TheaterJSON struct {
	Schedule string                  `json:"schedule,omitempty"`
	PerUnit  *decimal.Decimal        `json:"per_unit,omitempty"`
	Bonuses  map[int]decimal.Decimal `json:"bonuses,omitempty"` // stage count -> bonus
}

// ShopJSON represents the month-start shop refresh.
type ShopJSON struct {
	Schedule string           `json:"schedule,omitempty"`
	PerReset *decimal.Decimal `json:"per_reset,omitempty"`
}

// =============================================================================
// TABLE FACTORY
// =============================================================================

// TableFactory converts JSON reward tables to estimate.RewardTable.
type TableFactory struct{}

// NewTableFactory creates a new table factory.
func NewTableFactory() *TableFactory {
	return &TableFactory{}
}

// ParseRewardTable parses JSON into a validated RewardTable.
func (f *TableFactory) ParseRewardTable(data []byte) (estimate.RewardTable, error) {
	var tj RewardTableJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return estimate.RewardTable{}, fmt.Errorf("failed to parse reward table JSON: %w", err)
	}
	return f.FromJSON(tj)
}

// LoadRewardTable reads and parses the reward table file at path.
func (f *TableFactory) LoadRewardTable(path string) (estimate.RewardTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return estimate.RewardTable{}, fmt.Errorf("read reward table %s: %w", path, err)
	}
	return f.ParseRewardTable(data)
}

// FromJSON overlays tj on the default table and validates the result.
func (f *TableFactory) FromJSON(tj RewardTableJSON) (estimate.RewardTable, error) {
	t := estimate.DefaultRewardTable()

	if err := setAmount(&t.DailyRate, "daily_rate", tj.DailyRate); err != nil {
		return estimate.RewardTable{}, err
	}
	if err := setAmount(&t.BlessingRate, "blessing_rate", tj.BlessingRate); err != nil {
		return estimate.RewardTable{}, err
	}
	if err := setAmount(&t.DrawCost, "draw_cost", tj.DrawCost); err != nil {
		return estimate.RewardTable{}, err
	}
	if tj.BonusMode != "" {
		t.BonusMode = estimate.BonusMode(tj.BonusMode)
	}

	if a := tj.Abyss; a != nil {
		if err := setSchedule(&t.Abyss.Schedule, a.Schedule); err != nil {
			return estimate.RewardTable{}, err
		}
		if err := setAmount(&t.Abyss.PerUnit, "abyss.per_unit", a.PerUnit); err != nil {
			return estimate.RewardTable{}, err
		}
		if err := setAmount(&t.Abyss.GroupBonus, "abyss.group_bonus", a.GroupBonus); err != nil {
			return estimate.RewardTable{}, err
		}
		if a.GroupSize != 0 {
			t.Abyss.GroupSize = a.GroupSize
		}
	}

	if th := tj.Theater; th != nil {
		if err := setSchedule(&t.Theater.Schedule, th.Schedule); err != nil {
			return estimate.RewardTable{}, err
		}
		if err := setAmount(&t.Theater.PerUnit, "theater.per_unit", th.PerUnit); err != nil {
			return estimate.RewardTable{}, err
		}
		if th.Bonuses != nil {
			bonuses := make(map[int]int64, len(th.Bonuses))
			for stages, d := range th.Bonuses {
				v, err := toAmount(fmt.Sprintf("theater.bonuses[%d]", stages), d)
				if err != nil {
					return estimate.RewardTable{}, err
				}
				bonuses[stages] = v
			}
			t.Theater.Bonuses = bonuses
		}
	}

	if s := tj.Shop; s != nil {
		if err := setSchedule(&t.Shop.Schedule, s.Schedule); err != nil {
			return estimate.RewardTable{}, err
		}
		if err := setAmount(&t.Shop.PerReset, "shop.per_reset", s.PerReset); err != nil {
			return estimate.RewardTable{}, err
		}
	}

	if err := t.Validate(); err != nil {
		return estimate.RewardTable{}, err
	}
	return t, nil
}

// ToJSON converts a RewardTable to RewardTableJSON.
func (f *TableFactory) ToJSON(t estimate.RewardTable) RewardTableJSON {
	amount := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}
	return RewardTableJSON{
		DailyRate:    amount(t.DailyRate),
		BlessingRate: amount(t.BlessingRate),
		Abyss: &AbyssJSON{
			Schedule:   scheduleID(t.Abyss.Schedule),
			PerUnit:    amount(t.Abyss.PerUnit),
			GroupSize:  t.Abyss.GroupSize,
			GroupBonus: amount(t.Abyss.GroupBonus),
		},
		Theater: &TheaterJSON{
			Schedule: scheduleID(t.Theater.Schedule),
			PerUnit:  amount(t.Theater.PerUnit),
			Bonuses: lo.MapValues(t.Theater.Bonuses, func(v int64, _ int) decimal.Decimal {
				return decimal.NewFromInt(v)
			}),
		},
		Shop: &ShopJSON{
			Schedule: scheduleID(t.Shop.Schedule),
			PerReset: amount(t.Shop.PerReset),
		},
		DrawCost:  amount(t.DrawCost),
		BonusMode: string(t.BonusMode),
	}
}

// DefaultRewardTableJSON returns the default table as indented JSON.
func DefaultRewardTableJSON() string {
	b, _ := json.MarshalIndent(NewTableFactory().ToJSON(estimate.DefaultRewardTable()), "", "  ")
	return string(b)
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func setAmount(dst *int64, field string, d *decimal.Decimal) error {
	if d == nil {
		return nil
	}
	v, err := toAmount(field, *d)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func toAmount(field string, d decimal.Decimal) (int64, error) {
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: %s = %s is not a whole number", ErrInvalidAmount, field, d)
	}
	if d.LessThan(decimal.NewFromInt(math.MinInt64)) || d.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, fmt.Errorf("%w: %s = %s does not fit in int64", ErrInvalidAmount, field, d)
	}
	return d.IntPart(), nil
}

func setSchedule(dst *rotation.Schedule, id string) error {
	if id == "" {
		return nil
	}
	s, err := ParseSchedule(id)
	if err != nil {
		return err
	}
	*dst = s
	return nil
}

// ParseSchedule resolves a schedule ID. Registered IDs win; otherwise
// "mid_month_<day>" builds a MidMonth for that day.
func ParseSchedule(id string) (rotation.Schedule, error) {
	s, err := rotation.Lookup(id)
	if err == nil {
		return s, nil
	}
	rest, ok := strings.CutPrefix(id, rotation.IDMidMonth+"_")
	if !ok {
		return nil, err
	}
	day, convErr := strconv.Atoi(rest)
	if convErr != nil {
		return nil, err
	}
	return rotation.NewMidMonth(day)
}

func scheduleID(s rotation.Schedule) string {
	if s == nil {
		return ""
	}
	return s.ID()
}
