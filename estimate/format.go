package estimate

import (
	"fmt"
	"strings"
)

// FormatBreakdown renders r as the chat-friendly text block:
//
//	- Daily primogems: 1800
//	- Blessing primogems: 0
//	...
//	**Estimated total primogems: 1800**
//	**Estimated total wishes: 11 and 40 primogems**
func FormatBreakdown(r *Result) string {
	var sb strings.Builder
	for _, li := range r.Breakdown {
		fmt.Fprintf(&sb, "- %s: %d\n", li.Label, li.Amount)
	}
	fmt.Fprintf(&sb, "**Estimated total primogems: %d**\n", r.Total)
	fmt.Fprintf(&sb, "**Estimated total wishes: %d and %d primogems**", r.EquivalentDraws, r.Leftover)
	return sb.String()
}

// Summary is a one-line description of the estimation window and choices.
func Summary(r *Result) string {
	blessing := "no blessing"
	if r.Inputs.Blessing {
		blessing = "blessing"
	}
	return fmt.Sprintf("%d days %s, %s, %d abyss chambers, %d theater stages",
		r.Period.Days(), r.Period, blessing, r.Inputs.MidMonthUnits, r.Inputs.MonthStartUnits)
}
