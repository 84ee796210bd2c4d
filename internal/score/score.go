// Package score computes the deterministic desirability score and its
// human-readable breakdown.
package score

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mbetschart/flatwatch/internal/listing"
)

// Inputs are everything the score depends on. No wall clock, no
// randomness: the same inputs always yield the same result.
type Inputs struct {
	Stage          listing.Stage
	TotalChf       *float64
	BudgetChf      float64
	Rooms          *float64
	MinRooms       float64
	TypeText       string
	Area           string
	SubareaBonuses map[string]int
	DriveMinutes   *int
	TransitMinutes *int
}

// Result is the additive integer score plus the ordered reason log
// surfaced to the user.
type Result struct {
	Score          int      `json:"score"`
	ScoreBreakdown []string `json:"scoreBreakdown"`
}

// Compute applies each scoring term in a fixed order, appending one
// reason string per term applied.
func Compute(in Inputs) Result {
	var r Result

	// 1. Market stage bonus.
	switch in.Stage {
	case listing.StageOffMarket:
		r.add(20, "off-market stage: +20")
	case listing.StageEarly:
		r.add(8, "early-market stage: +8")
	}

	// 2. Budget term: flat bonus under budget, a smooth decay above it.
	// No hard cliff at the budget line.
	if in.TotalChf != nil && in.BudgetChf > 0 {
		price := *in.TotalChf
		if price <= in.BudgetChf {
			r.add(45, fmt.Sprintf("CHF %.0f within budget: +45", price))
		} else {
			over := price - in.BudgetChf
			penalty := int(math.Floor(math.Pow(over/50, 1.12)))
			if penalty < 1 {
				penalty = 1
			}
			term := 45 - penalty
			if term < -20 {
				term = -20
			}
			r.add(term, fmt.Sprintf("CHF %.0f over budget by %.0f: %+d", price, over, term))
		}
	} else {
		r.add(0, "price unknown: +0")
	}

	// 3. Room term.
	switch {
	case in.Rooms != nil && *in.Rooms >= in.MinRooms:
		r.add(30, fmt.Sprintf("%.1f rooms meets minimum %.1f: +30", *in.Rooms, in.MinRooms))
	case in.Rooms != nil && *in.Rooms >= 1.5:
		r.add(15, fmt.Sprintf("%.1f rooms below minimum %.1f: +15", *in.Rooms, in.MinRooms))
	default:
		r.add(5, "rooms unknown or very small: +5")
	}

	// 4. Studio penalty.
	if strings.Contains(strings.ToLower(in.TypeText), "studio") {
		r.add(-4, "studio: -4")
	}

	// 5. Sub-area micro-bonuses.
	if bonus, ok := subareaBonus(in.Area, in.SubareaBonuses); ok {
		r.add(bonus, fmt.Sprintf("area %s: %+d", in.Area, bonus))
	}

	// 6. Travel penalty: transit minutes when known, else driving.
	if minutes, mode, ok := travelMinutes(in); ok {
		if minutes <= 30 {
			r.add(0, fmt.Sprintf("%s %d min: +0", mode, minutes))
		} else {
			term := -((minutes - 30) / 5)
			r.add(term, fmt.Sprintf("%s %d min: %+d", mode, minutes, term))
		}
	}

	return r
}

func (r *Result) add(term int, reason string) {
	r.Score += term
	r.ScoreBreakdown = append(r.ScoreBreakdown, reason)
}

func subareaBonus(area string, bonuses map[string]int) (int, bool) {
	if area == "" || len(bonuses) == 0 {
		return 0, false
	}
	area = strings.ToLower(strings.TrimSpace(area))

	// Sorted names keep the result independent of map iteration order
	// when two configured names normalize to the same area.
	names := make([]string, 0, len(bonuses))
	for name := range bonuses {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.ToLower(strings.TrimSpace(name)) == area {
			return bonuses[name], true
		}
	}
	return 0, false
}

func travelMinutes(in Inputs) (int, string, bool) {
	if in.TransitMinutes != nil {
		return *in.TransitMinutes, "transit", true
	}
	if in.DriveMinutes != nil {
		return *in.DriveMinutes, "drive", true
	}
	return 0, "", false
}
