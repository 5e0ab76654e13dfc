package plates

import (
	"cmp"
	"math"
	"slices"

	"github.com/oshokin/meet-desk/internal/domain/meet"
)

// PlanEntry is one plate size on each sleeve of the bar.
type PlanEntry struct {
	// PlateWeight is the weight of one plate.
	PlateWeight float64
	// Count is the number of plates of this size per sleeve.
	Count int
	// Color is the calibrated plate color as a hex string.
	Color string
}

// Plan is the loading sheet for one attempt.
type Plan struct {
	Plates              []PlanEntry
	Exact               bool
	Total               float64
	Increment           float64
	TargetWeight        float64
	BarWeight           float64
	WeightToLoad        float64
	ClampWeight         float64
	ClampWeightPerClamp float64
}

// Plan builds the loading sheet for target on the bar used by gender.
// Plates go on heaviest first and the two clamps count towards the total.
// A non-positive clampWeight selects DefaultClampWeight.
func (v *Validator) Plan(target float64, gender meet.Gender, clampWeight float64) Plan {
	if clampWeight <= 0 || !meet.IsFinite(clampWeight) {
		clampWeight = DefaultClampWeight
	}

	if !meet.IsFinite(target) {
		target = 0
	}

	var (
		barWeight  = v.cfg.BarWeight(gender)
		clampTotal = clampWeight * 2 //nolint:mnd // One clamp per sleeve.
		base       = barWeight + clampTotal
		toLoad     = math.Max(0, target-base)
	)

	plan := Plan{
		Exact:               toLoad <= Epsilon,
		Total:               base,
		Increment:           v.increment,
		TargetWeight:        target,
		BarWeight:           barWeight,
		WeightToLoad:        toLoad,
		ClampWeight:         clampTotal,
		ClampWeightPerClamp: clampWeight,
	}

	available := make([]Plate, 0, len(v.cfg.Plates))
	for _, plate := range v.cfg.Plates {
		if plate.Pairs > 0 && plate.Weight > 0 {
			available = append(available, plate)
		}
	}

	if plan.Exact || len(available) == 0 {
		return plan
	}

	slices.SortStableFunc(available, func(a, b Plate) int {
		return cmp.Compare(b.Weight, a.Weight)
	})

	perSide := toLoad / 2 //nolint:mnd // Two sleeves.
	side := loadSide(available, perSide)

	plan.Plates = make([]PlanEntry, 0, len(side.plates))
	for _, used := range side.plates {
		plan.Plates = append(plan.Plates, PlanEntry{
			PlateWeight: used.Weight,
			Count:       used.Pairs,
			Color:       PlateColor(used.Weight),
		})
	}

	plan.Exact = side.exact()
	plan.Total = base + side.loaded(perSide)*2 //nolint:mnd // Two sleeves.

	return plan
}

// PlateColor returns the calibrated color of a plate size.
func PlateColor(weight float64) string {
	switch weight {
	case 25, 2.5:
		return "#DC2626"
	case 20, 2:
		return "#2563EB"
	case 15, 1.5:
		return "#EAB308"
	case 10, 1.25, 1:
		return "#16A34A"
	case 5:
		return "#F8FAFC"
	case 0.5:
		return "#6B7280"
	default:
		return "#374151"
	}
}
