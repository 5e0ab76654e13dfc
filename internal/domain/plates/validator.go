package plates

import (
	"math"

	"github.com/oshokin/meet-desk/internal/domain/meet"
)

const (
	// Epsilon absorbs floating-point drift in per-side arithmetic.
	Epsilon = 1e-6
	// LoadTolerance is how far a requested weight may be from a loadable one.
	LoadTolerance = 0.01
)

// Reason explains why a weight was rejected.
type Reason string

const (
	// ReasonNone means the weight is loadable.
	ReasonNone Reason = ""
	// ReasonBelowBar means the weight is lighter than the empty bar or not a weight at all.
	ReasonBelowBar Reason = "below_bar"
	// ReasonUnloadable means no symmetric combination of plates reaches the weight.
	ReasonUnloadable Reason = "unloadable"
)

// LoadCheck is the verdict for one requested weight.
type LoadCheck struct {
	// Loadable is true when the weight can be built exactly.
	Loadable bool
	// Normalized is the nearest weight the greedy loading reaches, to 0.01 kg.
	Normalized float64
	// Increment is the smallest step between two loadable weights.
	Increment float64
	// BarWeight is the bar used for the lifter's gender.
	BarWeight float64
	// Reason is ReasonNone when Loadable.
	Reason Reason
}

// Validator evaluates weights against a fixed Config.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	// cfg is the platform equipment.
	cfg Config
	// increment is derived from cfg once.
	increment float64
}

// NewValidator creates a validator over a copy of cfg.
func NewValidator(cfg Config) *Validator {
	owned := cfg.Clone()

	return &Validator{
		cfg:       owned,
		increment: owned.Increment(),
	}
}

// Config returns a copy of the equipment the validator works with.
func (v *Validator) Config() Config {
	return v.cfg.Clone()
}

// Evaluate reports whether weight can be loaded on the bar used by gender.
func (v *Validator) Evaluate(weight float64, gender meet.Gender) LoadCheck {
	barWeight := v.cfg.BarWeight(gender)

	if !meet.IsFinite(weight) || weight <= 0 || weight < barWeight-LoadTolerance {
		return LoadCheck{
			Loadable:   false,
			Normalized: barWeight,
			Increment:  v.increment,
			BarWeight:  barWeight,
			Reason:     ReasonBelowBar,
		}
	}

	perSide := math.Max(0, weight-barWeight) / 2 //nolint:mnd // Two sleeves.
	side := loadSide(v.cfg.Plates, perSide)
	total := barWeight + side.loaded(perSide)*2 //nolint:mnd // Two sleeves.

	loadable := side.exact() && math.Abs(total-weight) <= LoadTolerance

	check := LoadCheck{
		Loadable:   loadable,
		Normalized: round2(total),
		Increment:  v.increment,
		BarWeight:  barWeight,
		Reason:     ReasonNone,
	}

	if !loadable {
		check.Reason = ReasonUnloadable
	}

	return check
}

// Normalize returns the weight actually reachable for the request.
func (v *Validator) Normalize(weight float64, gender meet.Gender) float64 {
	return round2(v.Evaluate(weight, gender).Normalized)
}

// IsLoadable reports whether weight can be built exactly.
func (v *Validator) IsLoadable(weight float64, gender meet.Gender) bool {
	return v.Evaluate(weight, gender).Loadable
}

// sideLoad is the result of greedily filling one sleeve.
type sideLoad struct {
	// remaining is the per-side mass left uncovered.
	remaining float64
	// plates lists the pairs used, in consumption order.
	plates []PlateCount
}

// PlateCount is a number of pairs of one plate size.
type PlateCount struct {
	Weight float64
	Pairs  int
}

func (s *sideLoad) exact() bool {
	return s.remaining <= Epsilon
}

func (s *sideLoad) loaded(required float64) float64 {
	return math.Max(0, required-s.remaining)
}

// loadSide consumes plates in list order, as many pairs of each as fit.
func loadSide(plates []Plate, perSide float64) sideLoad {
	side := sideLoad{remaining: perSide}

	for _, plate := range plates {
		if side.remaining <= Epsilon {
			break
		}

		if plate.Weight <= 0 || plate.Pairs <= 0 {
			continue
		}

		if plate.Weight-side.remaining > Epsilon {
			continue
		}

		pairs := min(int(math.Floor(side.remaining/plate.Weight)), plate.Pairs)
		if pairs <= 0 {
			continue
		}

		side.remaining -= float64(pairs) * plate.Weight
		side.plates = append(side.plates, PlateCount{Weight: plate.Weight, Pairs: pairs})
	}

	return side
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100 //nolint:mnd // Two decimal places.
}
