package plates

import (
	"errors"
	"fmt"

	"github.com/oshokin/meet-desk/internal/domain/meet"
)

// Plate is one plate size and the number of pairs available.
type Plate struct {
	// Weight of a single plate in kilograms.
	Weight float64 `yaml:"weight"`
	// Pairs is how many pairs of this plate the platform has.
	Pairs int `yaml:"pairs"`
}

// Config is the fixed equipment of a platform.
type Config struct {
	// Plates are consumed in the given order, not necessarily heaviest first.
	Plates []Plate
	// BarWeights maps a gender to its standard bar weight.
	BarWeights map[meet.Gender]float64
}

const (
	// DefaultMaleBarWeight is the standard men's bar.
	DefaultMaleBarWeight = 20.0
	// DefaultFemaleBarWeight is the standard women's bar.
	DefaultFemaleBarWeight = 15.0
	// DefaultClampWeight is the weight of one collar.
	DefaultClampWeight = 2.5
	// FallbackIncrement is used when no plate is available.
	FallbackIncrement = 2.5
)

var (
	errNoBarWeight     = errors.New("bar weight for the primary gender must be positive")
	errNegativeBar     = errors.New("bar weight must not be negative")
	errNegativePlate   = errors.New("plate weight must be positive")
	errNegativeCount   = errors.New("plate pairs must not be negative")
	errDuplicatedPlate = errors.New("plate weight listed twice")
)

// DefaultPlates returns the standard calibrated plate set.
func DefaultPlates() []Plate {
	return []Plate{
		{Weight: 25, Pairs: 4},
		{Weight: 20, Pairs: 4},
		{Weight: 15, Pairs: 4},
		{Weight: 10, Pairs: 6},
		{Weight: 5, Pairs: 6},
		{Weight: 2.5, Pairs: 6},
		{Weight: 1.25, Pairs: 4},
		{Weight: 0.5, Pairs: 4},
	}
}

// DefaultConfig returns the standard plate set with 20/15 kg bars.
func DefaultConfig() Config {
	return Config{
		Plates: DefaultPlates(),
		BarWeights: map[meet.Gender]float64{
			meet.GenderMale:   DefaultMaleBarWeight,
			meet.GenderFemale: DefaultFemaleBarWeight,
		},
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() Config {
	cloned := Config{
		Plates:     append([]Plate(nil), c.Plates...),
		BarWeights: make(map[meet.Gender]float64, len(c.BarWeights)),
	}

	for gender, weight := range c.BarWeights {
		cloned.BarWeights[gender] = weight
	}

	return cloned
}

// Validate checks the equipment description for impossible values.
func (c *Config) Validate() error {
	if c.BarWeights[meet.PrimaryGender] <= 0 {
		return errNoBarWeight
	}

	for gender, weight := range c.BarWeights {
		if weight < 0 || !meet.IsFinite(weight) {
			return fmt.Errorf("%s: %w", gender, errNegativeBar)
		}
	}

	seen := make(map[float64]struct{}, len(c.Plates))

	for _, plate := range c.Plates {
		if plate.Weight <= 0 || !meet.IsFinite(plate.Weight) {
			return fmt.Errorf("plate %v: %w", plate.Weight, errNegativePlate)
		}

		if plate.Pairs < 0 {
			return fmt.Errorf("plate %v: %w", plate.Weight, errNegativeCount)
		}

		if _, ok := seen[plate.Weight]; ok {
			return fmt.Errorf("plate %v: %w", plate.Weight, errDuplicatedPlate)
		}

		seen[plate.Weight] = struct{}{}
	}

	return nil
}

// Increment is twice the smallest plate that has at least one pair.
func (c *Config) Increment() float64 {
	var smallest float64

	for _, plate := range c.Plates {
		if plate.Pairs <= 0 || plate.Weight <= 0 {
			continue
		}

		if smallest == 0 || plate.Weight < smallest {
			smallest = plate.Weight
		}
	}

	if smallest <= 0 {
		return FallbackIncrement
	}

	return smallest * 2 //nolint:mnd // Plates are loaded in pairs.
}

// BarWeight returns the bar for gender, falling back to the primary gender's bar.
func (c *Config) BarWeight(gender meet.Gender) float64 {
	if weight, ok := c.BarWeights[gender]; ok {
		return weight
	}

	return c.BarWeights[meet.PrimaryGender]
}
