package plates

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/meet-desk/internal/domain/meet"
)

// TestEvaluate_StandardSet checks well-known weights on the default equipment.
func TestEvaluate_StandardSet(t *testing.T) {
	t.Parallel()

	v := NewValidator(DefaultConfig())

	cases := []struct {
		name       string
		weight     float64
		gender     meet.Gender
		loadable   bool
		normalized float64
		reason     Reason
	}{
		{name: "loadable men", weight: 142.5, gender: meet.GenderMale, loadable: true, normalized: 142.5},
		{name: "unloadable men", weight: 143, gender: meet.GenderMale, normalized: 142.5, reason: ReasonUnloadable},
		{name: "empty bar", weight: 20, gender: meet.GenderMale, loadable: true, normalized: 20},
		{name: "women bar", weight: 62.5, gender: meet.GenderFemale, loadable: true, normalized: 62.5},
		{name: "smallest step", weight: 21, gender: meet.GenderMale, loadable: true, normalized: 21},
		{name: "below men bar", weight: 10, gender: meet.GenderMale, normalized: 20, reason: ReasonBelowBar},
		{name: "below women bar", weight: 10, gender: meet.GenderFemale, normalized: 15, reason: ReasonBelowBar},
		{name: "unknown gender uses men bar", weight: 17.5, gender: meet.Gender("X"), normalized: 20, reason: ReasonBelowBar},
		{name: "zero", weight: 0, gender: meet.GenderMale, normalized: 20, reason: ReasonBelowBar},
		{name: "negative", weight: -50, gender: meet.GenderMale, normalized: 20, reason: ReasonBelowBar},
		{name: "nan", weight: math.NaN(), gender: meet.GenderMale, normalized: 20, reason: ReasonBelowBar},
		{name: "inf", weight: math.Inf(1), gender: meet.GenderMale, normalized: 20, reason: ReasonBelowBar},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := v.Evaluate(tc.weight, tc.gender)
			require.Equal(t, tc.loadable, got.Loadable)
			require.InDelta(t, tc.normalized, got.Normalized, 1e-9)
			require.Equal(t, tc.reason, got.Reason)
			require.InDelta(t, 1.0, got.Increment, 1e-9)
		})
	}
}

// TestEvaluate_BeyondInventory reports the heaviest reachable load when plates run out.
func TestEvaluate_BeyondInventory(t *testing.T) {
	t.Parallel()

	v := NewValidator(Config{
		Plates:     []Plate{{Weight: 25, Pairs: 1}},
		BarWeights: map[meet.Gender]float64{meet.GenderMale: 20},
	})

	got := v.Evaluate(120, meet.GenderMale)
	require.False(t, got.Loadable)
	require.Equal(t, ReasonUnloadable, got.Reason)
	require.InDelta(t, 70, got.Normalized, 1e-9)
	require.InDelta(t, 50, got.Increment, 1e-9)
}

// TestEvaluate_ListOrderIsRespected shows that plates are consumed in configured order.
func TestEvaluate_ListOrderIsRespected(t *testing.T) {
	t.Parallel()

	v := NewValidator(Config{
		Plates: []Plate{
			{Weight: 10, Pairs: 1},
			{Weight: 20, Pairs: 1},
		},
		BarWeights: map[meet.Gender]float64{meet.GenderMale: 20},
	})

	// 20 per side: the 10 goes on first, then the 20 no longer fits.
	got := v.Evaluate(60, meet.GenderMale)
	require.False(t, got.Loadable)
	require.InDelta(t, 40, got.Normalized, 1e-9)
}

// TestEvaluate_Tolerance pins how requests off the plate grid are judged:
// only exact greedy loads are loadable, anything else reports what was loaded.
func TestEvaluate_Tolerance(t *testing.T) {
	t.Parallel()

	v := NewValidator(DefaultConfig())

	tests := []struct {
		weight     float64
		loadable   bool
		normalized float64
	}{
		{weight: 100, loadable: true, normalized: 100},
		{weight: 100 + 1e-9, loadable: true, normalized: 100},
		{weight: 142.5, loadable: true, normalized: 142.5},
		{weight: 142.5 + 1e-9, loadable: true, normalized: 142.5},
		{weight: 142.505, loadable: false, normalized: 142.5},
		{weight: 142.495, loadable: false, normalized: 142},
		{weight: 100.008, loadable: false, normalized: 100},
		{weight: 100.01, loadable: false, normalized: 100},
		{weight: 99.99, loadable: false, normalized: 99.5},
	}

	for _, tt := range tests {
		got := v.Evaluate(tt.weight, meet.GenderMale)
		require.Equal(t, tt.loadable, got.Loadable, "weight %v", tt.weight)
		require.InDelta(t, tt.normalized, got.Normalized, 1e-9, "weight %v", tt.weight)

		if !tt.loadable {
			require.Equal(t, ReasonUnloadable, got.Reason, "weight %v", tt.weight)
		}
	}
}

// TestEvaluate_NeverOvershoots checks the greedy pass never loads more than requested.
func TestEvaluate_NeverOvershoots(t *testing.T) {
	t.Parallel()

	v := NewValidator(DefaultConfig())

	for cents := 2000; cents <= 40000; cents++ {
		w := float64(cents) / 100
		got := v.Evaluate(w, meet.GenderMale)
		require.LessOrEqual(t, got.Normalized, w+Epsilon, "weight %v", w)
	}
}

// TestEvaluate_BelowBarInvariant checks every weight clearly below the bar.
func TestEvaluate_BelowBarInvariant(t *testing.T) {
	t.Parallel()

	v := NewValidator(DefaultConfig())

	for w := -5.0; w < 20-LoadTolerance; w += 0.37 {
		got := v.Evaluate(w, meet.GenderMale)
		require.Equal(t, LoadCheck{
			Loadable:   false,
			Normalized: 20,
			Increment:  1,
			BarWeight:  20,
			Reason:     ReasonBelowBar,
		}, got)
	}
}

// TestEvaluate_Idempotent ensures identical inputs yield identical verdicts.
func TestEvaluate_Idempotent(t *testing.T) {
	t.Parallel()

	v := NewValidator(DefaultConfig())

	for _, w := range []float64{0, 19, 20, 87.25, 143, 250, 401.5} {
		require.Equal(t, v.Evaluate(w, meet.GenderFemale), v.Evaluate(w, meet.GenderFemale))
	}
}

// TestAccessors checks Normalize and IsLoadable agree with Evaluate.
func TestAccessors(t *testing.T) {
	t.Parallel()

	v := NewValidator(DefaultConfig())

	require.True(t, v.IsLoadable(142.5, meet.GenderMale))
	require.False(t, v.IsLoadable(143, meet.GenderMale))
	require.InDelta(t, 142.5, v.Normalize(143, meet.GenderMale), 1e-9)
	require.InDelta(t, 15, v.Normalize(3, meet.GenderFemale), 1e-9)
}

// TestIncrement covers the smallest-plate rule and the fallback.
func TestIncrement(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.InDelta(t, 1.0, cfg.Increment(), 1e-9)

	cfg.Plates = []Plate{{Weight: 25, Pairs: 2}, {Weight: 0.25, Pairs: 0}, {Weight: 1.25, Pairs: 1}}
	require.InDelta(t, 2.5, cfg.Increment(), 1e-9)

	cfg.Plates = []Plate{{Weight: 5, Pairs: 0}}
	require.InDelta(t, FallbackIncrement, cfg.Increment(), 1e-9)
}

// TestConfigValidate rejects broken equipment descriptions.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.BarWeights = map[meet.Gender]float64{meet.GenderFemale: 15}
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Plates = append(cfg.Plates, Plate{Weight: -1, Pairs: 1})
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Plates = append(cfg.Plates, Plate{Weight: 25, Pairs: 1})
	require.Error(t, cfg.Validate())
}

// TestNewValidator_CopiesConfig ensures later edits to the input do not leak in.
func TestNewValidator_CopiesConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	v := NewValidator(cfg)

	cfg.Plates[0].Pairs = 0
	cfg.BarWeights[meet.GenderMale] = 25

	require.Equal(t, 4, v.Config().Plates[0].Pairs)
	require.True(t, v.IsLoadable(20, meet.GenderMale))
}
