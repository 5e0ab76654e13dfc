package risingbar

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/oshokin/meet-desk/internal/domain/meet"
)

const (
	// DefaultLimit is the queue length shown on the desk.
	DefaultLimit = 12
	// UnknownCompetitor is shown when no name can be resolved.
	UnknownCompetitor = "Unknown competitor"

	// weightEpsilon makes weights this close compare equal.
	weightEpsilon = 1e-6
)

// Options tune a single queue computation.
type Options struct {
	// Current pins the phase to the attempt on the platform.
	Current *meet.CurrentAttempt
	// Registrations resolve lot numbers and names missing on attempts.
	Registrations []meet.Registration
	// Limit caps the queue length. Zero is the unset value and, like any
	// negative limit, selects DefaultLimit; there is no way to ask for an
	// empty queue.
	Limit int
	// Locale drives the name tie-break; the zero tag compares root-locale.
	Locale language.Tag
}

// Result is the active phase and who lifts next within it.
type Result struct {
	Phase    meet.Phase
	Attempts []meet.Attempt
}

// Build computes the rising-bar queue from a snapshot of a contest's attempts.
// The input slice is not modified.
func Build(attempts []meet.Attempt, opts Options) Result {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var (
		pending  = make([]meet.Attempt, 0, len(attempts))
		weighted = make([]meet.Attempt, 0, len(attempts))
	)

	for i := range attempts {
		if attempts[i].Status != meet.StatusPending {
			continue
		}

		pending = append(pending, attempts[i])

		if attempts[i].HasWeight() {
			weighted = append(weighted, attempts[i])
		}
	}

	pool := weighted
	if len(pool) == 0 {
		pool = pending
	}

	phase := resolvePhase(pool, opts.Current)

	queue := make([]meet.Attempt, 0, len(weighted))
	for i := range weighted {
		if weighted[i].Phase() == phase {
			queue = append(queue, weighted[i])
		}
	}

	o := newOrdering(opts.Registrations, opts.Locale)
	slices.SortStableFunc(queue, o.compare)

	if len(queue) > limit {
		queue = queue[:limit]
	}

	return Result{
		Phase:    phase,
		Attempts: queue,
	}
}

// resolvePhase picks the current attempt's phase, else the earliest candidate,
// else the default phase.
func resolvePhase(candidates []meet.Attempt, current *meet.CurrentAttempt) meet.Phase {
	if current != nil {
		return current.Phase()
	}

	if len(candidates) == 0 {
		return meet.DefaultPhase
	}

	best := candidates[0].Phase()

	for i := 1; i < len(candidates); i++ {
		if phase := candidates[i].Phase(); phase.Before(best) {
			best = phase
		}
	}

	return best
}

// ordering is the total order of attempts within one phase.
type ordering struct {
	// registrations indexes the snapshot's registrations by ID.
	registrations map[string]*meet.Registration
	// collator compares names case- and accent-insensitively.
	collator *collate.Collator
}

func newOrdering(registrations []meet.Registration, locale language.Tag) *ordering {
	index := make(map[string]*meet.Registration, len(registrations))
	for i := range registrations {
		index[registrations[i].ID] = &registrations[i]
	}

	return &ordering{
		registrations: index,
		collator:      collate.New(locale, collate.IgnoreCase, collate.IgnoreDiacritics),
	}
}

func (o *ordering) compare(a, b meet.Attempt) int {
	if diff := a.Weight - b.Weight; math.Abs(diff) > weightEpsilon {
		return cmp.Compare(a.Weight, b.Weight)
	}

	if c := cmp.Compare(o.competitionOrder(&a).Value, o.competitionOrder(&b).Value); c != 0 {
		return c
	}

	return o.collator.CompareString(
		strings.ToLower(o.competitorName(&a).Value),
		strings.ToLower(o.competitorName(&b).Value),
	)
}

// competitionOrder resolves the lot number: attempt, then registration, then +Inf.
func (o *ordering) competitionOrder(attempt *meet.Attempt) meet.Resolution[float64] {
	return meet.Resolve(
		math.Inf(1),
		lotOf(attempt.CompetitionOrder),
		func() (float64, bool) {
			registration, ok := o.registrations[attempt.RegistrationID]
			if !ok {
				return 0, false
			}

			return lotOf(registration.CompetitionOrder)()
		},
	)
}

// competitorName resolves the name: attempt, then "first last" from the registration.
func (o *ordering) competitorName(attempt *meet.Attempt) meet.Resolution[string] {
	return meet.Resolve(
		UnknownCompetitor,
		func() (string, bool) {
			return attempt.CompetitorName, attempt.CompetitorName != ""
		},
		func() (string, bool) {
			registration, ok := o.registrations[attempt.RegistrationID]
			if !ok {
				return "", false
			}

			return strings.TrimSpace(registration.FirstName + " " + registration.LastName), true
		},
	)
}

func lotOf(order *int) meet.Source[float64] {
	return func() (float64, bool) {
		if order == nil {
			return 0, false
		}

		return float64(*order), true
	}
}
