package desk

import (
	"errors"
	"fmt"

	"github.com/oshokin/meet-desk/internal/domain/plates"
)

var (
	// ErrUnknownAttempt is returned when an attempt ID does not exist.
	ErrUnknownAttempt = errors.New("unknown attempt")
	// ErrUnknownContest is returned when a contest ID does not exist.
	ErrUnknownContest = errors.New("unknown contest")
	// ErrAttemptNotPending is returned when changing the weight of a judged attempt.
	ErrAttemptNotPending = errors.New("attempt is already judged")
	// ErrWeightRejected is the sentinel behind *WeightRejectedError.
	ErrWeightRejected = errors.New("weight rejected")
	// ErrInvalidStatus is returned for unknown judging outcomes.
	ErrInvalidStatus = errors.New("invalid attempt status")
	// ErrWrongContest is returned when an attempt belongs to another contest.
	ErrWrongContest = errors.New("attempt belongs to another contest")
)

// WeightRejectedError explains why a declared weight cannot be loaded.
type WeightRejectedError struct {
	// Weight is what was declared.
	Weight float64
	// Check carries the normalized suggestion and the reason.
	Check plates.LoadCheck
}

// Error implements error.
func (e *WeightRejectedError) Error() string {
	return fmt.Sprintf("weight %.2f kg rejected (%s), nearest loadable is %.2f kg",
		e.Weight, e.Check.Reason, e.Check.Normalized)
}

// Unwrap lets errors.Is match ErrWeightRejected.
func (e *WeightRejectedError) Unwrap() error {
	return ErrWeightRejected
}
