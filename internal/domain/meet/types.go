package meet

import (
	"math"
	"strings"
	"time"
)

// LiftType is one of the three powerlifting disciplines.
type LiftType string

const (
	// LiftSquat is contested first.
	LiftSquat LiftType = "Squat"
	// LiftBench is contested second.
	LiftBench LiftType = "Bench"
	// LiftDeadlift is contested last.
	LiftDeadlift LiftType = "Deadlift"
)

// LiftTypes lists the disciplines in contest order.
func LiftTypes() []LiftType {
	return []LiftType{LiftSquat, LiftBench, LiftDeadlift}
}

// Precedence returns the position of the lift in contest order.
// Unknown lifts sort after every known one.
func (l LiftType) Precedence() int {
	switch l {
	case LiftSquat:
		return 0
	case LiftBench:
		return 1
	case LiftDeadlift:
		return 2 //nolint:mnd // Third discipline.
	default:
		return math.MaxInt
	}
}

// Valid reports whether l is a known discipline.
func (l LiftType) Valid() bool {
	return l.Precedence() != math.MaxInt
}

// ParseLiftType converts user input ("squat", "BENCH") to a LiftType.
func ParseLiftType(s string) (LiftType, bool) {
	for _, lift := range LiftTypes() {
		if strings.EqualFold(strings.TrimSpace(s), string(lift)) {
			return lift, true
		}
	}

	return "", false
}

// AttemptNumber is the attempt index within a lift, 1 to 3.
type AttemptNumber int

// MaxAttemptNumber is the number of attempts each lifter gets per lift.
const MaxAttemptNumber AttemptNumber = 3

// Valid reports whether n is within 1..MaxAttemptNumber.
func (n AttemptNumber) Valid() bool {
	return n >= 1 && n <= MaxAttemptNumber
}

// AttemptStatus is the judging outcome of an attempt.
type AttemptStatus string

const (
	// StatusPending means the attempt has not been judged yet.
	StatusPending AttemptStatus = "Pending"
	// StatusSuccessful means a good lift.
	StatusSuccessful AttemptStatus = "Successful"
	// StatusFailed means a no-lift.
	StatusFailed AttemptStatus = "Failed"
)

// ParseAttemptStatus converts user input to an AttemptStatus.
func ParseAttemptStatus(s string) (AttemptStatus, bool) {
	for _, status := range []AttemptStatus{StatusPending, StatusSuccessful, StatusFailed} {
		if strings.EqualFold(strings.TrimSpace(s), string(status)) {
			return status, true
		}
	}

	return "", false
}

// Gender selects the bar a lifter uses.
type Gender string

const (
	// GenderMale is the primary gender; its bar is the fallback.
	GenderMale Gender = "Male"
	// GenderFemale lifts on the lighter bar.
	GenderFemale Gender = "Female"
)

// PrimaryGender is used whenever a gender is missing or unknown.
const PrimaryGender = GenderMale

// ParseGender converts user input ("female", "F") to a Gender.
// Unknown values map to PrimaryGender and report false.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale, true
	case "female", "f":
		return GenderFemale, true
	default:
		return PrimaryGender, false
	}
}

// Attempt is one requested lift of one registration.
type Attempt struct {
	// ID identifies the attempt.
	ID string
	// RegistrationID references the owning registration.
	RegistrationID string
	// LiftType is the discipline of the attempt.
	LiftType LiftType
	// AttemptNumber is the index within the lift.
	AttemptNumber AttemptNumber
	// Weight is the requested weight in kilograms. Zero means not declared yet.
	Weight float64
	// Status is set by judging actions; the core only reads it.
	Status AttemptStatus
	// CompetitorName is an optional denormalized display name.
	CompetitorName string
	// CompetitionOrder is an optional denormalized lot number.
	CompetitionOrder *int
	// UpdatedAt is when the attempt last changed.
	UpdatedAt time.Time
}

// HasWeight reports whether the attempt carries a finite, positive weight.
func (a *Attempt) HasWeight() bool {
	return IsFinite(a.Weight) && a.Weight > 0
}

// Phase returns the (lift, attempt number) pair of the attempt.
func (a *Attempt) Phase() Phase {
	return Phase{
		LiftType:      a.LiftType,
		AttemptNumber: a.AttemptNumber,
	}
}

// Registration enters a competitor into a contest.
type Registration struct {
	// ID identifies the registration.
	ID string
	// ContestID references the contest.
	ContestID string
	// CompetitorID references the competitor.
	CompetitorID string
	// FirstName of the competitor.
	FirstName string
	// LastName of the competitor.
	LastName string
	// Gender selects the bar weight.
	Gender Gender
	// CompetitionOrder is the lot number, unique within a contest.
	CompetitionOrder *int
}

// Competitor is a person who can be registered into contests.
type Competitor struct {
	ID               string
	FirstName        string
	LastName         string
	Gender           Gender
	CompetitionOrder *int
}

// Contest is a single meet.
type Contest struct {
	ID   string
	Name string
}

// Phase is the (lift, attempt number) pair the whole room is lifting through.
type Phase struct {
	LiftType      LiftType
	AttemptNumber AttemptNumber
}

// DefaultPhase is used when nothing else tells which phase is active.
//
//nolint:gochecknoglobals // Immutable value.
var DefaultPhase = Phase{
	LiftType:      LiftSquat,
	AttemptNumber: 1,
}

// Before reports whether p is contested earlier than other.
func (p Phase) Before(other Phase) bool {
	if p.LiftType.Precedence() != other.LiftType.Precedence() {
		return p.LiftType.Precedence() < other.LiftType.Precedence()
	}

	return p.AttemptNumber < other.AttemptNumber
}

// CurrentAttempt is the flattened view of the attempt on the platform.
// It is the only representation live displays ever see.
type CurrentAttempt struct {
	ID               string
	RegistrationID   string
	CompetitorName   string
	LiftType         LiftType
	AttemptNumber    AttemptNumber
	Weight           float64
	Status           AttemptStatus
	CompetitionOrder *int
	UpdatedAt        *time.Time
}

// Phase returns the (lift, attempt number) pair of the current attempt.
func (c *CurrentAttempt) Phase() Phase {
	return Phase{
		LiftType:      c.LiftType,
		AttemptNumber: c.AttemptNumber,
	}
}

// Bundle joins an attempt with its competitor and registration.
type Bundle struct {
	Attempt      Attempt
	Competitor   Competitor
	Registration Registration
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
