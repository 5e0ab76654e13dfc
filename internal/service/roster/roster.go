package roster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/meet-desk/internal/domain/meet"
	"github.com/oshokin/meet-desk/internal/domain/plates"
	"github.com/oshokin/meet-desk/internal/logger"
	"github.com/oshokin/meet-desk/internal/repository/contest"
)

// File is the YAML roster layout.
type File struct {
	Contest     ContestEntry      `yaml:"contest"`
	Competitors []CompetitorEntry `yaml:"competitors"`
}

// ContestEntry names the contest; an empty ID gets a generated one.
type ContestEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// CompetitorEntry is one lifter with optional lot number and openers.
type CompetitorEntry struct {
	FirstName string  `yaml:"first_name"`
	LastName  string  `yaml:"last_name"`
	Gender    string  `yaml:"gender"`
	Lot       *int    `yaml:"lot"`
	Openers   Openers `yaml:"openers"`
}

// Openers are the declared first attempts in kilograms; zero means not declared.
type Openers struct {
	Squat    float64 `yaml:"squat"`
	Bench    float64 `yaml:"bench"`
	Deadlift float64 `yaml:"deadlift"`
}

// Issue is an opener that could not be loaded and was left undeclared.
type Issue struct {
	Competitor string
	LiftType   meet.LiftType
	Weight     float64
	Check      plates.LoadCheck
}

// Report summarises an import.
type Report struct {
	ContestID   string
	Competitors int
	Attempts    int
	Issues      []Issue
}

var (
	// ErrInvalidRoster is returned for rosters that cannot be imported.
	ErrInvalidRoster = errors.New("invalid roster")

	errNoCompetitors = errors.New("roster has no competitors")
)

// IDGenerator returns new unique identifiers.
type IDGenerator func() string

// Importer turns roster files into stored contests.
type Importer struct {
	repo      contest.Repository
	validator *plates.Validator
	newID     IDGenerator
}

// NewImporter creates an Importer; a nil generator uses random UUIDs.
func NewImporter(repo contest.Repository, validator *plates.Validator, newID IDGenerator) *Importer {
	if newID == nil {
		newID = uuid.NewString
	}

	return &Importer{
		repo:      repo,
		validator: validator,
		newID:     newID,
	}
}

// ImportFile reads and imports the roster at path.
func (i *Importer) ImportFile(ctx context.Context, path string) (*Report, error) {
	f, err := os.Open(path) //nolint:gosec // Path is provided by the operator.
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	return i.Import(ctx, f)
}

// Import decodes a YAML roster from r and stores it in one transaction.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*Report, error) {
	var file File

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode roster: %w: %w", ErrInvalidRoster, err)
	}

	roster, report, err := i.Build(ctx, &file)
	if err != nil {
		return nil, err
	}

	if err = i.repo.ImportContest(ctx, roster); err != nil {
		return nil, fmt.Errorf("store roster: %w", err)
	}

	logger.InfoKV(ctx, "Roster imported",
		"contest_id", report.ContestID,
		"competitors", report.Competitors,
		"attempts", report.Attempts,
		"issues", len(report.Issues),
	)

	return report, nil
}

// Build converts a decoded roster into storage records without persisting them.
func (i *Importer) Build(ctx context.Context, file *File) (*contest.Roster, *Report, error) {
	if len(file.Competitors) == 0 {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidRoster, errNoCompetitors)
	}

	contestID := strings.TrimSpace(file.Contest.ID)
	if contestID == "" {
		contestID = i.newID()
	}

	roster := &contest.Roster{
		Contest: meet.Contest{
			ID:   contestID,
			Name: strings.TrimSpace(file.Contest.Name),
		},
	}

	report := &Report{ContestID: contestID}
	lots := make(map[int]string, len(file.Competitors))

	for idx, entry := range file.Competitors {
		first := strings.TrimSpace(entry.FirstName)
		last := strings.TrimSpace(entry.LastName)

		if first == "" && last == "" {
			return nil, nil, fmt.Errorf("%w: competitor #%d has no name", ErrInvalidRoster, idx+1)
		}

		name := strings.TrimSpace(first + " " + last)

		gender, ok := meet.ParseGender(entry.Gender)
		if !ok && strings.TrimSpace(entry.Gender) != "" {
			logger.WarnKV(ctx, "Unknown gender, using primary bar", "competitor", name, "gender", entry.Gender)
		}

		if entry.Lot != nil {
			if other, taken := lots[*entry.Lot]; taken {
				return nil, nil, fmt.Errorf("%w: lot %d used by %s and %s", ErrInvalidRoster, *entry.Lot, other, name)
			}

			lots[*entry.Lot] = name
		}

		competitor := meet.Competitor{
			ID:        i.newID(),
			FirstName: first,
			LastName:  last,
			Gender:    gender,
		}

		registration := meet.Registration{
			ID:               i.newID(),
			ContestID:        contestID,
			CompetitorID:     competitor.ID,
			FirstName:        first,
			LastName:         last,
			Gender:           gender,
			CompetitionOrder: entry.Lot,
		}

		roster.Competitors = append(roster.Competitors, competitor)
		roster.Registrations = append(roster.Registrations, registration)

		for _, lift := range meet.LiftTypes() {
			opener := i.opener(entry.Openers.For(lift), gender, name, lift, report)

			for number := meet.AttemptNumber(1); number <= meet.MaxAttemptNumber; number++ {
				attempt := meet.Attempt{
					ID:             i.newID(),
					RegistrationID: registration.ID,
					LiftType:       lift,
					AttemptNumber:  number,
					Status:         meet.StatusPending,
				}

				if number == 1 {
					attempt.Weight = opener
				}

				roster.Attempts = append(roster.Attempts, attempt)
			}
		}
	}

	report.Competitors = len(roster.Competitors)
	report.Attempts = len(roster.Attempts)

	return roster, report, nil
}

// opener returns the normalized opener, or zero after recording an issue.
func (i *Importer) opener(weight float64, gender meet.Gender, name string, lift meet.LiftType, report *Report) float64 {
	if weight == 0 {
		return 0
	}

	check := i.validator.Evaluate(weight, gender)
	if !check.Loadable {
		report.Issues = append(report.Issues, Issue{
			Competitor: name,
			LiftType:   lift,
			Weight:     weight,
			Check:      check,
		})

		return 0
	}

	return check.Normalized
}

// For returns the opener of a lift.
func (o Openers) For(lift meet.LiftType) float64 {
	switch lift {
	case meet.LiftSquat:
		return o.Squat
	case meet.LiftBench:
		return o.Bench
	case meet.LiftDeadlift:
		return o.Deadlift
	default:
		return 0
	}
}
