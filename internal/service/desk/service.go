package desk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/oshokin/meet-desk/internal/domain/meet"
	"github.com/oshokin/meet-desk/internal/domain/plates"
	"github.com/oshokin/meet-desk/internal/domain/risingbar"
	"github.com/oshokin/meet-desk/internal/live"
	"github.com/oshokin/meet-desk/internal/logger"
	"github.com/oshokin/meet-desk/internal/repository/contest"
)

// Options wires a Service.
type Options struct {
	// Repository persists contests and attempts.
	Repository contest.Repository
	// Validator checks declared weights.
	Validator *plates.Validator
	// Hub receives the recomputed state; nil disables publishing.
	Hub *live.Hub
	// QueueLimit is the default queue length.
	QueueLimit int
	// ClampWeight is used for loading sheets.
	ClampWeight float64
	// Locale drives the name tie-break.
	Locale language.Tag
	// Now replaces time.Now in tests.
	Now func() time.Time
}

// Service serialises every mutation of one desk.
type Service struct {
	repo        contest.Repository
	validator   *plates.Validator
	hub         *live.Hub
	queueLimit  int
	clampWeight float64
	locale      language.Tag
	now         func() time.Time
	// mu keeps read-modify-publish sequences atomic.
	mu sync.Mutex
}

var (
	errRepositoryRequired = errors.New("repository is required")
	errValidatorRequired  = errors.New("validator is required")
)

// New creates a Service.
func New(opts Options) (*Service, error) {
	if opts.Repository == nil {
		return nil, errRepositoryRequired
	}

	if opts.Validator == nil {
		return nil, errValidatorRequired
	}

	s := &Service{
		repo:        opts.Repository,
		validator:   opts.Validator,
		hub:         opts.Hub,
		queueLimit:  opts.QueueLimit,
		clampWeight: opts.ClampWeight,
		locale:      opts.Locale,
		now:         opts.Now,
	}

	if s.queueLimit <= 0 {
		s.queueLimit = risingbar.DefaultLimit
	}

	if s.clampWeight <= 0 {
		s.clampWeight = plates.DefaultClampWeight
	}

	if s.now == nil {
		s.now = time.Now
	}

	return s, nil
}

// Validator returns the weight validator the desk uses.
func (s *Service) Validator() *plates.Validator {
	return s.validator
}

// EvaluateWeight checks whether weight can be loaded for gender.
func (s *Service) EvaluateWeight(ctx context.Context, weight float64, gender meet.Gender) plates.LoadCheck {
	check := s.validator.Evaluate(weight, gender)

	logger.DebugKV(ctx, "Weight evaluated",
		"weight", weight,
		"gender", gender,
		"loadable", check.Loadable,
		"normalized", check.Normalized,
	)

	return check
}

// PlatePlan returns the loading sheet for weight.
func (s *Service) PlatePlan(_ context.Context, weight float64, gender meet.Gender) plates.Plan {
	return s.validator.Plan(weight, gender, s.clampWeight)
}

// SubmitAttemptWeight declares the weight of a pending attempt.
// The stored weight is the normalized one.
func (s *Service) SubmitAttemptWeight(ctx context.Context, attemptID string, weight float64) (meet.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bundle, err := s.bundle(ctx, attemptID)
	if err != nil {
		return meet.Attempt{}, err
	}

	if bundle.Attempt.Status != meet.StatusPending {
		return meet.Attempt{}, fmt.Errorf("attempt %s: %w", attemptID, ErrAttemptNotPending)
	}

	check := s.validator.Evaluate(weight, bundle.Competitor.Gender)
	if !check.Loadable {
		logger.InfoKV(ctx, "Declared weight rejected",
			"attempt_id", attemptID,
			"weight", weight,
			"reason", check.Reason,
			"normalized", check.Normalized,
		)

		return meet.Attempt{}, &WeightRejectedError{Weight: weight, Check: check}
	}

	at := s.now()

	if err = s.repo.UpdateAttemptWeight(ctx, attemptID, check.Normalized, at); err != nil {
		return meet.Attempt{}, s.repoError("store attempt weight", err)
	}

	attempt := bundle.Attempt
	attempt.Weight = check.Normalized
	attempt.UpdatedAt = at

	contestID := bundle.Registration.ContestID

	logger.InfoKV(ctx, "Attempt weight declared",
		"contest_id", contestID,
		"attempt_id", attemptID,
		"weight", attempt.Weight,
	)

	s.publish(ctx, live.EventAttemptUpserted, contestID, live.NewAttemptView(&attempt))

	if err = s.refresh(ctx, contestID); err != nil {
		return attempt, err
	}

	return attempt, nil
}

// RecordAttemptResult stores a judging outcome. Judging the attempt on the
// platform also clears the platform.
func (s *Service) RecordAttemptResult(
	ctx context.Context,
	attemptID string,
	status meet.AttemptStatus,
) (meet.Attempt, error) {
	parsed, ok := meet.ParseAttemptStatus(string(status))
	if !ok {
		return meet.Attempt{}, fmt.Errorf("%q: %w", status, ErrInvalidStatus)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bundle, err := s.bundle(ctx, attemptID)
	if err != nil {
		return meet.Attempt{}, err
	}

	at := s.now()

	if err = s.repo.UpdateAttemptStatus(ctx, attemptID, parsed, at); err != nil {
		return meet.Attempt{}, s.repoError("store attempt result", err)
	}

	attempt := bundle.Attempt
	attempt.Status = parsed
	attempt.UpdatedAt = at

	contestID := bundle.Registration.ContestID

	logger.InfoKV(ctx, "Attempt result recorded",
		"contest_id", contestID,
		"attempt_id", attemptID,
		"status", parsed,
	)

	s.publish(ctx, live.EventAttemptResultUpdated, contestID, live.NewAttemptView(&attempt))

	if parsed != meet.StatusPending {
		currentID, currentErr := s.repo.CurrentAttemptID(ctx, contestID)

		switch {
		case currentErr == nil && currentID == attemptID:
			if err = s.clearCurrent(ctx, contestID); err != nil {
				return attempt, err
			}
		case currentErr != nil && !errors.Is(currentErr, contest.ErrNotFound):
			return attempt, s.repoError("load current attempt", currentErr)
		}
	}

	if err = s.refresh(ctx, contestID); err != nil {
		return attempt, err
	}

	return attempt, nil
}

// SetCurrentAttempt calls an attempt to the platform.
func (s *Service) SetCurrentAttempt(ctx context.Context, contestID, attemptID string) (meet.CurrentAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bundle, err := s.bundle(ctx, attemptID)
	if err != nil {
		return meet.CurrentAttempt{}, err
	}

	if contestID == "" {
		contestID = bundle.Registration.ContestID
	}

	if bundle.Registration.ContestID != contestID {
		return meet.CurrentAttempt{}, fmt.Errorf("attempt %s: %w", attemptID, ErrWrongContest)
	}

	if err = s.repo.SetCurrentAttempt(ctx, contestID, attemptID, s.now()); err != nil {
		return meet.CurrentAttempt{}, s.repoError("store current attempt", err)
	}

	current := meet.ProjectCurrentAttempt(&bundle)

	logger.InfoKV(ctx, "Current attempt set",
		"contest_id", contestID,
		"attempt_id", attemptID,
		"competitor", current.CompetitorName,
	)

	if s.hub != nil {
		s.hub.SetCurrent(contestID, &current)
	}

	s.publish(ctx, live.EventCurrentSet, contestID, live.NewCurrentView(&current))

	if err = s.refresh(ctx, contestID); err != nil {
		return current, err
	}

	return current, nil
}

// ClearCurrentAttempt empties the platform.
func (s *Service) ClearCurrentAttempt(ctx context.Context, contestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureContest(ctx, contestID); err != nil {
		return err
	}

	if err := s.clearCurrent(ctx, contestID); err != nil {
		return err
	}

	return s.refresh(ctx, contestID)
}

// CurrentAttempt returns the attempt on the platform, or nil when none.
func (s *Service) CurrentAttempt(ctx context.Context, contestID string) (*meet.CurrentAttempt, error) {
	if err := s.ensureContest(ctx, contestID); err != nil {
		return nil, err
	}

	return s.loadCurrent(ctx, contestID)
}

// Queue returns the upcoming attempts of a contest; limit <= 0 uses the desk default.
func (s *Service) Queue(ctx context.Context, contestID string, limit int) (risingbar.Result, error) {
	if err := s.ensureContest(ctx, contestID); err != nil {
		return risingbar.Result{}, err
	}

	snapshot, err := s.compute(ctx, contestID, limit)
	if err != nil {
		return risingbar.Result{}, err
	}

	return risingbar.Result{
		Phase:    snapshot.Phase,
		Attempts: snapshot.Queue,
	}, nil
}

// Snapshot returns the latest live state, computing it on first use.
func (s *Service) Snapshot(ctx context.Context, contestID string) (live.Snapshot, error) {
	if s.hub != nil {
		if snapshot, ok := s.hub.Snapshot(contestID); ok {
			return snapshot, nil
		}
	}

	// A mutation storing a newer snapshot must not be overwritten by this one.
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hub != nil {
		if snapshot, ok := s.hub.Snapshot(contestID); ok {
			return snapshot, nil
		}
	}

	if err := s.ensureContest(ctx, contestID); err != nil {
		return live.Snapshot{}, err
	}

	snapshot, err := s.compute(ctx, contestID, 0)
	if err != nil {
		return live.Snapshot{}, err
	}

	if s.hub != nil {
		snapshot = s.hub.Store(snapshot)
	} else {
		snapshot.UpdatedAt = s.now()
	}

	return snapshot, nil
}

func (s *Service) bundle(ctx context.Context, attemptID string) (meet.Bundle, error) {
	if strings.TrimSpace(attemptID) == "" {
		return meet.Bundle{}, fmt.Errorf("empty attempt id: %w", ErrUnknownAttempt)
	}

	bundle, err := s.repo.GetBundle(ctx, attemptID)
	if err != nil {
		if errors.Is(err, contest.ErrNotFound) {
			return meet.Bundle{}, fmt.Errorf("attempt %s: %w", attemptID, ErrUnknownAttempt)
		}

		return meet.Bundle{}, fmt.Errorf("load attempt: %w", err)
	}

	return bundle, nil
}

func (s *Service) ensureContest(ctx context.Context, contestID string) error {
	if _, err := s.repo.GetContest(ctx, contestID); err != nil {
		if errors.Is(err, contest.ErrNotFound) {
			return fmt.Errorf("contest %s: %w", contestID, ErrUnknownContest)
		}

		return fmt.Errorf("load contest: %w", err)
	}

	return nil
}

func (s *Service) clearCurrent(ctx context.Context, contestID string) error {
	if err := s.repo.ClearCurrentAttempt(ctx, contestID); err != nil {
		return s.repoError("clear current attempt", err)
	}

	logger.InfoKV(ctx, "Current attempt cleared", "contest_id", contestID)

	if s.hub != nil {
		s.hub.SetCurrent(contestID, nil)
	}

	s.publish(ctx, live.EventCurrentCleared, contestID, nil)

	return nil
}

func (s *Service) loadCurrent(ctx context.Context, contestID string) (*meet.CurrentAttempt, error) {
	attemptID, err := s.repo.CurrentAttemptID(ctx, contestID)
	if err != nil {
		if errors.Is(err, contest.ErrNotFound) {
			return nil, nil //nolint:nilnil // No attempt on the platform.
		}

		return nil, fmt.Errorf("load current attempt: %w", err)
	}

	bundle, err := s.repo.GetBundle(ctx, attemptID)
	if err != nil {
		if errors.Is(err, contest.ErrNotFound) {
			return nil, nil //nolint:nilnil // Attempt vanished, treat as empty platform.
		}

		return nil, fmt.Errorf("load current attempt: %w", err)
	}

	current := meet.ProjectCurrentAttempt(&bundle)

	return &current, nil
}

// compute rebuilds the live state of a contest from storage.
func (s *Service) compute(ctx context.Context, contestID string, limit int) (live.Snapshot, error) {
	attempts, err := s.repo.ListAttempts(ctx, contestID)
	if err != nil {
		return live.Snapshot{}, fmt.Errorf("list attempts: %w", err)
	}

	registrations, err := s.repo.ListRegistrations(ctx, contestID)
	if err != nil {
		return live.Snapshot{}, fmt.Errorf("list registrations: %w", err)
	}

	current, err := s.loadCurrent(ctx, contestID)
	if err != nil {
		return live.Snapshot{}, err
	}

	if limit <= 0 {
		limit = s.queueLimit
	}

	result := risingbar.Build(attempts, risingbar.Options{
		Current:       current,
		Registrations: registrations,
		Limit:         limit,
		Locale:        s.locale,
	})

	return live.Snapshot{
		ContestID: contestID,
		Phase:     result.Phase,
		Queue:     result.Attempts,
		Current:   current,
	}, nil
}

// refresh recomputes the snapshot and broadcasts queue.updated.
func (s *Service) refresh(ctx context.Context, contestID string) error {
	if s.hub == nil {
		return nil
	}

	snapshot, err := s.compute(ctx, contestID, 0)
	if err != nil {
		return fmt.Errorf("recompute queue: %w", err)
	}

	snapshot = s.hub.Store(snapshot)

	s.publish(ctx, live.EventQueueUpdated, contestID, snapshot.View())

	return nil
}

func (s *Service) publish(ctx context.Context, eventType live.EventType, contestID string, payload any) {
	if s.hub == nil {
		return
	}

	s.hub.Publish(ctx, live.Event{
		Type:      eventType,
		ContestID: contestID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}

func (s *Service) repoError(op string, err error) error {
	if errors.Is(err, contest.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrUnknownAttempt)
	}

	return fmt.Errorf("%s: %w", op, err)
}
