package desk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/meet-desk/internal/domain/meet"
	"github.com/oshokin/meet-desk/internal/domain/plates"
	"github.com/oshokin/meet-desk/internal/live"
	"github.com/oshokin/meet-desk/internal/repository/contest"
)

var errTestStorage = errors.New("disk full")

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
}

// newTestService returns a desk over a two-lifter contest "c1".
func newTestService(t *testing.T) (*Service, *memoryRepository, *live.Hub) {
	t.Helper()

	repo := newMemoryRepository()
	require.NoError(t, repo.ImportContest(context.Background(), &contest.Roster{
		Contest: meet.Contest{ID: "c1", Name: "Club Open"},
		Competitors: []meet.Competitor{
			{ID: "p1", FirstName: "Anna", LastName: "Nowak", Gender: meet.GenderFemale},
			{ID: "p2", FirstName: "Jan", LastName: "Kowalski", Gender: meet.GenderMale},
		},
		Registrations: []meet.Registration{
			{ID: "r1", CompetitorID: "p1", CompetitionOrder: meet.IntPtr(2)},
			{ID: "r2", CompetitorID: "p2", CompetitionOrder: meet.IntPtr(1)},
		},
		Attempts: []meet.Attempt{
			{ID: "a1", RegistrationID: "r1", LiftType: meet.LiftSquat, AttemptNumber: 1, Weight: 90},
			{ID: "a2", RegistrationID: "r2", LiftType: meet.LiftSquat, AttemptNumber: 1, Weight: 150},
			{ID: "a3", RegistrationID: "r1", LiftType: meet.LiftSquat, AttemptNumber: 2},
		},
	}))

	hub := live.NewHub(live.WithClock(fixedNow))

	svc, err := New(Options{
		Repository: repo,
		Validator:  plates.NewValidator(plates.DefaultConfig()),
		Hub:        hub,
		Now:        fixedNow,
	})
	require.NoError(t, err)

	return svc, repo, hub
}

func drain(events <-chan live.Event) []live.EventType {
	var types []live.EventType

	for {
		select {
		case event := <-events:
			types = append(types, event.Type)
		default:
			return types
		}
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Validator: plates.NewValidator(plates.DefaultConfig())})
	require.ErrorIs(t, err, errRepositoryRequired)

	_, err = New(Options{Repository: newMemoryRepository()})
	require.ErrorIs(t, err, errValidatorRequired)
}

func TestService_EvaluateWeight(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	check := svc.EvaluateWeight(context.Background(), 10, meet.GenderFemale)
	require.False(t, check.Loadable)
	require.Equal(t, plates.ReasonBelowBar, check.Reason)
	require.InDelta(t, 15.0, check.BarWeight, 1e-9)

	check = svc.EvaluateWeight(context.Background(), 100, meet.GenderMale)
	require.True(t, check.Loadable)

	plan := svc.PlatePlan(context.Background(), 100, meet.GenderMale)
	require.True(t, plan.Exact)
	require.InDelta(t, plates.DefaultClampWeight, plan.ClampWeightPerClamp, 1e-9)
}

func TestService_SubmitAttemptWeight(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo, hub := newTestService(t)

	events, cancel := hub.Subscribe("c1")
	defer cancel()

	attempt, err := svc.SubmitAttemptWeight(ctx, "a3", 95)
	require.NoError(t, err)
	require.InDelta(t, 95.0, attempt.Weight, 1e-9)
	require.Equal(t, fixedNow(), attempt.UpdatedAt)
	require.InDelta(t, 95.0, repo.attempts["a3"].Weight, 1e-9)

	require.Equal(t, []live.EventType{live.EventAttemptUpserted, live.EventQueueUpdated}, drain(events))

	snapshot, ok := hub.Snapshot("c1")
	require.True(t, ok)
	require.Equal(t, meet.DefaultPhase, snapshot.Phase)
	require.Len(t, snapshot.Queue, 2)
}

func TestService_SubmitAttemptWeightRejections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	_, err := svc.SubmitAttemptWeight(ctx, "a3", 95.3)

	var rejected *WeightRejectedError

	require.ErrorAs(t, err, &rejected)
	require.ErrorIs(t, err, ErrWeightRejected)
	require.Equal(t, plates.ReasonUnloadable, rejected.Check.Reason)
	require.Zero(t, repo.attempts["a3"].Weight)

	_, err = svc.SubmitAttemptWeight(ctx, "a3", 5)
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, plates.ReasonBelowBar, rejected.Check.Reason)

	_, err = svc.SubmitAttemptWeight(ctx, "missing", 100)
	require.ErrorIs(t, err, ErrUnknownAttempt)

	_, err = svc.RecordAttemptResult(ctx, "a1", meet.StatusSuccessful)
	require.NoError(t, err)

	_, err = svc.SubmitAttemptWeight(ctx, "a1", 100)
	require.ErrorIs(t, err, ErrAttemptNotPending)
}

func TestService_SubmitAttemptWeightStorageFailure(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(t)
	repo.failWith = errTestStorage

	_, err := svc.SubmitAttemptWeight(context.Background(), "a3", 100)
	require.ErrorIs(t, err, errTestStorage)
}

func TestService_CurrentAttemptLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, hub := newTestService(t)

	current, err := svc.CurrentAttempt(ctx, "c1")
	require.NoError(t, err)
	require.Nil(t, current)

	events, cancel := hub.Subscribe("c1")
	defer cancel()

	set, err := svc.SetCurrentAttempt(ctx, "c1", "a2")
	require.NoError(t, err)
	require.Equal(t, "Kowalski Jan", set.CompetitorName)
	require.Equal(t, 1, *set.CompetitionOrder)

	current, err = svc.CurrentAttempt(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "a2", current.ID)

	// Judging the attempt on the platform clears it.
	_, err = svc.RecordAttemptResult(ctx, "a2", meet.StatusFailed)
	require.NoError(t, err)

	current, err = svc.CurrentAttempt(ctx, "c1")
	require.NoError(t, err)
	require.Nil(t, current)

	require.Equal(t, []live.EventType{
		live.EventCurrentSet,
		live.EventQueueUpdated,
		live.EventAttemptResultUpdated,
		live.EventCurrentCleared,
		live.EventQueueUpdated,
	}, drain(events))

	snapshot, err := svc.Snapshot(ctx, "c1")
	require.NoError(t, err)
	require.Nil(t, snapshot.Current)
}

func TestService_RecordOtherAttemptKeepsCurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.SetCurrentAttempt(ctx, "", "a2")
	require.NoError(t, err)

	_, err = svc.RecordAttemptResult(ctx, "a1", meet.StatusSuccessful)
	require.NoError(t, err)

	current, err := svc.CurrentAttempt(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "a2", current.ID)

	_, err = svc.RecordAttemptResult(ctx, "a1", "Maybe")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestService_SetCurrentAttemptErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.SetCurrentAttempt(ctx, "c2", "a1")
	require.ErrorIs(t, err, ErrWrongContest)

	_, err = svc.SetCurrentAttempt(ctx, "c1", "")
	require.ErrorIs(t, err, ErrUnknownAttempt)

	require.ErrorIs(t, svc.ClearCurrentAttempt(ctx, "c2"), ErrUnknownContest)
	require.NoError(t, svc.ClearCurrentAttempt(ctx, "c1"))
}

func TestService_Queue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _ := newTestService(t)

	result, err := svc.Queue(ctx, "c1", 0)
	require.NoError(t, err)
	require.Equal(t, meet.DefaultPhase, result.Phase)
	require.Len(t, result.Attempts, 2)
	require.Equal(t, "a1", result.Attempts[0].ID)
	require.Equal(t, "a2", result.Attempts[1].ID)

	result, err = svc.Queue(ctx, "c1", 1)
	require.NoError(t, err)
	require.Len(t, result.Attempts, 1)

	// Once every first squat is judged, the second squats open.
	_, err = svc.RecordAttemptResult(ctx, "a1", meet.StatusSuccessful)
	require.NoError(t, err)
	_, err = svc.RecordAttemptResult(ctx, "a2", meet.StatusSuccessful)
	require.NoError(t, err)
	_, err = svc.SubmitAttemptWeight(ctx, "a3", 97.5)
	require.NoError(t, err)

	result, err = svc.Queue(ctx, "c1", 0)
	require.NoError(t, err)
	require.Equal(t, meet.Phase{LiftType: meet.LiftSquat, AttemptNumber: 2}, result.Phase)
	require.Len(t, result.Attempts, 1)

	_, err = svc.Queue(ctx, "nope", 0)
	require.ErrorIs(t, err, ErrUnknownContest)
}

func TestService_SnapshotWithoutHub(t *testing.T) {
	t.Parallel()

	_, repo, _ := newTestService(t)

	svc, err := New(Options{
		Repository: repo,
		Validator:  plates.NewValidator(plates.DefaultConfig()),
		Now:        fixedNow,
	})
	require.NoError(t, err)

	snapshot, err := svc.Snapshot(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, fixedNow(), snapshot.UpdatedAt)
	require.Len(t, snapshot.Queue, 2)

	_, err = svc.SubmitAttemptWeight(context.Background(), "a3", 100)
	require.NoError(t, err)
}

// TestService_SnapshotKeepsNewerState runs a declaration while the first
// snapshot is being computed; the declaration's state must win.
func TestService_SnapshotKeepsNewerState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo, hub := newTestService(t)

	declared := make(chan error, 1)

	repo.mu.Lock()
	repo.afterList = func() {
		go func() {
			_, err := svc.SubmitAttemptWeight(ctx, "a1", 100)
			declared <- err
		}()

		// Give an unserialized declaration time to finish first.
		select {
		case err := <-declared:
			declared <- err
		case <-time.After(100 * time.Millisecond):
		}
	}
	repo.mu.Unlock()

	_, err := svc.Snapshot(ctx, "c1")
	require.NoError(t, err)
	require.NoError(t, <-declared)

	snapshot, ok := hub.Snapshot("c1")
	require.True(t, ok)
	require.Equal(t, "a1", snapshot.Queue[0].ID)
	require.InDelta(t, 100.0, snapshot.Queue[0].Weight, 1e-9)
}

func TestWeightRejectedError_Message(t *testing.T) {
	t.Parallel()

	err := &WeightRejectedError{
		Weight: 95.3,
		Check:  plates.LoadCheck{Normalized: 95, Reason: plates.ReasonUnloadable},
	}

	require.Equal(t, "weight 95.30 kg rejected (unloadable), nearest loadable is 95.00 kg", err.Error())
}
