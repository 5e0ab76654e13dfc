package contest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/meet-desk/internal/domain/meet"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "meet.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func testRoster() *Roster {
	return &Roster{
		Contest: meet.Contest{ID: "c1", Name: "Club Open"},
		Competitors: []meet.Competitor{
			{ID: "p1", FirstName: "Anna", LastName: "Nowak", Gender: meet.GenderFemale, CompetitionOrder: meet.IntPtr(9)},
			{ID: "p2", FirstName: "Jan", LastName: "Kowalski", Gender: meet.GenderMale},
		},
		Registrations: []meet.Registration{
			{ID: "r1", CompetitorID: "p1", CompetitionOrder: meet.IntPtr(2)},
			{ID: "r2", CompetitorID: "p2"},
		},
		Attempts: []meet.Attempt{
			{ID: "a1", RegistrationID: "r1", LiftType: meet.LiftSquat, AttemptNumber: 1, Weight: 100},
			{ID: "a2", RegistrationID: "r2", LiftType: meet.LiftSquat, AttemptNumber: 1},
		},
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "  ")
	require.ErrorIs(t, err, errPathRequired)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "meet.db")

	first, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.ImportContest(context.Background(), testRoster()))
	require.NoError(t, first.Close())

	second, err := Open(context.Background(), path)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, second.Close())
	}()

	contest, err := second.GetContest(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, "Club Open", contest.Name)
}

func TestStore_ImportAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.ImportContest(ctx, testRoster()))

	registrations, err := store.ListRegistrations(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, registrations, 2)
	require.Equal(t, "Anna", registrations[0].FirstName)
	require.Equal(t, meet.GenderFemale, registrations[0].Gender)
	require.Equal(t, 2, *registrations[0].CompetitionOrder)
	require.Nil(t, registrations[1].CompetitionOrder)

	attempts, err := store.ListAttempts(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	require.Equal(t, meet.StatusPending, attempts[0].Status)
	require.InDelta(t, 100.0, attempts[0].Weight, 1e-9)
	require.False(t, attempts[0].UpdatedAt.IsZero())

	_, err = store.GetContest(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ImportTwiceFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.ImportContest(ctx, testRoster()))
	require.ErrorIs(t, store.ImportContest(ctx, testRoster()), ErrAlreadyExists)
}

func TestStore_GetBundle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.ImportContest(ctx, testRoster()))

	bundle, err := store.GetBundle(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "c1", bundle.Registration.ContestID)
	require.Equal(t, "Nowak", bundle.Competitor.LastName)
	require.Equal(t, 2, *bundle.Registration.CompetitionOrder)
	require.Equal(t, 9, *bundle.Competitor.CompetitionOrder)

	current := meet.ProjectCurrentAttempt(&bundle)
	require.Equal(t, "Nowak Anna", current.CompetitorName)
	require.Equal(t, 2, *current.CompetitionOrder)

	_, err = store.GetBundle(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateAttempt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.ImportContest(ctx, testRoster()))
	require.NoError(t, store.UpdateAttemptWeight(ctx, "a2", 142.5, at))
	require.NoError(t, store.UpdateAttemptStatus(ctx, "a1", meet.StatusSuccessful, at))

	bundle, err := store.GetBundle(ctx, "a2")
	require.NoError(t, err)
	require.InDelta(t, 142.5, bundle.Attempt.Weight, 1e-9)
	require.True(t, at.Equal(bundle.Attempt.UpdatedAt))

	bundle, err = store.GetBundle(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, meet.StatusSuccessful, bundle.Attempt.Status)

	require.ErrorIs(t, store.UpdateAttemptWeight(ctx, "nope", 1, at), ErrNotFound)
}

func TestStore_CurrentAttempt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)
	at := time.Now()

	require.NoError(t, store.ImportContest(ctx, testRoster()))

	_, err := store.CurrentAttemptID(ctx, "c1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SetCurrentAttempt(ctx, "c1", "a1", at))
	require.NoError(t, store.SetCurrentAttempt(ctx, "c1", "a2", at))

	id, err := store.CurrentAttemptID(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "a2", id)

	require.ErrorIs(t, store.SetCurrentAttempt(ctx, "c1", "missing", at), ErrNotFound)

	require.NoError(t, store.ClearCurrentAttempt(ctx, "c1"))
	require.NoError(t, store.ClearCurrentAttempt(ctx, "c1"))

	_, err = store.CurrentAttemptID(ctx, "c1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CanceledContext(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ListAttempts(ctx, "c1")
	require.ErrorIs(t, err, context.Canceled)
}
