package display

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/meet-desk/internal/domain/meet"
	"github.com/oshokin/meet-desk/internal/domain/plates"
	"github.com/oshokin/meet-desk/internal/domain/risingbar"
	"github.com/oshokin/meet-desk/internal/live"
	"github.com/oshokin/meet-desk/internal/service/desk"
)

var errTestRead = errors.New("disk unavailable")

type fakeService struct {
	validator  *plates.Validator
	current    *meet.CurrentAttempt
	err        error
	lastLimit  int
	onSnapshot func()
}

func (f *fakeService) EvaluateWeight(_ context.Context, weight float64, gender meet.Gender) plates.LoadCheck {
	return f.validator.Evaluate(weight, gender)
}

func (f *fakeService) PlatePlan(_ context.Context, weight float64, gender meet.Gender) plates.Plan {
	return f.validator.Plan(weight, gender, plates.DefaultClampWeight)
}

func (f *fakeService) Queue(_ context.Context, _ string, limit int) (risingbar.Result, error) {
	f.lastLimit = limit

	if f.err != nil {
		return risingbar.Result{}, f.err
	}

	return risingbar.Result{
		Phase:    meet.DefaultPhase,
		Attempts: []meet.Attempt{{ID: "a1", LiftType: meet.LiftSquat, AttemptNumber: 1, Weight: 120}},
	}, nil
}

func (f *fakeService) CurrentAttempt(context.Context, string) (*meet.CurrentAttempt, error) {
	return f.current, f.err
}

func (f *fakeService) Snapshot(_ context.Context, contestID string) (live.Snapshot, error) {
	if f.onSnapshot != nil {
		f.onSnapshot()
	}

	return live.Snapshot{ContestID: contestID, Phase: meet.DefaultPhase, Current: f.current}, f.err
}

// channelSubscriber hands out one prepared channel.
type channelSubscriber struct {
	events     chan live.Event
	subscribed bool
	canceled   bool
}

func (s *channelSubscriber) Subscribe(string) (<-chan live.Event, func()) {
	s.subscribed = true

	return s.events, func() { s.canceled = true }
}

func newTestEcho(svc *fakeService, sub Subscriber) http.Handler {
	return NewEcho(NewHandlers(svc, sub, time.Minute))
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	return rec
}

func newFake() *fakeService {
	return &fakeService{validator: plates.NewValidator(plates.DefaultConfig())}
}

func TestCheckWeight(t *testing.T) {
	t.Parallel()

	h := newTestEcho(newFake(), nil)

	rec := get(t, h, "/api/v1/plates/check?weight=62.6&gender=male")
	require.Equal(t, http.StatusOK, rec.Code)

	var body LoadCheckResponse

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Loadable)
	require.Equal(t, plates.ReasonUnloadable, body.Reason)
	require.Equal(t, meet.GenderMale, body.Gender)

	rec = get(t, h, "/api/v1/plates/check?weight=heavy")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlatePlan(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestEcho(newFake(), nil), "/api/v1/plates/plan?weight=100&gender=f")
	require.Equal(t, http.StatusOK, rec.Code)

	var body PlanResponse

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Exact)
	require.InDelta(t, 15.0, body.BarWeight, 1e-9)
	require.NotEmpty(t, body.Plates)
	require.Equal(t, plates.PlateColor(body.Plates[0].PlateWeight), body.Plates[0].Color)
}

func TestQueue(t *testing.T) {
	t.Parallel()

	svc := newFake()
	h := newTestEcho(svc, nil)

	rec := get(t, h, "/api/v1/contests/c1/queue?limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, svc.lastLimit)

	var body QueueResponse

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "c1", body.ContestID)
	require.Equal(t, meet.LiftSquat, body.Phase.LiftType)
	require.Len(t, body.Attempts, 1)

	require.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/contests/c1/queue?limit=-1").Code)

	svc.err = desk.ErrUnknownContest
	require.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/contests/c9/queue").Code)

	svc.err = errTestRead
	require.Equal(t, http.StatusInternalServerError, get(t, h, "/api/v1/contests/c1/queue").Code)
}

func TestCurrent(t *testing.T) {
	t.Parallel()

	svc := newFake()
	h := newTestEcho(svc, nil)

	rec := get(t, h, "/api/v1/contests/c1/current")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"contestId":"c1","current":null}`, rec.Body.String())

	svc.current = &meet.CurrentAttempt{ID: "a1", CompetitorName: "Nowak Anna", Weight: 100}

	rec = get(t, h, "/api/v1/contests/c1/current")

	var body CurrentResponse

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Nowak Anna", body.Current.CompetitorName)
}

func TestLive_StreamsSnapshotThenEvents(t *testing.T) {
	t.Parallel()

	sub := &channelSubscriber{events: make(chan live.Event, 1)}
	sub.events <- live.Event{Type: live.EventCurrentCleared, ContestID: "c1"}
	close(sub.events)

	rec := get(t, newTestEcho(newFake(), sub), "/api/v1/contests/c1/live")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.True(t, sub.canceled)

	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, "event: snapshot\ndata: {"))
	require.Contains(t, body, "event: attempt.currentCleared\n")
	require.Less(t, strings.Index(body, "snapshot"), strings.Index(body, "attempt.currentCleared"))
}

func TestLive_UnknownContest(t *testing.T) {
	t.Parallel()

	svc := newFake()
	svc.err = desk.ErrUnknownContest

	sub := &channelSubscriber{events: make(chan live.Event)}

	rec := get(t, newTestEcho(svc, sub), "/api/v1/contests/c9/live")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.True(t, sub.canceled)
}

// TestLive_SubscribesBeforeSnapshot makes sure events published while the
// snapshot is read reach the display.
func TestLive_SubscribesBeforeSnapshot(t *testing.T) {
	t.Parallel()

	sub := &channelSubscriber{events: make(chan live.Event, 1)}

	svc := newFake()
	svc.onSnapshot = func() {
		require.True(t, sub.subscribed)

		sub.events <- live.Event{Type: live.EventQueueUpdated, ContestID: "c1"}
		close(sub.events)
	}

	rec := get(t, newTestEcho(svc, sub), "/api/v1/contests/c1/live")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "event: queue.updated\n")
}

func TestLive_EndsOnClose(t *testing.T) {
	t.Parallel()

	sub := &channelSubscriber{events: make(chan live.Event)}
	h := NewHandlers(newFake(), sub, time.Minute)
	h.Close()
	h.Close()

	rec := get(t, NewEcho(h), "/api/v1/contests/c1/live")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Body.String(), "event: snapshot\n"))
	require.True(t, sub.canceled)
}
