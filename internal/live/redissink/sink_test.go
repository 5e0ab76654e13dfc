package redissink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/meet-desk/internal/live"
)

var errTestPublish = errors.New("connection refused")

type recordingPublisher struct {
	channel string
	message []byte
	err     error
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	p.channel = channel
	p.message, _ = message.([]byte)

	cmd := redis.NewIntCmd(ctx)
	if p.err != nil {
		cmd.SetErr(p.err)
	} else {
		cmd.SetVal(1)
	}

	return cmd
}

func TestNew_RequiresPublisher(t *testing.T) {
	t.Parallel()

	_, err := New(nil, "x", time.Second)
	require.ErrorIs(t, err, errPublisherRequired)
}

func TestSink_Channel(t *testing.T) {
	t.Parallel()

	s, err := New(&recordingPublisher{}, "meet-desk:live:", 0)
	require.NoError(t, err)
	require.Equal(t, "meet-desk:live:c1", s.Channel("c1"))

	s, err = New(&recordingPublisher{}, "", 0)
	require.NoError(t, err)
	require.Equal(t, "c1", s.Channel("c1"))
}

func TestSink_DeliverPublishesJSON(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	s, err := New(pub, "meet-desk:live", time.Second)
	require.NoError(t, err)

	event := live.Event{
		Type:      live.EventCurrentCleared,
		ContestID: "c1",
		Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	require.NoError(t, s.Deliver(context.Background(), event))
	require.Equal(t, "meet-desk:live:c1", pub.channel)

	var decoded map[string]any

	require.NoError(t, json.Unmarshal(pub.message, &decoded))
	require.Equal(t, "attempt.currentCleared", decoded["type"])
	require.Equal(t, "c1", decoded["contestId"])
}

func TestSink_DeliverWrapsPublishError(t *testing.T) {
	t.Parallel()

	s, err := New(&recordingPublisher{err: errTestPublish}, "p", time.Second)
	require.NoError(t, err)

	err = s.Deliver(context.Background(), live.Event{ContestID: "c1"})
	require.ErrorIs(t, err, errTestPublish)

	// Wrapped as best effort the same failure never reaches the caller.
	require.NoError(t, live.BestEffort(s).Deliver(context.Background(), live.Event{ContestID: "c1"}))
}
