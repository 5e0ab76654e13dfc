package live

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/meet-desk/internal/domain/meet"
	"github.com/oshokin/meet-desk/internal/logger"
)

// DefaultBuffer is the number of events a subscriber may lag behind.
const DefaultBuffer = 32

// Hub stores the latest snapshot per contest and broadcasts events.
type Hub struct {
	mu          sync.RWMutex
	snapshots   map[string]Snapshot
	subscribers map[string]map[uint64]chan Event
	nextID      uint64
	buffer      int
	sink        Sink
	now         func() time.Time
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithSink forwards every published event to sink after local delivery.
func WithSink(sink Sink) HubOption {
	return func(h *Hub) {
		h.sink = sink
	}
}

// WithBuffer sets the per-subscriber channel size.
func WithBuffer(size int) HubOption {
	return func(h *Hub) {
		if size > 0 {
			h.buffer = size
		}
	}
}

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHub creates an empty hub.
func NewHub(options ...HubOption) *Hub {
	h := &Hub{
		snapshots:   make(map[string]Snapshot),
		subscribers: make(map[string]map[uint64]chan Event),
		buffer:      DefaultBuffer,
		now:         time.Now,
	}

	for _, option := range options {
		option(h)
	}

	return h
}

// Subscribe registers a listener for one contest.
// The returned cancel function closes the channel; calling it twice is safe.
func (h *Hub) Subscribe(contestID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan Event, h.buffer)

	if h.subscribers[contestID] == nil {
		h.subscribers[contestID] = make(map[uint64]chan Event)
	}

	h.subscribers[contestID][id] = ch

	var once sync.Once

	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if subs, ok := h.subscribers[contestID]; ok {
				delete(subs, id)

				if len(subs) == 0 {
					delete(h.subscribers, contestID)
				}
			}

			close(ch)
		})
	}

	return ch, cancel
}

// Publish delivers the event to every subscriber of its contest and then
// to the configured sink. Subscribers whose buffer is full miss the event.
func (h *Hub) Publish(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = h.now()
	}

	dropped := 0

	h.mu.RLock()
	for _, ch := range h.subscribers[event.ContestID] {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}
	h.mu.RUnlock()

	if dropped > 0 {
		logger.WarnKV(ctx, "Slow live subscribers missed an event",
			"contest_id", event.ContestID,
			"type", event.Type,
			"dropped", dropped,
		)
	}

	if h.sink != nil {
		_ = h.sink.Deliver(ctx, event)
	}
}

// Store replaces the snapshot of a contest and stamps it.
func (h *Hub) Store(snapshot Snapshot) Snapshot {
	snapshot.UpdatedAt = h.now()

	h.mu.Lock()
	h.snapshots[snapshot.ContestID] = snapshot
	h.mu.Unlock()

	return snapshot
}

// Snapshot returns the latest snapshot of a contest.
func (h *Hub) Snapshot(contestID string) (Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snapshot, ok := h.snapshots[contestID]

	return snapshot, ok
}

// SetCurrent updates only the current attempt of a stored snapshot.
func (h *Hub) SetCurrent(contestID string, current *meet.CurrentAttempt) Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	snapshot, ok := h.snapshots[contestID]
	if !ok {
		snapshot = Snapshot{
			ContestID: contestID,
			Phase:     meet.DefaultPhase,
		}
	}

	snapshot.Current = current
	snapshot.UpdatedAt = h.now()
	h.snapshots[contestID] = snapshot

	return snapshot
}

// Subscribers returns how many listeners a contest has.
func (h *Hub) Subscribers(contestID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[contestID])
}
