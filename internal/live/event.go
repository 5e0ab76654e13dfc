package live

import (
	"time"

	"github.com/oshokin/meet-desk/internal/domain/meet"
)

// EventType names what happened on the desk.
type EventType string

const (
	// EventAttemptUpserted is sent when an attempt weight is declared or changed.
	EventAttemptUpserted EventType = "attempt.upserted"
	// EventAttemptResultUpdated is sent when judges record a result.
	EventAttemptResultUpdated EventType = "attempt.resultUpdated"
	// EventCurrentSet is sent when an attempt is called to the platform.
	EventCurrentSet EventType = "attempt.currentSet"
	// EventCurrentCleared is sent when the platform is cleared.
	EventCurrentCleared EventType = "attempt.currentCleared"
	// EventQueueUpdated is sent after the upcoming queue is recomputed.
	EventQueueUpdated EventType = "queue.updated"
)

// Event is a single change pushed to displays.
type Event struct {
	Type      EventType `json:"type"`
	ContestID string    `json:"contestId"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Snapshot is the latest known desk state of one contest.
type Snapshot struct {
	ContestID string
	Phase     meet.Phase
	Queue     []meet.Attempt
	Current   *meet.CurrentAttempt
	UpdatedAt time.Time
}
