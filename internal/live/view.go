package live

import (
	"time"

	"github.com/oshokin/meet-desk/internal/domain/meet"
)

// PhaseView is the JSON form of meet.Phase.
type PhaseView struct {
	LiftType      meet.LiftType      `json:"liftType"`
	AttemptNumber meet.AttemptNumber `json:"attemptNumber"`
}

// AttemptView is the JSON form of meet.Attempt.
type AttemptView struct {
	ID               string             `json:"id"`
	RegistrationID   string             `json:"registrationId"`
	LiftType         meet.LiftType      `json:"liftType"`
	AttemptNumber    meet.AttemptNumber `json:"attemptNumber"`
	Weight           float64            `json:"weight"`
	Status           meet.AttemptStatus `json:"status"`
	CompetitorName   string             `json:"competitorName,omitempty"`
	CompetitionOrder *int               `json:"competitionOrder,omitempty"`
	UpdatedAt        *time.Time         `json:"updatedAt,omitempty"`
}

// CurrentView is the JSON form of meet.CurrentAttempt.
type CurrentView struct {
	ID               string             `json:"id"`
	RegistrationID   string             `json:"registrationId"`
	CompetitorName   string             `json:"competitorName"`
	LiftType         meet.LiftType      `json:"liftType"`
	AttemptNumber    meet.AttemptNumber `json:"attemptNumber"`
	Weight           float64            `json:"weight"`
	Status           meet.AttemptStatus `json:"status"`
	CompetitionOrder *int               `json:"competitionOrder"`
	UpdatedAt        *time.Time         `json:"updatedAt"`
}

// SnapshotView is the JSON form of Snapshot.
type SnapshotView struct {
	ContestID string        `json:"contestId"`
	Phase     PhaseView     `json:"phase"`
	Queue     []AttemptView `json:"queue"`
	Current   *CurrentView  `json:"current"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// NewPhaseView converts a phase.
func NewPhaseView(phase meet.Phase) PhaseView {
	return PhaseView(phase)
}

// NewAttemptView converts an attempt.
func NewAttemptView(attempt *meet.Attempt) AttemptView {
	view := AttemptView{
		ID:               attempt.ID,
		RegistrationID:   attempt.RegistrationID,
		LiftType:         attempt.LiftType,
		AttemptNumber:    attempt.AttemptNumber,
		Weight:           attempt.Weight,
		Status:           attempt.Status,
		CompetitorName:   attempt.CompetitorName,
		CompetitionOrder: attempt.CompetitionOrder,
	}

	if !attempt.UpdatedAt.IsZero() {
		ts := attempt.UpdatedAt
		view.UpdatedAt = &ts
	}

	return view
}

// NewAttemptViews converts a list of attempts; the result is never nil.
func NewAttemptViews(attempts []meet.Attempt) []AttemptView {
	views := make([]AttemptView, 0, len(attempts))
	for i := range attempts {
		views = append(views, NewAttemptView(&attempts[i]))
	}

	return views
}

// NewCurrentView converts the attempt on the platform; nil stays nil.
func NewCurrentView(current *meet.CurrentAttempt) *CurrentView {
	if current == nil {
		return nil
	}

	view := CurrentView(*current)

	return &view
}

// View converts the snapshot to its JSON form.
func (s *Snapshot) View() SnapshotView {
	return SnapshotView{
		ContestID: s.ContestID,
		Phase:     NewPhaseView(s.Phase),
		Queue:     NewAttemptViews(s.Queue),
		Current:   NewCurrentView(s.Current),
		UpdatedAt: s.UpdatedAt,
	}
}
