package meet

import (
	"strings"
	"time"
)

// ProjectCurrentAttempt flattens an attempt bundle into the view consumed by
// live displays. The pairing of attempt and registration is not validated.
//
// The display name is "last first", unlike the scheduler's "first last" fallback.
func ProjectCurrentAttempt(bundle *Bundle) CurrentAttempt {
	attempt := bundle.Attempt

	order := Resolve(
		0,
		OrderOf(bundle.Registration.CompetitionOrder),
		OrderOf(bundle.Competitor.CompetitionOrder),
	)

	var competitionOrder *int
	if order.Found {
		competitionOrder = IntPtr(order.Value)
	}

	var updatedAt *time.Time
	if !attempt.UpdatedAt.IsZero() {
		ts := attempt.UpdatedAt
		updatedAt = &ts
	}

	return CurrentAttempt{
		ID:               attempt.ID,
		RegistrationID:   attempt.RegistrationID,
		CompetitorName:   strings.TrimSpace(bundle.Competitor.LastName + " " + bundle.Competitor.FirstName),
		LiftType:         attempt.LiftType,
		AttemptNumber:    attempt.AttemptNumber,
		Weight:           attempt.Weight,
		Status:           attempt.Status,
		CompetitionOrder: competitionOrder,
		UpdatedAt:        updatedAt,
	}
}
