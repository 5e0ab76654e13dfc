package desk

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/oshokin/meet-desk/internal/domain/meet"
	"github.com/oshokin/meet-desk/internal/repository/contest"
)

// memoryRepository is an in-memory contest.Repository for tests.
type memoryRepository struct {
	mu            sync.Mutex
	contests      map[string]meet.Contest
	competitors   map[string]meet.Competitor
	registrations map[string]meet.Registration
	attempts      map[string]meet.Attempt
	current       map[string]string
	// failWith is returned by every write when set.
	failWith error
	// afterList runs once, after the next ListAttempts has read its rows.
	afterList func()
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		contests:      make(map[string]meet.Contest),
		competitors:   make(map[string]meet.Competitor),
		registrations: make(map[string]meet.Registration),
		attempts:      make(map[string]meet.Attempt),
		current:       make(map[string]string),
	}
}

func (m *memoryRepository) ImportContest(_ context.Context, roster *contest.Roster) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.contests[roster.Contest.ID]; ok {
		return contest.ErrAlreadyExists
	}

	m.contests[roster.Contest.ID] = roster.Contest

	for _, c := range roster.Competitors {
		m.competitors[c.ID] = c
	}

	for _, r := range roster.Registrations {
		r.ContestID = roster.Contest.ID
		m.registrations[r.ID] = r
	}

	for _, a := range roster.Attempts {
		if a.Status == "" {
			a.Status = meet.StatusPending
		}

		m.attempts[a.ID] = a
	}

	return nil
}

func (m *memoryRepository) GetContest(_ context.Context, contestID string) (meet.Contest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.contests[contestID]
	if !ok {
		return meet.Contest{}, contest.ErrNotFound
	}

	return c, nil
}

func (m *memoryRepository) ListRegistrations(_ context.Context, contestID string) ([]meet.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []meet.Registration

	for _, r := range m.registrations {
		if r.ContestID != contestID {
			continue
		}

		c := m.competitors[r.CompetitorID]
		r.FirstName = c.FirstName
		r.LastName = c.LastName
		r.Gender = c.Gender
		result = append(result, r)
	}

	slices.SortFunc(result, func(a, b meet.Registration) int {
		return compareStrings(a.ID, b.ID)
	})

	return result, hook
}

func (m *memoryRepository) ListAttempts(_ context.Context, contestID string) ([]meet.Attempt, error) {
	result, hook := m.listAttempts(contestID)
	if hook != nil {
		hook()
	}

	return result, nil
}

func (m *memoryRepository) listAttempts(contestID string) ([]meet.Attempt, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hook := m.afterList
	m.afterList = nil

	var result []meet.Attempt

	for _, a := range m.attempts {
		if m.registrations[a.RegistrationID].ContestID == contestID {
			result = append(result, a)
		}
	}

	slices.SortFunc(result, func(a, b meet.Attempt) int {
		return compareStrings(a.ID, b.ID)
	})

	return result, nil
}

func (m *memoryRepository) GetBundle(_ context.Context, attemptID string) (meet.Bundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.attempts[attemptID]
	if !ok {
		return meet.Bundle{}, contest.ErrNotFound
	}

	r := m.registrations[a.RegistrationID]
	c := m.competitors[r.CompetitorID]
	r.FirstName = c.FirstName
	r.LastName = c.LastName
	r.Gender = c.Gender

	return meet.Bundle{Attempt: a, Competitor: c, Registration: r}, nil
}

func (m *memoryRepository) UpdateAttemptWeight(_ context.Context, attemptID string, weight float64, at time.Time) error {
	return m.update(attemptID, func(a *meet.Attempt) {
		a.Weight = weight
		a.UpdatedAt = at
	})
}

func (m *memoryRepository) UpdateAttemptStatus(
	_ context.Context,
	attemptID string,
	status meet.AttemptStatus,
	at time.Time,
) error {
	return m.update(attemptID, func(a *meet.Attempt) {
		a.Status = status
		a.UpdatedAt = at
	})
}

func (m *memoryRepository) SetCurrentAttempt(_ context.Context, contestID, attemptID string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}

	m.current[contestID] = attemptID

	return nil
}

func (m *memoryRepository) ClearCurrentAttempt(_ context.Context, contestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.current, contestID)

	return nil
}

func (m *memoryRepository) CurrentAttemptID(_ context.Context, contestID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.current[contestID]
	if !ok {
		return "", contest.ErrNotFound
	}

	return id, nil
}

func (m *memoryRepository) update(attemptID string, mutate func(*meet.Attempt)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}

	a, ok := m.attempts[attemptID]
	if !ok {
		return contest.ErrNotFound
	}

	mutate(&a)
	m.attempts[attemptID] = a

	return nil
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
