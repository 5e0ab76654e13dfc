package contest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/oshokin/meet-desk/internal/domain/meet"
	"github.com/oshokin/meet-desk/internal/repository/contest/migrations"
)

// Repository defines persistence operations the desk needs.
type Repository interface {
	ImportContest(ctx context.Context, roster *Roster) error
	GetContest(ctx context.Context, contestID string) (meet.Contest, error)
	ListRegistrations(ctx context.Context, contestID string) ([]meet.Registration, error)
	ListAttempts(ctx context.Context, contestID string) ([]meet.Attempt, error)
	GetBundle(ctx context.Context, attemptID string) (meet.Bundle, error)
	UpdateAttemptWeight(ctx context.Context, attemptID string, weight float64, at time.Time) error
	UpdateAttemptStatus(ctx context.Context, attemptID string, status meet.AttemptStatus, at time.Time) error
	SetCurrentAttempt(ctx context.Context, contestID, attemptID string, at time.Time) error
	ClearCurrentAttempt(ctx context.Context, contestID string) error
	CurrentAttemptID(ctx context.Context, contestID string) (string, error)
}

// Roster is everything needed to set up one contest in a single transaction.
type Roster struct {
	Contest       meet.Contest
	Competitors   []meet.Competitor
	Registrations []meet.Registration
	Attempts      []meet.Attempt
}

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a record with the same identity exists.
	ErrAlreadyExists = errors.New("record already exists")

	errPathRequired   = errors.New("storage path is required")
	errNotConfigured  = errors.New("storage is not configured")
	errIDRequired     = errors.New("id is required")
	errRosterRequired = errors.New("roster is required")
)

// Store persists contest data in SQLite.
type Store struct {
	// db is the SQLite handle.
	db *sql.DB
	// mu serialises writers; SQLite allows one at a time anyway.
	mu sync.Mutex
}

// Open opens (or creates) the SQLite file at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errPathRequired
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err = applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// ImportContest creates a contest with its competitors, registrations and attempts.
func (s *Store) ImportContest(ctx context.Context, roster *Roster) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	if roster == nil {
		return errRosterRequired
	}

	if strings.TrimSpace(roster.Contest.ID) == "" {
		return fmt.Errorf("contest: %w", errIDRequired)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	now := toMillis(time.Now())

	_, err = tx.ExecContext(ctx,
		`INSERT INTO contests (id, name, created_at) VALUES (?, ?, ?)`,
		roster.Contest.ID, roster.Contest.Name, now,
	)
	if err != nil {
		return wrapWriteError("insert contest", err)
	}

	for _, c := range roster.Competitors {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO competitors (id, first_name, last_name, gender, competition_order)
			 VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.FirstName, c.LastName, string(c.Gender), nullableInt(c.CompetitionOrder),
		)
		if err != nil {
			return wrapWriteError("insert competitor "+c.ID, err)
		}
	}

	for _, r := range roster.Registrations {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO registrations (id, contest_id, competitor_id, competition_order)
			 VALUES (?, ?, ?, ?)`,
			r.ID, roster.Contest.ID, r.CompetitorID, nullableInt(r.CompetitionOrder),
		)
		if err != nil {
			return wrapWriteError("insert registration "+r.ID, err)
		}
	}

	for _, a := range roster.Attempts {
		status := a.Status
		if status == "" {
			status = meet.StatusPending
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO attempts (id, registration_id, lift_type, attempt_number, weight, status, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.RegistrationID, string(a.LiftType), int(a.AttemptNumber), a.Weight, string(status), now,
		)
		if err != nil {
			return wrapWriteError("insert attempt "+a.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	return nil
}

// GetContest returns one contest by ID.
func (s *Store) GetContest(ctx context.Context, contestID string) (meet.Contest, error) {
	if err := s.ready(ctx); err != nil {
		return meet.Contest{}, err
	}

	var contest meet.Contest

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM contests WHERE id = ?`,
		contestID,
	).Scan(&contest.ID, &contest.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return meet.Contest{}, ErrNotFound
		}

		return meet.Contest{}, fmt.Errorf("get contest: %w", err)
	}

	return contest, nil
}

// ListRegistrations returns the registrations of a contest joined with competitor data.
func (s *Store) ListRegistrations(ctx context.Context, contestID string) ([]meet.Registration, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.contest_id, r.competitor_id, c.first_name, c.last_name, c.gender, r.competition_order
		   FROM registrations r
		   JOIN competitors c ON c.id = r.competitor_id
		  WHERE r.contest_id = ?
		  ORDER BY r.id`,
		contestID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var result []meet.Registration

	for rows.Next() {
		var (
			registration meet.Registration
			gender       string
			order        sql.NullInt64
		)

		err = rows.Scan(
			&registration.ID,
			&registration.ContestID,
			&registration.CompetitorID,
			&registration.FirstName,
			&registration.LastName,
			&gender,
			&order,
		)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}

		registration.Gender = meet.Gender(gender)
		registration.CompetitionOrder = intFromNull(order)
		result = append(result, registration)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}

	return result, nil
}

// ListAttempts returns every attempt of a contest.
func (s *Store) ListAttempts(ctx context.Context, contestID string) ([]meet.Attempt, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.registration_id, a.lift_type, a.attempt_number, a.weight, a.status, a.updated_at
		   FROM attempts a
		   JOIN registrations r ON r.id = a.registration_id
		  WHERE r.contest_id = ?
		  ORDER BY a.registration_id, a.lift_type, a.attempt_number`,
		contestID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var result []meet.Attempt

	for rows.Next() {
		attempt, scanErr := scanAttempt(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		result = append(result, attempt)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}

	return result, nil
}

// GetBundle returns an attempt joined with its registration and competitor.
func (s *Store) GetBundle(ctx context.Context, attemptID string) (meet.Bundle, error) {
	if err := s.ready(ctx); err != nil {
		return meet.Bundle{}, err
	}

	var (
		bundle           meet.Bundle
		liftType, status string
		gender           string
		attemptNumber    int
		updatedAt        int64
		regOrder         sql.NullInt64
		compOrder        sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT a.id, a.registration_id, a.lift_type, a.attempt_number, a.weight, a.status, a.updated_at,
		        r.contest_id, r.competition_order,
		        c.id, c.first_name, c.last_name, c.gender, c.competition_order
		   FROM attempts a
		   JOIN registrations r ON r.id = a.registration_id
		   JOIN competitors c ON c.id = r.competitor_id
		  WHERE a.id = ?`,
		attemptID,
	).Scan(
		&bundle.Attempt.ID,
		&bundle.Attempt.RegistrationID,
		&liftType,
		&attemptNumber,
		&bundle.Attempt.Weight,
		&status,
		&updatedAt,
		&bundle.Registration.ContestID,
		&regOrder,
		&bundle.Competitor.ID,
		&bundle.Competitor.FirstName,
		&bundle.Competitor.LastName,
		&gender,
		&compOrder,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return meet.Bundle{}, ErrNotFound
		}

		return meet.Bundle{}, fmt.Errorf("get attempt bundle: %w", err)
	}

	bundle.Attempt.LiftType = meet.LiftType(liftType)
	bundle.Attempt.AttemptNumber = meet.AttemptNumber(attemptNumber)
	bundle.Attempt.Status = meet.AttemptStatus(status)
	bundle.Attempt.UpdatedAt = fromMillis(updatedAt)

	bundle.Competitor.Gender = meet.Gender(gender)
	bundle.Competitor.CompetitionOrder = intFromNull(compOrder)

	bundle.Registration.ID = bundle.Attempt.RegistrationID
	bundle.Registration.CompetitorID = bundle.Competitor.ID
	bundle.Registration.FirstName = bundle.Competitor.FirstName
	bundle.Registration.LastName = bundle.Competitor.LastName
	bundle.Registration.Gender = bundle.Competitor.Gender
	bundle.Registration.CompetitionOrder = intFromNull(regOrder)

	return bundle, nil
}

// UpdateAttemptWeight stores a new requested weight.
func (s *Store) UpdateAttemptWeight(ctx context.Context, attemptID string, weight float64, at time.Time) error {
	return s.updateAttempt(ctx, "UPDATE attempts SET weight = ?, updated_at = ? WHERE id = ?",
		weight, toMillis(at), attemptID)
}

// UpdateAttemptStatus stores a judging outcome.
func (s *Store) UpdateAttemptStatus(
	ctx context.Context,
	attemptID string,
	status meet.AttemptStatus,
	at time.Time,
) error {
	return s.updateAttempt(ctx, "UPDATE attempts SET status = ?, updated_at = ? WHERE id = ?",
		string(status), toMillis(at), attemptID)
}

// SetCurrentAttempt marks the attempt on the platform for a contest.
func (s *Store) SetCurrentAttempt(ctx context.Context, contestID, attemptID string, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO current_attempts (contest_id, attempt_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(contest_id) DO UPDATE SET attempt_id = excluded.attempt_id, updated_at = excluded.updated_at`,
		contestID, attemptID, toMillis(at),
	)
	if err != nil {
		return wrapWriteError("set current attempt", err)
	}

	return nil
}

// ClearCurrentAttempt removes the attempt on the platform; clearing nothing is not an error.
func (s *Store) ClearCurrentAttempt(ctx context.Context, contestID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM current_attempts WHERE contest_id = ?`, contestID); err != nil {
		return fmt.Errorf("clear current attempt: %w", err)
	}

	return nil
}

// CurrentAttemptID returns the attempt on the platform or ErrNotFound.
func (s *Store) CurrentAttemptID(ctx context.Context, contestID string) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}

	var attemptID string

	err := s.db.QueryRowContext(ctx,
		`SELECT attempt_id FROM current_attempts WHERE contest_id = ?`,
		contestID,
	).Scan(&attemptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}

		return "", fmt.Errorf("get current attempt: %w", err)
	}

	return attemptID, nil
}

func (s *Store) updateAttempt(ctx context.Context, query string, args ...any) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s == nil || s.db == nil {
		return errNotConfigured
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (meet.Attempt, error) {
	var (
		attempt          meet.Attempt
		liftType, status string
		attemptNumber    int
		updatedAt        int64
	)

	err := row.Scan(
		&attempt.ID,
		&attempt.RegistrationID,
		&liftType,
		&attemptNumber,
		&attempt.Weight,
		&status,
		&updatedAt,
	)
	if err != nil {
		return meet.Attempt{}, fmt.Errorf("scan attempt: %w", err)
	}

	attempt.LiftType = meet.LiftType(liftType)
	attempt.AttemptNumber = meet.AttemptNumber(attemptNumber)
	attempt.Status = meet.AttemptStatus(status)
	attempt.UpdatedAt = fromMillis(updatedAt)

	return attempt, nil
}

func wrapWriteError(op string, err error) error {
	value := strings.ToLower(err.Error())
	if strings.Contains(value, "unique constraint") || strings.Contains(value, "primary key") {
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}

	if strings.Contains(value, "foreign key") {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}

	return int64(*value)
}

func intFromNull(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}

	return meet.IntPtr(int(value.Int64))
}
