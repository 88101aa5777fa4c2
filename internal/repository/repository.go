// Package repository implements all database queries for the ticketing core.
// It uses pgx directly (no ORM) for transparency and performance.
//
// Every mutation of shared state (team slots, event seat counters,
// seat redemption) is a single conditional statement, so concurrent
// requests can never both act on the same stale read.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rohitdesai-dev/gatepass/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrTeamFull is returned when a team has no remaining slots.
var ErrTeamFull = errors.New("team is full")

// ErrDuplicateMember is returned when a phone number already belongs
// to a team for the event.
var ErrDuplicateMember = errors.New("phone already on a team for this event")

// ErrJoinCodeTaken is returned when a generated join code collides
// with an existing one; callers regenerate and retry.
var ErrJoinCodeTaken = errors.New("join code already taken")

// ErrCapacityExceeded is returned when issuing a pass would push the
// event past its total seats.
var ErrCapacityExceeded = errors.New("event capacity exceeded")

// ErrAlreadyIssued is returned when a pass already exists for the
// entitlement.
var ErrAlreadyIssued = errors.New("pass already issued for this entitlement")

// ErrAlreadyScanned is returned when a seat was already redeemed.
var ErrAlreadyScanned = errors.New("seat already scanned")

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" &&
		(constraint == "" || pgErr.ConstraintName == constraint)
}

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, name, description, venue, total_seats, registration_count,
	team_size, is_paid, is_live, is_registration_open,
	registration_start, registration_end, created_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Venue, &e.TotalSeats,
		&e.RegistrationCount, &e.TeamSize, &e.IsPaid, &e.IsLive,
		&e.IsRegistrationOpen, &e.RegistrationStart, &e.RegistrationEnd,
		&e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event and returns it with a generated UUID.
func (r *EventRepository) Create(ctx context.Context, req model.CreateEventRequest, now time.Time) (*model.Event, error) {
	event := &model.Event{
		ID:                 uuid.New().String(),
		Name:               req.Name,
		Description:        req.Description,
		Venue:              req.Venue,
		TotalSeats:         req.TotalSeats,
		TeamSize:           req.TeamSize,
		IsPaid:             req.IsPaid,
		IsLive:             req.IsLive,
		IsRegistrationOpen: req.IsRegistrationOpen,
		RegistrationStart:  req.RegistrationStart,
		RegistrationEnd:    req.RegistrationEnd,
		CreatedAt:          now,
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, name, description, venue, total_seats, registration_count,
			team_size, is_paid, is_live, is_registration_open,
			registration_start, registration_end, created_at)
		 VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8, $9, $10, $11, $12)`,
		event.ID, event.Name, event.Description, event.Venue, event.TotalSeats,
		event.TeamSize, event.IsPaid, event.IsLive, event.IsRegistrationOpen,
		event.RegistrationStart, event.RegistrationEnd, event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// List returns all events ordered by creation time descending.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}
