package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rohitdesai-dev/gatepass/internal/model"
)

// PassRepository handles persistence for passes and their seats,
// including seat redemption at check-in time.
type PassRepository struct {
	db *pgxpool.Pool
}

// NewPassRepository constructs a PassRepository.
func NewPassRepository(db *pgxpool.Pool) *PassRepository {
	return &PassRepository{db: db}
}

// Create mints a pass with its seats in one transaction.
//
// The event counter is advanced by a conditional increment that only
// matches while the seats still fit; zero rows affected means the
// issuance would overbook and fails with ErrCapacityExceeded before
// anything is written. The unique entitlement indexes turn a
// concurrent duplicate issuance into ErrAlreadyIssued, which also
// rolls the counter back.
func (r *PassRepository) Create(ctx context.Context, pass *model.Pass, seats []model.Seat) error {
	if len(seats) == 0 {
		return fmt.Errorf("pass must have at least one seat")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx,
		`UPDATE events
		 SET registration_count = registration_count + $2
		 WHERE id = $1 AND registration_count + $2 <= total_seats`,
		pass.EventID, len(seats),
	)
	if err != nil {
		return fmt.Errorf("reserve event seats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Diagnose on the same transaction; a second pool acquire here
		// could stall while this one holds a connection.
		var exists bool
		if err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, pass.EventID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check event: %w", err)
		}
		if !exists {
			err = ErrNotFound
			return err
		}
		err = ErrCapacityExceeded
		return err
	}

	var teamID, holderID any
	if pass.TeamID != "" {
		teamID = pass.TeamID
	}
	if pass.HolderID != "" {
		holderID = pass.HolderID
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO passes (id, event_id, team_id, holder_id, seat_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		pass.ID, pass.EventID, teamID, holderID, len(seats), pass.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "passes_team_entitlement") ||
			isUniqueViolation(err, "passes_solo_entitlement") {
			return ErrAlreadyIssued
		}
		return fmt.Errorf("insert pass: %w", err)
	}

	for _, seat := range seats {
		_, err = tx.Exec(ctx,
			`INSERT INTO seats (pass_id, seat_index, attendee_phone, scanned)
			 VALUES ($1, $2, $3, FALSE)`,
			pass.ID, seat.SeatIndex, seat.AttendeePhone,
		)
		if err != nil {
			return fmt.Errorf("insert seat %d: %w", seat.SeatIndex, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	pass.SeatCount = len(seats)
	return nil
}

const passColumns = `id, event_id, COALESCE(team_id::text, ''), COALESCE(holder_id, ''), seat_count, created_at`

func scanPass(row pgx.Row) (*model.Pass, error) {
	var p model.Pass
	err := row.Scan(&p.ID, &p.EventID, &p.TeamID, &p.HolderID, &p.SeatCount, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID returns a pass or ErrNotFound.
func (r *PassRepository) GetByID(ctx context.Context, id string) (*model.Pass, error) {
	p, err := scanPass(r.db.QueryRow(ctx,
		`SELECT `+passColumns+` FROM passes WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get pass: %w", err)
	}
	return p, nil
}

// GetByTeam returns the pass issued for a team, or ErrNotFound.
func (r *PassRepository) GetByTeam(ctx context.Context, teamID string) (*model.Pass, error) {
	p, err := scanPass(r.db.QueryRow(ctx,
		`SELECT `+passColumns+` FROM passes WHERE team_id = $1`, teamID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get team pass: %w", err)
	}
	return p, nil
}

// GetBySolo returns the pass issued for a solo booking, or ErrNotFound.
func (r *PassRepository) GetBySolo(ctx context.Context, eventID, holderID string) (*model.Pass, error) {
	p, err := scanPass(r.db.QueryRow(ctx,
		`SELECT `+passColumns+` FROM passes
		 WHERE event_id = $1 AND holder_id = $2 AND team_id IS NULL`,
		eventID, holderID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get solo pass: %w", err)
	}
	return p, nil
}

const seatColumns = `pass_id, seat_index, attendee_phone, scanned, scanned_at, COALESCE(scanned_by, '')`

func scanSeat(row pgx.Row) (*model.Seat, error) {
	var s model.Seat
	err := row.Scan(&s.PassID, &s.SeatIndex, &s.AttendeePhone, &s.Scanned, &s.ScannedAt, &s.ScannedBy)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSeat returns one seat or ErrNotFound.
func (r *PassRepository) GetSeat(ctx context.Context, passID string, seatIndex int) (*model.Seat, error) {
	s, err := scanSeat(r.db.QueryRow(ctx,
		`SELECT `+seatColumns+` FROM seats WHERE pass_id = $1 AND seat_index = $2`,
		passID, seatIndex,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get seat: %w", err)
	}
	return s, nil
}

// Seats returns a pass's seats in index order.
func (r *PassRepository) Seats(ctx context.Context, passID string) ([]model.Seat, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+seatColumns+` FROM seats WHERE pass_id = $1 ORDER BY seat_index ASC`,
		passID,
	)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		seats = append(seats, *s)
	}
	return seats, rows.Err()
}

// RedeemSeat marks a seat scanned, at most once.
//
// The WHERE scanned = FALSE predicate is the whole at-most-once
// guarantee: of any number of concurrent redemptions exactly one
// matches the row, and every other caller sees zero rows affected and
// gets ErrAlreadyScanned. Never implemented as read-then-write.
func (r *PassRepository) RedeemSeat(ctx context.Context, passID string, seatIndex int, at time.Time, by string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE seats
		 SET scanned = TRUE, scanned_at = $3, scanned_by = $4
		 WHERE pass_id = $1 AND seat_index = $2 AND scanned = FALSE`,
		passID, seatIndex, at, by,
	)
	if err != nil {
		return fmt.Errorf("redeem seat: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// No transition happened: the seat is either unknown or already
	// redeemed.
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM seats WHERE pass_id = $1 AND seat_index = $2)`,
		passID, seatIndex,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check seat: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAlreadyScanned
}
