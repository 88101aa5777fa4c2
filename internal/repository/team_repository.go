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

// TeamRepository handles persistence for teams and their members.
type TeamRepository struct {
	db *pgxpool.Pool
}

// NewTeamRepository constructs a TeamRepository.
func NewTeamRepository(db *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create persists a new team with its founder as the first member.
// Returns ErrJoinCodeTaken when the generated code collides (callers
// regenerate and retry) and ErrDuplicateMember when the founder's
// phone already belongs to a team for the event.
func (r *TeamRepository) Create(ctx context.Context, team *model.Team, founderPhone string, now time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO teams (id, event_id, name, join_code, capacity, member_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, 1, $6)`,
		team.ID, team.EventID, team.Name, team.JoinCode, team.Capacity, now,
	)
	if err != nil {
		if isUniqueViolation(err, "teams_join_code_key") {
			return ErrJoinCodeTaken
		}
		return fmt.Errorf("insert team: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO team_members (team_id, event_id, phone, position, joined_at)
		 VALUES ($1, $2, $3, 0, $4)`,
		team.ID, team.EventID, founderPhone, now,
	)
	if err != nil {
		if isUniqueViolation(err, "team_members_event_id_phone_key") {
			return ErrDuplicateMember
		}
		return fmt.Errorf("insert founder: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	team.MemberCount = 1
	team.CreatedAt = now
	return nil
}

// Join adds a phone number to the team identified by joinCode.
//
// The slot is reserved by a conditional increment: the UPDATE only
// matches while member_count < capacity, so two concurrent joins can
// never both claim the last slot. The member insert rides in the same
// transaction; a duplicate-phone violation rolls the increment back.
func (r *TeamRepository) Join(ctx context.Context, joinCode, phone string, now time.Time) (*model.Team, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var t model.Team
	err = tx.QueryRow(ctx,
		`UPDATE teams
		 SET member_count = member_count + 1
		 WHERE join_code = $1 AND member_count < capacity
		 RETURNING id, event_id, name, join_code, capacity, member_count, created_at`,
		joinCode,
	).Scan(&t.ID, &t.EventID, &t.Name, &t.JoinCode, &t.Capacity, &t.MemberCount, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the code is unknown or the team is full;
			// distinguish with a read on the same transaction.
			return nil, explainJoinFailure(ctx, tx, joinCode)
		}
		return nil, fmt.Errorf("reserve team slot: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO team_members (team_id, event_id, phone, position, joined_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.EventID, phone, t.MemberCount-1, now,
	)
	if err != nil {
		if isUniqueViolation(err, "team_members_event_id_phone_key") {
			return nil, ErrDuplicateMember
		}
		return nil, fmt.Errorf("insert member: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &t, nil
}

func explainJoinFailure(ctx context.Context, tx pgx.Tx, joinCode string) error {
	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM teams WHERE join_code = $1)`, joinCode,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check join code: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrTeamFull
}

// GetByID returns a team or ErrNotFound.
func (r *TeamRepository) GetByID(ctx context.Context, id string) (*model.Team, error) {
	var t model.Team
	err := r.db.QueryRow(ctx,
		`SELECT id, event_id, name, join_code, capacity, member_count, created_at
		 FROM teams WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.EventID, &t.Name, &t.JoinCode, &t.Capacity, &t.MemberCount, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	return &t, nil
}

// Members returns the team's members in join order.
func (r *TeamRepository) Members(ctx context.Context, teamID string) ([]model.TeamMember, error) {
	rows, err := r.db.Query(ctx,
		`SELECT team_id, event_id, phone, position, joined_at
		 FROM team_members
		 WHERE team_id = $1
		 ORDER BY position ASC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.TeamMember
	for rows.Next() {
		var m model.TeamMember
		if err := rows.Scan(&m.TeamID, &m.EventID, &m.Phone, &m.Position, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
