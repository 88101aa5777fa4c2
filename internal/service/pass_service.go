package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rohitdesai-dev/gatepass/internal/clock"
	"github.com/rohitdesai-dev/gatepass/internal/codec"
	"github.com/rohitdesai-dev/gatepass/internal/model"
	"github.com/rohitdesai-dev/gatepass/internal/repository"
)

// PassService mints passes for confirmed entitlements: a completed
// team, or a solo booking. Issuance is idempotent per entitlement.
type PassService struct {
	events EventStore
	teams  TeamStore
	passes PassStore
	clock  clock.Clock
}

// NewPassService constructs a PassService.
func NewPassService(events EventStore, teams TeamStore, passes PassStore, clk clock.Clock) *PassService {
	return &PassService{events: events, teams: teams, passes: passes, clock: clk}
}

// IssueResult is the outcome of an issuance: the pass, one redemption
// code per seat, and whether this call minted the pass or found an
// existing one.
type IssueResult struct {
	Pass      *model.Pass
	SeatCodes []string
	Created   bool
}

// IssuePass mints (or returns) the pass for the entitlement in req.
//
// A retry for an entitlement that already has a pass returns that
// pass and its codes rather than minting a duplicate; concurrent
// duplicates resolve the same way through the unique entitlement
// index. The event seat counter is advanced by the repository's
// conditional increment inside the same transaction that creates the
// pass, so over-issuance fails atomically with ErrCapacityExceeded.
func (s *PassService) IssuePass(ctx context.Context, ident *model.Identity, req model.IssuePassRequest) (*IssueResult, error) {
	if ident == nil {
		return nil, ErrUnauthenticated
	}
	if req.TeamID != "" {
		return s.issueForTeam(ctx, req.TeamID)
	}
	if req.EventID != "" {
		return s.issueForSolo(ctx, req.EventID, ident)
	}
	return nil, ErrEntitlementRequired
}

func (s *PassService) issueForTeam(ctx context.Context, teamID string) (*IssueResult, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.passes.GetByTeam(ctx, teamID); err == nil {
		return s.resultFor(existing, false)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if !team.IsComplete() {
		return nil, ErrTeamIncomplete
	}

	members, err := s.teams.Members(ctx, teamID)
	if err != nil {
		return nil, err
	}

	pass := &model.Pass{
		ID:        uuid.New().String(),
		EventID:   team.EventID,
		TeamID:    team.ID,
		CreatedAt: s.clock.Now(),
	}
	seats := make([]model.Seat, 0, len(members))
	for i, m := range members {
		seats = append(seats, model.Seat{
			PassID:        pass.ID,
			SeatIndex:     i,
			AttendeePhone: m.Phone,
		})
	}

	if err := s.passes.Create(ctx, pass, seats); err != nil {
		if errors.Is(err, repository.ErrAlreadyIssued) {
			// Lost a race with a concurrent issuance; hand back the
			// winner's pass.
			existing, err := s.passes.GetByTeam(ctx, teamID)
			if err != nil {
				return nil, err
			}
			return s.resultFor(existing, false)
		}
		return nil, err
	}
	return s.resultFor(pass, true)
}

func (s *PassService) issueForSolo(ctx context.Context, eventID string, ident *model.Identity) (*IssueResult, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.IsTeamEvent() {
		return nil, ErrTeamRequired
	}

	if existing, err := s.passes.GetBySolo(ctx, eventID, ident.UserID); err == nil {
		return s.resultFor(existing, false)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	pass := &model.Pass{
		ID:        uuid.New().String(),
		EventID:   eventID,
		HolderID:  ident.UserID,
		CreatedAt: s.clock.Now(),
	}
	seats := []model.Seat{{
		PassID:        pass.ID,
		SeatIndex:     0,
		AttendeePhone: ident.Phone,
	}}

	if err := s.passes.Create(ctx, pass, seats); err != nil {
		if errors.Is(err, repository.ErrAlreadyIssued) {
			existing, err := s.passes.GetBySolo(ctx, eventID, ident.UserID)
			if err != nil {
				return nil, err
			}
			return s.resultFor(existing, false)
		}
		return nil, err
	}
	return s.resultFor(pass, true)
}

// resultFor regenerates the seat codes for a pass. Codes are never
// stored; they are always derived from (passID, seatIndex).
func (s *PassService) resultFor(pass *model.Pass, created bool) (*IssueResult, error) {
	codes := make([]string, 0, pass.SeatCount)
	for i := 0; i < pass.SeatCount; i++ {
		code, err := codec.Encode(pass.ID, i)
		if err != nil {
			return nil, fmt.Errorf("encode seat %d: %w", i, err)
		}
		codes = append(codes, code)
	}
	return &IssueResult{Pass: pass, SeatCodes: codes, Created: created}, nil
}

// GetPass returns a pass with its seat codes.
func (s *PassService) GetPass(ctx context.Context, id string) (*IssueResult, error) {
	pass, err := s.passes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.resultFor(pass, false)
}
