package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rohitdesai-dev/gatepass/internal/clock"
	"github.com/rohitdesai-dev/gatepass/internal/model"
	"github.com/rohitdesai-dev/gatepass/internal/repository"
)

// joinCodeAttempts bounds regeneration when a generated code collides.
const joinCodeAttempts = 5

// TeamService implements the team registry: creating teams and
// joining them by code, with one membership per phone per event.
type TeamService struct {
	events EventStore
	teams  TeamStore
	clock  clock.Clock
}

// NewTeamService constructs a TeamService.
func NewTeamService(events EventStore, teams TeamStore, clk clock.Clock) *TeamService {
	return &TeamService{events: events, teams: teams, clock: clk}
}

// CreateTeam registers a new team for the event with the founder as
// its first member and returns the team with its join code.
func (s *TeamService) CreateTeam(ctx context.Context, ident *model.Identity, eventID string, req model.CreateTeamRequest) (*model.Team, error) {
	if ident == nil {
		return nil, ErrUnauthenticated
	}
	if !isValidPhone(req.Phone) {
		return nil, ErrInvalidPhone
	}
	name := strings.TrimSpace(req.TeamName)
	if len(name) < 2 || len(name) > 60 {
		return nil, ErrInvalidTeamName
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsTeamEvent() {
		return nil, ErrSoloEvent
	}
	if event.Status(s.clock.Now()) != model.StatusLive {
		return nil, ErrEventNotOpen
	}

	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code, err := newJoinCode()
		if err != nil {
			return nil, err
		}
		team := &model.Team{
			ID:       uuid.New().String(),
			EventID:  event.ID,
			Name:     name,
			JoinCode: code,
			Capacity: event.TeamSize,
		}
		err = s.teams.Create(ctx, team, req.Phone, s.clock.Now())
		if err == nil {
			return team, nil
		}
		if errors.Is(err, repository.ErrJoinCodeTaken) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("could not generate a unique join code after %d attempts", joinCodeAttempts)
}

// JoinTeam adds the caller's phone number to the team behind the join
// code. The capacity check and the member insert are one atomic
// operation in the repository, so the last slot can only be won once.
func (s *TeamService) JoinTeam(ctx context.Context, ident *model.Identity, req model.JoinTeamRequest) (*model.Team, error) {
	if ident == nil {
		return nil, ErrUnauthenticated
	}
	if !isValidPhone(req.Phone) {
		return nil, ErrInvalidPhone
	}
	code := strings.ToUpper(strings.TrimSpace(req.JoinCode))
	if code == "" {
		return nil, repository.ErrNotFound
	}

	team, err := s.teams.Join(ctx, code, req.Phone, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return team, nil
}

// GetTeam returns a team by ID.
func (s *TeamService) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	if id == "" {
		return nil, repository.ErrNotFound
	}
	return s.teams.GetByID(ctx, id)
}

// TeamMembers returns a team's members in join order.
func (s *TeamService) TeamMembers(ctx context.Context, teamID string) ([]model.TeamMember, error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return nil, err
	}
	return s.teams.Members(ctx, teamID)
}
