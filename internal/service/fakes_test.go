package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rohitdesai-dev/gatepass/internal/model"
	"github.com/rohitdesai-dev/gatepass/internal/repository"
)

// fakeStore is an in-memory implementation of EventStore, TeamStore,
// and PassStore. A single mutex makes each operation atomic, matching
// the conditional-update semantics of the Postgres repositories.
type fakeStore struct {
	mu sync.Mutex

	events     map[string]*model.Event
	teams      map[string]*model.Team
	byJoinCode map[string]string
	members    map[string][]model.TeamMember
	phoneTaken map[string]map[string]bool // eventID -> phone -> taken
	passes     map[string]*model.Pass
	passByTeam map[string]string
	passBySolo map[string]string // eventID + "|" + holderID
	seats      map[string]map[int]*model.Seat
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:     make(map[string]*model.Event),
		teams:      make(map[string]*model.Team),
		byJoinCode: make(map[string]string),
		members:    make(map[string][]model.TeamMember),
		phoneTaken: make(map[string]map[string]bool),
		passes:     make(map[string]*model.Pass),
		passByTeam: make(map[string]string),
		passBySolo: make(map[string]string),
		seats:      make(map[string]map[int]*model.Seat),
	}
}

func (f *fakeStore) addEvent(e model.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := e
	f.events[e.ID] = &cp
}

func (f *fakeStore) addTeam(t model.Team, phones ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := t
	cp.MemberCount = len(phones)
	f.teams[t.ID] = &cp
	f.byJoinCode[t.JoinCode] = t.ID
	for i, phone := range phones {
		f.members[t.ID] = append(f.members[t.ID], model.TeamMember{
			TeamID: t.ID, EventID: t.EventID, Phone: phone, Position: i,
		})
		f.takePhone(t.EventID, phone)
	}
}

func (f *fakeStore) takePhone(eventID, phone string) {
	if f.phoneTaken[eventID] == nil {
		f.phoneTaken[eventID] = make(map[string]bool)
	}
	f.phoneTaken[eventID][phone] = true
}

// ── EventStore ────────────────────────────────────────────────────────

func (f *fakeStore) Create(ctx context.Context, req model.CreateEventRequest, now time.Time) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := &model.Event{
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
	f.events[e.ID] = e
	cp := *e
	return &cp, nil
}

func (f *fakeStore) List(ctx context.Context) ([]model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Event
	for _, e := range f.events {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// ── TeamStore ─────────────────────────────────────────────────────────

func (f *fakeStore) CreateTeam(ctx context.Context, team *model.Team, founderPhone string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.byJoinCode[team.JoinCode]; taken {
		return repository.ErrJoinCodeTaken
	}
	if f.phoneTaken[team.EventID][founderPhone] {
		return repository.ErrDuplicateMember
	}
	cp := *team
	cp.MemberCount = 1
	cp.CreatedAt = now
	f.teams[team.ID] = &cp
	f.byJoinCode[team.JoinCode] = team.ID
	f.members[team.ID] = []model.TeamMember{{
		TeamID: team.ID, EventID: team.EventID, Phone: founderPhone, Position: 0, JoinedAt: now,
	}}
	f.takePhone(team.EventID, founderPhone)
	team.MemberCount = 1
	return nil
}

func (f *fakeStore) Join(ctx context.Context, joinCode, phone string, now time.Time) (*model.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	teamID, ok := f.byJoinCode[joinCode]
	if !ok {
		return nil, repository.ErrNotFound
	}
	team := f.teams[teamID]
	if team.MemberCount >= team.Capacity {
		return nil, repository.ErrTeamFull
	}
	if f.phoneTaken[team.EventID][phone] {
		return nil, repository.ErrDuplicateMember
	}
	team.MemberCount++
	f.members[teamID] = append(f.members[teamID], model.TeamMember{
		TeamID: teamID, EventID: team.EventID, Phone: phone,
		Position: team.MemberCount - 1, JoinedAt: now,
	})
	f.takePhone(team.EventID, phone)
	cp := *team
	return &cp, nil
}

func (f *fakeStore) GetTeamByID(ctx context.Context, id string) (*model.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) Members(ctx context.Context, teamID string) ([]model.TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.TeamMember(nil), f.members[teamID]...), nil
}

// ── PassStore ─────────────────────────────────────────────────────────

func (f *fakeStore) CreatePass(ctx context.Context, pass *model.Pass, seats []model.Seat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[pass.EventID]
	if !ok {
		return repository.ErrNotFound
	}
	if pass.TeamID != "" {
		if _, dup := f.passByTeam[pass.TeamID]; dup {
			return repository.ErrAlreadyIssued
		}
	} else {
		if _, dup := f.passBySolo[pass.EventID+"|"+pass.HolderID]; dup {
			return repository.ErrAlreadyIssued
		}
	}
	if event.RegistrationCount+len(seats) > event.TotalSeats {
		return repository.ErrCapacityExceeded
	}
	event.RegistrationCount += len(seats)
	cp := *pass
	cp.SeatCount = len(seats)
	f.passes[pass.ID] = &cp
	if pass.TeamID != "" {
		f.passByTeam[pass.TeamID] = pass.ID
	} else {
		f.passBySolo[pass.EventID+"|"+pass.HolderID] = pass.ID
	}
	f.seats[pass.ID] = make(map[int]*model.Seat)
	for _, s := range seats {
		sc := s
		f.seats[pass.ID][s.SeatIndex] = &sc
	}
	pass.SeatCount = len(seats)
	return nil
}

func (f *fakeStore) GetPassByID(ctx context.Context, id string) (*model.Pass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.passes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetByTeam(ctx context.Context, teamID string) (*model.Pass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.passByTeam[teamID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f.passes[id]
	return &cp, nil
}

func (f *fakeStore) GetBySolo(ctx context.Context, eventID, holderID string) (*model.Pass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.passBySolo[eventID+"|"+holderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f.passes[id]
	return &cp, nil
}

func (f *fakeStore) GetSeat(ctx context.Context, passID string, seatIndex int) (*model.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seats[passID][seatIndex]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) Seats(ctx context.Context, passID string) ([]model.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byIndex := f.seats[passID]
	out := make([]model.Seat, 0, len(byIndex))
	for i := 0; i < len(byIndex); i++ {
		out = append(out, *byIndex[i])
	}
	return out, nil
}

func (f *fakeStore) RedeemSeat(ctx context.Context, passID string, seatIndex int, at time.Time, by string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seats[passID][seatIndex]
	if !ok {
		return repository.ErrNotFound
	}
	if s.Scanned {
		return repository.ErrAlreadyScanned
	}
	s.Scanned = true
	t := at
	s.ScannedAt = &t
	s.ScannedBy = by
	return nil
}

// Adapters so one fake can satisfy all three interfaces despite the
// overlapping method names.

type fakeTeams struct{ *fakeStore }

func (f fakeTeams) Create(ctx context.Context, team *model.Team, founderPhone string, now time.Time) error {
	return f.CreateTeam(ctx, team, founderPhone, now)
}

func (f fakeTeams) GetByID(ctx context.Context, id string) (*model.Team, error) {
	return f.GetTeamByID(ctx, id)
}

type fakePasses struct{ *fakeStore }

func (f fakePasses) Create(ctx context.Context, pass *model.Pass, seats []model.Seat) error {
	return f.CreatePass(ctx, pass, seats)
}

func (f fakePasses) GetByID(ctx context.Context, id string) (*model.Pass, error) {
	return f.GetPassByID(ctx, id)
}
