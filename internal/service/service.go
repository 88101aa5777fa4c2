// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
//
// Services depend on small store interfaces rather than concrete
// repositories so the protocol logic can be unit-tested against
// in-memory fakes.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rohitdesai-dev/gatepass/internal/model"
)

// ErrUnauthenticated is returned when the caller identity is missing.
var ErrUnauthenticated = errors.New("caller identity required")

// ErrInvalidPhone is returned when a phone number fails format validation.
var ErrInvalidPhone = errors.New("phone must be 10 digits")

// ErrInvalidTeamName is returned when a team name is empty or out of bounds.
var ErrInvalidTeamName = errors.New("team name must be 2-60 characters")

// ErrInvalidEvent wraps event definition validation failures.
var ErrInvalidEvent = errors.New("invalid event")

// ErrEntitlementRequired is returned when an issuance request names
// neither a team nor an event.
var ErrEntitlementRequired = errors.New("entitlement reference required: team_id or event_id")

// ErrEventNotOpen is returned when the event status does not permit
// registration.
var ErrEventNotOpen = errors.New("event is not open for registration")

// ErrSoloEvent is returned when team operations are attempted on a
// solo event.
var ErrSoloEvent = errors.New("event does not use teams")

// ErrTeamRequired is returned when a solo issuance is attempted on a
// team event.
var ErrTeamRequired = errors.New("event requires team registration")

// ErrTeamIncomplete is returned when issuing a pass for a team that
// has not filled all its slots.
var ErrTeamIncomplete = errors.New("team is not complete")

// ErrInvalidScanner is returned when accept is called without a
// scanner identity.
var ErrInvalidScanner = errors.New("scanner id required")

// EventStore is the persistence surface the services need for events.
type EventStore interface {
	Create(ctx context.Context, req model.CreateEventRequest, now time.Time) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
}

// TeamStore is the persistence surface for teams.
type TeamStore interface {
	Create(ctx context.Context, team *model.Team, founderPhone string, now time.Time) error
	Join(ctx context.Context, joinCode, phone string, now time.Time) (*model.Team, error)
	GetByID(ctx context.Context, id string) (*model.Team, error)
	Members(ctx context.Context, teamID string) ([]model.TeamMember, error)
}

// PassStore is the persistence surface for passes and seats.
type PassStore interface {
	Create(ctx context.Context, pass *model.Pass, seats []model.Seat) error
	GetByID(ctx context.Context, id string) (*model.Pass, error)
	GetByTeam(ctx context.Context, teamID string) (*model.Pass, error)
	GetBySolo(ctx context.Context, eventID, holderID string) (*model.Pass, error)
	GetSeat(ctx context.Context, passID string, seatIndex int) (*model.Seat, error)
	Seats(ctx context.Context, passID string) ([]model.Seat, error)
	RedeemSeat(ctx context.Context, passID string, seatIndex int, at time.Time, by string) error
}

// isValidPhone checks for a 10-digit number with a nonzero leading
// digit.
func isValidPhone(phone string) bool {
	if len(phone) != 10 {
		return false
	}
	for _, c := range phone {
		if c < '0' || c > '9' {
			return false
		}
	}
	return phone[0] != '0'
}

// joinCodeAlphabet avoids lookalike characters (0/O, 1/I/L).
const joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const joinCodeLength = 6

// newJoinCode generates a short opaque team join code.
func newJoinCode() (string, error) {
	buf := make([]byte, joinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate join code: %w", err)
	}
	var b strings.Builder
	for _, c := range buf {
		b.WriteByte(joinCodeAlphabet[int(c)%len(joinCodeAlphabet)])
	}
	return b.String(), nil
}
