package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rohitdesai-dev/gatepass/internal/clock"
	"github.com/rohitdesai-dev/gatepass/internal/model"
	"github.com/rohitdesai-dev/gatepass/internal/repository"
)

// EventService handles organizer-side event management. Registration
// itself goes through TeamService and PassService.
type EventService struct {
	events EventStore
	clock  clock.Clock
}

// NewEventService constructs an EventService.
func NewEventService(events EventStore, clk clock.Clock) *EventService {
	return &EventService{events: events, clock: clk}
}

// CreateEvent validates the request and delegates to the repository.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: event name is required", ErrInvalidEvent)
	}
	if req.TotalSeats <= 0 {
		return nil, fmt.Errorf("%w: total_seats must be a positive integer", ErrInvalidEvent)
	}
	if req.TotalSeats > 100_000 {
		return nil, fmt.Errorf("%w: total_seats cannot exceed 100,000", ErrInvalidEvent)
	}
	if req.TeamSize < 0 {
		return nil, fmt.Errorf("%w: team_size cannot be negative", ErrInvalidEvent)
	}
	if req.TeamSize > 0 && req.TotalSeats%req.TeamSize != 0 {
		return nil, fmt.Errorf("%w: total_seats must be a multiple of team_size", ErrInvalidEvent)
	}
	if !req.RegistrationEnd.After(req.RegistrationStart) {
		return nil, fmt.Errorf("%w: registration window must end after it starts", ErrInvalidEvent)
	}
	return s.events.Create(ctx, req, s.clock.Now())
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx)
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, fmt.Errorf("event id is required")
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}
