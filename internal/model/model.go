// Package model defines the core domain types for the ticketing core:
// events, teams, passes, and seats.
package model

import "time"

// EventStatus is the derived lifecycle status of an event, computed
// from the registration window and the organizer-controlled flags.
type EventStatus string

const (
	StatusRegistrationClosed EventStatus = "registration_closed"
	StatusComingSoon         EventStatus = "coming_soon"
	StatusLive               EventStatus = "live"
	StatusEnded              EventStatus = "ended"
)

// Event represents a bookable event created by an organizer.
// RegistrationCount never exceeds TotalSeats; it is incremented only
// by the conditional update in the pass issuance transaction.
type Event struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Venue              string    `json:"venue"`
	TotalSeats         int       `json:"total_seats"`
	RegistrationCount  int       `json:"registration_count"`
	TeamSize           int       `json:"team_size"` // 0 = solo event
	IsPaid             bool      `json:"is_paid"`
	IsLive             bool      `json:"is_live"`
	IsRegistrationOpen bool      `json:"is_registration_open"`
	RegistrationStart  time.Time `json:"registration_start"`
	RegistrationEnd    time.Time `json:"registration_end"`
	CreatedAt          time.Time `json:"created_at"`
}

// Status derives the event status at the given instant.
//
// Outside the registration window the flags are irrelevant: before it
// the event is coming soon, after it the event has ended. Inside the
// window the organizer flags decide: an event that is not live yet is
// still coming soon, a live event with registration toggled off is
// closed, and only live + open yields "live".
func (e *Event) Status(now time.Time) EventStatus {
	if now.After(e.RegistrationEnd) {
		return StatusEnded
	}
	if now.Before(e.RegistrationStart) {
		return StatusComingSoon
	}
	if !e.IsLive {
		return StatusComingSoon
	}
	if !e.IsRegistrationOpen {
		return StatusRegistrationClosed
	}
	return StatusLive
}

// IsTeamEvent reports whether registration goes through team
// formation rather than solo booking.
func (e *Event) IsTeamEvent() bool {
	return e.TeamSize > 0
}

// Remaining returns the number of unissued seats.
func (e *Event) Remaining() int {
	return e.TotalSeats - e.RegistrationCount
}

// Team groups registrants for a team event. Members join via the
// opaque JoinCode until MemberCount reaches Capacity.
type Team struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	Name        string    `json:"name"`
	JoinCode    string    `json:"join_code"`
	Capacity    int       `json:"capacity"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsComplete reports whether the team has filled every slot.
func (t *Team) IsComplete() bool {
	return t.MemberCount >= t.Capacity
}

// TeamMember is one phone number occupying one team slot. A phone
// number belongs to at most one team per event.
type TeamMember struct {
	TeamID   string    `json:"team_id"`
	EventID  string    `json:"event_id"`
	Phone    string    `json:"phone"`
	Position int       `json:"position"`
	JoinedAt time.Time `json:"joined_at"`
}

// Pass is a minted ticket: one seat per attendee. Exactly one pass
// exists per entitlement (a completed team, or a solo booking).
// Immutable after creation except for seat redemption state.
type Pass struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	TeamID    string    `json:"team_id,omitempty"`   // set for team passes
	HolderID  string    `json:"holder_id,omitempty"` // set for solo passes
	SeatCount int       `json:"seat_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Seat is one redeemable unit within a pass. Scanned transitions
// false→true exactly once, via a single conditional update.
type Seat struct {
	PassID        string     `json:"pass_id"`
	SeatIndex     int        `json:"seat_index"`
	AttendeePhone string     `json:"attendee_phone,omitempty"`
	Scanned       bool       `json:"scanned"`
	ScannedAt     *time.Time `json:"scanned_at,omitempty"`
	ScannedBy     string     `json:"scanned_by,omitempty"`
}

// PriorScan describes an earlier successful redemption of a seat.
type PriorScan struct {
	At time.Time `json:"at"`
	By string    `json:"by"`
}

// Identity is the authenticated caller supplied by the external
// identity provider. The core trusts it as-is.
type Identity struct {
	UserID string
	Phone  string
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Venue              string    `json:"venue"`
	TotalSeats         int       `json:"total_seats"`
	TeamSize           int       `json:"team_size"`
	IsPaid             bool      `json:"is_paid"`
	IsLive             bool      `json:"is_live"`
	IsRegistrationOpen bool      `json:"is_registration_open"`
	RegistrationStart  time.Time `json:"registration_start"`
	RegistrationEnd    time.Time `json:"registration_end"`
}

// CreateTeamRequest is the payload for creating a team.
type CreateTeamRequest struct {
	Phone    string `json:"phone"`
	TeamName string `json:"team_name"`
}

// JoinTeamRequest is the payload for joining a team by code.
type JoinTeamRequest struct {
	JoinCode string `json:"join_code"`
	Phone    string `json:"phone"`
}

// IssuePassRequest identifies the entitlement to mint a pass for:
// either a completed team, or a solo booking on an event.
type IssuePassRequest struct {
	TeamID  string `json:"team_id,omitempty"`
	EventID string `json:"event_id,omitempty"`
}

// AcceptRequest carries the scanner identity for a redemption.
type AcceptRequest struct {
	ScannerID string `json:"scanner_id"`
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
