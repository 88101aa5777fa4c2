// Package regstate models the client-visible registration flow as an
// explicit state machine: a tagged enum of states, a tagged enum of
// inputs, and one transition function. The UI is a pure projection of
// the current state; nothing here knows about rendering.
package regstate

import (
	"errors"

	"github.com/rohitdesai-dev/gatepass/internal/model"
)

// State is one screen-worth of registration progress.
type State string

const (
	StateInitial         State = "initial"
	StateTeamOptions     State = "team_options"
	StateJoinTeamPhone   State = "join_team_phone"
	StateJoinTeamCode    State = "join_team_code"
	StateTeamJoined      State = "team_joined"
	StateCreateTeamPhone State = "create_team_phone"
	StateCreateTeamName  State = "create_team_name"
	StateCreateTeamCode  State = "create_team_code"
	StatePaymentRedirect State = "payment_redirect"
	StateClaimPending    State = "claim_pending" // free solo, issuance in flight
	StatePassCreated     State = "pass_created"  // terminal
	StateErrored         State = "errored"
)

// InputKind tags the inputs the machine reacts to.
type InputKind string

const (
	InputBegin            InputKind = "begin"
	InputChooseJoin       InputKind = "choose_join"
	InputChooseCreate     InputKind = "choose_create"
	InputPhoneEntered     InputKind = "phone_entered"
	InputCodeEntered      InputKind = "code_entered"
	InputNameEntered      InputKind = "name_entered"
	InputTeamJoined       InputKind = "team_joined"
	InputTeamCreated      InputKind = "team_created"
	InputPaymentConfirmed InputKind = "payment_confirmed"
	InputPassIssued       InputKind = "pass_issued"
	InputFail             InputKind = "fail"
	InputReset            InputKind = "reset"
)

// Input is one user action or backend outcome fed to the machine.
// Begin carries the event context that gates the whole flow.
type Input struct {
	Kind      InputKind
	Status    model.EventStatus // Begin
	TeamEvent bool              // Begin
	Paid      bool              // Begin
	Message   string            // Fail
}

var (
	// ErrInvalidTransition is returned when the input is not legal in
	// the current state; the state is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrRegistrationUnavailable is returned by Begin when the event
	// status does not permit registration.
	ErrRegistrationUnavailable = errors.New("registration unavailable")
)

// Machine holds the current flow position. The zero value is not
// usable; construct with New.
type Machine struct {
	state State
	// Message carries the user-facing error text while in
	// StateErrored; empty otherwise.
	Message string
}

// New returns a machine in the initial state.
func New() *Machine {
	return &Machine{state: StateInitial}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Apply feeds one input to the machine. On error the state is
// unchanged, except Fail, which is accepted from any non-terminal
// state.
func (m *Machine) Apply(in Input) error {
	next, err := transition(m.state, in)
	if err != nil {
		return err
	}
	m.state = next
	if in.Kind == InputFail {
		m.Message = in.Message
	} else {
		m.Message = ""
	}
	return nil
}

// transition is the single source of truth for the flow.
func transition(s State, in Input) (State, error) {
	switch in.Kind {
	case InputFail:
		if s == StatePassCreated {
			return s, ErrInvalidTransition
		}
		return StateErrored, nil
	case InputReset:
		if s == StatePassCreated {
			return s, ErrInvalidTransition
		}
		return StateInitial, nil
	}

	switch s {
	case StateInitial:
		if in.Kind != InputBegin {
			return s, ErrInvalidTransition
		}
		// registration_closed and ended are dead ends; coming_soon
		// keeps the action disabled. Only live proceeds.
		if in.Status != model.StatusLive {
			return s, ErrRegistrationUnavailable
		}
		if in.TeamEvent {
			return StateTeamOptions, nil
		}
		if in.Paid {
			return StatePaymentRedirect, nil
		}
		// Free solo registration skips the redirect and goes straight
		// to issuance.
		return StateClaimPending, nil

	case StateTeamOptions:
		switch in.Kind {
		case InputChooseJoin:
			return StateJoinTeamPhone, nil
		case InputChooseCreate:
			return StateCreateTeamPhone, nil
		}

	case StateJoinTeamPhone:
		if in.Kind == InputPhoneEntered {
			return StateJoinTeamCode, nil
		}

	case StateJoinTeamCode:
		switch in.Kind {
		case InputCodeEntered:
			// Submission in flight; the screen does not change until
			// the backend confirms the join.
			return StateJoinTeamCode, nil
		case InputTeamJoined:
			return StateTeamJoined, nil
		}

	case StateTeamJoined:
		if in.Kind == InputPassIssued {
			return StatePassCreated, nil
		}

	case StateCreateTeamPhone:
		if in.Kind == InputPhoneEntered {
			return StateCreateTeamName, nil
		}

	case StateCreateTeamName:
		if in.Kind == InputNameEntered {
			return StateCreateTeamCode, nil
		}

	case StateCreateTeamCode:
		// The founder sits on the join-code screen until the team
		// fills and the pass is minted.
		if in.Kind == InputPassIssued {
			return StatePassCreated, nil
		}

	case StatePaymentRedirect:
		switch in.Kind {
		case InputPaymentConfirmed:
			return StateClaimPending, nil
		case InputPassIssued:
			return StatePassCreated, nil
		}

	case StateClaimPending:
		if in.Kind == InputPassIssued {
			return StatePassCreated, nil
		}

	case StatePassCreated:
		// Terminal: seat codes are on screen.
		return s, ErrInvalidTransition

	case StateErrored:
		// Only Reset (handled above) leaves the error screen.
		return s, ErrInvalidTransition
	}

	return s, ErrInvalidTransition
}
