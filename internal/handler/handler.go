// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/rohitdesai-dev/gatepass/internal/clock"
	"github.com/rohitdesai-dev/gatepass/internal/codec"
	"github.com/rohitdesai-dev/gatepass/internal/model"
	"github.com/rohitdesai-dev/gatepass/internal/repository"
	"github.com/rohitdesai-dev/gatepass/internal/service"
)

// EventService is the surface the handlers need for events.
type EventService interface {
	CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
}

// TeamService is the surface the handlers need for the team registry.
type TeamService interface {
	CreateTeam(ctx context.Context, ident *model.Identity, eventID string, req model.CreateTeamRequest) (*model.Team, error)
	JoinTeam(ctx context.Context, ident *model.Identity, req model.JoinTeamRequest) (*model.Team, error)
	GetTeam(ctx context.Context, id string) (*model.Team, error)
	TeamMembers(ctx context.Context, teamID string) ([]model.TeamMember, error)
}

// PassService is the surface the handlers need for pass issuance.
type PassService interface {
	IssuePass(ctx context.Context, ident *model.Identity, req model.IssuePassRequest) (*service.IssueResult, error)
	GetPass(ctx context.Context, id string) (*service.IssueResult, error)
}

// CheckinService is the surface the handlers need for check-in.
type CheckinService interface {
	Lookup(ctx context.Context, code string) (*service.LookupResult, error)
	Accept(ctx context.Context, code, scannerID string) (*service.AcceptResult, error)
}

// Handler holds all HTTP handlers for the ticketing API.
type Handler struct {
	events  EventService
	teams   TeamService
	passes  PassService
	checkin CheckinService
	clock   clock.Clock
}

// NewHandler constructs a Handler.
func NewHandler(events EventService, teams TeamService, passes PassService, checkin CheckinService, clk clock.Clock) *Handler {
	return &Handler{events: events, teams: teams, passes: passes, checkin: checkin, clock: clk}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg, Code: code})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps domain errors onto HTTP statuses with stable
// error codes. Unknown errors are logged and masked as internal.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated", "login required")
	case errors.Is(err, service.ErrInvalidPhone):
		writeError(w, http.StatusBadRequest, "invalid_phone", err.Error())
	case errors.Is(err, service.ErrInvalidTeamName):
		writeError(w, http.StatusBadRequest, "invalid_team_name", err.Error())
	case errors.Is(err, service.ErrInvalidEvent):
		writeError(w, http.StatusBadRequest, "invalid_event", err.Error())
	case errors.Is(err, service.ErrEntitlementRequired):
		writeError(w, http.StatusBadRequest, "entitlement_required", err.Error())
	case errors.Is(err, service.ErrInvalidScanner):
		writeError(w, http.StatusBadRequest, "invalid_scanner", err.Error())
	case errors.Is(err, codec.ErrMalformed):
		writeError(w, http.StatusBadRequest, "malformed_code", err.Error())
	case errors.Is(err, service.ErrSoloEvent):
		writeError(w, http.StatusBadRequest, "solo_event", err.Error())
	case errors.Is(err, service.ErrTeamRequired):
		writeError(w, http.StatusBadRequest, "team_required", err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, service.ErrEventNotOpen):
		writeError(w, http.StatusConflict, "event_not_open", err.Error())
	case errors.Is(err, repository.ErrTeamFull):
		writeError(w, http.StatusConflict, "team_full", err.Error())
	case errors.Is(err, repository.ErrDuplicateMember):
		writeError(w, http.StatusConflict, "duplicate_member", err.Error())
	case errors.Is(err, service.ErrTeamIncomplete):
		writeError(w, http.StatusConflict, "team_incomplete", err.Error())
	case errors.Is(err, repository.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, "capacity_exceeded", err.Error())
	case errors.Is(err, repository.ErrAlreadyScanned):
		writeError(w, http.StatusConflict, "already_scanned", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "temporarily unavailable, retry later")
	default:
		logrus.WithError(err).Error("internal error")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

// ─── Event handlers ───────────────────────────────────────────────────────────

// eventResponse is an event together with its derived status.
type eventResponse struct {
	model.Event
	Status model.EventStatus `json:"status"`
}

// CreateEvent handles POST /events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.CreateEvent(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, eventResponse{Event: *event, Status: event.Status(h.clock.Now())})
}

// ListEvents handles GET /events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	resp := make([]eventResponse, 0, len(events))
	now := h.clock.Now()
	for _, e := range events {
		resp = append(resp, eventResponse{Event: e, Status: e.Status(now)})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	event, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, eventResponse{Event: *event, Status: event.Status(h.clock.Now())})
}

// ─── Team handlers ────────────────────────────────────────────────────────────

type createTeamResponse struct {
	TeamID   string `json:"team_id"`
	JoinCode string `json:"join_code"`
	TeamName string `json:"team_name"`
	Capacity int    `json:"capacity"`
}

// CreateTeam handles POST /events/{id}/teams
func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	var req model.CreateTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid request body: "+err.Error())
		return
	}

	team, err := h.teams.CreateTeam(r.Context(), identityFrom(r.Context()), eventID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createTeamResponse{
		TeamID:   team.ID,
		JoinCode: team.JoinCode,
		TeamName: team.Name,
		Capacity: team.Capacity,
	})
}

type joinTeamResponse struct {
	TeamID      string `json:"team_id"`
	TeamName    string `json:"team_name"`
	MemberCount int    `json:"member_count"`
	Capacity    int    `json:"capacity"`
}

// JoinTeam handles POST /teams/join
func (h *Handler) JoinTeam(w http.ResponseWriter, r *http.Request) {
	var req model.JoinTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid request body: "+err.Error())
		return
	}

	team, err := h.teams.JoinTeam(r.Context(), identityFrom(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, joinTeamResponse{
		TeamID:      team.ID,
		TeamName:    team.Name,
		MemberCount: team.MemberCount,
		Capacity:    team.Capacity,
	})
}

type teamResponse struct {
	model.Team
	Members []model.TeamMember `json:"members"`
}

// GetTeam handles GET /teams/{id}
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	team, err := h.teams.GetTeam(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	members, err := h.teams.TeamMembers(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, teamResponse{Team: *team, Members: members})
}

// ─── Pass handlers ────────────────────────────────────────────────────────────

type passResponse struct {
	PassID    string   `json:"pass_id"`
	EventID   string   `json:"event_id"`
	SeatCodes []string `json:"seat_codes"`
}

// IssuePass handles POST /passes
//
// Responds 201 when this call minted the pass and 200 when the
// entitlement already had one (idempotent retry).
func (h *Handler) IssuePass(w http.ResponseWriter, r *http.Request) {
	var req model.IssuePassRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid request body: "+err.Error())
		return
	}

	res, err := h.passes.IssuePass(r.Context(), identityFrom(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, passResponse{
		PassID:    res.Pass.ID,
		EventID:   res.Pass.EventID,
		SeatCodes: res.SeatCodes,
	})
}

// GetPass handles GET /passes/{id}
func (h *Handler) GetPass(w http.ResponseWriter, r *http.Request) {
	res, err := h.passes.GetPass(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, passResponse{
		PassID:    res.Pass.ID,
		EventID:   res.Pass.EventID,
		SeatCodes: res.SeatCodes,
	})
}

// ─── Check-in handlers ────────────────────────────────────────────────────────

// Lookup handles GET /checkin/{code}
//
// Read-only: already-scanned seats come back 200 with prior-scan
// metadata so the scanner UI can warn without mutating anything.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	res, err := h.checkin.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Accept handles POST /checkin/{code}/accept
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	var req model.AcceptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid request body: "+err.Error())
		return
	}

	res, err := h.checkin.Accept(r.Context(), chi.URLParam(r, "code"), req.ScannerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
