package service

import (
	"context"
	"strings"
	"time"

	"github.com/rohitdesai-dev/gatepass/internal/clock"
	"github.com/rohitdesai-dev/gatepass/internal/codec"
	"github.com/rohitdesai-dev/gatepass/internal/model"
)

// CheckinService verifies redemption codes at the venue. Lookup is
// read-only; Accept consumes a seat at most once.
type CheckinService struct {
	events EventStore
	passes PassStore
	clock  clock.Clock
}

// NewCheckinService constructs a CheckinService.
func NewCheckinService(events EventStore, passes PassStore, clk clock.Clock) *CheckinService {
	return &CheckinService{events: events, passes: passes, clock: clk}
}

// LookupResult describes a scanned code without changing any state.
// PriorScan is set when the seat was already redeemed, so the scanner
// UI can warn before (or instead of) accepting.
type LookupResult struct {
	PassID        string           `json:"pass_id"`
	SeatIndex     int              `json:"seat_index"`
	AttendeePhone string           `json:"attendee_phone,omitempty"`
	EventID       string           `json:"event_id"`
	EventName     string           `json:"event_name"`
	PriorScan     *model.PriorScan `json:"prior_scan,omitempty"`
}

// Lookup resolves a redemption code to its seat and prior-scan state.
func (s *CheckinService) Lookup(ctx context.Context, code string) (*LookupResult, error) {
	passID, seatIndex, err := codec.Decode(code)
	if err != nil {
		return nil, err
	}

	seat, err := s.passes.GetSeat(ctx, passID, seatIndex)
	if err != nil {
		return nil, err
	}
	pass, err := s.passes.GetByID(ctx, passID)
	if err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, pass.EventID)
	if err != nil {
		return nil, err
	}

	result := &LookupResult{
		PassID:        seat.PassID,
		SeatIndex:     seat.SeatIndex,
		AttendeePhone: seat.AttendeePhone,
		EventID:       event.ID,
		EventName:     event.Name,
	}
	if seat.Scanned && seat.ScannedAt != nil {
		result.PriorScan = &model.PriorScan{At: *seat.ScannedAt, By: seat.ScannedBy}
	}
	return result, nil
}

// AcceptResult reports the instant a seat was consumed.
type AcceptResult struct {
	PassID    string    `json:"pass_id"`
	SeatIndex int       `json:"seat_index"`
	ScannedAt time.Time `json:"scanned_at"`
	ScannedBy string    `json:"scanned_by"`
}

// Accept consumes a seat. Of any number of concurrent calls for the
// same code exactly one succeeds; the rest observe ErrAlreadyScanned
// and mutate nothing. Once committed the scan is final: there is no
// undo and no cancellation.
func (s *CheckinService) Accept(ctx context.Context, code, scannerID string) (*AcceptResult, error) {
	scannerID = strings.TrimSpace(scannerID)
	if scannerID == "" {
		return nil, ErrInvalidScanner
	}

	passID, seatIndex, err := codec.Decode(code)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.passes.RedeemSeat(ctx, passID, seatIndex, now, scannerID); err != nil {
		return nil, err
	}
	return &AcceptResult{
		PassID:    passID,
		SeatIndex: seatIndex,
		ScannedAt: now,
		ScannedBy: scannerID,
	}, nil
}
