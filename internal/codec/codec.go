// Package codec encodes and decodes redemption codes.
//
// A redemption code is the exact string rendered into the scannable
// QR image. It is composed deterministically from the seat's storage
// key, so it is always regenerable and never stored on its own.
package codec

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Separator joins the pass ID and the seat index. A canonical UUID
// can never contain it, so decoding is unambiguous.
const Separator = ":"

var (
	// ErrBadComponent is returned by Encode when a component could not
	// appear in a valid code (non-UUID pass ID, negative index).
	ErrBadComponent = errors.New("invalid code component")

	// ErrMalformed is returned by Decode for anything that Encode
	// could not have produced.
	ErrMalformed = errors.New("malformed redemption code")
)

// Encode composes the redemption code for a seat.
//
// The pass ID must be a canonical UUID: that both pins the format and
// rules out separator injection at the source, rather than leaving it
// to decode-time heuristics.
func Encode(passID string, seatIndex int) (string, error) {
	id, err := uuid.Parse(passID)
	if err != nil || id.String() != strings.ToLower(passID) {
		return "", ErrBadComponent
	}
	if seatIndex < 0 {
		return "", ErrBadComponent
	}
	return passID + Separator + strconv.Itoa(seatIndex), nil
}

// Decode splits a redemption code back into (passID, seatIndex).
func Decode(code string) (string, int, error) {
	passID, idx, ok := strings.Cut(code, Separator)
	if !ok {
		return "", 0, ErrMalformed
	}
	id, err := uuid.Parse(passID)
	if err != nil || id.String() != strings.ToLower(passID) {
		return "", 0, ErrMalformed
	}
	// Reject "+1", "07", " 1" etc: only what strconv.Itoa produces.
	seatIndex, err := strconv.Atoi(idx)
	if err != nil || seatIndex < 0 || strconv.Itoa(seatIndex) != idx {
		return "", 0, ErrMalformed
	}
	return passID, seatIndex, nil
}
