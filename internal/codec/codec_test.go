package codec

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for _, seatIndex := range []int{0, 1, 7, 42, 999} {
		passID := uuid.NewString()

		code, err := Encode(passID, seatIndex)
		require.NoError(t, err)

		gotPass, gotIndex, err := Decode(code)
		require.NoError(t, err)
		assert.Equal(t, passID, gotPass)
		assert.Equal(t, seatIndex, gotIndex)
	}
}

func TestEncodeRejectsBadComponents(t *testing.T) {
	tests := []struct {
		name      string
		passID    string
		seatIndex int
	}{
		{"empty pass id", "", 0},
		{"not a uuid", "P1", 0},
		{"separator inside pass id", "abc:def", 0},
		{"uuid with extra suffix", uuid.NewString() + "x", 0},
		{"negative seat index", uuid.NewString(), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.passID, tt.seatIndex)
			assert.ErrorIs(t, err, ErrBadComponent)
		})
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	passID := uuid.NewString()

	tests := []struct {
		name string
		code string
	}{
		{"empty", ""},
		{"no separator", passID},
		{"bad uuid", "not-a-uuid:0"},
		{"empty index", passID + ":"},
		{"non-numeric index", passID + ":abc"},
		{"negative index", passID + ":-1"},
		{"leading zero index", passID + ":01"},
		{"plus sign index", passID + ":+1"},
		{"index with space", passID + ": 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.code)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeAcceptsTrailingSeparatorInIndexOnly(t *testing.T) {
	// Cut splits on the first separator, so a stray second separator
	// lands in the index component and must be rejected there.
	passID := uuid.NewString()
	_, _, err := Decode(fmt.Sprintf("%s:0:1", passID))
	assert.ErrorIs(t, err, ErrMalformed)
}
