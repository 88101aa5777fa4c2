package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohitdesai-dev/gatepass/internal/clock"
	"github.com/rohitdesai-dev/gatepass/internal/codec"
	"github.com/rohitdesai-dev/gatepass/internal/model"
	"github.com/rohitdesai-dev/gatepass/internal/repository"
)

// checkinFixture issues a real pass through PassService so check-in
// tests operate on codes produced by the actual issuance path.
func checkinFixture(t *testing.T) (*CheckinService, []string) {
	t.Helper()
	ctx := context.Background()

	store := newFakeStore()
	store.addEvent(liveTeamEvent("E1", 2, 10))
	store.addTeam(model.Team{
		ID: "T1", EventID: "E1", Name: "Alpha", JoinCode: "ABC123", Capacity: 2,
	}, "9000000001", "9000000002")

	res, err := newPassService(store).IssuePass(ctx, ident("u1", "9000000001"), model.IssuePassRequest{TeamID: "T1"})
	require.NoError(t, err)

	return NewCheckinService(store, fakePasses{store}, clock.NewFixed(testNow)), res.SeatCodes
}

func TestLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves an unscanned seat", func(t *testing.T) {
		svc, codes := checkinFixture(t)

		res, err := svc.Lookup(ctx, codes[0])
		require.NoError(t, err)
		assert.Equal(t, 0, res.SeatIndex)
		assert.Equal(t, "9000000001", res.AttendeePhone)
		assert.Equal(t, "Hack Night", res.EventName)
		assert.Nil(t, res.PriorScan)
	})

	t.Run("malformed code", func(t *testing.T) {
		svc, _ := checkinFixture(t)
		_, err := svc.Lookup(ctx, "garbage")
		assert.ErrorIs(t, err, codec.ErrMalformed)
	})

	t.Run("unknown seat", func(t *testing.T) {
		svc, codes := checkinFixture(t)
		passID, _, err := codec.Decode(codes[0])
		require.NoError(t, err)

		unknown, err := codec.Encode(passID, 99)
		require.NoError(t, err)
		_, err = svc.Lookup(ctx, unknown)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("lookup never mutates", func(t *testing.T) {
		svc, codes := checkinFixture(t)
		for i := 0; i < 3; i++ {
			res, err := svc.Lookup(ctx, codes[0])
			require.NoError(t, err)
			assert.Nil(t, res.PriorScan)
		}
	})
}

func TestAccept(t *testing.T) {
	ctx := context.Background()

	t.Run("accept then warn", func(t *testing.T) {
		svc, codes := checkinFixture(t)

		res, err := svc.Accept(ctx, codes[0], "scanner7")
		require.NoError(t, err)
		assert.Equal(t, testNow, res.ScannedAt)
		assert.Equal(t, "scanner7", res.ScannedBy)

		// A later accept by anyone observes the prior scan.
		_, err = svc.Accept(ctx, codes[0], "scanner9")
		assert.ErrorIs(t, err, repository.ErrAlreadyScanned)

		// Lookup now carries the prior-scan metadata.
		lookup, err := svc.Lookup(ctx, codes[0])
		require.NoError(t, err)
		require.NotNil(t, lookup.PriorScan)
		assert.Equal(t, testNow, lookup.PriorScan.At)
		assert.Equal(t, "scanner7", lookup.PriorScan.By)

		// The other seat of the pass is untouched.
		other, err := svc.Lookup(ctx, codes[1])
		require.NoError(t, err)
		assert.Nil(t, other.PriorScan)
	})

	t.Run("requires scanner id", func(t *testing.T) {
		svc, codes := checkinFixture(t)
		_, err := svc.Accept(ctx, codes[0], "  ")
		assert.ErrorIs(t, err, ErrInvalidScanner)
	})

	t.Run("malformed code", func(t *testing.T) {
		svc, _ := checkinFixture(t)
		_, err := svc.Accept(ctx, "not:a-code", "scanner7")
		assert.ErrorIs(t, err, codec.ErrMalformed)
	})

	t.Run("unknown seat", func(t *testing.T) {
		svc, codes := checkinFixture(t)
		passID, _, err := codec.Decode(codes[0])
		require.NoError(t, err)
		unknown, err := codec.Encode(passID, 99)
		require.NoError(t, err)

		_, err = svc.Accept(ctx, unknown, "scanner7")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

// TestAcceptAtMostOnce fires N concurrent accepts at one code:
// exactly one succeeds, every other caller observes AlreadyScanned.
func TestAcceptAtMostOnce(t *testing.T) {
	ctx := context.Background()

	for _, scanners := range []int{1, 2, 16, 64} {
		t.Run(fmt.Sprintf("%d concurrent scanners", scanners), func(t *testing.T) {
			svc, codes := checkinFixture(t)

			var wg sync.WaitGroup
			errs := make([]error, scanners)
			for i := 0; i < scanners; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = svc.Accept(ctx, codes[0], fmt.Sprintf("scanner-%d", i))
				}(i)
			}
			wg.Wait()

			var ok, already int
			for _, err := range errs {
				switch {
				case err == nil:
					ok++
				case assert.ErrorIs(t, err, repository.ErrAlreadyScanned):
					already++
				}
			}
			assert.Equal(t, 1, ok)
			assert.Equal(t, scanners-1, already)
		})
	}
}
