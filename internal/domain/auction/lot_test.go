package auction

import (
	"testing"
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLot(t *testing.T) {
	sellerID := uuid.New()
	start := time.Now()
	end := start.Add(24 * time.Hour)
	price := func(v int64) valueobject.Money {
		return valueobject.NewMoneyUSD(decimal.NewFromInt(v))
	}

	t.Run("creates an open lot", func(t *testing.T) {
		lot, err := NewLot(sellerID, "Vintage Camera", price(1000), price(100), nil, start, end)
		require.NoError(t, err)
		assert.Equal(t, LotStatusOpen, lot.Status)
		assert.True(t, lot.CurrentPrice.Equal(decimal.NewFromInt(1000)))
		assert.Nil(t, lot.CurrentLeaderID)
		assert.Equal(t, 0, lot.BidCount)
		assert.Len(t, lot.GetDomainEvents(), 1)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		_, err := NewLot(sellerID, "", price(1000), price(100), nil, start, end)
		require.Error(t, err)
		domainErr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "INVALID_TITLE", domainErr.Code)
	})

	t.Run("rejects non-positive increment", func(t *testing.T) {
		_, err := NewLot(sellerID, "Vintage Camera", price(1000), price(0), nil, start, end)
		require.Error(t, err)
	})

	t.Run("rejects buy-now at or below starting price", func(t *testing.T) {
		buyNow := price(1000)
		_, err := NewLot(sellerID, "Vintage Camera", price(1000), price(100), &buyNow, start, end)
		require.Error(t, err)
		domainErr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "INVALID_BUY_NOW", domainErr.Code)
	})

	t.Run("rejects end before start", func(t *testing.T) {
		_, err := NewLot(sellerID, "Vintage Camera", price(1000), price(100), nil, end, start)
		require.Error(t, err)
	})
}

func TestLotStatusTransitions(t *testing.T) {
	assert.True(t, LotStatusOpen.CanTransitionTo(LotStatusEnded))
	assert.True(t, LotStatusEnded.CanTransitionTo(LotStatusSettled))
	assert.True(t, LotStatusEnded.CanTransitionTo(LotStatusPassed))
	assert.False(t, LotStatusOpen.CanTransitionTo(LotStatusSettled))
	assert.False(t, LotStatusSettled.CanTransitionTo(LotStatusOpen))
	assert.False(t, LotStatusPassed.CanTransitionTo(LotStatusEnded))
}

func TestLot_MinimumValidBid(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	assert.True(t, lot.MinimumValidBid().Equal(decimal.NewFromInt(1000)))

	applyRound(t, lot, []Candidate{proxyAt(uuid.New(), 2000, 100, time.Now())})
	assert.True(t, lot.MinimumValidBid().Equal(decimal.NewFromInt(1100)))
}

func TestLot_ExtendForSnipe(t *testing.T) {
	window := 5 * time.Minute
	extension := 10 * time.Minute

	t.Run("extends inside the window", func(t *testing.T) {
		lot := newTestLot(t, 1000, 100, nil)
		now := lot.EndTime.Add(-2 * time.Minute)
		extended := lot.ExtendForSnipe(now, window, extension)
		assert.True(t, extended)
		assert.Equal(t, now.Add(extension), lot.EndTime)
	})

	t.Run("ignores bids outside the window", func(t *testing.T) {
		lot := newTestLot(t, 1000, 100, nil)
		originalEnd := lot.EndTime
		extended := lot.ExtendForSnipe(lot.EndTime.Add(-time.Hour), window, extension)
		assert.False(t, extended)
		assert.Equal(t, originalEnd, lot.EndTime)
	})

	t.Run("never shortens the deadline", func(t *testing.T) {
		lot := newTestLot(t, 1000, 100, nil)
		originalEnd := lot.EndTime
		extended := lot.ExtendForSnipe(lot.EndTime.Add(-2*time.Minute), window, time.Minute)
		assert.False(t, extended)
		assert.Equal(t, originalEnd, lot.EndTime)
	})
}

func TestLot_End(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)

	err := lot.End(lot.EndTime.Add(-time.Minute))
	require.Error(t, err)

	require.NoError(t, lot.End(lot.EndTime.Add(time.Second)))
	assert.Equal(t, LotStatusEnded, lot.Status)
	require.NotNil(t, lot.EndedAt)

	err = lot.End(time.Now())
	require.Error(t, err)
}

func TestLot_ConfirmWinner(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	winner := uuid.New()
	applyRound(t, lot, []Candidate{proxyAt(winner, 2000, 100, time.Now())})
	require.NoError(t, lot.End(lot.EndTime.Add(time.Second)))

	t.Run("only the seller can confirm", func(t *testing.T) {
		err := lot.ConfirmWinner(uuid.New(), time.Now())
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("settles the lot", func(t *testing.T) {
		require.NoError(t, lot.ConfirmWinner(lot.SellerID, time.Now()))
		assert.Equal(t, LotStatusSettled, lot.Status)
		assert.True(t, lot.WinnerConfirmed)
		require.NotNil(t, lot.SettledAt)
	})

	t.Run("repeated confirmation is a no-op", func(t *testing.T) {
		require.NoError(t, lot.ConfirmWinner(lot.SellerID, time.Now()))
	})
}

func TestLot_ConfirmWinnerWithoutLeader(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	require.NoError(t, lot.End(lot.EndTime.Add(time.Second)))

	err := lot.ConfirmWinner(lot.SellerID, time.Now())
	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "NO_LEADER", domainErr.Code)
}

func TestLot_RejectLeaderAndRecompute(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	x := uuid.New()
	y := uuid.New()
	t0 := time.Now()

	xProxy := proxyAt(x, 2000, 100, t0)
	applyRound(t, lot, []Candidate{xProxy})
	yManual := ManualCandidate(y, decimal.NewFromInt(1200), lot.Increment, t0.Add(time.Minute))
	applyRound(t, lot, []Candidate{xProxy, yManual})
	require.NoError(t, lot.End(lot.EndTime.Add(time.Second)))

	rejected, err := lot.RejectLeader(lot.SellerID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, x, rejected)
	assert.True(t, lot.IsRejected(x))

	// Both surviving ledger entries here belonged to X, so the purge leaves
	// nothing and the lot falls back to its starting price.
	lot.RecomputeFromLedger(nil, time.Now())
	assert.Nil(t, lot.CurrentLeaderID)
	assert.True(t, lot.CurrentPrice.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 0, lot.BidCount)
}

func TestLot_RecomputeFromLedgerPicksHighestEarliest(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	a := uuid.New()
	b := uuid.New()
	now := time.Now()

	bidA, err := NewBid(lot.GetID(), a, decimal.NewFromInt(1500), BidOriginManual, now)
	require.NoError(t, err)
	bidB, err := NewBid(lot.GetID(), b, decimal.NewFromInt(1500), BidOriginManual, now.Add(-time.Minute))
	require.NoError(t, err)

	lot.RecomputeFromLedger([]Bid{*bidA, *bidB}, time.Now())
	require.NotNil(t, lot.CurrentLeaderID)
	assert.Equal(t, b, *lot.CurrentLeaderID)
	assert.True(t, lot.CurrentPrice.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, 2, lot.BidCount)
}

func TestLot_MarkPassed(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	require.NoError(t, lot.End(lot.EndTime.Add(time.Second)))

	require.NoError(t, lot.MarkPassed(time.Now()))
	assert.Equal(t, LotStatusPassed, lot.Status)

	err := lot.MarkPassed(time.Now())
	require.Error(t, err)
}

func TestLot_ApplyRecovery(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	x := uuid.New()
	y := uuid.New()
	t0 := time.Now()

	xProxy := proxyAt(x, 2000, 100, t0)
	yProxy := proxyAt(y, 1500, 100, t0.Add(time.Second))
	applyRound(t, lot, []Candidate{xProxy, yProxy})
	require.NoError(t, lot.End(lot.EndTime.Add(time.Second)))

	_, err := lot.RejectLeader(lot.SellerID, time.Now())
	require.NoError(t, err)
	lot.RecomputeFromLedger(nil, time.Now())

	// Y's surviving proxy steps back in at the starting price.
	outcome := Resolve(lot, []Candidate{yProxy})
	require.True(t, outcome.Changed)
	require.NoError(t, lot.ApplyRecovery(outcome, time.Now()))
	require.NotNil(t, lot.CurrentLeaderID)
	assert.Equal(t, y, *lot.CurrentLeaderID)
	assert.True(t, lot.CurrentPrice.Equal(decimal.NewFromInt(1000)))
}

func TestProxyInstruction(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	bidder := uuid.New()
	now := time.Now()

	t.Run("defaults step to the lot increment", func(t *testing.T) {
		p, err := NewProxyInstruction(lot, bidder, decimal.NewFromInt(2000), decimal.Zero, now)
		require.NoError(t, err)
		assert.True(t, p.StepPrice.Equal(lot.Increment))
		assert.True(t, p.Active)
	})

	t.Run("rejects ceiling below the minimum bid", func(t *testing.T) {
		_, err := NewProxyInstruction(lot, bidder, decimal.NewFromInt(500), decimal.Zero, now)
		require.Error(t, err)
		domainErr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "BID_TOO_LOW", domainErr.Code)
	})

	t.Run("rejects step below the increment", func(t *testing.T) {
		_, err := NewProxyInstruction(lot, bidder, decimal.NewFromInt(2000), decimal.NewFromInt(50), now)
		require.Error(t, err)
	})

	t.Run("rejects step that is not a multiple of the increment", func(t *testing.T) {
		_, err := NewProxyInstruction(lot, bidder, decimal.NewFromInt(2000), decimal.NewFromInt(150), now)
		require.Error(t, err)
		domainErr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "INVALID_STEP", domainErr.Code)
	})

	t.Run("accepts step at a whole multiple of the increment", func(t *testing.T) {
		p, err := NewProxyInstruction(lot, bidder, decimal.NewFromInt(2000), decimal.NewFromInt(300), now)
		require.NoError(t, err)
		assert.True(t, p.StepPrice.Equal(decimal.NewFromInt(300)))
	})

	t.Run("rejects ceiling above buy-now", func(t *testing.T) {
		buyNow := int64(1800)
		capped := newTestLot(t, 1000, 100, &buyNow)
		_, err := NewProxyInstruction(capped, bidder, decimal.NewFromInt(9999), decimal.Zero, now)
		require.Error(t, err)
		domainErr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "BUY_NOW_EXCEEDED", domainErr.Code)
	})

	t.Run("raise keeps registration time", func(t *testing.T) {
		p, err := NewProxyInstruction(lot, bidder, decimal.NewFromInt(2000), decimal.Zero, now)
		require.NoError(t, err)
		created := p.CreatedAt

		require.NoError(t, p.Raise(lot, decimal.NewFromInt(3000), decimal.Zero, now.Add(time.Hour)))
		assert.True(t, p.MaxPrice.Equal(decimal.NewFromInt(3000)))
		assert.Equal(t, created, p.CreatedAt)
	})

	t.Run("active ceiling cannot be lowered", func(t *testing.T) {
		p, err := NewProxyInstruction(lot, bidder, decimal.NewFromInt(2000), decimal.Zero, now)
		require.NoError(t, err)
		err = p.Raise(lot, decimal.NewFromInt(1500), decimal.Zero, now)
		require.Error(t, err)
	})

	t.Run("deactivated instruction may re-register lower", func(t *testing.T) {
		p, err := NewProxyInstruction(lot, bidder, decimal.NewFromInt(5000), decimal.Zero, now)
		require.NoError(t, err)
		p.Deactivate(now)

		require.NoError(t, p.Raise(lot, decimal.NewFromInt(3000), decimal.Zero, now.Add(time.Minute)))
		assert.True(t, p.MaxPrice.Equal(decimal.NewFromInt(3000)))
		assert.True(t, p.Active)
	})

	t.Run("raise enforces buy-now ceiling", func(t *testing.T) {
		buyNow := int64(1800)
		capped := newTestLot(t, 1000, 100, &buyNow)
		p, err := NewProxyInstruction(capped, bidder, decimal.NewFromInt(1500), decimal.Zero, now)
		require.NoError(t, err)
		err = p.Raise(capped, decimal.NewFromInt(2500), decimal.Zero, now)
		require.Error(t, err)
	})
}
