package auction

import (
	"math/rand"
	"testing"
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLot(t *testing.T, starting, increment int64, buyNow *int64) *Lot {
	t.Helper()
	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(24 * time.Hour)
	var buyNowMoney *valueobject.Money
	if buyNow != nil {
		m := valueobject.NewMoneyUSD(decimal.NewFromInt(*buyNow))
		buyNowMoney = &m
	}
	lot, err := NewLot(uuid.New(), "Test Lot",
		valueobject.NewMoneyUSD(decimal.NewFromInt(starting)),
		valueobject.NewMoneyUSD(decimal.NewFromInt(increment)),
		buyNowMoney, start, end)
	require.NoError(t, err)
	return lot
}

func proxyAt(bidderID uuid.UUID, max, step int64, placedAt time.Time) Candidate {
	return Candidate{
		BidderID:  bidderID,
		MaxPrice:  decimal.NewFromInt(max),
		StepPrice: decimal.NewFromInt(step),
		PlacedAt:  placedAt,
	}
}

func applyRound(t *testing.T, lot *Lot, candidates []Candidate) Outcome {
	t.Helper()
	outcome := Resolve(lot, candidates)
	if outcome.Changed {
		require.NoError(t, lot.ApplyOutcome(outcome, time.Now()))
	}
	return outcome
}

func TestResolve_SoleProxyOpensAtStartingPrice(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	x := uuid.New()

	outcome := applyRound(t, lot, []Candidate{proxyAt(x, 2000, 100, time.Now())})

	require.NotNil(t, outcome.LeaderID)
	assert.Equal(t, x, *outcome.LeaderID)
	assert.True(t, outcome.Price.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 1, lot.BidCount)
}

func TestResolve_ManualBidPushesProxyOneStepOver(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	x := uuid.New()
	y := uuid.New()
	t0 := time.Now()

	xProxy := proxyAt(x, 2000, 100, t0)
	applyRound(t, lot, []Candidate{xProxy})

	// Y bids 1200 by hand: X's proxy answers at 1300 and keeps the lead.
	yManual := ManualCandidate(y, decimal.NewFromInt(1200), lot.Increment, t0.Add(time.Minute))
	outcome := applyRound(t, lot, []Candidate{xProxy, yManual})

	require.NotNil(t, outcome.LeaderID)
	assert.Equal(t, x, *outcome.LeaderID)
	assert.True(t, outcome.Price.Equal(decimal.NewFromInt(1300)), "got %s", outcome.Price)
	assert.Equal(t, 2, lot.BidCount)
}

func TestResolve_HigherProxyTakesLeadAtSecondPrice(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	x := uuid.New()
	y := uuid.New()
	t0 := time.Now()

	xProxy := proxyAt(x, 2000, 100, t0)
	applyRound(t, lot, []Candidate{xProxy})

	yProxy := proxyAt(y, 2500, 100, t0.Add(time.Minute))
	outcome := applyRound(t, lot, []Candidate{xProxy, yProxy})

	require.NotNil(t, outcome.LeaderID)
	assert.Equal(t, y, *outcome.LeaderID)
	assert.True(t, outcome.Price.Equal(decimal.NewFromInt(2100)), "got %s", outcome.Price)
}

func TestResolve_EqualCeilingsEarlierRegistrantWins(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	x := uuid.New()
	y := uuid.New()
	t0 := time.Now()

	xProxy := proxyAt(x, 2000, 100, t0)
	yProxy := proxyAt(y, 2000, 100, t0.Add(time.Second))

	outcome := applyRound(t, lot, []Candidate{yProxy, xProxy})

	require.NotNil(t, outcome.LeaderID)
	assert.Equal(t, x, *outcome.LeaderID)
	// Both ceilings exhausted: the winner pays their full ceiling.
	assert.True(t, outcome.Price.Equal(decimal.NewFromInt(2000)), "got %s", outcome.Price)
}

func TestResolve_BuyNowClampsAndEndsLot(t *testing.T) {
	buyNow := int64(1800)
	lot := newTestLot(t, 1000, 100, &buyNow)
	x := uuid.New()
	y := uuid.New()
	t0 := time.Now()

	xProxy := proxyAt(x, 2000, 100, t0)
	yProxy := proxyAt(y, 2500, 100, t0.Add(time.Minute))
	outcome := applyRound(t, lot, []Candidate{xProxy, yProxy})

	assert.True(t, outcome.BuyNowReached)
	assert.True(t, outcome.Price.Equal(decimal.NewFromInt(1800)))
	assert.Equal(t, LotStatusEnded, lot.Status)
}

func TestResolve_LoserBelowMinimumLeavesStateUnchanged(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	x := uuid.New()
	y := uuid.New()
	t0 := time.Now()

	xProxy := proxyAt(x, 2000, 100, t0)
	applyRound(t, lot, []Candidate{xProxy})
	applyRound(t, lot, []Candidate{xProxy, ManualCandidate(y, decimal.NewFromInt(1500), lot.Increment, t0.Add(time.Minute))})
	priceBefore := lot.CurrentPrice

	// A re-resolution with only the standing leader must not move anything.
	outcome := Resolve(lot, []Candidate{xProxy})
	assert.False(t, outcome.Changed)
	assert.True(t, outcome.Price.Equal(priceBefore))
}

func TestResolve_SameBidderNeverOutbidsThemselves(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	x := uuid.New()
	t0 := time.Now()

	xProxy := proxyAt(x, 2000, 100, t0)
	applyRound(t, lot, []Candidate{xProxy})

	// X also fires a manual bid: it collapses into their proxy and the
	// price stays where it was.
	xManual := ManualCandidate(x, decimal.NewFromInt(1500), lot.Increment, t0.Add(time.Minute))
	outcome := Resolve(lot, []Candidate{xProxy, xManual})

	assert.False(t, outcome.Changed)
	assert.True(t, outcome.Price.Equal(decimal.NewFromInt(1000)))
}

func TestResolve_PriceNeverRegresses(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	x := uuid.New()
	y := uuid.New()
	t0 := time.Now()

	// Y's manual 1600 is consumed and then withdrawn from the candidate
	// set; X's proxy alone must not pull the price back down.
	xProxy := proxyAt(x, 2000, 100, t0)
	applyRound(t, lot, []Candidate{xProxy})
	applyRound(t, lot, []Candidate{xProxy, ManualCandidate(y, decimal.NewFromInt(1600), lot.Increment, t0.Add(time.Minute))})
	require.True(t, lot.CurrentPrice.Equal(decimal.NewFromInt(1700)))

	outcome := Resolve(lot, []Candidate{xProxy})
	assert.False(t, outcome.Changed)
	assert.True(t, outcome.Price.Equal(decimal.NewFromInt(1700)))
}

func TestResolve_ArrivalOrderConvergence(t *testing.T) {
	t0 := time.Now()
	bidders := make([]uuid.UUID, 6)
	for i := range bidders {
		bidders[i] = uuid.New()
	}
	base := []Candidate{
		proxyAt(bidders[0], 5000, 100, t0),
		proxyAt(bidders[1], 4200, 200, t0.Add(time.Second)),
		proxyAt(bidders[2], 4200, 100, t0.Add(2*time.Second)),
		proxyAt(bidders[3], 1500, 100, t0.Add(3*time.Second)),
		proxyAt(bidders[4], 9999, 300, t0.Add(4*time.Second)),
		proxyAt(bidders[5], 9999, 100, t0.Add(5*time.Second)),
	}

	reference := Resolve(newTestLot(t, 1000, 100, nil), base)
	require.NotNil(t, reference.LeaderID)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := make([]Candidate, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		outcome := Resolve(newTestLot(t, 1000, 100, nil), shuffled)
		require.NotNil(t, outcome.LeaderID)
		assert.Equal(t, *reference.LeaderID, *outcome.LeaderID)
		assert.True(t, outcome.Price.Equal(reference.Price), "permutation %d: got %s want %s", i, outcome.Price, reference.Price)
	}
}

func TestResolve_IncrementalRoundsMatchBatchResolution(t *testing.T) {
	t0 := time.Now()
	x := proxyAt(uuid.New(), 3000, 100, t0)
	y := proxyAt(uuid.New(), 2600, 100, t0.Add(time.Second))
	z := proxyAt(uuid.New(), 1800, 100, t0.Add(2*time.Second))

	// Proxies arriving one at a time.
	incremental := newTestLot(t, 1000, 100, nil)
	applyRound(t, incremental, []Candidate{x})
	applyRound(t, incremental, []Candidate{x, y})
	applyRound(t, incremental, []Candidate{x, y, z})

	// All three resolved in one shot.
	batch := newTestLot(t, 1000, 100, nil)
	applyRound(t, batch, []Candidate{x, y, z})

	require.NotNil(t, incremental.CurrentLeaderID)
	require.NotNil(t, batch.CurrentLeaderID)
	assert.Equal(t, *batch.CurrentLeaderID, *incremental.CurrentLeaderID)
	assert.True(t, incremental.CurrentPrice.Equal(batch.CurrentPrice),
		"incremental %s vs batch %s", incremental.CurrentPrice, batch.CurrentPrice)
}

func TestResolve_EmptyCandidates(t *testing.T) {
	lot := newTestLot(t, 1000, 100, nil)
	outcome := Resolve(lot, nil)
	assert.False(t, outcome.Changed)
	assert.Nil(t, outcome.LeaderID)
}
