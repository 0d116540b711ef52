package auction

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Candidate is one competitor in a resolution round: either an active proxy
// instruction or a one-shot manual bid expressed as a ceiling equal to its
// exact price.
type Candidate struct {
	BidderID  uuid.UUID
	MaxPrice  decimal.Decimal
	StepPrice decimal.Decimal
	PlacedAt  time.Time
}

// Outcome is the result of one resolution round
type Outcome struct {
	LeaderID      *uuid.UUID
	Price         decimal.Decimal
	BuyNowReached bool
	// Changed is true when the leader or the price differs from the lot's
	// current state and a ledger entry must be appended
	Changed bool
}

// ProxyCandidate converts an active instruction into a resolution candidate
func ProxyCandidate(p *ProxyInstruction) Candidate {
	return Candidate{
		BidderID:  p.BidderID,
		MaxPrice:  p.MaxPrice,
		StepPrice: p.StepPrice,
		PlacedAt:  p.CreatedAt,
	}
}

// ManualCandidate converts a one-shot manual bid into a candidate whose
// ceiling is its exact price
func ManualCandidate(bidderID uuid.UUID, price decimal.Decimal, increment decimal.Decimal, now time.Time) Candidate {
	return Candidate{
		BidderID:  bidderID,
		MaxPrice:  price,
		StepPrice: increment,
		PlacedAt:  now,
	}
}

// Resolve runs one round of second-price resolution over the candidate set
// and returns the standing the lot should move to. It is a pure function of
// the lot's visible state and the candidates: feeding the same inputs in
// any arrival order converges to the same leader and price.
//
// Ranking is by ceiling descending, then earliest registration, then bidder
// ID bytes so the order is total. The winner pays the lowest amount that
// beats the runner-up: min(winner ceiling, runner-up ceiling + winner step).
// A sole candidate pays the starting price on an empty ledger, keeps the
// current price if already leading, and otherwise pays one increment over.
// The price never moves below the lot's current price while the ledger is
// non-empty.
func Resolve(lot *Lot, candidates []Candidate) Outcome {
	unchanged := Outcome{
		LeaderID: lot.CurrentLeaderID,
		Price:    lot.CurrentPrice,
	}

	ranked := dedupeByBidder(candidates)
	if len(ranked) == 0 {
		return unchanged
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if !a.MaxPrice.Equal(b.MaxPrice) {
			return a.MaxPrice.GreaterThan(b.MaxPrice)
		}
		if !a.PlacedAt.Equal(b.PlacedAt) {
			return a.PlacedAt.Before(b.PlacedAt)
		}
		return bytes.Compare(a.BidderID[:], b.BidderID[:]) < 0
	})

	top := ranked[0]
	if top.MaxPrice.LessThan(lot.MinimumValidBid()) && !isLeader(lot, top.BidderID) {
		return unchanged
	}

	var price decimal.Decimal
	if len(ranked) == 1 {
		switch {
		case lot.BidCount == 0:
			price = lot.StartingPrice
		case isLeader(lot, top.BidderID):
			price = lot.CurrentPrice
		default:
			price = decimal.Min(top.MaxPrice, lot.CurrentPrice.Add(lot.Increment))
		}
	} else {
		second := ranked[1]
		price = decimal.Min(top.MaxPrice, second.MaxPrice.Add(top.StepPrice))
	}

	// The current price remembers one-shot bids already consumed by earlier
	// rounds; it never regresses while the ledger is live.
	if lot.BidCount > 0 && price.LessThan(lot.CurrentPrice) {
		price = lot.CurrentPrice
	}

	buyNow := false
	if lot.BuyNowPrice != nil && price.GreaterThanOrEqual(*lot.BuyNowPrice) {
		price = *lot.BuyNowPrice
		buyNow = true
	}

	leader := top.BidderID
	changed := !isLeader(lot, leader) || !price.Equal(lot.CurrentPrice)

	return Outcome{
		LeaderID:      &leader,
		Price:         price,
		BuyNowReached: buyNow,
		Changed:       changed,
	}
}

// dedupeByBidder keeps a single candidate per bidder, preferring the
// highest ceiling (earliest registration on equal ceilings). A bidder never
// competes against themselves, so holding both a proxy and a manual bid
// collapses to whichever reaches higher.
func dedupeByBidder(candidates []Candidate) []Candidate {
	byBidder := make(map[uuid.UUID]Candidate, len(candidates))
	for _, c := range candidates {
		prev, ok := byBidder[c.BidderID]
		if !ok {
			byBidder[c.BidderID] = c
			continue
		}
		if c.MaxPrice.GreaterThan(prev.MaxPrice) ||
			(c.MaxPrice.Equal(prev.MaxPrice) && c.PlacedAt.Before(prev.PlacedAt)) {
			byBidder[c.BidderID] = c
		}
	}
	out := make([]Candidate, 0, len(byBidder))
	for _, c := range byBidder {
		out = append(out, c)
	}
	return out
}

func isLeader(lot *Lot, bidderID uuid.UUID) bool {
	return lot.CurrentLeaderID != nil && *lot.CurrentLeaderID == bidderID
}
