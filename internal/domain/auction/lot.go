package auction

import (
	"fmt"
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotStatus represents the lifecycle status of an auctioned lot
type LotStatus string

const (
	// LotStatusOpen means the lot is accepting bids
	LotStatusOpen LotStatus = "OPEN"
	// LotStatusEnded means the deadline passed (or buy-now was reached) and
	// the lot is awaiting winner confirmation
	LotStatusEnded LotStatus = "ENDED"
	// LotStatusSettled means the seller confirmed the winner
	LotStatusSettled LotStatus = "SETTLED"
	// LotStatusPassed means the lot ended with no eligible bidder
	LotStatusPassed LotStatus = "PASSED"
)

// IsValid checks if the status is a valid LotStatus
func (s LotStatus) IsValid() bool {
	switch s {
	case LotStatusOpen, LotStatusEnded, LotStatusSettled, LotStatusPassed:
		return true
	}
	return false
}

// String returns the string representation of LotStatus
func (s LotStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s LotStatus) CanTransitionTo(target LotStatus) bool {
	switch s {
	case LotStatusOpen:
		return target == LotStatusEnded
	case LotStatusEnded:
		return target == LotStatusSettled || target == LotStatusPassed
	case LotStatusSettled, LotStatusPassed:
		return false // Terminal states
	}
	return false
}

// RejectedSet is a set of bidder IDs denylisted by the seller.
// Membership checks run on every eligibility gate, so it is a map, not a slice.
type RejectedSet map[uuid.UUID]struct{}

// NewRejectedSet creates an empty rejected-bidder set
func NewRejectedSet() RejectedSet {
	return make(RejectedSet)
}

// Contains returns true if the bidder is rejected
func (r RejectedSet) Contains(bidderID uuid.UUID) bool {
	_, ok := r[bidderID]
	return ok
}

// Add adds a bidder to the set
func (r RejectedSet) Add(bidderID uuid.UUID) {
	r[bidderID] = struct{}{}
}

// IDs returns the members as a slice (order unspecified)
func (r RejectedSet) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	return ids
}

// Lot represents a single auctioned item and its live bidding state.
// It is the aggregate root of the bidding context: currentPrice,
// currentLeaderID and bidCount are mutated only through the resolution
// engine and the settlement flow, never directly by callers.
type Lot struct {
	shared.BaseAggregateRoot
	SellerID          uuid.UUID
	Title             string
	Description       string
	StartingPrice     decimal.Decimal
	Increment         decimal.Decimal
	BuyNowPrice       *decimal.Decimal
	CurrentPrice      decimal.Decimal
	CurrentLeaderID   *uuid.UUID
	BidCount          int
	RejectedBidderIDs RejectedSet
	StartTime         time.Time
	EndTime           time.Time
	Status            LotStatus
	WinnerConfirmed   bool
	EndedAt           *time.Time
	SettledAt         *time.Time
}

// NewLot creates a new lot open for bidding.
// The starting price seeds the current price; the buy-now price, when set,
// must exceed the starting price.
func NewLot(sellerID uuid.UUID, title string, startingPrice, increment valueobject.Money, buyNowPrice *valueobject.Money, startTime, endTime time.Time) (*Lot, error) {
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SELLER", "Seller ID cannot be empty")
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Lot title cannot be empty")
	}
	if len(title) > 200 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Lot title cannot exceed 200 characters")
	}
	if startingPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Starting price cannot be negative")
	}
	if !increment.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INCREMENT", "Increment must be positive")
	}
	if !endTime.After(startTime) {
		return nil, shared.NewDomainError("INVALID_SCHEDULE", "End time must be after start time")
	}

	var buyNow *decimal.Decimal
	if buyNowPrice != nil {
		if !buyNowPrice.Amount().GreaterThan(startingPrice.Amount()) {
			return nil, shared.NewDomainError("INVALID_BUY_NOW", "Buy-now price must exceed the starting price")
		}
		d := buyNowPrice.Amount()
		buyNow = &d
	}

	lot := &Lot{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SellerID:          sellerID,
		Title:             title,
		StartingPrice:     startingPrice.Amount(),
		Increment:         increment.Amount(),
		BuyNowPrice:       buyNow,
		CurrentPrice:      startingPrice.Amount(),
		RejectedBidderIDs: NewRejectedSet(),
		StartTime:         startTime,
		EndTime:           endTime,
		Status:            LotStatusOpen,
	}

	lot.AddDomainEvent(NewLotPublishedEvent(lot))

	return lot, nil
}

// MinimumValidBid returns the lowest price a manual bid must reach:
// the starting price while the ledger is empty, otherwise the current
// price plus one increment.
func (l *Lot) MinimumValidBid() decimal.Decimal {
	if l.BidCount == 0 {
		return l.StartingPrice
	}
	return l.CurrentPrice.Add(l.Increment)
}

// IsOpenAt returns true if the lot accepts bids at the given instant
func (l *Lot) IsOpenAt(now time.Time) bool {
	return l.Status == LotStatusOpen && now.Before(l.EndTime) && !now.Before(l.StartTime)
}

// HasEnded returns true if the deadline has passed or the lot left the OPEN state
func (l *Lot) HasEnded(now time.Time) bool {
	return l.Status != LotStatusOpen || !now.Before(l.EndTime)
}

// IsRejected returns true if the bidder is on the seller's denylist
func (l *Lot) IsRejected(bidderID uuid.UUID) bool {
	return l.RejectedBidderIDs.Contains(bidderID)
}

// ApplyOutcome commits a resolution outcome to the lot: new leader, new
// price, ledger count. The caller appends the matching ledger entry in the
// same transaction. Outcomes that change nothing are not applied.
func (l *Lot) ApplyOutcome(outcome Outcome, now time.Time) error {
	if l.Status != LotStatusOpen {
		return shared.NewDomainError("AUCTION_ENDED", "Lot is no longer open for bidding")
	}
	if !outcome.Changed {
		return nil
	}
	if outcome.Price.LessThan(l.CurrentPrice) {
		return shared.NewDomainError("PRICE_REGRESSION", fmt.Sprintf("Resolved price %s below current price %s", outcome.Price, l.CurrentPrice))
	}

	l.CurrentPrice = outcome.Price
	l.CurrentLeaderID = outcome.LeaderID
	l.BidCount++
	l.UpdatedAt = now

	if outcome.BuyNowReached {
		l.endAt(now)
		l.AddDomainEvent(NewLotEndedEvent(l, EndReasonBuyNow))
	}

	l.AddDomainEvent(NewLotPriceChangedEvent(l))

	return nil
}

// ExtendForSnipe pushes the deadline forward when a qualifying bid lands
// inside the trailing window. The deadline is never shortened.
func (l *Lot) ExtendForSnipe(now time.Time, window, extension time.Duration) bool {
	if l.Status != LotStatusOpen {
		return false
	}
	if l.EndTime.Sub(now) > window {
		return false
	}
	extended := now.Add(extension)
	if !extended.After(l.EndTime) {
		return false
	}
	l.EndTime = extended
	l.UpdatedAt = now
	l.AddDomainEvent(NewLotExtendedEvent(l))
	return true
}

// End transitions the lot from OPEN to ENDED once the deadline has passed
func (l *Lot) End(now time.Time) error {
	if !l.Status.CanTransitionTo(LotStatusEnded) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot end lot in %s status", l.Status))
	}
	if now.Before(l.EndTime) {
		return shared.NewDomainError("INVALID_STATE", "Lot deadline has not passed yet")
	}
	l.endAt(now)
	l.AddDomainEvent(NewLotEndedEvent(l, EndReasonDeadline))
	return nil
}

func (l *Lot) endAt(now time.Time) {
	l.Status = LotStatusEnded
	if now.Before(l.EndTime) {
		l.EndTime = now
	}
	l.EndedAt = &now
	l.UpdatedAt = now
}

// ConfirmWinner marks the current leader as the confirmed winner.
// Confirming an already settled lot is a no-op so that repeated
// confirmations (without an intervening order cancellation) stay idempotent.
func (l *Lot) ConfirmWinner(sellerID uuid.UUID, now time.Time) error {
	if sellerID != l.SellerID {
		return shared.ErrForbidden
	}
	if l.Status == LotStatusSettled {
		return nil
	}
	if !l.Status.CanTransitionTo(LotStatusSettled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot confirm winner for lot in %s status", l.Status))
	}
	if l.CurrentLeaderID == nil {
		return shared.NewDomainError("NO_LEADER", "Lot has no leader to confirm")
	}

	l.Status = LotStatusSettled
	l.WinnerConfirmed = true
	l.SettledAt = &now
	l.UpdatedAt = now
	l.AddDomainEvent(NewWinnerConfirmedEvent(l, *l.CurrentLeaderID))

	return nil
}

// RejectLeader denylists the current leader after the auction ended.
// The caller purges the leader's ledger entries and recomputes state via
// RecomputeFromLedger in the same transaction.
func (l *Lot) RejectLeader(sellerID uuid.UUID, now time.Time) (uuid.UUID, error) {
	if sellerID != l.SellerID {
		return uuid.Nil, shared.ErrForbidden
	}
	if l.Status != LotStatusEnded {
		return uuid.Nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject leader for lot in %s status", l.Status))
	}
	if l.CurrentLeaderID == nil {
		return uuid.Nil, shared.NewDomainError("NO_LEADER", "Lot has no leader to reject")
	}

	rejected := *l.CurrentLeaderID
	l.RejectedBidderIDs.Add(rejected)
	l.UpdatedAt = now
	l.AddDomainEvent(NewLeaderRejectedEvent(l, rejected))

	return rejected, nil
}

// RecomputeFromLedger rebuilds currentPrice/currentLeaderID from the live
// ledger after a rejection purge: highest remaining price wins, earliest
// timestamp breaks ties, falling back to the starting price and no leader.
// This is the only sanctioned downward move of currentPrice.
func (l *Lot) RecomputeFromLedger(live []Bid, now time.Time) {
	l.BidCount = len(live)
	if len(live) == 0 {
		l.CurrentPrice = l.StartingPrice
		l.CurrentLeaderID = nil
		l.UpdatedAt = now
		return
	}

	best := live[0]
	for _, b := range live[1:] {
		if b.Price.GreaterThan(best.Price) || (b.Price.Equal(best.Price) && b.CreatedAt.Before(best.CreatedAt)) {
			best = b
		}
	}
	leader := best.BidderID
	l.CurrentPrice = best.Price
	l.CurrentLeaderID = &leader
	l.UpdatedAt = now
}

// ApplyRecovery commits a post-rejection resolution outcome on an ENDED
// lot, letting a surviving proxy take over the lead. Unlike ApplyOutcome
// it runs outside the OPEN state and never re-triggers buy-now.
func (l *Lot) ApplyRecovery(outcome Outcome, now time.Time) error {
	if l.Status != LotStatusEnded {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot recover leader for lot in %s status", l.Status))
	}
	if !outcome.Changed || outcome.LeaderID == nil {
		return nil
	}
	l.CurrentPrice = outcome.Price
	l.CurrentLeaderID = outcome.LeaderID
	l.BidCount++
	l.UpdatedAt = now
	l.AddDomainEvent(NewLotPriceChangedEvent(l))
	return nil
}

// MarkPassed terminates a lot that ended with no live bids
func (l *Lot) MarkPassed(now time.Time) error {
	if !l.Status.CanTransitionTo(LotStatusPassed) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pass lot in %s status", l.Status))
	}
	if l.CurrentLeaderID != nil {
		return shared.NewDomainError("INVALID_STATE", "Lot still has a leader")
	}
	l.Status = LotStatusPassed
	l.UpdatedAt = now
	l.AddDomainEvent(NewLotPassedEvent(l))
	return nil
}

// IsSettled returns true if the winner has been confirmed
func (l *Lot) IsSettled() bool {
	return l.Status == LotStatusSettled
}
