package auction

import (
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProxyInstruction is a standing order to bid on a bidder's behalf up to a
// ceiling. At most one active instruction exists per (lot, bidder); raising
// the ceiling upserts in place and keeps the original CreatedAt, so the
// bidder's priority in ties is anchored to first registration.
type ProxyInstruction struct {
	shared.BaseEntity
	LotID     uuid.UUID
	BidderID  uuid.UUID
	MaxPrice  decimal.Decimal
	StepPrice decimal.Decimal
	Active    bool
	// LastViewedBidCount is an acknowledgment cursor into the lot's bid
	// history. Resolution never reads it.
	LastViewedBidCount int
}

// validateProxyTerms checks a ceiling/step pair against the lot and
// returns the normalized step (zero defaults to the lot increment).
func validateProxyTerms(lot *Lot, maxPrice, stepPrice decimal.Decimal) (decimal.Decimal, error) {
	if maxPrice.LessThan(lot.MinimumValidBid()) {
		return decimal.Decimal{}, shared.NewDomainError("BID_TOO_LOW", "Proxy ceiling is below the minimum valid bid")
	}
	if lot.BuyNowPrice != nil && maxPrice.GreaterThan(*lot.BuyNowPrice) {
		return decimal.Decimal{}, shared.NewDomainError("BUY_NOW_EXCEEDED", "Proxy ceiling cannot exceed the buy-now price")
	}
	if stepPrice.IsZero() {
		stepPrice = lot.Increment
	}
	if stepPrice.LessThan(lot.Increment) || !stepPrice.Mod(lot.Increment).IsZero() {
		return decimal.Decimal{}, shared.NewDomainError("INVALID_STEP", "Proxy step must be a positive multiple of the lot increment")
	}
	return stepPrice, nil
}

// NewProxyInstruction creates an active proxy instruction
func NewProxyInstruction(lot *Lot, bidderID uuid.UUID, maxPrice, stepPrice decimal.Decimal, now time.Time) (*ProxyInstruction, error) {
	if bidderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BIDDER", "Bidder ID cannot be empty")
	}
	step, err := validateProxyTerms(lot, maxPrice, stepPrice)
	if err != nil {
		return nil, err
	}

	p := &ProxyInstruction{
		BaseEntity: shared.NewBaseEntity(),
		LotID:      lot.GetID(),
		BidderID:   bidderID,
		MaxPrice:   maxPrice,
		StepPrice:  step,
		Active:     true,
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

// Raise supersedes the instruction's terms, last write wins. An active
// ceiling only moves up; once deactivated, the next registration may land
// anywhere the lot accepts.
func (p *ProxyInstruction) Raise(lot *Lot, maxPrice, stepPrice decimal.Decimal, now time.Time) error {
	if p.Active && maxPrice.LessThan(p.MaxPrice) {
		return shared.NewDomainError("PROXY_DECREASE", "Proxy ceiling cannot be lowered")
	}
	step, err := validateProxyTerms(lot, maxPrice, stepPrice)
	if err != nil {
		return err
	}
	p.MaxPrice = maxPrice
	p.StepPrice = step
	p.Active = true
	p.UpdatedAt = now
	return nil
}

// Deactivate retires the instruction from future resolutions
func (p *ProxyInstruction) Deactivate(now time.Time) {
	p.Active = false
	p.UpdatedAt = now
}

// AcknowledgeBids moves the viewed-history cursor forward. The cursor
// never goes backward.
func (p *ProxyInstruction) AcknowledgeBids(bidCount int, now time.Time) {
	if bidCount > p.LastViewedBidCount {
		p.LastViewedBidCount = bidCount
		p.UpdatedAt = now
	}
}
