package auction

import (
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BidOrigin distinguishes how a ledger entry came to be
type BidOrigin string

const (
	// BidOriginManual is a one-shot bid placed directly by a bidder
	BidOriginManual BidOrigin = "MANUAL"
	// BidOriginProxy is a bid generated by the resolution engine on behalf
	// of a proxy instruction
	BidOriginProxy BidOrigin = "PROXY"
)

// IsValid checks if the origin is a valid BidOrigin
func (o BidOrigin) IsValid() bool {
	return o == BidOriginManual || o == BidOriginProxy
}

// Bid is an append-only ledger entry recording one standing price for a
// bidder on a lot. Entries are never updated; rejection removes them.
type Bid struct {
	shared.BaseEntity
	LotID    uuid.UUID
	BidderID uuid.UUID
	Price    decimal.Decimal
	Origin   BidOrigin
}

// NewBid creates a ledger entry for a resolved standing price
func NewBid(lotID, bidderID uuid.UUID, price decimal.Decimal, origin BidOrigin, now time.Time) (*Bid, error) {
	if lotID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOT", "Lot ID cannot be empty")
	}
	if bidderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BIDDER", "Bidder ID cannot be empty")
	}
	if !price.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Bid price must be positive")
	}
	if !origin.IsValid() {
		return nil, shared.NewDomainError("INVALID_ORIGIN", "Unknown bid origin")
	}

	bid := &Bid{
		BaseEntity: shared.NewBaseEntity(),
		LotID:      lotID,
		BidderID:   bidderID,
		Price:      price,
		Origin:     origin,
	}
	bid.CreatedAt = now
	bid.UpdatedAt = now
	return bid, nil
}
