package auction

import (
	"context"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/order"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// ReputationPolicy decides whether a bidder's track record qualifies them
// to bid at all. Lot-level checks (rejection, ownership, price bounds)
// live with the bidding service; this covers the marketplace-wide gate.
type ReputationPolicy interface {
	Allow(ctx context.Context, bidderID uuid.UUID) error
}

// AllowAll admits every bidder. Used when the reputation gate is switched
// off in configuration.
type AllowAll struct{}

// Allow always succeeds
func (AllowAll) Allow(ctx context.Context, bidderID uuid.UUID) error {
	return nil
}

// CompletedOrderReputation admits bidders with enough completed orders
type CompletedOrderReputation struct {
	orders order.OrderRepository
	min    int
}

// NewCompletedOrderReputation creates the completed-order gate
func NewCompletedOrderReputation(orders order.OrderRepository, min int) *CompletedOrderReputation {
	if min < 1 {
		min = 1
	}
	return &CompletedOrderReputation{orders: orders, min: min}
}

// Allow checks the bidder's completed-order count against the threshold
func (r *CompletedOrderReputation) Allow(ctx context.Context, bidderID uuid.UUID) error {
	count, err := r.orders.CountCompletedByBuyer(ctx, bidderID)
	if err != nil {
		return err
	}
	if count < int64(r.min) {
		return shared.NewDomainError("INSUFFICIENT_REPUTATION", "Bidder does not meet the completed order requirement")
	}
	return nil
}

var (
	_ ReputationPolicy = AllowAll{}
	_ ReputationPolicy = (*CompletedOrderReputation)(nil)
)
