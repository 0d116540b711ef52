package order

import (
	"context"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderFilter carries order listing criteria
type OrderFilter struct {
	shared.Filter
	Status   *OrderStatus
	BuyerID  *uuid.UUID
	SellerID *uuid.UUID
}

// OrderRepository persists settlement orders
type OrderRepository interface {
	Save(ctx context.Context, o *Order) error
	SaveWithLock(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByLotID(ctx context.Context, lotID uuid.UUID) (*Order, error)
	FindAll(ctx context.Context, filter OrderFilter) (*shared.Paginated[*Order], error)
	// CountCompletedByBuyer backs the reputation gate: bidders qualify by
	// the number of orders they have seen through
	CountCompletedByBuyer(ctx context.Context, buyerID uuid.UUID) (int64, error)
}
