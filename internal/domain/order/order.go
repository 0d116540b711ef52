package order

import (
	"fmt"
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a settlement order
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusCreated:
		return target == OrderStatusCompleted || target == OrderStatusCancelled
	case OrderStatusCompleted, OrderStatusCancelled:
		return false // Terminal states
	}
	return false
}

// Order is the settlement record created when a seller confirms a winner.
// Exactly one non-cancelled order exists per lot.
type Order struct {
	shared.BaseAggregateRoot
	LotID       uuid.UUID
	SellerID    uuid.UUID
	BuyerID     uuid.UUID
	FinalPrice  decimal.Decimal
	Status      OrderStatus
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// NewOrder creates a settlement order for a confirmed winner
func NewOrder(lotID, sellerID, buyerID uuid.UUID, finalPrice decimal.Decimal) (*Order, error) {
	if lotID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOT", "Lot ID cannot be empty")
	}
	if sellerID == uuid.Nil || buyerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Seller and buyer IDs cannot be empty")
	}
	if sellerID == buyerID {
		return nil, shared.NewDomainError("INVALID_PARTY", "Seller cannot buy their own lot")
	}
	if !finalPrice.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Final price must be positive")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		LotID:             lotID,
		SellerID:          sellerID,
		BuyerID:           buyerID,
		FinalPrice:        finalPrice,
		Status:            OrderStatusCreated,
	}
	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// Complete marks the order as fulfilled
func (o *Order) Complete(now time.Time) error {
	if !o.Status.CanTransitionTo(OrderStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete order in %s status", o.Status))
	}
	o.Status = OrderStatusCompleted
	o.CompletedAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderCompletedEvent(o))
	return nil
}

// Cancel voids the order
func (o *Order) Cancel(now time.Time) error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderCancelledEvent(o))
	return nil
}
