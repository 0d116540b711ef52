package order

import (
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	EventTypeOrderCreated   = "auction.order.created"
	EventTypeOrderCompleted = "auction.order.completed"
	EventTypeOrderCancelled = "auction.order.cancelled"
)

// OrderCreatedEvent fires when settlement produces an order
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	LotID      uuid.UUID `json:"lot_id"`
	BuyerID    uuid.UUID `json:"buyer_id"`
	SellerID   uuid.UUID `json:"seller_id"`
	FinalPrice string    `json:"final_price"`
}

func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, "Order", o.GetID()),
		LotID:           o.LotID,
		BuyerID:         o.BuyerID,
		SellerID:        o.SellerID,
		FinalPrice:      o.FinalPrice.String(),
	}
}

// OrderCompletedEvent fires when the order is fulfilled
type OrderCompletedEvent struct {
	shared.BaseDomainEvent
	LotID uuid.UUID `json:"lot_id"`
}

func NewOrderCompletedEvent(o *Order) *OrderCompletedEvent {
	return &OrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCompleted, "Order", o.GetID()),
		LotID:           o.LotID,
	}
}

// OrderCancelledEvent fires when the order is voided
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	LotID uuid.UUID `json:"lot_id"`
}

func NewOrderCancelledEvent(o *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, "Order", o.GetID()),
		LotID:           o.LotID,
	}
}
