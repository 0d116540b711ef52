package models

import (
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/order"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the settlement Order aggregate root.
type OrderModel struct {
	AggregateModel
	LotID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	SellerID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	BuyerID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	FinalPrice  decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Status      order.OrderStatus `gorm:"type:varchar(20);not null;default:'CREATED';index"`
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *order.Order {
	return &order.Order{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		LotID:       m.LotID,
		SellerID:    m.SellerID,
		BuyerID:     m.BuyerID,
		FinalPrice:  m.FinalPrice,
		Status:      m.Status,
		CompletedAt: m.CompletedAt,
		CancelledAt: m.CancelledAt,
	}
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.LotID = o.LotID
	m.SellerID = o.SellerID
	m.BuyerID = o.BuyerID
	m.FinalPrice = o.FinalPrice
	m.Status = o.Status
	m.CompletedAt = o.CompletedAt
	m.CancelledAt = o.CancelledAt
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
