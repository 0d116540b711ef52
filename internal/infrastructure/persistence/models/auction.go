package models

import (
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/auction"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotModel is the persistence model for the Lot aggregate root.
type LotModel struct {
	AggregateModel
	SellerID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	Title           string                `gorm:"type:varchar(200);not null"`
	Description     string                `gorm:"type:text"`
	StartingPrice   decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Increment       decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	BuyNowPrice     *decimal.Decimal      `gorm:"type:decimal(18,4)"`
	CurrentPrice    decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	CurrentLeaderID *uuid.UUID            `gorm:"type:uuid;index"`
	BidCount        int                   `gorm:"not null;default:0"`
	RejectedBidders []RejectedBidderModel `gorm:"foreignKey:LotID;references:ID"`
	StartTime       time.Time             `gorm:"not null;index"`
	EndTime         time.Time             `gorm:"not null;index"`
	Status          auction.LotStatus     `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	WinnerConfirmed bool                  `gorm:"not null;default:false"`
	EndedAt         *time.Time
	SettledAt       *time.Time
}

// TableName returns the table name for GORM
func (LotModel) TableName() string {
	return "lots"
}

// ToDomain converts the persistence model to a domain Lot entity.
func (m *LotModel) ToDomain() *auction.Lot {
	lot := &auction.Lot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		SellerID:          m.SellerID,
		Title:             m.Title,
		Description:       m.Description,
		StartingPrice:     m.StartingPrice,
		Increment:         m.Increment,
		BuyNowPrice:       m.BuyNowPrice,
		CurrentPrice:      m.CurrentPrice,
		CurrentLeaderID:   m.CurrentLeaderID,
		BidCount:          m.BidCount,
		RejectedBidderIDs: auction.NewRejectedSet(),
		StartTime:         m.StartTime,
		EndTime:           m.EndTime,
		Status:            m.Status,
		WinnerConfirmed:   m.WinnerConfirmed,
		EndedAt:           m.EndedAt,
		SettledAt:         m.SettledAt,
	}
	for _, r := range m.RejectedBidders {
		lot.RejectedBidderIDs.Add(r.BidderID)
	}
	return lot
}

// FromDomain populates the persistence model from a domain Lot entity.
func (m *LotModel) FromDomain(lot *auction.Lot) {
	m.FromDomainAggregateRoot(lot.BaseAggregateRoot)
	m.SellerID = lot.SellerID
	m.Title = lot.Title
	m.Description = lot.Description
	m.StartingPrice = lot.StartingPrice
	m.Increment = lot.Increment
	m.BuyNowPrice = lot.BuyNowPrice
	m.CurrentPrice = lot.CurrentPrice
	m.CurrentLeaderID = lot.CurrentLeaderID
	m.BidCount = lot.BidCount
	m.StartTime = lot.StartTime
	m.EndTime = lot.EndTime
	m.Status = lot.Status
	m.WinnerConfirmed = lot.WinnerConfirmed
	m.EndedAt = lot.EndedAt
	m.SettledAt = lot.SettledAt
	m.RejectedBidders = make([]RejectedBidderModel, 0, len(lot.RejectedBidderIDs))
	for _, bidderID := range lot.RejectedBidderIDs.IDs() {
		m.RejectedBidders = append(m.RejectedBidders, RejectedBidderModel{
			LotID:     lot.ID,
			BidderID:  bidderID,
			CreatedAt: lot.UpdatedAt,
		})
	}
}

// LotModelFromDomain creates a new persistence model from a domain Lot entity.
func LotModelFromDomain(lot *auction.Lot) *LotModel {
	m := &LotModel{}
	m.FromDomain(lot)
	return m
}

// RejectedBidderModel records a bidder denylisted by the seller on a lot.
type RejectedBidderModel struct {
	LotID     uuid.UUID `gorm:"type:uuid;primary_key"`
	BidderID  uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RejectedBidderModel) TableName() string {
	return "lot_rejected_bidders"
}

// BidModel is the persistence model for a bid ledger entry.
type BidModel struct {
	BaseModel
	LotID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	BidderID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Price    decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Origin   auction.BidOrigin `gorm:"type:varchar(10);not null"`
}

// TableName returns the table name for GORM
func (BidModel) TableName() string {
	return "bids"
}

// ToDomain converts the persistence model to a domain Bid entity.
func (m *BidModel) ToDomain() *auction.Bid {
	return &auction.Bid{
		BaseEntity: m.BaseModel.ToDomain(),
		LotID:      m.LotID,
		BidderID:   m.BidderID,
		Price:      m.Price,
		Origin:     m.Origin,
	}
}

// BidModelFromDomain creates a new persistence model from a domain Bid entity.
func BidModelFromDomain(b *auction.Bid) *BidModel {
	m := &BidModel{}
	m.FromDomainBaseEntity(b.BaseEntity)
	m.LotID = b.LotID
	m.BidderID = b.BidderID
	m.Price = b.Price
	m.Origin = b.Origin
	return m
}

// ProxyModel is the persistence model for a proxy bidding instruction.
type ProxyModel struct {
	BaseModel
	LotID              uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_proxy_lot_bidder,priority:1"`
	BidderID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_proxy_lot_bidder,priority:2"`
	MaxPrice           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	StepPrice          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Active             bool            `gorm:"not null;default:true;index"`
	LastViewedBidCount int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProxyModel) TableName() string {
	return "proxy_instructions"
}

// ToDomain converts the persistence model to a domain ProxyInstruction entity.
func (m *ProxyModel) ToDomain() *auction.ProxyInstruction {
	return &auction.ProxyInstruction{
		BaseEntity:         m.BaseModel.ToDomain(),
		LotID:              m.LotID,
		BidderID:           m.BidderID,
		MaxPrice:           m.MaxPrice,
		StepPrice:          m.StepPrice,
		Active:             m.Active,
		LastViewedBidCount: m.LastViewedBidCount,
	}
}

// ProxyModelFromDomain creates a new persistence model from a domain ProxyInstruction entity.
func ProxyModelFromDomain(p *auction.ProxyInstruction) *ProxyModel {
	m := &ProxyModel{}
	m.FromDomainBaseEntity(p.BaseEntity)
	m.LotID = p.LotID
	m.BidderID = p.BidderID
	m.MaxPrice = p.MaxPrice
	m.StepPrice = p.StepPrice
	m.Active = p.Active
	m.LastViewedBidCount = p.LastViewedBidCount
	return m
}
