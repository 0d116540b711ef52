package auction

import (
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/auction"
	"github.com/google/uuid"
)

// CreateLotRequest carries the fields for publishing a new lot
type CreateLotRequest struct {
	Title         string     `json:"title" binding:"required,max=200"`
	Description   string     `json:"description" binding:"max=2000"`
	StartingPrice string     `json:"starting_price" binding:"required"`
	Increment     string     `json:"increment" binding:"required"`
	BuyNowPrice   *string    `json:"buy_now_price,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       time.Time  `json:"end_time" binding:"required"`
}

// PlaceBidRequest carries a manual bid
type PlaceBidRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// SetProxyRequest carries a proxy instruction registration or raise
type SetProxyRequest struct {
	MaxPrice  string `json:"max_price" binding:"required"`
	StepPrice string `json:"step_price,omitempty"`
}

// LotListFilter carries lot listing criteria
type LotListFilter struct {
	Status   string
	SellerID *uuid.UUID
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// LotResponse is the full lot view
type LotResponse struct {
	ID              uuid.UUID  `json:"id"`
	SellerID        uuid.UUID  `json:"seller_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	StartingPrice   string     `json:"starting_price"`
	Increment       string     `json:"increment"`
	BuyNowPrice     *string    `json:"buy_now_price,omitempty"`
	CurrentPrice    string     `json:"current_price"`
	MinimumValidBid string     `json:"minimum_valid_bid"`
	LeaderID        *uuid.UUID `json:"leader_id,omitempty"`
	BidCount        int        `json:"bid_count"`
	Status          string     `json:"status"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	WinnerConfirmed bool       `json:"winner_confirmed"`
	CreatedAt       time.Time  `json:"created_at"`
}

// BidResultResponse reports what a bid or proxy trigger did to the lot
type BidResultResponse struct {
	LotID        uuid.UUID  `json:"lot_id"`
	Accepted     bool       `json:"accepted"`
	Leading      bool       `json:"leading"`
	CurrentPrice string     `json:"current_price"`
	LeaderID     *uuid.UUID `json:"leader_id,omitempty"`
	BidCount     int        `json:"bid_count"`
	EndTime      time.Time  `json:"end_time"`
	Extended     bool       `json:"extended"`
	BuyNow       bool       `json:"buy_now"`
}

// BidResponse is one ledger entry
type BidResponse struct {
	ID       uuid.UUID `json:"id"`
	LotID    uuid.UUID `json:"lot_id"`
	BidderID uuid.UUID `json:"bidder_id"`
	Price    string    `json:"price"`
	Origin   string    `json:"origin"`
	PlacedAt time.Time `json:"placed_at"`
}

// ProxyResponse is the bidder's view of their own instruction
type ProxyResponse struct {
	LotID              uuid.UUID `json:"lot_id"`
	BidderID           uuid.UUID `json:"bidder_id"`
	MaxPrice           string    `json:"max_price"`
	StepPrice          string    `json:"step_price"`
	Active             bool      `json:"active"`
	RegisteredAt       time.Time `json:"registered_at"`
	LastViewedBidCount int       `json:"last_viewed_bid_count"`
}

// OrderResponse is the settlement record view
type OrderResponse struct {
	ID         uuid.UUID `json:"id"`
	LotID      uuid.UUID `json:"lot_id"`
	SellerID   uuid.UUID `json:"seller_id"`
	BuyerID    uuid.UUID `json:"buyer_id"`
	FinalPrice string    `json:"final_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToLotResponse converts a lot aggregate to its response view
func ToLotResponse(lot *auction.Lot) LotResponse {
	resp := LotResponse{
		ID:              lot.GetID(),
		SellerID:        lot.SellerID,
		Title:           lot.Title,
		Description:     lot.Description,
		StartingPrice:   lot.StartingPrice.String(),
		Increment:       lot.Increment.String(),
		CurrentPrice:    lot.CurrentPrice.String(),
		MinimumValidBid: lot.MinimumValidBid().String(),
		LeaderID:        lot.CurrentLeaderID,
		BidCount:        lot.BidCount,
		Status:          lot.Status.String(),
		StartTime:       lot.StartTime,
		EndTime:         lot.EndTime,
		WinnerConfirmed: lot.WinnerConfirmed,
		CreatedAt:       lot.CreatedAt,
	}
	if lot.BuyNowPrice != nil {
		s := lot.BuyNowPrice.String()
		resp.BuyNowPrice = &s
	}
	return resp
}

// ToBidResponse converts a ledger entry to its response view
func ToBidResponse(b *auction.Bid) BidResponse {
	return BidResponse{
		ID:       b.GetID(),
		LotID:    b.LotID,
		BidderID: b.BidderID,
		Price:    b.Price.String(),
		Origin:   string(b.Origin),
		PlacedAt: b.CreatedAt,
	}
}

// ToProxyResponse converts an instruction to its response view
func ToProxyResponse(p *auction.ProxyInstruction) ProxyResponse {
	return ProxyResponse{
		LotID:              p.LotID,
		BidderID:           p.BidderID,
		MaxPrice:           p.MaxPrice.String(),
		StepPrice:          p.StepPrice.String(),
		Active:             p.Active,
		RegisteredAt:       p.CreatedAt,
		LastViewedBidCount: p.LastViewedBidCount,
	}
}
