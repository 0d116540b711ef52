package auction

import (
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// EndReason describes why a lot left the OPEN state
type EndReason string

const (
	// EndReasonDeadline means the scheduled end time passed
	EndReasonDeadline EndReason = "DEADLINE"
	// EndReasonBuyNow means a resolved price reached the buy-now ceiling
	EndReasonBuyNow EndReason = "BUY_NOW"
)

const (
	EventTypeLotPublished    = "auction.lot.published"
	EventTypeLotPriceChanged = "auction.lot.price_changed"
	EventTypeLotExtended     = "auction.lot.extended"
	EventTypeLotEnded        = "auction.lot.ended"
	EventTypeLotPassed       = "auction.lot.passed"
	EventTypeWinnerConfirmed = "auction.lot.winner_confirmed"
	EventTypeLeaderRejected  = "auction.lot.leader_rejected"
)

// LotPublishedEvent fires when a lot opens for bidding
type LotPublishedEvent struct {
	shared.BaseDomainEvent
	SellerID uuid.UUID `json:"seller_id"`
	Title    string    `json:"title"`
}

func NewLotPublishedEvent(lot *Lot) *LotPublishedEvent {
	return &LotPublishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotPublished, "Lot", lot.GetID()),
		SellerID:        lot.SellerID,
		Title:           lot.Title,
	}
}

// LotPriceChangedEvent fires whenever a resolution round moves the
// standing price or the leader
type LotPriceChangedEvent struct {
	shared.BaseDomainEvent
	Price    string     `json:"price"`
	LeaderID *uuid.UUID `json:"leader_id,omitempty"`
	BidCount int        `json:"bid_count"`
}

func NewLotPriceChangedEvent(lot *Lot) *LotPriceChangedEvent {
	return &LotPriceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotPriceChanged, "Lot", lot.GetID()),
		Price:           lot.CurrentPrice.String(),
		LeaderID:        lot.CurrentLeaderID,
		BidCount:        lot.BidCount,
	}
}

// LotExtendedEvent fires when anti-snipe pushes the deadline forward
type LotExtendedEvent struct {
	shared.BaseDomainEvent
	EndTime string `json:"end_time"`
}

func NewLotExtendedEvent(lot *Lot) *LotExtendedEvent {
	return &LotExtendedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotExtended, "Lot", lot.GetID()),
		EndTime:         lot.EndTime.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// LotEndedEvent fires when the lot stops accepting bids
type LotEndedEvent struct {
	shared.BaseDomainEvent
	Reason     EndReason  `json:"reason"`
	FinalPrice string     `json:"final_price"`
	LeaderID   *uuid.UUID `json:"leader_id,omitempty"`
}

func NewLotEndedEvent(lot *Lot, reason EndReason) *LotEndedEvent {
	return &LotEndedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotEnded, "Lot", lot.GetID()),
		Reason:          reason,
		FinalPrice:      lot.CurrentPrice.String(),
		LeaderID:        lot.CurrentLeaderID,
	}
}

// LotPassedEvent fires when an ended lot is closed out with no winner
type LotPassedEvent struct {
	shared.BaseDomainEvent
}

func NewLotPassedEvent(lot *Lot) *LotPassedEvent {
	return &LotPassedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotPassed, "Lot", lot.GetID()),
	}
}

// WinnerConfirmedEvent fires when the seller settles the lot
type WinnerConfirmedEvent struct {
	shared.BaseDomainEvent
	WinnerID   uuid.UUID `json:"winner_id"`
	FinalPrice string    `json:"final_price"`
}

func NewWinnerConfirmedEvent(lot *Lot, winnerID uuid.UUID) *WinnerConfirmedEvent {
	return &WinnerConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWinnerConfirmed, "Lot", lot.GetID()),
		WinnerID:        winnerID,
		FinalPrice:      lot.CurrentPrice.String(),
	}
}

// LeaderRejectedEvent fires when the seller denylists the standing leader
type LeaderRejectedEvent struct {
	shared.BaseDomainEvent
	RejectedBidderID uuid.UUID  `json:"rejected_bidder_id"`
	NewLeaderID      *uuid.UUID `json:"new_leader_id,omitempty"`
	Price            string     `json:"price"`
}

func NewLeaderRejectedEvent(lot *Lot, rejectedBidderID uuid.UUID) *LeaderRejectedEvent {
	return &LeaderRejectedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeLeaderRejected, "Lot", lot.GetID()),
		RejectedBidderID: rejectedBidderID,
		NewLeaderID:      lot.CurrentLeaderID,
		Price:            lot.CurrentPrice.String(),
	}
}
