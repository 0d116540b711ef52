package auction

import (
	"context"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// LotFilter carries lot listing criteria
type LotFilter struct {
	shared.Filter
	Status   *LotStatus
	SellerID *uuid.UUID
}

// LotRepository persists lots with optimistic locking. The composite save
// methods run as one transaction so a version conflict rolls back the
// ledger write together with the lot update.
type LotRepository interface {
	Save(ctx context.Context, lot *Lot) error
	// SaveWithLock updates the lot guarded by its version column and returns
	// shared.ErrConcurrencyConflict when another writer got there first
	SaveWithLock(ctx context.Context, lot *Lot) error
	// SaveResolution persists a resolution round: the lot update under
	// version guard plus the appended ledger entry, if any
	SaveResolution(ctx context.Context, lot *Lot, newBid *Bid) error
	// SaveRejection persists a leader rejection: the lot update under
	// version guard, the purge of the rejected bidder's ledger entries and
	// proxy, and the recovered standing entry, if a surviving proxy took over
	SaveRejection(ctx context.Context, lot *Lot, rejectedBidderID uuid.UUID, newBid *Bid) error
	FindByID(ctx context.Context, id uuid.UUID) (*Lot, error)
	FindAll(ctx context.Context, filter LotFilter) (*shared.Paginated[*Lot], error)
	// FindExpired returns OPEN lots whose deadline has passed, for the
	// end-of-auction sweeper
	FindExpired(ctx context.Context, limit int) ([]*Lot, error)
}

// BidRepository reads the append-only ledger. Writes happen only through
// the composite LotRepository methods.
type BidRepository interface {
	FindByLot(ctx context.Context, lotID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Bid], error)
	FindLiveByLot(ctx context.Context, lotID uuid.UUID) ([]*Bid, error)
	CountByLot(ctx context.Context, lotID uuid.UUID) (int64, error)
}

// ProxyRepository persists proxy instructions
type ProxyRepository interface {
	Upsert(ctx context.Context, proxy *ProxyInstruction) error
	Deactivate(ctx context.Context, lotID, bidderID uuid.UUID) error
	// Acknowledge advances the viewed-history cursor, never backward
	Acknowledge(ctx context.Context, lotID, bidderID uuid.UUID, bidCount int) error
	FindByLotAndBidder(ctx context.Context, lotID, bidderID uuid.UUID) (*ProxyInstruction, error)
	FindActiveByLot(ctx context.Context, lotID uuid.UUID) ([]*ProxyInstruction, error)
}
