package auction

import (
	"context"
	"errors"
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/auction"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/order"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/cache"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/config"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/lock"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SettlementService drives the post-auction flow: ending lots past their
// deadline, seller confirmation into an order, and leader rejection with
// recomputation of the standing from the surviving ledger.
type SettlementService struct {
	lotRepo   auction.LotRepository
	bidRepo   auction.BidRepository
	proxyRepo auction.ProxyRepository
	orderRepo order.OrderRepository
	locks     *lock.KeyedMutex
	policies  *config.PolicyStore
	publisher shared.EventPublisher
	snapshots cache.SnapshotStore
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewSettlementService creates a settlement service
func NewSettlementService(
	lotRepo auction.LotRepository,
	bidRepo auction.BidRepository,
	proxyRepo auction.ProxyRepository,
	orderRepo order.OrderRepository,
	locks *lock.KeyedMutex,
	policies *config.PolicyStore,
	snapshots cache.SnapshotStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		lotRepo:   lotRepo,
		bidRepo:   bidRepo,
		proxyRepo: proxyRepo,
		orderRepo: orderRepo,
		locks:     locks,
		policies:  policies,
		snapshots: snapshots,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SettlementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetClock overrides the time source, for tests
func (s *SettlementService) SetClock(now func() time.Time) {
	s.now = now
}

// EndLot moves a lot past its deadline out of the OPEN state. A lot with
// no leader goes straight to PASSED. Called by the sweeper; safe to call
// on an already ended lot.
func (s *SettlementService) EndLot(ctx context.Context, lotID uuid.UUID) error {
	s.locks.Lock(lotID)
	defer s.locks.Unlock(lotID)

	return s.withConflictRetry(func() error {
		lot, err := s.lotRepo.FindByID(ctx, lotID)
		if err != nil {
			return err
		}
		if lot.Status != auction.LotStatusOpen {
			return nil
		}

		now := s.now()
		if err := lot.End(now); err != nil {
			return err
		}
		if lot.CurrentLeaderID == nil {
			if err := lot.MarkPassed(now); err != nil {
				return err
			}
		}
		if err := s.lotRepo.SaveWithLock(ctx, lot); err != nil {
			return err
		}

		s.metrics.LotsEnded.WithLabelValues(string(auction.EndReasonDeadline)).Inc()
		s.finish(ctx, lot)
		return nil
	})
}

// ConfirmWinner settles the lot on its current leader and creates the
// order. Re-confirming a settled lot returns the live order, or issues a
// fresh one when the previous order was cancelled.
func (s *SettlementService) ConfirmWinner(ctx context.Context, lotID, sellerID uuid.UUID) (*OrderResponse, error) {
	s.locks.Lock(lotID)
	defer s.locks.Unlock(lotID)

	var resp *OrderResponse
	err := s.withConflictRetry(func() error {
		lot, err := s.lotRepo.FindByID(ctx, lotID)
		if err != nil {
			return err
		}

		if lot.IsSettled() {
			if lot.SellerID != sellerID {
				return shared.ErrForbidden
			}
			existing, err := s.orderRepo.FindByLotID(ctx, lotID)
			if err == nil {
				resp = toOrderResponse(existing)
				return nil
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			// the live order was cancelled; re-confirmation issues a
			// fresh one for the same confirmed winner
			o, err := order.NewOrder(lot.GetID(), lot.SellerID, *lot.CurrentLeaderID, lot.CurrentPrice)
			if err != nil {
				return err
			}
			if err := s.orderRepo.Save(ctx, o); err != nil {
				return err
			}
			s.finish(ctx, lot, o.GetDomainEvents()...)
			o.ClearDomainEvents()
			resp = toOrderResponse(o)
			return nil
		}

		now := s.now()
		if err := lot.ConfirmWinner(sellerID, now); err != nil {
			return err
		}

		o, err := order.NewOrder(lot.GetID(), lot.SellerID, *lot.CurrentLeaderID, lot.CurrentPrice)
		if err != nil {
			return err
		}

		if err := s.lotRepo.SaveWithLock(ctx, lot); err != nil {
			return err
		}
		if err := s.orderRepo.Save(ctx, o); err != nil {
			return err
		}

		s.finish(ctx, lot, o.GetDomainEvents()...)
		o.ClearDomainEvents()
		resp = toOrderResponse(o)
		return nil
	})
	return resp, err
}

// RejectLeader denylists the standing leader of an ended lot, purges their
// ledger entries and proxy, and recomputes the standing. A surviving proxy
// may step back in; with nothing left the lot is PASSED.
func (s *SettlementService) RejectLeader(ctx context.Context, lotID, sellerID uuid.UUID) (*LotResponse, error) {
	s.locks.Lock(lotID)
	defer s.locks.Unlock(lotID)

	var resp *LotResponse
	err := s.withConflictRetry(func() error {
		lot, err := s.lotRepo.FindByID(ctx, lotID)
		if err != nil {
			return err
		}

		now := s.now()
		rejectedID, err := lot.RejectLeader(sellerID, now)
		if err != nil {
			return err
		}

		live, err := s.bidRepo.FindLiveByLot(ctx, lotID)
		if err != nil {
			return err
		}
		surviving := make([]auction.Bid, 0, len(live))
		for _, b := range live {
			if !lot.IsRejected(b.BidderID) {
				surviving = append(surviving, *b)
			}
		}
		lot.RecomputeFromLedger(surviving, now)

		// Active proxies of non-rejected bidders get a chance to take over
		// the lead at the recomputed standing.
		proxies, err := s.proxyRepo.FindActiveByLot(ctx, lotID)
		if err != nil {
			return err
		}
		candidates := make([]auction.Candidate, 0, len(proxies))
		for _, p := range proxies {
			if lot.IsRejected(p.BidderID) {
				continue
			}
			candidates = append(candidates, auction.ProxyCandidate(p))
		}

		var newBid *auction.Bid
		if len(candidates) > 0 {
			outcome := auction.Resolve(lot, candidates)
			if outcome.Changed && outcome.LeaderID != nil {
				if err := lot.ApplyRecovery(outcome, now); err != nil {
					return err
				}
				newBid, err = auction.NewBid(lot.GetID(), *outcome.LeaderID, outcome.Price, auction.BidOriginProxy, now)
				if err != nil {
					return err
				}
			}
		}

		if lot.CurrentLeaderID == nil {
			if err := lot.MarkPassed(now); err != nil {
				return err
			}
		}

		if err := s.lotRepo.SaveRejection(ctx, lot, rejectedID, newBid); err != nil {
			return err
		}

		s.finish(ctx, lot)
		r := ToLotResponse(lot)
		resp = &r
		return nil
	})
	return resp, err
}

// GetOrder returns the settlement order for a lot
func (s *SettlementService) GetOrder(ctx context.Context, lotID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByLotID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(o), nil
}

// CancelOrder voids an order, reopening nothing: the lot stays settled
// until the seller rejects the leader or re-lists.
func (s *SettlementService) CancelOrder(ctx context.Context, orderID, sellerID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.SellerID != sellerID {
		return nil, shared.ErrForbidden
	}
	if err := o.Cancel(s.now()); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, o.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish order events", zap.Error(err))
		}
	}
	o.ClearDomainEvents()
	return toOrderResponse(o), nil
}

func (s *SettlementService) withConflictRetry(fn func() error) error {
	retries := s.policies.Policy().ConflictRetries
	for attempt := 0; attempt < retries; attempt++ {
		err := fn()
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			s.metrics.ResolutionConflicts.Inc()
			time.Sleep(time.Duration(attempt+1) * conflictBackoff)
			continue
		}
		return err
	}
	return shared.NewDomainError("RESOLUTION_CONFLICT", "Lot is under heavy contention, try again")
}

// finish publishes pending events and refreshes the snapshot
func (s *SettlementService) finish(ctx context.Context, lot *auction.Lot, extra ...shared.DomainEvent) {
	if s.publisher != nil {
		events := append(lot.GetDomainEvents(), extra...)
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Error("failed to publish settlement events",
				zap.String("lot_id", lot.GetID().String()),
				zap.Error(err))
		}
	}
	lot.ClearDomainEvents()

	snapshot := cache.LotSnapshot{
		LotID:        lot.GetID(),
		Status:       lot.Status.String(),
		CurrentPrice: lot.CurrentPrice.String(),
		LeaderID:     lot.CurrentLeaderID,
		BidCount:     lot.BidCount,
		EndTime:      lot.EndTime,
		Version:      lot.GetVersion(),
	}
	if err := s.snapshots.Put(ctx, snapshot, snapshotTTL); err != nil {
		s.logger.Warn("failed to refresh lot snapshot",
			zap.String("lot_id", lot.GetID().String()),
			zap.Error(err))
	}
}

func toOrderResponse(o *order.Order) *OrderResponse {
	return &OrderResponse{
		ID:         o.GetID(),
		LotID:      o.LotID,
		SellerID:   o.SellerID,
		BuyerID:    o.BuyerID,
		FinalPrice: o.FinalPrice.String(),
		Status:     o.Status.String(),
		CreatedAt:  o.CreatedAt,
	}
}
