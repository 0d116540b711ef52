package auction

import (
	"context"
	"errors"
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/auction"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/cache"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/config"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/lock"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	conflictBackoff = 10 * time.Millisecond
	snapshotTTL     = 30 * time.Second
)

// BiddingService runs the resolution loop for manual bids and proxy
// instructions. Triggers on the same lot are serialized by a keyed mutex
// in-process and by the lot's version column across processes; a version
// conflict re-evaluates the trigger on fresh state up to the configured
// retry budget.
type BiddingService struct {
	lotRepo    auction.LotRepository
	bidRepo    auction.BidRepository
	proxyRepo  auction.ProxyRepository
	locks      *lock.KeyedMutex
	policies   *config.PolicyStore
	reputation ReputationPolicy
	publisher  shared.EventPublisher
	snapshots  cache.SnapshotStore
	metrics    *metrics.Metrics
	logger     *zap.Logger
	batcher    *Batcher
	now        func() time.Time
}

// NewBiddingService creates a bidding service
func NewBiddingService(
	lotRepo auction.LotRepository,
	bidRepo auction.BidRepository,
	proxyRepo auction.ProxyRepository,
	locks *lock.KeyedMutex,
	policies *config.PolicyStore,
	reputation ReputationPolicy,
	snapshots cache.SnapshotStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) *BiddingService {
	s := &BiddingService{
		lotRepo:    lotRepo,
		bidRepo:    bidRepo,
		proxyRepo:  proxyRepo,
		locks:      locks,
		policies:   policies,
		reputation: reputation,
		snapshots:  snapshots,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
	s.batcher = NewBatcher(s.resolveLot)
	return s
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *BiddingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetClock overrides the time source, for tests
func (s *BiddingService) SetClock(now func() time.Time) {
	s.now = now
}

// Stop drains the proxy batcher
func (s *BiddingService) Stop() {
	s.batcher.Stop()
}

// PlaceBid places a one-shot manual bid and resolves the lot
func (s *BiddingService) PlaceBid(ctx context.Context, lotID, bidderID uuid.UUID, req PlaceBidRequest) (*BidResultResponse, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, s.rejected(shared.NewDomainError("INVALID_INPUT", "Bid amount must be a positive decimal"))
	}

	s.locks.Lock(lotID)
	defer s.locks.Unlock(lotID)

	policy := s.policies.Policy()
	var result *BidResultResponse
	for attempt := 0; attempt < policy.ConflictRetries; attempt++ {
		result, err = s.resolveOnce(ctx, lotID, &manualTrigger{bidderID: bidderID, amount: amount}, policy)
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			s.metrics.ResolutionConflicts.Inc()
			time.Sleep(time.Duration(attempt+1) * conflictBackoff)
			continue
		}
		if err != nil {
			return nil, s.rejected(err)
		}
		s.metrics.BidsTotal.WithLabelValues(string(auction.BidOriginManual)).Inc()
		return result, nil
	}

	return nil, s.rejected(shared.NewDomainError("RESOLUTION_CONFLICT", "Lot is under heavy contention, try again"))
}

// SetProxy registers or raises a proxy instruction and triggers resolution.
// With a configured auto-bid delay the resolution is coalesced per lot so a
// burst of instructions settles in one round.
func (s *BiddingService) SetProxy(ctx context.Context, lotID, bidderID uuid.UUID, req SetProxyRequest) (*BidResultResponse, error) {
	maxPrice, err := decimal.NewFromString(req.MaxPrice)
	if err != nil || !maxPrice.IsPositive() {
		return nil, s.rejected(shared.NewDomainError("INVALID_INPUT", "Proxy ceiling must be a positive decimal"))
	}
	stepPrice := decimal.Zero
	if req.StepPrice != "" {
		stepPrice, err = decimal.NewFromString(req.StepPrice)
		if err != nil || stepPrice.IsNegative() {
			return nil, s.rejected(shared.NewDomainError("INVALID_INPUT", "Proxy step must be a non-negative decimal"))
		}
	}

	s.locks.Lock(lotID)
	defer s.locks.Unlock(lotID)

	policy := s.policies.Policy()
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEligibility(ctx, lot, bidderID); err != nil {
		return nil, s.rejected(err)
	}

	if err := s.upsertProxy(ctx, lot, bidderID, maxPrice, stepPrice); err != nil {
		return nil, s.rejected(err)
	}

	if policy.AutoBidDelay > 0 {
		s.batcher.Trigger(lotID, policy.AutoBidDelay)
		return &BidResultResponse{
			LotID:        lotID,
			Accepted:     true,
			Leading:      lot.CurrentLeaderID != nil && *lot.CurrentLeaderID == bidderID,
			CurrentPrice: lot.CurrentPrice.String(),
			LeaderID:     lot.CurrentLeaderID,
			BidCount:     lot.BidCount,
			EndTime:      lot.EndTime,
		}, nil
	}

	var result *BidResultResponse
	for attempt := 0; attempt < policy.ConflictRetries; attempt++ {
		result, err = s.resolveOnce(ctx, lotID, &proxyTrigger{bidderID: bidderID}, policy)
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			s.metrics.ResolutionConflicts.Inc()
			time.Sleep(time.Duration(attempt+1) * conflictBackoff)
			continue
		}
		if err != nil {
			return nil, s.rejected(err)
		}
		s.metrics.BidsTotal.WithLabelValues(string(auction.BidOriginProxy)).Inc()
		return result, nil
	}

	return nil, s.rejected(shared.NewDomainError("RESOLUTION_CONFLICT", "Lot is under heavy contention, try again"))
}

// CancelProxy deactivates the bidder's instruction. The standing price is
// untouched: consumed ceilings stay consumed.
func (s *BiddingService) CancelProxy(ctx context.Context, lotID, bidderID uuid.UUID) error {
	s.locks.Lock(lotID)
	defer s.locks.Unlock(lotID)

	existing, err := s.proxyRepo.FindByLotAndBidder(ctx, lotID, bidderID)
	if err != nil {
		return err
	}
	if !existing.Active {
		return nil
	}
	if err := s.proxyRepo.Deactivate(ctx, lotID, bidderID); err != nil {
		return err
	}
	s.metrics.ActiveProxyGauge.Dec()
	return nil
}

// AcknowledgeProxy marks the lot's bid history as seen up to its current
// count. Informational only; resolution never reads the cursor.
func (s *BiddingService) AcknowledgeProxy(ctx context.Context, lotID, bidderID uuid.UUID) (*ProxyResponse, error) {
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if err := s.proxyRepo.Acknowledge(ctx, lotID, bidderID, lot.BidCount); err != nil {
		return nil, err
	}
	proxy, err := s.proxyRepo.FindByLotAndBidder(ctx, lotID, bidderID)
	if err != nil {
		return nil, err
	}
	resp := ToProxyResponse(proxy)
	return &resp, nil
}

// trigger is what kicked off a resolution round
type trigger interface {
	// candidate contributes the trigger's own entry, if any, and validates
	// it against the lot
	candidate(lot *auction.Lot) (*auction.Candidate, error)
	bidder() uuid.UUID
	origin(leaderID uuid.UUID) auction.BidOrigin
}

type manualTrigger struct {
	bidderID uuid.UUID
	amount   decimal.Decimal
}

func (t *manualTrigger) candidate(lot *auction.Lot) (*auction.Candidate, error) {
	if t.amount.LessThan(lot.MinimumValidBid()) {
		return nil, shared.NewDomainError("BID_TOO_LOW", "Bid is below the minimum valid amount")
	}
	if lot.BuyNowPrice != nil && t.amount.GreaterThan(*lot.BuyNowPrice) {
		return nil, shared.NewDomainError("BUY_NOW_EXCEEDED", "Bid exceeds the buy-now price")
	}
	c := auction.ManualCandidate(t.bidderID, t.amount, lot.Increment, time.Now())
	return &c, nil
}

func (t *manualTrigger) bidder() uuid.UUID { return t.bidderID }

func (t *manualTrigger) origin(leaderID uuid.UUID) auction.BidOrigin {
	if leaderID == t.bidderID {
		return auction.BidOriginManual
	}
	return auction.BidOriginProxy
}

type proxyTrigger struct {
	bidderID uuid.UUID
}

func (t *proxyTrigger) candidate(lot *auction.Lot) (*auction.Candidate, error) {
	return nil, nil // the instruction is already persisted
}

func (t *proxyTrigger) bidder() uuid.UUID { return t.bidderID }

func (t *proxyTrigger) origin(uuid.UUID) auction.BidOrigin {
	return auction.BidOriginProxy
}

// batchTrigger resolves a lot with no new entry of its own, used by the
// coalescing batcher
type batchTrigger struct{}

func (batchTrigger) candidate(*auction.Lot) (*auction.Candidate, error) { return nil, nil }
func (batchTrigger) bidder() uuid.UUID                                  { return uuid.Nil }
func (batchTrigger) origin(uuid.UUID) auction.BidOrigin                 { return auction.BidOriginProxy }

// resolveOnce loads fresh state, runs one resolution round and persists it.
// Returns shared.ErrConcurrencyConflict when the optimistic lock loses.
func (s *BiddingService) resolveOnce(ctx context.Context, lotID uuid.UUID, trg trigger, policy config.AuctionConfig) (*BidResultResponse, error) {
	started := s.now()

	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if trg.bidder() != uuid.Nil {
		if err := s.checkEligibility(ctx, lot, trg.bidder()); err != nil {
			return nil, err
		}
	}

	candidates, err := s.activeCandidates(ctx, lot)
	if err != nil {
		return nil, err
	}
	own, err := trg.candidate(lot)
	if err != nil {
		return nil, err
	}
	if own != nil {
		candidates = append(candidates, *own)
	}

	outcome := auction.Resolve(lot, candidates)

	extended := false
	var newBid *auction.Bid
	if outcome.Changed {
		now := s.now()
		if err := lot.ApplyOutcome(outcome, now); err != nil {
			return nil, err
		}
		if !outcome.BuyNowReached {
			extended = lot.ExtendForSnipe(now, policy.ExtensionWindow, policy.ExtensionTime)
		}
		newBid, err = auction.NewBid(lot.GetID(), *outcome.LeaderID, outcome.Price, trg.origin(*outcome.LeaderID), now)
		if err != nil {
			return nil, err
		}
	}

	if err := s.lotRepo.SaveResolution(ctx, lot, newBid); err != nil {
		return nil, err
	}

	s.afterResolution(ctx, lot, outcome, extended)
	s.metrics.ResolutionDuration.Observe(s.now().Sub(started).Seconds())

	leading := lot.CurrentLeaderID != nil && trg.bidder() != uuid.Nil && *lot.CurrentLeaderID == trg.bidder()
	return &BidResultResponse{
		LotID:        lot.GetID(),
		Accepted:     true,
		Leading:      leading,
		CurrentPrice: lot.CurrentPrice.String(),
		LeaderID:     lot.CurrentLeaderID,
		BidCount:     lot.BidCount,
		EndTime:      lot.EndTime,
		Extended:     extended,
		BuyNow:       outcome.BuyNowReached,
	}, nil
}

// resolveLot is the batcher callback: one coalesced round per lot
func (s *BiddingService) resolveLot(lotID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.locks.Lock(lotID)
	defer s.locks.Unlock(lotID)

	policy := s.policies.Policy()
	for attempt := 0; attempt < policy.ConflictRetries; attempt++ {
		_, err := s.resolveOnce(ctx, lotID, batchTrigger{}, policy)
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			s.metrics.ResolutionConflicts.Inc()
			time.Sleep(time.Duration(attempt+1) * conflictBackoff)
			continue
		}
		if err != nil {
			s.logger.Error("batched resolution failed",
				zap.String("lot_id", lotID.String()),
				zap.Error(err))
		}
		return
	}
	s.logger.Warn("batched resolution gave up after retries",
		zap.String("lot_id", lotID.String()))
}

func (s *BiddingService) checkEligibility(ctx context.Context, lot *auction.Lot, bidderID uuid.UUID) error {
	now := s.now()
	if lot.HasEnded(now) {
		return shared.NewDomainError("AUCTION_ENDED", "Lot is no longer accepting bids")
	}
	if !lot.IsOpenAt(now) {
		return shared.NewDomainError("AUCTION_NOT_STARTED", "Lot has not started yet")
	}
	if bidderID == lot.SellerID {
		return shared.NewDomainError("SELF_BIDDING", "Sellers cannot bid on their own lots")
	}
	if lot.IsRejected(bidderID) {
		return shared.NewDomainError("BIDDER_REJECTED", "Bidder has been rejected from this lot")
	}
	return s.reputation.Allow(ctx, bidderID)
}

func (s *BiddingService) activeCandidates(ctx context.Context, lot *auction.Lot) ([]auction.Candidate, error) {
	proxies, err := s.proxyRepo.FindActiveByLot(ctx, lot.GetID())
	if err != nil {
		return nil, err
	}
	candidates := make([]auction.Candidate, 0, len(proxies))
	for _, p := range proxies {
		if lot.IsRejected(p.BidderID) {
			continue
		}
		candidates = append(candidates, auction.ProxyCandidate(p))
	}
	return candidates, nil
}

func (s *BiddingService) upsertProxy(ctx context.Context, lot *auction.Lot, bidderID uuid.UUID, maxPrice, stepPrice decimal.Decimal) error {
	existing, err := s.proxyRepo.FindByLotAndBidder(ctx, lot.GetID(), bidderID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	now := s.now()
	if existing != nil {
		wasActive := existing.Active
		if err := existing.Raise(lot, maxPrice, stepPrice, now); err != nil {
			return err
		}
		if err := s.proxyRepo.Upsert(ctx, existing); err != nil {
			return err
		}
		if !wasActive {
			s.metrics.ActiveProxyGauge.Inc()
		}
		return nil
	}

	proxy, err := auction.NewProxyInstruction(lot, bidderID, maxPrice, stepPrice, now)
	if err != nil {
		return err
	}
	if err := s.proxyRepo.Upsert(ctx, proxy); err != nil {
		return err
	}
	s.metrics.ActiveProxyGauge.Inc()
	return nil
}

// afterResolution publishes domain events, refreshes the snapshot cache
// and bumps counters. Failures here are logged, not surfaced: the state
// change is already durable.
func (s *BiddingService) afterResolution(ctx context.Context, lot *auction.Lot, outcome auction.Outcome, extended bool) {
	s.metrics.ResolutionRounds.Inc()
	if extended {
		s.metrics.SnipeExtensions.Inc()
	}
	if outcome.BuyNowReached {
		s.metrics.LotsEnded.WithLabelValues(string(auction.EndReasonBuyNow)).Inc()
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, lot.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish resolution events",
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

func (s *BiddingService) rejected(err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		s.metrics.BidsRejectedTotal.WithLabelValues(domainErr.Code).Inc()
	}
	return err
}
