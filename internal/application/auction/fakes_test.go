package auction

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/auction"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/order"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/cache"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/config"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/lock"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is an in-memory implementation of the auction repositories with
// real optimistic locking semantics, so the services' retry loops run
// against the same failure mode the SQL repositories produce.
type memStore struct {
	mu      sync.Mutex
	lots    map[uuid.UUID]auction.Lot
	bids    map[uuid.UUID][]auction.Bid
	proxies map[uuid.UUID]map[uuid.UUID]auction.ProxyInstruction

	failSaves int // next N version-guarded saves fail with a conflict
}

func newMemStore() *memStore {
	return &memStore{
		lots:    make(map[uuid.UUID]auction.Lot),
		bids:    make(map[uuid.UUID][]auction.Bid),
		proxies: make(map[uuid.UUID]map[uuid.UUID]auction.ProxyInstruction),
	}
}

func cloneLot(l auction.Lot) *auction.Lot {
	out := l
	out.RejectedBidderIDs = auction.NewRejectedSet()
	for id := range l.RejectedBidderIDs {
		out.RejectedBidderIDs.Add(id)
	}
	if l.CurrentLeaderID != nil {
		leader := *l.CurrentLeaderID
		out.CurrentLeaderID = &leader
	}
	out.ClearDomainEvents()
	return &out
}

func (s *memStore) Save(ctx context.Context, lot *auction.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[lot.GetID()] = *cloneLot(*lot)
	return nil
}

func (s *memStore) lockAndStore(lot *auction.Lot) error {
	if s.failSaves > 0 {
		s.failSaves--
		return shared.ErrConcurrencyConflict
	}
	stored, ok := s.lots[lot.GetID()]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != lot.Version {
		return shared.ErrConcurrencyConflict
	}
	lot.IncrementVersion()
	s.lots[lot.GetID()] = *cloneLot(*lot)
	return nil
}

func (s *memStore) SaveWithLock(ctx context.Context, lot *auction.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockAndStore(lot)
}

func (s *memStore) SaveResolution(ctx context.Context, lot *auction.Lot, newBid *auction.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lockAndStore(lot); err != nil {
		return err
	}
	if newBid != nil {
		s.bids[lot.GetID()] = append(s.bids[lot.GetID()], *newBid)
	}
	return nil
}

func (s *memStore) SaveRejection(ctx context.Context, lot *auction.Lot, rejectedBidderID uuid.UUID, newBid *auction.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lockAndStore(lot); err != nil {
		return err
	}
	kept := s.bids[lot.GetID()][:0]
	for _, b := range s.bids[lot.GetID()] {
		if b.BidderID != rejectedBidderID {
			kept = append(kept, b)
		}
	}
	s.bids[lot.GetID()] = kept
	if byBidder, ok := s.proxies[lot.GetID()]; ok {
		if p, ok := byBidder[rejectedBidderID]; ok {
			p.Active = false
			byBidder[rejectedBidderID] = p
		}
	}
	if newBid != nil {
		s.bids[lot.GetID()] = append(s.bids[lot.GetID()], *newBid)
	}
	return nil
}

func (s *memStore) FindByID(ctx context.Context, id uuid.UUID) (*auction.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lot, ok := s.lots[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneLot(lot), nil
}

func (s *memStore) FindAll(ctx context.Context, filter auction.LotFilter) (*shared.Paginated[*auction.Lot], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []*auction.Lot
	for _, lot := range s.lots {
		if filter.Status != nil && lot.Status != *filter.Status {
			continue
		}
		if filter.SellerID != nil && lot.SellerID != *filter.SellerID {
			continue
		}
		items = append(items, cloneLot(lot))
	}
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (s *memStore) FindExpired(ctx context.Context, limit int) ([]*auction.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var expired []*auction.Lot
	for _, lot := range s.lots {
		if lot.Status == auction.LotStatusOpen && !now.Before(lot.EndTime) {
			expired = append(expired, cloneLot(lot))
		}
		if len(expired) == limit {
			break
		}
	}
	return expired, nil
}

func (s *memStore) FindByLot(ctx context.Context, lotID uuid.UUID, filter shared.Filter) (*shared.Paginated[*auction.Bid], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.bids[lotID]
	items := make([]*auction.Bid, 0, len(entries))
	for i := range entries {
		b := entries[i]
		items = append(items, &b)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (s *memStore) FindLiveByLot(ctx context.Context, lotID uuid.UUID) ([]*auction.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.bids[lotID]
	items := make([]*auction.Bid, 0, len(entries))
	for i := range entries {
		b := entries[i]
		items = append(items, &b)
	}
	return items, nil
}

func (s *memStore) CountByLot(ctx context.Context, lotID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.bids[lotID])), nil
}

func (s *memStore) Upsert(ctx context.Context, proxy *auction.ProxyInstruction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byBidder, ok := s.proxies[proxy.LotID]
	if !ok {
		byBidder = make(map[uuid.UUID]auction.ProxyInstruction)
		s.proxies[proxy.LotID] = byBidder
	}
	byBidder[proxy.BidderID] = *proxy
	return nil
}

func (s *memStore) Deactivate(ctx context.Context, lotID, bidderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byBidder, ok := s.proxies[lotID]
	if !ok {
		return shared.ErrNotFound
	}
	p, ok := byBidder[bidderID]
	if !ok {
		return shared.ErrNotFound
	}
	p.Active = false
	byBidder[bidderID] = p
	return nil
}

func (s *memStore) Acknowledge(ctx context.Context, lotID, bidderID uuid.UUID, bidCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byBidder, ok := s.proxies[lotID]
	if !ok {
		return shared.ErrNotFound
	}
	p, ok := byBidder[bidderID]
	if !ok {
		return shared.ErrNotFound
	}
	if bidCount > p.LastViewedBidCount {
		p.LastViewedBidCount = bidCount
		byBidder[bidderID] = p
	}
	return nil
}

func (s *memStore) FindByLotAndBidder(ctx context.Context, lotID, bidderID uuid.UUID) (*auction.ProxyInstruction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if byBidder, ok := s.proxies[lotID]; ok {
		if p, ok := byBidder[bidderID]; ok {
			out := p
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *memStore) FindActiveByLot(ctx context.Context, lotID uuid.UUID) ([]*auction.ProxyInstruction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*auction.ProxyInstruction
	for _, p := range s.proxies[lotID] {
		if p.Active {
			cp := p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// order repository

type memOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]order.Order
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: make(map[uuid.UUID]order.Order)}
}

func (s *memOrderStore) Save(ctx context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	cp.ClearDomainEvents()
	s.orders[o.GetID()] = cp
	return nil
}

func (s *memOrderStore) SaveWithLock(ctx context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[o.GetID()]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != o.Version {
		return shared.ErrConcurrencyConflict
	}
	o.IncrementVersion()
	cp := *o
	cp.ClearDomainEvents()
	s.orders[o.GetID()] = cp
	return nil
}

func (s *memOrderStore) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := o
	return &out, nil
}

func (s *memOrderStore) FindByLotID(ctx context.Context, lotID uuid.UUID) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.LotID == lotID && o.Status != order.OrderStatusCancelled {
			out := o
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *memOrderStore) FindAll(ctx context.Context, filter order.OrderFilter) (*shared.Paginated[*order.Order], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []*order.Order
	for _, o := range s.orders {
		cp := o
		items = append(items, &cp)
	}
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (s *memOrderStore) CountCompletedByBuyer(ctx context.Context, buyerID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, o := range s.orders {
		if o.BuyerID == buyerID && o.Status == order.OrderStatusCompleted {
			n++
		}
	}
	return n, nil
}

var (
	_ auction.LotRepository   = (*memStore)(nil)
	_ auction.BidRepository   = (*memStore)(nil)
	_ auction.ProxyRepository = (*memStore)(nil)
	_ order.OrderRepository   = (*memOrderStore)(nil)
)

// test fixture wiring

type fixture struct {
	store     *memStore
	orders    *memOrderStore
	policies  *config.PolicyStore
	bidding   *BiddingService
	settling  *SettlementService
	lots      *LotService
	snapshots *cache.InMemorySnapshotStore
}

func newFixture(t *testing.T, policy config.AuctionConfig) *fixture {
	t.Helper()
	if policy.ConflictRetries == 0 {
		policy.ConflictRetries = 5
	}

	store := newMemStore()
	orders := newMemOrderStore()
	policies := config.NewPolicyStore(policy)
	locks := lock.NewKeyedMutex()
	snapshots := cache.NewInMemorySnapshotStore()
	m := metrics.New(prometheus.NewRegistry())
	logger := zap.NewNop()

	bidding := NewBiddingService(store, store, store, locks, policies, AllowAll{}, snapshots, m, logger)
	settling := NewSettlementService(store, store, store, orders, locks, policies, snapshots, m, logger)
	lots := NewLotService(store, store, store, snapshots, logger)

	t.Cleanup(bidding.Stop)

	return &fixture{
		store:     store,
		orders:    orders,
		policies:  policies,
		bidding:   bidding,
		settling:  settling,
		lots:      lots,
		snapshots: snapshots,
	}
}

// orderDomainFixture builds a completed order for the given buyer
func orderDomainFixture(buyerID uuid.UUID) (*order.Order, error) {
	o, err := order.NewOrder(uuid.New(), uuid.New(), buyerID, decimal.NewFromInt(2100))
	if err != nil {
		return nil, err
	}
	if err := o.Complete(time.Now()); err != nil {
		return nil, err
	}
	return o, nil
}

func (f *fixture) createLot(t *testing.T, sellerID uuid.UUID, starting, increment string, buyNow *string, endIn time.Duration) uuid.UUID {
	t.Helper()
	resp, err := f.lots.Create(context.Background(), sellerID, CreateLotRequest{
		Title:         "Test Lot",
		StartingPrice: starting,
		Increment:     increment,
		BuyNowPrice:   buyNow,
		EndTime:       time.Now().Add(endIn),
	})
	require.NoError(t, err)
	return resp.ID
}
