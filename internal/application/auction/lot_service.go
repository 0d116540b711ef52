package auction

import (
	"context"
	"errors"
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/auction"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared/valueobject"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LotService handles lot publication and read access
type LotService struct {
	lotRepo   auction.LotRepository
	bidRepo   auction.BidRepository
	proxyRepo auction.ProxyRepository
	snapshots cache.SnapshotStore
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewLotService creates a lot service
func NewLotService(
	lotRepo auction.LotRepository,
	bidRepo auction.BidRepository,
	proxyRepo auction.ProxyRepository,
	snapshots cache.SnapshotStore,
	logger *zap.Logger,
) *LotService {
	return &LotService{
		lotRepo:   lotRepo,
		bidRepo:   bidRepo,
		proxyRepo: proxyRepo,
		snapshots: snapshots,
		logger:    logger,
		now:       time.Now,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *LotService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Create publishes a new lot
func (s *LotService) Create(ctx context.Context, sellerID uuid.UUID, req CreateLotRequest) (*LotResponse, error) {
	startingPrice, err := parseMoney(req.StartingPrice)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Starting price must be a valid decimal")
	}
	increment, err := parseMoney(req.Increment)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Increment must be a valid decimal")
	}
	var buyNow *valueobject.Money
	if req.BuyNowPrice != nil {
		m, err := parseMoney(*req.BuyNowPrice)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Buy-now price must be a valid decimal")
		}
		buyNow = &m
	}

	startTime := s.now()
	if req.StartTime != nil {
		startTime = *req.StartTime
	}

	lot, err := auction.NewLot(sellerID, req.Title, startingPrice, increment, buyNow, startTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	lot.Description = req.Description

	if err := s.lotRepo.Save(ctx, lot); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, lot.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish lot events",
				zap.String("lot_id", lot.GetID().String()),
				zap.Error(err))
		}
	}
	lot.ClearDomainEvents()

	resp := ToLotResponse(lot)
	return &resp, nil
}

// GetByID returns the lot, preferring the snapshot cache for the live
// fields when it is fresh
func (s *LotService) GetByID(ctx context.Context, lotID uuid.UUID) (*LotResponse, error) {
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	resp := ToLotResponse(lot)

	if snapshot, err := s.snapshots.Get(ctx, lotID); err == nil && snapshot != nil && snapshot.Version >= lot.GetVersion() {
		resp.CurrentPrice = snapshot.CurrentPrice
		resp.LeaderID = snapshot.LeaderID
		resp.BidCount = snapshot.BidCount
		resp.Status = snapshot.Status
		resp.EndTime = snapshot.EndTime
	}
	return &resp, nil
}

// List returns lots matching the filter
func (s *LotService) List(ctx context.Context, filter LotListFilter) ([]LotResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	domainFilter := auction.LotFilter{
		Filter:   shared.DefaultFilter(),
		SellerID: filter.SellerID,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}

	if filter.Status != "" {
		status := auction.LotStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_INPUT", "Unknown lot status")
		}
		domainFilter.Status = &status
	}

	page, err := s.lotRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]LotResponse, 0, len(page.Items))
	for _, lot := range page.Items {
		items = append(items, ToLotResponse(lot))
	}
	return items, page.Total, nil
}

// ListBids returns the lot's ledger, newest first
func (s *LotService) ListBids(ctx context.Context, lotID uuid.UUID, page, pageSize int) ([]BidResponse, int64, error) {
	if _, err := s.lotRepo.FindByID(ctx, lotID); err != nil {
		return nil, 0, err
	}

	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 && pageSize <= 100 {
		filter.PageSize = pageSize
	}

	result, err := s.bidRepo.FindByLot(ctx, lotID, filter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]BidResponse, 0, len(result.Items))
	for _, b := range result.Items {
		items = append(items, ToBidResponse(b))
	}
	return items, result.Total, nil
}

// GetProxy returns the bidder's own instruction for the lot
func (s *LotService) GetProxy(ctx context.Context, lotID, bidderID uuid.UUID) (*ProxyResponse, error) {
	proxy, err := s.proxyRepo.FindByLotAndBidder(ctx, lotID, bidderID)
	if err != nil {
		return nil, err
	}
	resp := ToProxyResponse(proxy)
	return &resp, nil
}

func parseMoney(value string) (valueobject.Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return valueobject.Money{}, err
	}
	if d.IsNegative() {
		return valueobject.Money{}, errors.New("negative amount")
	}
	return valueobject.NewMoneyUSD(d), nil
}
