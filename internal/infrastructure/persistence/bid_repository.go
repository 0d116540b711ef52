package persistence

import (
	"context"
	"strings"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/auction"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBidRepository implements auction.BidRepository using GORM.
// The ledger is append-only; writes happen inside the lot repository's
// composite transactions.
type GormBidRepository struct {
	db *gorm.DB
}

// NewGormBidRepository creates a new GormBidRepository
func NewGormBidRepository(db *gorm.DB) *GormBidRepository {
	return &GormBidRepository{db: db}
}

// FindByLot returns the lot's ledger entries with pagination
func (r *GormBidRepository) FindByLot(ctx context.Context, lotID uuid.UUID, filter shared.Filter) (*shared.Paginated[*auction.Bid], error) {
	query := r.db.WithContext(ctx).Model(&models.BidModel{}).Where("lot_id = ?", lotID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	orderDir := "ASC"
	if strings.ToLower(filter.OrderDir) == "desc" {
		orderDir = "DESC"
	}
	query = query.Order("created_at " + orderDir)

	var rows []models.BidModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	bids := make([]*auction.Bid, len(rows))
	for i := range rows {
		bids[i] = rows[i].ToDomain()
	}
	result := shared.NewPaginated(bids, total, filter.Page, filter.PageSize)
	return &result, nil
}

// FindLiveByLot returns all ledger entries for a lot oldest first, for
// recomputing the standing after a rejection
func (r *GormBidRepository) FindLiveByLot(ctx context.Context, lotID uuid.UUID) ([]*auction.Bid, error) {
	var rows []models.BidModel
	if err := r.db.WithContext(ctx).
		Where("lot_id = ?", lotID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	bids := make([]*auction.Bid, len(rows))
	for i := range rows {
		bids[i] = rows[i].ToDomain()
	}
	return bids, nil
}

// CountByLot returns the number of ledger entries for a lot
func (r *GormBidRepository) CountByLot(ctx context.Context, lotID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BidModel{}).
		Where("lot_id = ?", lotID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
