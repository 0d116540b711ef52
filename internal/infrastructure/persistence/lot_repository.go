package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/auction"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLotRepository implements auction.LotRepository using GORM
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// Save creates or updates a lot without a version guard
func (r *GormLotRepository) Save(ctx context.Context, lot *auction.Lot) error {
	model := models.LotModelFromDomain(lot)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock updates the lot guarded by its version column. The version
// in the row must still match the version the lot was loaded with; when it
// does not, another writer won the round and the caller retries.
func (r *GormLotRepository) SaveWithLock(ctx context.Context, lot *auction.Lot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.lockedUpdate(tx, lot)
	})
}

// SaveResolution persists a resolution round atomically: the lot update
// under version guard plus the new ledger entry, if the standing changed.
func (r *GormLotRepository) SaveResolution(ctx context.Context, lot *auction.Lot, newBid *auction.Bid) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.lockedUpdate(tx, lot); err != nil {
			return err
		}
		if newBid != nil {
			if err := tx.Create(models.BidModelFromDomain(newBid)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveRejection persists a leader rejection atomically: the lot update
// under version guard, the denylist entry, the purge of the rejected
// bidder's ledger rows, the deactivation of their proxy, and the recovered
// standing entry when a surviving proxy took over.
func (r *GormLotRepository) SaveRejection(ctx context.Context, lot *auction.Lot, rejectedBidderID uuid.UUID, newBid *auction.Bid) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.lockedUpdate(tx, lot); err != nil {
			return err
		}
		rejected := models.RejectedBidderModel{
			LotID:     lot.ID,
			BidderID:  rejectedBidderID,
			CreatedAt: time.Now(),
		}
		if err := tx.Create(&rejected).Error; err != nil {
			return err
		}
		if err := tx.Where("lot_id = ? AND bidder_id = ?", lot.ID, rejectedBidderID).
			Delete(&models.BidModel{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ProxyModel{}).
			Where("lot_id = ? AND bidder_id = ?", lot.ID, rejectedBidderID).
			Updates(map[string]interface{}{
				"active":     false,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}
		if newBid != nil {
			if err := tx.Create(models.BidModelFromDomain(newBid)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// lockedUpdate writes the lot's mutable columns with a compare-and-swap on
// the version column. Zero rows affected means a concurrent writer moved
// the version first.
func (r *GormLotRepository) lockedUpdate(tx *gorm.DB, lot *auction.Lot) error {
	result := tx.Model(&models.LotModel{}).
		Where("id = ? AND version = ?", lot.ID, lot.Version).
		Updates(map[string]interface{}{
			"current_price":     lot.CurrentPrice,
			"current_leader_id": lot.CurrentLeaderID,
			"bid_count":         lot.BidCount,
			"end_time":          lot.EndTime,
			"status":            lot.Status,
			"winner_confirmed":  lot.WinnerConfirmed,
			"ended_at":          lot.EndedAt,
			"settled_at":        lot.SettledAt,
			"version":           lot.Version + 1,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	lot.IncrementVersion()
	return nil
}

// FindByID finds a lot by its ID
func (r *GormLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*auction.Lot, error) {
	var model models.LotModel
	if err := r.db.WithContext(ctx).
		Preload("RejectedBidders").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds lots matching the filter with pagination
func (r *GormLotRepository) FindAll(ctx context.Context, filter auction.LotFilter) (*shared.Paginated[*auction.Lot], error) {
	query := r.db.WithContext(ctx).Model(&models.LotModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.Search != "" {
		query = query.Where("title ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.LotModel
	if err := r.applyFilter(query, filter.Filter).
		Preload("RejectedBidders").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	lots := make([]*auction.Lot, len(rows))
	for i := range rows {
		lots[i] = rows[i].ToDomain()
	}
	result := shared.NewPaginated(lots, total, filter.Page, filter.PageSize)
	return &result, nil
}

// FindExpired returns open lots whose deadline has passed, oldest first
func (r *GormLotRepository) FindExpired(ctx context.Context, limit int) ([]*auction.Lot, error) {
	var rows []models.LotModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_time <= ?", auction.LotStatusOpen, time.Now()).
		Order("end_time ASC").
		Limit(limit).
		Preload("RejectedBidders").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	lots := make([]*auction.Lot, len(rows))
	for i := range rows {
		lots[i] = rows[i].ToDomain()
	}
	return lots, nil
}

func (r *GormLotRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, LotSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}
