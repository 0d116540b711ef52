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
	"gorm.io/gorm/clause"
)

// GormProxyRepository implements auction.ProxyRepository using GORM
type GormProxyRepository struct {
	db *gorm.DB
}

// NewGormProxyRepository creates a new GormProxyRepository
func NewGormProxyRepository(db *gorm.DB) *GormProxyRepository {
	return &GormProxyRepository{db: db}
}

// Upsert creates or replaces the bidder's instruction on a lot. One
// instruction per bidder per lot, enforced by the unique index.
func (r *GormProxyRepository) Upsert(ctx context.Context, proxy *auction.ProxyInstruction) error {
	model := models.ProxyModelFromDomain(proxy)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "lot_id"}, {Name: "bidder_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"max_price", "step_price", "active", "updated_at",
			}),
		}).
		Create(model).Error
}

// Deactivate turns off the bidder's instruction on a lot
func (r *GormProxyRepository) Deactivate(ctx context.Context, lotID, bidderID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.ProxyModel{}).
		Where("lot_id = ? AND bidder_id = ?", lotID, bidderID).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Acknowledge advances the viewed-history cursor. Stale acknowledgments
// (cursor already past bidCount) are a no-op, not an error.
func (r *GormProxyRepository) Acknowledge(ctx context.Context, lotID, bidderID uuid.UUID, bidCount int) error {
	result := r.db.WithContext(ctx).Model(&models.ProxyModel{}).
		Where("lot_id = ? AND bidder_id = ? AND last_viewed_bid_count < ?", lotID, bidderID, bidCount).
		Updates(map[string]interface{}{
			"last_viewed_bid_count": bidCount,
			"updated_at":            time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// distinguish missing instruction from an already-current cursor
		if _, err := r.FindByLotAndBidder(ctx, lotID, bidderID); err != nil {
			return err
		}
	}
	return nil
}

// FindByLotAndBidder finds the bidder's instruction on a lot
func (r *GormProxyRepository) FindByLotAndBidder(ctx context.Context, lotID, bidderID uuid.UUID) (*auction.ProxyInstruction, error) {
	var model models.ProxyModel
	if err := r.db.WithContext(ctx).
		Where("lot_id = ? AND bidder_id = ?", lotID, bidderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByLot returns the live instructions competing on a lot,
// earliest registrant first
func (r *GormProxyRepository) FindActiveByLot(ctx context.Context, lotID uuid.UUID) ([]*auction.ProxyInstruction, error) {
	var rows []models.ProxyModel
	if err := r.db.WithContext(ctx).
		Where("lot_id = ? AND active = ?", lotID, true).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	proxies := make([]*auction.ProxyInstruction, len(rows))
	for i := range rows {
		proxies[i] = rows[i].ToDomain()
	}
	return proxies, nil
}
