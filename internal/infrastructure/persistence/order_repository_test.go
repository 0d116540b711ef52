package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/order"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredOrder(t *testing.T, repo *GormOrderRepository, buyerID uuid.UUID) *order.Order {
	t.Helper()
	o, err := order.NewOrder(uuid.New(), uuid.New(), buyerID, decimal.NewFromInt(1300))
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), o))
	return o
}

func TestGormOrderRepository_SaveAndFindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	o := newStoredOrder(t, repo, uuid.New())

	found, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.LotID, found.LotID)
	assert.Equal(t, order.OrderStatusCreated, found.Status)
	assert.True(t, found.FinalPrice.Equal(decimal.NewFromInt(1300)))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_SaveWithLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	o := newStoredOrder(t, repo, uuid.New())

	require.NoError(t, o.Complete(time.Now()))
	require.NoError(t, repo.SaveWithLock(ctx, o))
	assert.Equal(t, 2, o.Version)

	stale := *o
	stale.Version = 1
	err := repo.SaveWithLock(ctx, &stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestGormOrderRepository_FindByLotIDSkipsCancelled(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	o := newStoredOrder(t, repo, uuid.New())

	found, err := repo.FindByLotID(ctx, o.LotID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, found.ID)

	require.NoError(t, o.Cancel(time.Now()))
	require.NoError(t, repo.SaveWithLock(ctx, o))

	_, err = repo.FindByLotID(ctx, o.LotID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_CountCompletedByBuyer(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	buyerID := uuid.New()
	completed := newStoredOrder(t, repo, buyerID)
	require.NoError(t, completed.Complete(time.Now()))
	require.NoError(t, repo.SaveWithLock(ctx, completed))

	newStoredOrder(t, repo, buyerID)    // still CREATED
	newStoredOrder(t, repo, uuid.New()) // other buyer

	count, err := repo.CountCompletedByBuyer(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGormOrderRepository_FindAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	buyerID := uuid.New()
	newStoredOrder(t, repo, buyerID)
	newStoredOrder(t, repo, buyerID)
	newStoredOrder(t, repo, uuid.New())

	filter := order.OrderFilter{
		Filter:  shared.Filter{Page: 1, PageSize: 10},
		BuyerID: &buyerID,
	}
	page, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 2)
}
