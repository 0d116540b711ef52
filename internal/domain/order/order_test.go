package order

import (
	"testing"
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	lotID := uuid.New()
	sellerID := uuid.New()
	buyerID := uuid.New()

	t.Run("creates a pending order", func(t *testing.T) {
		o, err := NewOrder(lotID, sellerID, buyerID, decimal.NewFromInt(2100))
		require.NoError(t, err)
		assert.Equal(t, OrderStatusCreated, o.Status)
		assert.Len(t, o.GetDomainEvents(), 1)
	})

	t.Run("rejects self-dealing", func(t *testing.T) {
		_, err := NewOrder(lotID, sellerID, sellerID, decimal.NewFromInt(2100))
		require.Error(t, err)
		domainErr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "INVALID_PARTY", domainErr.Code)
	})

	t.Run("rejects non-positive price", func(t *testing.T) {
		_, err := NewOrder(lotID, sellerID, buyerID, decimal.Zero)
		require.Error(t, err)
	})
}

func TestOrderLifecycle(t *testing.T) {
	newOrder := func(t *testing.T) *Order {
		o, err := NewOrder(uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(2100))
		require.NoError(t, err)
		return o
	}

	t.Run("complete", func(t *testing.T) {
		o := newOrder(t)
		require.NoError(t, o.Complete(time.Now()))
		assert.Equal(t, OrderStatusCompleted, o.Status)
		require.NotNil(t, o.CompletedAt)
		require.Error(t, o.Cancel(time.Now()))
	})

	t.Run("cancel", func(t *testing.T) {
		o := newOrder(t)
		require.NoError(t, o.Cancel(time.Now()))
		assert.Equal(t, OrderStatusCancelled, o.Status)
		require.Error(t, o.Complete(time.Now()))
	})
}

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderStatusCreated.CanTransitionTo(OrderStatusCompleted))
	assert.True(t, OrderStatusCreated.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusCompleted.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusCancelled.CanTransitionTo(OrderStatusCreated))
}
