package event

import (
	"context"
	"errors"
	"testing"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	err      error
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.received = append(h.received, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

type panicHandler struct{}

func (h *panicHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	panic("boom")
}

func (h *panicHandler) EventTypes() []string { return nil }

func newEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "Lot", uuid.New())
	return &e
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	priceHandler := &recordingHandler{types: []string{"auction.lot.price_changed"}}
	endHandler := &recordingHandler{types: []string{"auction.lot.ended"}}
	bus.Subscribe(priceHandler)
	bus.Subscribe(endHandler)

	require.NoError(t, bus.Publish(context.Background(), newEvent("auction.lot.price_changed")))

	assert.Len(t, priceHandler.received, 1)
	assert.Empty(t, endHandler.received)
}

func TestInMemoryEventBus_WildcardHandlerReceivesAll(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	all := &recordingHandler{}
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		newEvent("auction.lot.price_changed"),
		newEvent("auction.order.created"),
	))

	assert.Len(t, all.received, 2)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{types: []string{"auction.lot.ended"}, err: errors.New("handler down")}
	healthy := &recordingHandler{types: []string{"auction.lot.ended"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newEvent("auction.lot.ended")))
	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_PanicIsContained(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(&panicHandler{})
	after := &recordingHandler{}
	bus.Subscribe(after)

	require.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), newEvent("auction.lot.ended"))
	})
	assert.Len(t, after.received, 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{"auction.lot.ended"}}
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newEvent("auction.lot.ended")))
	assert.Empty(t, h.received)
}
