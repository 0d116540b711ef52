package auction

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Batcher coalesces proxy resolution triggers per lot. A burst of
// instruction updates inside the configured delay collapses into a single
// resolution round, which keeps the ledger free of intermediate hops.
type Batcher struct {
	mu      sync.Mutex
	pending map[uuid.UUID]*time.Timer
	resolve func(lotID uuid.UUID)
	stopped bool
	wg      sync.WaitGroup
}

// NewBatcher creates a batcher that calls resolve when a lot's delay fires
func NewBatcher(resolve func(lotID uuid.UUID)) *Batcher {
	return &Batcher{
		pending: make(map[uuid.UUID]*time.Timer),
		resolve: resolve,
	}
}

// Trigger schedules a resolution for the lot after the delay. A trigger
// for a lot already scheduled resets nothing: the earliest deadline wins
// so a steady stream of triggers cannot starve the round.
func (b *Batcher) Trigger(lotID uuid.UUID, delay time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	if _, scheduled := b.pending[lotID]; scheduled {
		return
	}

	b.wg.Add(1)
	b.pending[lotID] = time.AfterFunc(delay, func() {
		defer b.wg.Done()

		b.mu.Lock()
		delete(b.pending, lotID)
		stopped := b.stopped
		b.mu.Unlock()
		if stopped {
			return
		}
		b.resolve(lotID)
	})
}

// Stop cancels scheduled rounds and waits for in-flight ones
func (b *Batcher) Stop() {
	b.mu.Lock()
	b.stopped = true
	for lotID, timer := range b.pending {
		if timer.Stop() {
			b.wg.Done()
		}
		delete(b.pending, lotID)
	}
	b.mu.Unlock()
	b.wg.Wait()
}

// PendingCount returns how many lots have a scheduled round
func (b *Batcher) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
