package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LotSnapshot is the hot-read view of a lot: the fields polled by clients
// between resolution rounds. It is refreshed after every state change, so
// GET traffic on busy lots never touches the database.
type LotSnapshot struct {
	LotID        uuid.UUID  `json:"lot_id"`
	Status       string     `json:"status"`
	CurrentPrice string     `json:"current_price"`
	LeaderID     *uuid.UUID `json:"leader_id,omitempty"`
	BidCount     int        `json:"bid_count"`
	EndTime      time.Time  `json:"end_time"`
	Version      int        `json:"version"`
}

// SnapshotStore caches lot snapshots
type SnapshotStore interface {
	Put(ctx context.Context, snapshot LotSnapshot, ttl time.Duration) error
	Get(ctx context.Context, lotID uuid.UUID) (*LotSnapshot, error)
	Invalidate(ctx context.Context, lotID uuid.UUID) error
}

// InMemorySnapshotStore keeps snapshots in process memory. Suitable for
// single-instance deployments and tests; distributed deployments use the
// Redis store so replicas serve the same view.
type InMemorySnapshotStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]memoryItem
}

type memoryItem struct {
	snapshot  LotSnapshot
	expiresAt time.Time
}

// NewInMemorySnapshotStore creates an empty in-memory store
func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{
		items: make(map[uuid.UUID]memoryItem),
	}
}

// Put stores a snapshot. A newer version already present wins: a slow
// writer must not clobber the state of a round that resolved after it.
func (s *InMemorySnapshotStore) Put(ctx context.Context, snapshot LotSnapshot, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[snapshot.LotID]; ok && existing.snapshot.Version > snapshot.Version {
		return nil
	}
	s.items[snapshot.LotID] = memoryItem{
		snapshot:  snapshot,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Get returns the cached snapshot or nil on a miss
func (s *InMemorySnapshotStore) Get(ctx context.Context, lotID uuid.UUID) (*LotSnapshot, error) {
	s.mu.RLock()
	item, ok := s.items[lotID]
	s.mu.RUnlock()
	if !ok || time.Now().After(item.expiresAt) {
		return nil, nil
	}
	snapshot := item.snapshot
	return &snapshot, nil
}

// Invalidate drops the cached snapshot
func (s *InMemorySnapshotStore) Invalidate(ctx context.Context, lotID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, lotID)
	return nil
}

var _ SnapshotStore = (*InMemorySnapshotStore)(nil)
