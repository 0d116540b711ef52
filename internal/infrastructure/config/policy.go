package config

import (
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// PolicyStore hands out the current auction policy and swaps it atomically
// when the config file changes on disk. Readers never block; a resolution
// in flight finishes under the policy it started with.
type PolicyStore struct {
	current atomic.Pointer[AuctionConfig]
}

// NewPolicyStore creates a store seeded with the given policy
func NewPolicyStore(initial AuctionConfig) *PolicyStore {
	s := &PolicyStore{}
	s.current.Store(&initial)
	return s
}

// Policy returns the current policy snapshot
func (s *PolicyStore) Policy() AuctionConfig {
	return *s.current.Load()
}

// Replace swaps in a new policy
func (s *PolicyStore) Replace(policy AuctionConfig) {
	s.current.Store(&policy)
}

// Watch re-reads the auction section on config file changes. Invalid
// values keep the previous policy in place.
func (c *Config) Watch(store *PolicyStore, logger *zap.Logger) {
	if c.viper == nil || c.viper.ConfigFileUsed() == "" {
		return
	}
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		next := auctionConfig(c.viper)
		applyAuctionDefaults(&next)
		if next.ExtensionWindow < 0 || next.ExtensionTime < 0 || next.AutoBidDelay < 0 || next.ConflictRetries < 1 {
			logger.Warn("ignoring invalid auction policy reload", zap.String("file", e.Name))
			return
		}
		store.Replace(next)
		logger.Info("auction policy reloaded",
			zap.Duration("extension_window", next.ExtensionWindow),
			zap.Duration("extension_time", next.ExtensionTime),
			zap.Duration("auto_bid_delay", next.AutoBidDelay),
			zap.Int("conflict_retries", next.ConflictRetries))
	})
	c.viper.WatchConfig()
}
