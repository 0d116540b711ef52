package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/auction"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExpiredLotSource lists OPEN lots whose deadline has passed
type ExpiredLotSource interface {
	FindExpired(ctx context.Context, limit int) ([]*auction.Lot, error)
}

// LotEnder ends a single lot. Implemented by the settlement service.
type LotEnder interface {
	EndLot(ctx context.Context, lotID uuid.UUID) error
}

// Sweeper periodically closes out lots past their deadline. Anti-snipe
// extensions move the deadline, so a lot picked up by one sweep can
// legitimately still be open by the time it is processed; EndLot treats
// that as a no-op conflict and the next sweep retries.
type Sweeper struct {
	source   ExpiredLotSource
	ender    LotEnder
	interval time.Duration
	batch    int
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewSweeper creates a sweeper from the scheduler configuration
func NewSweeper(source ExpiredLotSource, ender LotEnder, cfg config.SchedulerConfig, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		source:   source,
		ender:    ender,
		interval: cfg.SweepInterval,
		batch:    cfg.BatchSize,
		logger:   logger,
	}
}

// Start launches the sweep loop
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("auction sweeper started", zap.Duration("interval", s.interval))
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight sweep
func (s *Sweeper) Stop() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		s.logger.Info("auction sweeper stopped")
	})
}

// Sweep runs one pass over expired lots
func (s *Sweeper) Sweep(ctx context.Context) {
	lots, err := s.source.FindExpired(ctx, s.batch)
	if err != nil {
		s.logger.Error("failed to list expired lots", zap.Error(err))
		return
	}

	for _, lot := range lots {
		if ctx.Err() != nil {
			return
		}
		if err := s.ender.EndLot(ctx, lot.GetID()); err != nil {
			s.logger.Error("failed to end lot",
				zap.String("lot_id", lot.GetID().String()),
				zap.Error(err))
		}
	}
	if len(lots) > 0 {
		s.logger.Info("sweep completed", zap.Int("lots", len(lots)))
	}
}
