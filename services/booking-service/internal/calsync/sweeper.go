package calsync

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper retries appointments whose calendar sync failed or never ran, looking back a bounded
// window so permanently failing rows age out.
type Sweeper struct {
	syncer    *Syncer
	appts     Appointments
	logger    *slog.Logger
	interval  time.Duration
	lookback  time.Duration
	batchSize int
	now       func() time.Time
}

type SweeperConfig struct {
	Interval  time.Duration
	Lookback  time.Duration
	BatchSize int
}

func NewSweeper(syncer *Syncer, appts Appointments, logger *slog.Logger, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 72 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	return &Sweeper{
		syncer:    syncer,
		appts:     appts,
		logger:    logger,
		interval:  cfg.Interval,
		lookback:  cfg.Lookback,
		batchSize: cfg.BatchSize,
		now:       time.Now,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("calendar sync sweep failed", "err", err)
			}
		}
	}
}

// SweepOnce runs a single pass and returns how many appointments it synced.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	ids, err := s.appts.ListUnsynced(ctx, s.now().Add(-s.lookback), s.batchSize)
	if err != nil {
		return 0, err
	}
	synced := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		status, err := s.syncer.Sync(ctx, id)
		if err != nil {
			s.logger.Warn("calendar sync retry failed", "err", err, "appointment_id", id)
			continue
		}
		if status == StatusSynced {
			synced++
		}
	}
	return synced, nil
}
