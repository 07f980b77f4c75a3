package application

import (
	"context"
	"errors"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"go.uber.org/zap"
)

// SchedulerConfig controls the lifecycle sweep.
type SchedulerConfig struct {
	Tick      time.Duration
	BatchSize int
}

// Scheduler sweeps due lifecycle work: start scheduled auctions, end
// expired live ones, expire stale counter offers and restore lost cache
// state. Every step is idempotent so several instances may sweep at once.
type Scheduler struct {
	auctions  domain.AuctionRepository
	offers    domain.CounterOfferRepository
	lifecycle *LifecycleManager
	cfg       SchedulerConfig
	now       func() time.Time
}

func NewScheduler(auctions domain.AuctionRepository, offers domain.CounterOfferRepository, lifecycle *LifecycleManager, cfg SchedulerConfig, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Scheduler{auctions: auctions, offers: offers, lifecycle: lifecycle, cfg: cfg, now: now}
}

// Run sweeps once immediately and then every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info("Auction scheduler started", zap.Duration("tick", s.cfg.Tick))
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	for {
		s.RunOnce(ctx)
		select {
		case <-ctx.Done():
			log.Info("Auction scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// SweepResult counts what one sweep changed.
type SweepResult struct {
	Rehydrated int
	Started    int
	Ended      int
	Expired    int
}

func (s *Scheduler) RunOnce(ctx context.Context) SweepResult {
	var res SweepResult
	now := s.now()

	if live, err := s.auctions.ListLive(ctx, now, s.cfg.BatchSize); err != nil {
		log.Error("Scheduler: list live auctions", zap.Error(err))
	} else {
		for _, a := range live {
			ok, err := s.lifecycle.Rehydrate(ctx, a)
			if err != nil {
				s.logStepError("rehydrate", a.ID.String(), err)
				continue
			}
			if ok {
				res.Rehydrated++
			}
		}
	}

	if due, err := s.auctions.ListStartDue(ctx, now, s.cfg.BatchSize); err != nil {
		log.Error("Scheduler: list start due auctions", zap.Error(err))
	} else {
		for _, a := range due {
			if _, err := s.lifecycle.Start(ctx, a.ID); err != nil {
				s.logStepError("start", a.ID.String(), err)
				continue
			}
			res.Started++
		}
	}

	if due, err := s.auctions.ListEndDue(ctx, now, s.cfg.BatchSize); err != nil {
		log.Error("Scheduler: list end due auctions", zap.Error(err))
	} else {
		for _, a := range due {
			if _, err := s.lifecycle.End(ctx, a.ID, nil); err != nil {
				s.logStepError("end", a.ID.String(), err)
				continue
			}
			res.Ended++
		}
	}

	if expired, err := s.offers.ListExpired(ctx, now, s.cfg.BatchSize); err != nil {
		log.Error("Scheduler: list expired counter offers", zap.Error(err))
	} else {
		for _, o := range expired {
			if err := s.lifecycle.ExpireCounter(ctx, o); err != nil {
				s.logStepError("expire counter offer", o.AuctionID.String(), err)
				continue
			}
			res.Expired++
		}
	}

	if res != (SweepResult{}) {
		log.Debug("Scheduler sweep done",
			zap.Int("rehydrated", res.Rehydrated),
			zap.Int("started", res.Started),
			zap.Int("ended", res.Ended),
			zap.Int("expired", res.Expired),
		)
	}
	return res
}

// another instance winning the same transition is expected, not an error
func (s *Scheduler) logStepError(step, auctionID string, err error) {
	if errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrCounterNotPending) || errors.Is(err, domain.ErrBidLocked) {
		log.Debug("Scheduler step skipped", zap.String("step", step), zap.String("auctionID", auctionID), zap.Error(err))
		return
	}
	log.Error("Scheduler step failed", zap.String("step", step), zap.String("auctionID", auctionID), zap.Error(err))
}
