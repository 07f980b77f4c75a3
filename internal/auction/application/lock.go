package application

import (
	"context"
	"fmt"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const releaseTimeout = time.Second

// LockConfig bounds the per auction mutual exclusion.
type LockConfig struct {
	// TTL is the lock expiry and also the deadline of the critical section.
	TTL time.Duration
	// WaitTimeout is how long an attempt keeps retrying before BID_LOCKED.
	WaitTimeout time.Duration
	// RetryInterval is the pause between acquisition attempts.
	RetryInterval time.Duration
}

// AuctionLocker serializes every state changing operation on one auction
// through the cache lock. Different auctions never contend.
type AuctionLocker struct {
	cache domain.StateCache
	cfg   LockConfig
}

func NewAuctionLocker(cache domain.StateCache, cfg LockConfig) *AuctionLocker {
	return &AuctionLocker{cache: cache, cfg: cfg}
}

// WithLock runs fn while holding the lock of auctionID. It returns
// domain.ErrBidLocked when the lock could not be taken within WaitTimeout.
// Once the lock is held fn runs to completion even if ctx is cancelled, so a
// caller giving up never leaves a half committed settlement behind.
func (l *AuctionLocker) WithLock(ctx context.Context, auctionID uuid.UUID, fn func(ctx context.Context) error) error {
	token := uuid.NewString()
	if err := l.acquire(ctx, auctionID, token); err != nil {
		return err
	}
	defer l.release(ctx, auctionID, token)

	cs, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.cfg.TTL)
	defer cancel()
	return fn(cs)
}

func (l *AuctionLocker) acquire(ctx context.Context, auctionID uuid.UUID, token string) error {
	deadline := time.Now().Add(l.cfg.WaitTimeout)
	for {
		ok, err := l.cache.AcquireLock(ctx, auctionID, token, l.cfg.TTL)
		if err != nil {
			return fmt.Errorf("acquire auction lock %s: %w", auctionID, err)
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return domain.ErrBidLocked
		}

		timer := time.NewTimer(l.cfg.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.ErrBidLocked
		case <-timer.C:
		}
	}
}

func (l *AuctionLocker) release(ctx context.Context, auctionID uuid.UUID, token string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	released, err := l.cache.ReleaseLock(rctx, auctionID, token)
	if err != nil {
		log.Error("Failed to release auction lock, it will expire on its TTL",
			zap.String("auctionID", auctionID.String()),
			zap.Error(err),
		)
		return
	}
	if !released {
		log.Warn("Auction lock expired before release",
			zap.String("auctionID", auctionID.String()),
			zap.Duration("ttl", l.cfg.TTL),
		)
	}
}
