package application

import (
	"context"
	"testing"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerDrivesLifecycle(t *testing.T) {
	h := newHarness(t, testLock)
	ctx := context.Background()
	a := h.scheduled(t, epoch.Add(10*time.Minute), 1000, 50)

	assert.Equal(t, SweepResult{}, h.scheduler.RunOnce(ctx))

	h.clock.Set(a.StartAt)
	assert.Equal(t, SweepResult{Started: 1}, h.scheduler.RunOnce(ctx))
	assert.Equal(t, domain.StatusLive, h.auctions.Status(a.ID))
	h.mustBid(t, a, h.alice, 1050)

	h.clock.Set(a.EndAt)
	assert.Equal(t, SweepResult{Ended: 1}, h.scheduler.RunOnce(ctx))
	assert.Equal(t, domain.StatusEnded, h.auctions.Status(a.ID))

	assert.Equal(t, SweepResult{}, h.scheduler.RunOnce(ctx), "sweeps are idempotent")
}

func TestSchedulerRehydratesLostCache(t *testing.T) {
	h := newHarness(t, testLock)
	ctx := context.Background()
	a := h.live(t, 1000, 50)
	h.mustBid(t, a, h.alice, 1300)

	h.mr.FlushAll()

	assert.Equal(t, SweepResult{Rehydrated: 1}, h.scheduler.RunOnce(ctx))
	snap, err := h.cache.GetSnapshot(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.True(t, snap.Amount.Equal(decimal.NewFromInt(1300)))
	assert.True(t, snap.IsLeader(h.alice.ID))
	assert.Equal(t, "alice", snap.BidderDisplayName)

	_, err = h.bid(a, h.bob, 1340)
	assert.ErrorIs(t, err, domain.ErrBidTooLow)
	h.mustBid(t, a, h.bob, 1350)
}

func TestSchedulerExpiresCounterOffers(t *testing.T) {
	h := newHarness(t, testLock)
	ctx := context.Background()
	a := h.live(t, 1000, 50)
	h.mustBid(t, a, h.bob, 5000)
	h.ended(t, a)
	_, err := h.lifecycle.Counter(ctx, a.ID, h.seller.ID, decimal.NewFromInt(4500))
	require.NoError(t, err)

	assert.Equal(t, SweepResult{}, h.scheduler.RunOnce(ctx))

	h.clock.Advance(time.Hour)
	assert.Equal(t, SweepResult{Expired: 1}, h.scheduler.RunOnce(ctx))
	assert.Equal(t, domain.StatusEnded, h.auctions.Status(a.ID))

	offer, err := h.offers.GetLatestByAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CounterOfferRejected, offer.Status)
	assert.Len(t, h.events.ForUser(h.seller.ID), 1)
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, testLock)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.scheduler.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
