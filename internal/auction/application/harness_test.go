package application

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cristianortiz/auctionhouse/internal/auction/auctiontest"
	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	rediscache "github.com/cristianortiz/auctionhouse/internal/auction/infra/cache/redis"
	userdomain "github.com/cristianortiz/auctionhouse/internal/user/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var testLock = LockConfig{TTL: 2 * time.Second, WaitTimeout: 2 * time.Second, RetryInterval: time.Millisecond}

// harness wires the use cases on in-memory stores and a miniredis backed cache.
type harness struct {
	clock    *auctiontest.Clock
	mr       *miniredis.Miniredis
	cache    *rediscache.StateCache
	auctions *auctiontest.AuctionRepo
	bids     *auctiontest.BidRepo
	offers   *auctiontest.CounterOfferRepo
	users    *auctiontest.UserRepo
	tx       *auctiontest.TxBeginner
	events   *auctiontest.Recorder
	mails    *auctiontest.MailRecorder

	placeBid  *PlaceBidUseCase
	lifecycle *LifecycleManager
	deleteBid *DeleteBidUseCase
	get       *GetAuctionUseCase
	scheduler *Scheduler

	seller, alice, bob *userdomain.User
}

func newHarness(t *testing.T, lock LockConfig) *harness {
	t.Helper()
	mr, pool := auctiontest.NewRedis(t)
	h := &harness{
		clock:    auctiontest.NewClock(epoch),
		mr:       mr,
		cache:    rediscache.NewStateCache(pool),
		auctions: auctiontest.NewAuctionRepo(),
		offers:   auctiontest.NewCounterOfferRepo(),
		users:    auctiontest.NewUserRepo(),
		tx:       &auctiontest.TxBeginner{},
		events:   &auctiontest.Recorder{},
		mails:    &auctiontest.MailRecorder{},
	}
	h.bids = auctiontest.NewBidRepo(h.users)
	h.seller = h.users.Add("seller")
	h.alice = h.users.Add("alice")
	h.bob = h.users.Add("bob")

	locker := NewAuctionLocker(h.cache, lock)
	h.placeBid = NewPlaceBidUseCase(h.auctions, h.bids, h.users, h.tx, h.cache, locker, h.events, h.clock.Now)
	h.lifecycle = NewLifecycleManager(h.auctions, h.offers, h.users, h.tx, h.cache, locker, h.placeBid,
		h.events, h.mails, time.Hour, h.clock.Now)
	h.deleteBid = NewDeleteBidUseCase(h.bids, h.cache, locker, h.clock.Now)
	h.get = NewGetAuctionUseCase(h.auctions, h.bids, h.users, h.cache, h.placeBid)
	h.scheduler = NewScheduler(h.auctions, h.offers, h.lifecycle, SchedulerConfig{Tick: time.Second}, h.clock.Now)
	return h
}

// scheduled stores an auction of seller starting at startAt and lasting an hour.
func (h *harness) scheduled(t *testing.T, startAt time.Time, starting, increment int64) *domain.Auction {
	t.Helper()
	a := &domain.Auction{
		ID:            uuid.New(),
		SellerID:      h.seller.ID,
		Title:         "Vintage camera",
		StartingPrice: decimal.NewFromInt(starting),
		BidIncrement:  decimal.NewFromInt(increment),
		StartAt:       startAt,
		EndAt:         startAt.Add(time.Hour),
		Status:        domain.StatusScheduled,
		CreatedAt:     epoch,
		UpdatedAt:     epoch,
	}
	require.NoError(t, h.auctions.Create(context.Background(), a))
	return a
}

// live stores an auction that started a minute ago and starts it.
func (h *harness) live(t *testing.T, starting, increment int64) *domain.Auction {
	t.Helper()
	a := h.scheduled(t, h.clock.Now().Add(-time.Minute), starting, increment)
	started, err := h.lifecycle.Start(context.Background(), a.ID)
	require.NoError(t, err)
	return started
}

func (h *harness) bid(a *domain.Auction, bidder *userdomain.User, amount int64) (*AcceptedBid, error) {
	return h.placeBid.Execute(context.Background(), PlaceBidDTO{
		AuctionID: a.ID,
		BidderID:  bidder.ID,
		Amount:    decimal.NewFromInt(amount),
	})
}

func (h *harness) mustBid(t *testing.T, a *domain.Auction, bidder *userdomain.User, amount int64) *AcceptedBid {
	t.Helper()
	accepted, err := h.bid(a, bidder, amount)
	require.NoError(t, err)
	return accepted
}

// ended runs a to its end through the scheduler path.
func (h *harness) ended(t *testing.T, a *domain.Auction) {
	t.Helper()
	h.clock.Set(a.EndAt)
	_, err := h.lifecycle.End(context.Background(), a.ID, nil)
	require.NoError(t, err)
}

func amounts(values ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		out = append(out, decimal.NewFromInt(v))
	}
	return out
}
