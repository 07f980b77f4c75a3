package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/cristianortiz/auctionhouse/internal/shared/redisclient"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type stateCacheSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	cache *StateCache
	ctx   context.Context
	id    uuid.UUID
}

func TestStateCache(t *testing.T) {
	suite.Run(t, new(stateCacheSuite))
}

func (s *stateCacheSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	pool := redisclient.NewPool(s.mr.Addr(), "")
	s.T().Cleanup(func() { _ = pool.Close() })
	s.cache = NewStateCache(pool)
	s.ctx = context.Background()
	s.id = uuid.New()
}

func (s *stateCacheSuite) TestLockIsExclusive() {
	ok, err := s.cache.AcquireLock(s.ctx, s.id, "a", time.Second)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.cache.AcquireLock(s.ctx, s.id, "b", time.Second)
	s.Require().NoError(err)
	s.False(ok, "second acquirer must not get the lock")

	other, err := s.cache.AcquireLock(s.ctx, uuid.New(), "c", time.Second)
	s.Require().NoError(err)
	s.True(other, "locks are scoped per auction")
}

func (s *stateCacheSuite) TestLockExpires() {
	ok, err := s.cache.AcquireLock(s.ctx, s.id, "a", 2*time.Second)
	s.Require().NoError(err)
	s.True(ok)

	s.mr.FastForward(2 * time.Second)

	ok, err = s.cache.AcquireLock(s.ctx, s.id, "b", 2*time.Second)
	s.Require().NoError(err)
	s.True(ok, "crashed holder must not deadlock later bids")
}

func (s *stateCacheSuite) TestReleaseOnlyWithOwnToken() {
	_, err := s.cache.AcquireLock(s.ctx, s.id, "first", time.Second)
	s.Require().NoError(err)

	s.mr.FastForward(time.Second)
	_, err = s.cache.AcquireLock(s.ctx, s.id, "second", time.Second)
	s.Require().NoError(err)

	released, err := s.cache.ReleaseLock(s.ctx, s.id, "first")
	s.Require().NoError(err)
	s.False(released, "stale holder must not release a newer lock")
	s.Equal("second", s.mustGet(lockKey(s.id)))

	released, err = s.cache.ReleaseLock(s.ctx, s.id, "second")
	s.Require().NoError(err)
	s.True(released)
	s.False(s.mr.Exists(lockKey(s.id)))
}

func (s *stateCacheSuite) TestStatus() {
	_, ok, err := s.cache.GetStatus(s.ctx, s.id)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.cache.SetStatus(s.ctx, s.id, domain.StatusLive))
	status, ok, err := s.cache.GetStatus(s.ctx, s.id)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(domain.StatusLive, status)
}

func (s *stateCacheSuite) TestSnapshotRoundTripAndTeardown() {
	snap, err := s.cache.GetSnapshot(s.ctx, s.id)
	s.Require().NoError(err)
	s.Nil(snap)

	bid := domain.NewBid(uuid.New(), s.id, uuid.New(), decimal.RequireFromString("1050.50"), time.Now().UTC())
	s.Require().NoError(s.cache.SetSnapshot(s.ctx, s.id, domain.SnapshotFromBid(bid, "alice", bid.CreatedAt)))
	s.Require().NoError(s.cache.SetStatus(s.ctx, s.id, domain.StatusLive))
	_, err = s.cache.AcquireLock(s.ctx, s.id, "t", time.Minute)
	s.Require().NoError(err)

	snap, err = s.cache.GetSnapshot(s.ctx, s.id)
	s.Require().NoError(err)
	s.Require().NotNil(snap)
	s.True(snap.Amount.Equal(bid.Amount))
	s.Equal(bid.ID, *snap.BidID)
	s.Equal("alice", snap.BidderDisplayName)

	s.Require().NoError(s.cache.Teardown(s.ctx, s.id))
	s.False(s.mr.Exists(highestKey(s.id)))
	s.False(s.mr.Exists(statusKey(s.id)))
	s.False(s.mr.Exists(lockKey(s.id)))
}

func (s *stateCacheSuite) TestUnavailableCacheFailsClosed() {
	s.mr.Close()

	_, err := s.cache.AcquireLock(s.ctx, s.id, "a", time.Second)
	s.Error(err)
	_, _, err = s.cache.GetStatus(s.ctx, s.id)
	s.Error(err)
}

func (s *stateCacheSuite) mustGet(key string) string {
	v, err := s.mr.Get(key)
	s.Require().NoError(err)
	return v
}
