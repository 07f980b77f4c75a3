package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cristianortiz/auctionhouse/internal/notification/domain"
	"github.com/cristianortiz/auctionhouse/internal/shared/redisclient"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type StoreSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	store *Store
	user  uuid.UUID
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	pool := redisclient.NewPool(s.mr.Addr(), "")
	s.T().Cleanup(func() { _ = pool.Close() })
	s.store = NewStore(pool, 3)
	s.user = uuid.New()
	s.ctx = context.Background()
}

func (s *StoreSuite) push(title string) *domain.Notification {
	n := &domain.Notification{
		ID:        uuid.New(),
		UserID:    s.user,
		Type:      "bid:outbid",
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.store.Push(s.ctx, n))
	return n
}

func (s *StoreSuite) TestListNewestFirst() {
	s.push("first")
	s.push("second")

	list, err := s.store.List(s.ctx, s.user)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("second", list[0].Title)
	s.Equal("first", list[1].Title)
}

func (s *StoreSuite) TestCapEvictsOldest() {
	oldest := s.push("n0")
	for i := 1; i < 5; i++ {
		s.push(fmt.Sprintf("n%d", i))
	}

	list, err := s.store.List(s.ctx, s.user)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("n4", list[0].Title)

	_, err = s.store.MarkRead(s.ctx, s.user, oldest.ID)
	s.ErrorIs(err, domain.ErrNotificationNotFound)

	fields, err := s.mr.HKeys(itemsKey(s.user))
	s.Require().NoError(err)
	s.Len(fields, 3, "evicted items are removed from the hash too")
}

func (s *StoreSuite) TestMarkRead() {
	n := s.push("outbid")

	read, err := s.store.MarkRead(s.ctx, s.user, n.ID)
	s.Require().NoError(err)
	s.True(read.Read)

	again, err := s.store.MarkRead(s.ctx, s.user, n.ID)
	s.Require().NoError(err)
	s.True(again.Read)

	list, err := s.store.List(s.ctx, s.user)
	s.Require().NoError(err)
	s.True(list[0].Read)

	_, err = s.store.MarkRead(s.ctx, uuid.New(), n.ID)
	s.ErrorIs(err, domain.ErrNotificationNotFound, "other users can not touch it")
}

func (s *StoreSuite) TestEmptyList() {
	list, err := s.store.List(s.ctx, uuid.New())
	s.Require().NoError(err)
	s.Empty(list)
	s.NotNil(list)
}
