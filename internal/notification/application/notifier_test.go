package application

import (
	"context"
	"errors"
	"testing"

	"github.com/cristianortiz/auctionhouse/internal/auction/auctiontest"
	auctiondomain "github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/cristianortiz/auctionhouse/internal/notification/domain"
	notificationredis "github.com/cristianortiz/auctionhouse/internal/notification/infra/redis"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ domain.Store }

func (failingStore) Push(context.Context, *domain.Notification) error {
	return errors.New("redis down")
}

func TestNotifierStoresUserEvents(t *testing.T) {
	_, pool := auctiontest.NewRedis(t)
	store := notificationredis.NewStore(pool, 50)
	next := &auctiontest.Recorder{}
	notifier := NewNotifier(next, store)
	ctx := context.Background()

	auctionID, userID := uuid.New(), uuid.New()
	err := notifier.NotifyUser(ctx, userID, auctiondomain.EventBidOutbid, auctiondomain.OutbidPayload{
		AuctionID:    auctionID,
		AuctionTitle: "Vintage camera",
		Amount:       decimal.NewFromInt(1150),
	})
	require.NoError(t, err)
	require.NoError(t, notifier.BroadcastToAuction(ctx, auctionID, auctiondomain.EventBidNew, auctiondomain.BidNewPayload{AuctionID: auctionID}))

	assert.Equal(t, []string{auctiondomain.EventBidOutbid, auctiondomain.EventBidNew}, next.Names())

	list, err := NewNotificationService(store).List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1, "room broadcasts are not stored")
	n := list[0]
	assert.Equal(t, auctiondomain.EventBidOutbid, n.Type)
	assert.Equal(t, "You've been outbid", n.Title)
	assert.Equal(t, `Someone bid $1150.00 on "Vintage camera"`, n.Message)
	require.NotNil(t, n.AuctionID)
	assert.Equal(t, auctionID, *n.AuctionID)
	require.NotNil(t, n.Amount)
	assert.True(t, n.Amount.Equal(decimal.NewFromInt(1150)))
	assert.False(t, n.Read)

	read, err := NewNotificationService(store).MarkRead(ctx, userID, n.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)
}

func TestNotifierForwardsWhenStoreFails(t *testing.T) {
	next := &auctiontest.Recorder{}
	notifier := NewNotifier(next, failingStore{})

	userID := uuid.New()
	require.NoError(t, notifier.NotifyUser(context.Background(), userID, auctiondomain.EventAuctionWon, auctiondomain.SellerDecisionPayload{}))
	assert.Len(t, next.ForUser(userID), 1)
}
