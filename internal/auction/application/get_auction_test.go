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

func TestGetAuctionView(t *testing.T) {
	h := newHarness(t, testLock)
	ctx := context.Background()
	a := h.live(t, 1000, 50)
	h.mustBid(t, a, h.alice, 1050)
	h.mustBid(t, a, h.bob, 1100)

	view, err := h.get.Execute(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "seller", view.SellerDisplayName)
	require.NotNil(t, view.LiveStatus)
	assert.Equal(t, domain.StatusLive, *view.LiveStatus)
	require.NotNil(t, view.CurrentHighestBid)
	assert.True(t, view.CurrentHighestBid.Amount.Equal(decimal.NewFromInt(1100)))
	require.NotNil(t, view.MinimumNextBid)
	assert.True(t, view.MinimumNextBid.Equal(decimal.NewFromInt(1150)))
	require.Len(t, view.RecentBids, 2)
	assert.Equal(t, "bob", view.RecentBids[0].BidderDisplayName)
}

func TestGetClosedAuctionUsesBidHistory(t *testing.T) {
	h := newHarness(t, testLock)
	ctx := context.Background()
	a := h.live(t, 1000, 50)
	h.mustBid(t, a, h.bob, 1200)
	h.ended(t, a)
	_, err := h.lifecycle.Accept(ctx, a.ID, h.seller.ID)
	require.NoError(t, err)

	view, err := h.get.Execute(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, view.LiveStatus)
	assert.Nil(t, view.MinimumNextBid)
	require.NotNil(t, view.CurrentHighestBid)
	assert.True(t, view.CurrentHighestBid.IsLeader(h.bob.ID))
}

func TestListAuctions(t *testing.T) {
	h := newHarness(t, testLock)
	ctx := context.Background()
	h.live(t, 1000, 50)
	h.live(t, 2000, 100)
	scheduled := h.scheduled(t, epoch.Add(time.Hour), 500, 10)

	page, err := h.get.List(ctx, ListAuctionsQuery{Status: domain.StatusLive})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 1, Limit: 20, Total: 2}, page.Pagination)
	for _, v := range page.Auctions {
		assert.NotNil(t, v.CurrentHighestBid)
	}

	page, err = h.get.List(ctx, ListAuctionsQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Pagination.Total)
	require.Len(t, page.Auctions, 1)

	page, err = h.get.List(ctx, ListAuctionsQuery{Status: domain.StatusScheduled})
	require.NoError(t, err)
	require.Len(t, page.Auctions, 1)
	assert.Equal(t, scheduled.ID, page.Auctions[0].ID)
	assert.Nil(t, page.Auctions[0].CurrentHighestBid)
}

func TestCreateAuction(t *testing.T) {
	h := newHarness(t, testLock)
	uc := NewCreateAuctionUseCase(h.auctions, h.users, h.clock.Now)

	a, err := uc.Execute(context.Background(), CreateAuctionDTO{
		SellerID:      h.seller.ID,
		Title:         "Lamp",
		StartingPrice: decimal.NewFromInt(10),
		BidIncrement:  decimal.NewFromInt(1),
		StartAt:       epoch.Add(time.Hour),
		EndAt:         epoch.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, a.Status)

	stored, err := h.auctions.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", stored.Title)
}
