package application

import (
	"context"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const recentBidsLimit = 20

// AuctionView is the read model exposed to the UI, the durable auction
// enriched with its cached live state.
type AuctionView struct {
	*domain.Auction
	SellerDisplayName string                     `json:"sellerDisplayName"`
	CurrentHighestBid *domain.HighestBidSnapshot `json:"currentHighestBid"`
	LiveStatus        *domain.AuctionStatus      `json:"liveStatus"`
	MinimumNextBid    *decimal.Decimal           `json:"minimumNextBid,omitempty"`
	RecentBids        []*domain.BidView          `json:"recentBids,omitempty"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type AuctionPage struct {
	Auctions   []*AuctionView `json:"auctions"`
	Pagination Pagination     `json:"pagination"`
}

// ListAuctionsQuery selects a page, Status empty means every status.
type ListAuctionsQuery struct {
	Status domain.AuctionStatus
	Page   int
	Limit  int
}

// GetAuctionUseCase retrieves auctions with their current state. Cache read
// failures degrade the view instead of failing it.
type GetAuctionUseCase struct {
	auctions  domain.AuctionRepository
	bids      domain.BidRepository
	users     domain.UserReader
	cache     domain.StateCache
	snapshots *PlaceBidUseCase
}

func NewGetAuctionUseCase(
	auctions domain.AuctionRepository,
	bids domain.BidRepository,
	users domain.UserReader,
	cache domain.StateCache,
	snapshots *PlaceBidUseCase,
) *GetAuctionUseCase {
	return &GetAuctionUseCase{auctions: auctions, bids: bids, users: users, cache: cache, snapshots: snapshots}
}

func (uc *GetAuctionUseCase) Execute(ctx context.Context, auctionID uuid.UUID) (*AuctionView, error) {
	a, err := uc.auctions.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	view := uc.view(ctx, a)

	recent, err := uc.bids.ListRecent(ctx, a.ID, recentBidsLimit)
	if err != nil {
		log.Warn("Could not list recent bids", zap.String("auctionID", a.ID.String()), zap.Error(err))
	}
	view.RecentBids = recent
	return view, nil
}

func (uc *GetAuctionUseCase) List(ctx context.Context, q ListAuctionsQuery) (*AuctionPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
	auctions, total, err := uc.auctions.List(ctx, domain.AuctionFilter{
		Status: q.Status,
		Now:    uc.snapshots.now(),
		Limit:  q.Limit,
		Offset: (q.Page - 1) * q.Limit,
	})
	if err != nil {
		return nil, err
	}

	page := &AuctionPage{
		Auctions:   make([]*AuctionView, 0, len(auctions)),
		Pagination: Pagination{Page: q.Page, Limit: q.Limit, Total: total},
	}
	for _, a := range auctions {
		page.Auctions = append(page.Auctions, uc.view(ctx, a))
	}
	return page, nil
}

func (uc *GetAuctionUseCase) view(ctx context.Context, a *domain.Auction) *AuctionView {
	view := &AuctionView{Auction: a}
	if seller, err := uc.users.GetByID(ctx, a.SellerID); err == nil {
		view.SellerDisplayName = seller.DisplayName
	}

	status, ok, err := uc.cache.GetStatus(ctx, a.ID)
	if err != nil {
		log.Warn("Could not read cached status", zap.String("auctionID", a.ID.String()), zap.Error(err))
	} else if ok {
		view.LiveStatus = &status
	}

	if a.Status == domain.StatusScheduled {
		return view
	}
	snap, err := uc.snapshots.Snapshot(ctx, a)
	if err != nil {
		log.Warn("Could not read highest bid", zap.String("auctionID", a.ID.String()), zap.Error(err))
		return view
	}
	view.CurrentHighestBid = snap
	if a.Status == domain.StatusLive {
		min := a.MinimumAcceptable(snap)
		view.MinimumNextBid = &min
	}
	return view
}
