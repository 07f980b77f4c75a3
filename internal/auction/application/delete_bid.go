package application

import (
	"context"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeleteBidUseCase lets a bidder withdraw a bid that is no longer leading
// while the auction is still live. The leading snapshot is never touched, a
// non leading bid can not become leading again since amounts only grow.
type DeleteBidUseCase struct {
	bids   domain.BidRepository
	cache  domain.StateCache
	locker *AuctionLocker
	now    func() time.Time
}

func NewDeleteBidUseCase(bids domain.BidRepository, cache domain.StateCache, locker *AuctionLocker, now func() time.Time) *DeleteBidUseCase {
	if now == nil {
		now = time.Now
	}
	return &DeleteBidUseCase{bids: bids, cache: cache, locker: locker, now: now}
}

func (uc *DeleteBidUseCase) Execute(ctx context.Context, auctionID, bidID, bidderID uuid.UUID) error {
	bid, err := uc.bids.GetByID(ctx, bidID)
	if err != nil {
		return err
	}
	if bid.AuctionID != auctionID || bid.DeletedAt != nil {
		return domain.ErrBidNotFound
	}
	if bid.BidderID != bidderID {
		return domain.ErrNotBidOwner
	}

	// under the lock so a bid being settled is never removed mid flight
	err = uc.locker.WithLock(ctx, auctionID, func(cs context.Context) error {
		status, ok, err := uc.cache.GetStatus(cs, auctionID)
		if err != nil {
			return err
		}
		if !ok || status != domain.StatusLive {
			return domain.ErrAuctionNotLive
		}

		leadingID, err := uc.leadingBidID(cs, auctionID)
		if err != nil {
			return err
		}
		if leadingID != nil && *leadingID == bid.ID {
			return domain.ErrLeadingBid
		}
		return uc.bids.MarkDeleted(cs, bid.ID, uc.now())
	})
	if err != nil {
		return err
	}

	log.Info("Bid deleted",
		zap.String("auctionID", auctionID.String()),
		zap.String("bidID", bidID.String()),
	)
	return nil
}

func (uc *DeleteBidUseCase) leadingBidID(ctx context.Context, auctionID uuid.UUID) (*uuid.UUID, error) {
	snap, err := uc.cache.GetSnapshot(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		return snap.BidID, nil
	}
	highest, err := uc.bids.GetHighest(ctx, auctionID)
	if err != nil || highest == nil {
		return nil, err
	}
	return &highest.ID, nil
}
