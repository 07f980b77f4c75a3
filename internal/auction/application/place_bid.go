package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/cristianortiz/auctionhouse/internal/shared/apperr"
	"github.com/cristianortiz/auctionhouse/internal/shared/db"
	"github.com/cristianortiz/auctionhouse/internal/shared/logger"
	userdomain "github.com/cristianortiz/auctionhouse/internal/user/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// PlaceBidDTO is DTO input for PlaceBid useCase, contains the necesary data to make a bid
type PlaceBidDTO struct {
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal
}

// AcceptedBid is the outcome of a successful settlement.
type AcceptedBid struct {
	Bid            *domain.Bid
	Snapshot       domain.HighestBidSnapshot
	MinimumNextBid decimal.Decimal
}

type settlement struct {
	accepted *AcceptedBid
	previous *domain.HighestBidSnapshot
}

// PlaceBidUseCase is the bid settlement service. It validates and commits one
// bid at a time per auction under the auction lock.
type PlaceBidUseCase struct {
	auctions domain.AuctionRepository
	bids     domain.BidRepository
	users    domain.UserReader
	tx       domain.TxBeginner
	cache    domain.StateCache
	locker   *AuctionLocker
	events   domain.Broadcaster
	now      func() time.Time
}

func NewPlaceBidUseCase(
	auctions domain.AuctionRepository,
	bids domain.BidRepository,
	users domain.UserReader,
	tx domain.TxBeginner,
	cache domain.StateCache,
	locker *AuctionLocker,
	events domain.Broadcaster,
	now func() time.Time,
) *PlaceBidUseCase {
	if now == nil {
		now = time.Now
	}
	return &PlaceBidUseCase{
		auctions: auctions,
		bids:     bids,
		users:    users,
		tx:       tx,
		cache:    cache,
		locker:   locker,
		events:   events,
		now:      now,
	}
}

func (uc *PlaceBidUseCase) Execute(ctx context.Context, cmd PlaceBidDTO) (*AcceptedBid, error) {
	fields := []zap.Field{
		zap.String("auctionID", cmd.AuctionID.String()),
		zap.String("bidderID", cmd.BidderID.String()),
		zap.String("amount", cmd.Amount.String()),
	}
	log.Debug("Executing PlaceBidUseCase", fields...)

	// 1. cheap checks, no lock and no mutation
	if !domain.ValidAmount(cmd.Amount) {
		return nil, domain.ErrInvalidAmount
	}
	bidder, err := uc.users.GetByID(ctx, cmd.BidderID)
	if err != nil {
		if errors.Is(err, userdomain.ErrUserNotFound) {
			return nil, err
		}
		log.Error("PlaceBidUseCase: Failed to load bidder", append(fields, zap.Error(err))...)
		return nil, fmt.Errorf("place bid: load bidder: %w", err)
	}
	auction, err := uc.auctions.GetByID(ctx, cmd.AuctionID)
	if err != nil {
		if errors.Is(err, domain.ErrAuctionNotFound) {
			return nil, err
		}
		log.Error("PlaceBidUseCase: Failed to load auction", append(fields, zap.Error(err))...)
		return nil, fmt.Errorf("place bid: load auction: %w", err)
	}
	if auction.IsSeller(bidder.ID) {
		return nil, domain.ErrSelfBid
	}

	// 2. critical section
	var result settlement
	err = uc.locker.WithLock(ctx, auction.ID, func(cs context.Context) error {
		var settleErr error
		result, settleErr = uc.settle(cs, auction, bidder, cmd.Amount)
		return settleErr
	})
	if err != nil {
		if r, ok := apperr.As(err); ok {
			log.Info("Bid rejected", append(fields, zap.String("reason", string(r.Code)))...)
			return nil, err
		}
		log.Error("PlaceBidUseCase: settlement failed", append(fields, zap.Error(err))...)
		return nil, fmt.Errorf("place bid: %w", err)
	}

	// 3. fan out after the lock is released
	uc.publish(ctx, auction, bidder, result)

	log.Info("Bid placed successfully",
		append(fields, zap.String("bidID", result.accepted.Bid.ID.String()))...)
	return result.accepted, nil
}

func (uc *PlaceBidUseCase) settle(ctx context.Context, auction *domain.Auction, bidder *userdomain.User, amount decimal.Decimal) (settlement, error) {
	now := uc.now()
	// outside the window only a recorded seller decision reports differently
	if !auction.InWindow(now) && auction.Decision == domain.DecisionNone {
		return settlement{}, domain.ErrAuctionOutOfWindow
	}

	status, ok, err := uc.cache.GetStatus(ctx, auction.ID)
	if err != nil {
		return settlement{}, err
	}
	if !ok || status != domain.StatusLive {
		return settlement{}, domain.ErrAuctionNotLive
	}

	previous, fromCache, err := uc.loadSnapshot(ctx, auction)
	if err != nil {
		return settlement{}, err
	}
	if !fromCache {
		if err := uc.cache.SetSnapshot(ctx, auction.ID, *previous); err != nil {
			return settlement{}, err
		}
		log.Warn("Highest bid snapshot rebuilt from bid history", zap.String("auctionID", auction.ID.String()))
	}

	minimum := auction.MinimumAcceptable(previous)
	if amount.LessThan(minimum) {
		return settlement{}, domain.ErrBidTooLow.WithMinimum(minimum)
	}

	bid := domain.NewBid(uuid.New(), auction.ID, bidder.ID, amount, now)
	snapshot := domain.SnapshotFromBid(bid, bidder.DisplayName, now)

	// the row commits only after the snapshot points at it
	var snapshotAttempted bool
	err = db.RunInTx(ctx, uc.tx, func(tx pgx.Tx) error {
		if err := uc.bids.Save(ctx, tx, bid); err != nil {
			return fmt.Errorf("save bid: %w", err)
		}
		snapshotAttempted = true
		return uc.cache.SetSnapshot(ctx, auction.ID, snapshot)
	})
	if err != nil {
		if snapshotAttempted {
			uc.restoreSnapshot(ctx, auction.ID, *previous)
		}
		return settlement{}, err
	}

	return settlement{
		accepted: &AcceptedBid{
			Bid:            bid,
			Snapshot:       snapshot,
			MinimumNextBid: auction.MinimumAcceptable(&snapshot),
		},
		previous: previous,
	}, nil
}

// restoreSnapshot puts back the leader the rolled back bid would have
// replaced. It runs detached from ctx, which may be the expiring critical
// section. A snapshot that cannot be restored is dropped so the next reader
// rebuilds it from committed bids.
func (uc *PlaceBidUseCase) restoreSnapshot(ctx context.Context, auctionID uuid.UUID, previous domain.HighestBidSnapshot) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	fields := []zap.Field{zap.String("auctionID", auctionID.String())}
	err := uc.cache.SetSnapshot(rctx, auctionID, previous)
	if err == nil {
		return
	}
	if delErr := uc.cache.DeleteSnapshot(rctx, auctionID); delErr != nil {
		// a leftover snapshot can only be higher than the committed leader
		log.Error("Failed to restore snapshot after rolled back bid",
			append(fields, zap.Error(err), zap.NamedError("deleteError", delErr))...)
		return
	}
	log.Warn("Snapshot dropped after rolled back bid", append(fields, zap.Error(err))...)
}

func (uc *PlaceBidUseCase) publish(ctx context.Context, auction *domain.Auction, bidder *userdomain.User, s settlement) {
	bid := s.accepted.Bid
	payload := domain.BidNewPayload{
		AuctionID:         auction.ID,
		AuctionTitle:      auction.Title,
		BidID:             bid.ID,
		BidderID:          bidder.ID,
		BidderDisplayName: bidder.DisplayName,
		Amount:            bid.Amount,
		MinimumNextBid:    s.accepted.MinimumNextBid,
		CreatedAt:         bid.CreatedAt,
		CurrentHighest:    s.accepted.Snapshot,
	}
	if err := uc.events.BroadcastToAuction(ctx, auction.ID, domain.EventBidNew, payload); err != nil {
		log.Warn("Failed to broadcast new bid", zap.String("auctionID", auction.ID.String()), zap.Error(err))
	}

	if s.previous.HasBidder() && !s.previous.IsLeader(bidder.ID) {
		outbid := domain.OutbidPayload{
			AuctionID:         auction.ID,
			AuctionTitle:      auction.Title,
			Amount:            bid.Amount,
			PreviousAmount:    s.previous.Amount,
			BidderDisplayName: bidder.DisplayName,
		}
		if err := uc.events.NotifyUser(ctx, *s.previous.BidderID, domain.EventBidOutbid, outbid); err != nil {
			log.Warn("Failed to notify outbid user", zap.String("auctionID", auction.ID.String()), zap.Error(err))
		}
	}
}

// Snapshot returns the leading bid snapshot of an auction. When the cache
// no longer holds it, it is derived from the durable bid history without
// writing it back.
func (uc *PlaceBidUseCase) Snapshot(ctx context.Context, auction *domain.Auction) (*domain.HighestBidSnapshot, error) {
	snap, _, err := uc.loadSnapshot(ctx, auction)
	return snap, err
}

func (uc *PlaceBidUseCase) loadSnapshot(ctx context.Context, auction *domain.Auction) (*domain.HighestBidSnapshot, bool, error) {
	snap, err := uc.cache.GetSnapshot(ctx, auction.ID)
	if err != nil {
		return nil, false, err
	}
	if snap != nil {
		return snap, true, nil
	}
	snap, err = uc.rebuildSnapshot(ctx, auction)
	return snap, false, err
}

func (uc *PlaceBidUseCase) rebuildSnapshot(ctx context.Context, auction *domain.Auction) (*domain.HighestBidSnapshot, error) {
	highest, err := uc.bids.GetHighest(ctx, auction.ID)
	if err != nil {
		return nil, fmt.Errorf("rebuild snapshot: %w", err)
	}
	if highest == nil {
		seed := domain.SeedSnapshot(auction, uc.now())
		return &seed, nil
	}

	var name string
	bidder, err := uc.users.GetByID(ctx, highest.BidderID)
	switch {
	case err == nil:
		name = bidder.DisplayName
	case !errors.Is(err, userdomain.ErrUserNotFound):
		return nil, fmt.Errorf("rebuild snapshot: load bidder: %w", err)
	}
	snap := domain.SnapshotFromBid(highest, name, uc.now())
	return &snap, nil
}
