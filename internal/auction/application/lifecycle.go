package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/cristianortiz/auctionhouse/internal/shared/apperr"
	"github.com/cristianortiz/auctionhouse/internal/shared/db"
	userdomain "github.com/cristianortiz/auctionhouse/internal/user/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DecisionResult is what a seller or buyer decision produced.
type DecisionResult struct {
	Auction      *domain.Auction            `json:"auction"`
	Leading      *domain.HighestBidSnapshot `json:"currentHighestBid,omitempty"`
	CounterOffer *domain.CounterOffer       `json:"counterOffer,omitempty"`
}

// LifecycleManager drives auctions through
// scheduled -> live -> ended -> (counter-offer) -> closed.
type LifecycleManager struct {
	auctions   domain.AuctionRepository
	offers     domain.CounterOfferRepository
	users      domain.UserReader
	tx         domain.TxBeginner
	cache      domain.StateCache
	locker     *AuctionLocker
	snapshots  *PlaceBidUseCase
	events     domain.Broadcaster
	mailer     domain.Mailer
	counterTTL time.Duration
	now        func() time.Time
}

func NewLifecycleManager(
	auctions domain.AuctionRepository,
	offers domain.CounterOfferRepository,
	users domain.UserReader,
	tx domain.TxBeginner,
	cache domain.StateCache,
	locker *AuctionLocker,
	snapshots *PlaceBidUseCase,
	events domain.Broadcaster,
	mailer domain.Mailer,
	counterTTL time.Duration,
	now func() time.Time,
) *LifecycleManager {
	if now == nil {
		now = time.Now
	}
	return &LifecycleManager{
		auctions:   auctions,
		offers:     offers,
		users:      users,
		tx:         tx,
		cache:      cache,
		locker:     locker,
		snapshots:  snapshots,
		events:     events,
		mailer:     mailer,
		counterTTL: counterTTL,
		now:        now,
	}
}

// Start moves a due scheduled auction to live and seeds its cache state.
func (m *LifecycleManager) Start(ctx context.Context, auctionID uuid.UUID) (*domain.Auction, error) {
	a, err := m.auctions.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.StatusScheduled || m.now().Before(a.StartAt) {
		return nil, domain.ErrInvalidState
	}
	if err := m.auctions.Transition(ctx, nil, a.ID, domain.StatusScheduled, domain.StatusLive, domain.DecisionNone); err != nil {
		return nil, err
	}
	a.Status = domain.StatusLive

	seeded, err := m.ensureLive(ctx, a)
	if err != nil {
		// durable state is live, Rehydrate completes the cache on a later tick
		log.Error("Auction started but cache seeding failed",
			zap.String("auctionID", a.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("start auction %s: %w", a.ID, err)
	}

	log.Info("Auction started", zap.String("auctionID", a.ID.String()))
	m.broadcast(ctx, a.ID, domain.EventAuctionStarted, domain.AuctionStatusPayload{
		AuctionID:      a.ID,
		AuctionTitle:   a.Title,
		Status:         a.Status,
		StartAt:        a.StartAt,
		EndAt:          a.EndAt,
		Amount:         a.StartingPrice,
		CurrentHighest: seeded,
	})
	return a, nil
}

// Rehydrate reseeds the cache of a durably live auction whose ephemeral
// state is missing, as after a cache flush or restart. It reports whether
// anything was restored.
func (m *LifecycleManager) Rehydrate(ctx context.Context, a *domain.Auction) (bool, error) {
	if _, ok, err := m.cache.GetStatus(ctx, a.ID); err != nil || ok {
		return false, err
	}
	snap, err := m.ensureLive(ctx, a)
	if err != nil || snap == nil {
		return false, err
	}
	log.Info("Auction cache state rehydrated",
		zap.String("auctionID", a.ID.String()),
		zap.String("highest", snap.Amount.String()),
	)
	return true, nil
}

// ensureLive writes the snapshot then the live status under the auction
// lock, after re-reading the durable row. It returns nil when the auction is
// no longer live or the status was already cached.
func (m *LifecycleManager) ensureLive(ctx context.Context, a *domain.Auction) (*domain.HighestBidSnapshot, error) {
	var seeded *domain.HighestBidSnapshot
	err := m.locker.WithLock(ctx, a.ID, func(cs context.Context) error {
		if _, ok, err := m.cache.GetStatus(cs, a.ID); err != nil || ok {
			return err
		}
		fresh, err := m.auctions.GetByID(cs, a.ID)
		if err != nil {
			return err
		}
		if fresh.Status != domain.StatusLive {
			return nil
		}
		snap, err := m.snapshots.rebuildSnapshot(cs, fresh)
		if err != nil {
			return err
		}
		if err := m.cache.SetSnapshot(cs, a.ID, *snap); err != nil {
			return err
		}
		if err := m.cache.SetStatus(cs, a.ID, domain.StatusLive); err != nil {
			return err
		}
		seeded = snap
		return nil
	})
	return seeded, err
}

// End closes bidding. actor is nil when the scheduler ends a due auction,
// otherwise it must be the seller.
func (m *LifecycleManager) End(ctx context.Context, auctionID uuid.UUID, actor *uuid.UUID) (*domain.Auction, error) {
	a, err := m.auctions.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if actor != nil && !a.IsSeller(*actor) {
		return nil, domain.ErrForbidden
	}
	if a.Status != domain.StatusLive {
		return nil, domain.ErrInvalidState
	}
	if actor == nil && m.now().Before(a.EndAt) {
		return nil, domain.ErrInvalidState
	}

	// the cached status flips first so a bid queued on the lock sees the end
	err = m.locker.WithLock(ctx, a.ID, func(cs context.Context) error {
		if err := m.cache.SetStatus(cs, a.ID, domain.StatusEnded); err != nil {
			return err
		}
		return m.auctions.Transition(cs, nil, a.ID, domain.StatusLive, domain.StatusEnded, domain.DecisionNone)
	})
	if err != nil {
		return nil, err
	}
	a.Status = domain.StatusEnded

	final, err := m.snapshots.Snapshot(ctx, a)
	if err != nil {
		log.Warn("Could not read final snapshot", zap.String("auctionID", a.ID.String()), zap.Error(err))
	}
	payload := domain.AuctionStatusPayload{
		AuctionID:      a.ID,
		AuctionTitle:   a.Title,
		Status:         a.Status,
		StartAt:        a.StartAt,
		EndAt:          a.EndAt,
		CurrentHighest: final,
	}
	if final != nil {
		payload.Amount = final.Amount
	}

	log.Info("Auction ended", zap.String("auctionID", a.ID.String()), zap.Bool("bySeller", actor != nil))
	m.broadcast(ctx, a.ID, domain.EventAuctionEnded, payload)
	return a, nil
}

// loadForDecision checks ownership, then state, and returns the leading bid.
func (m *LifecycleManager) loadForDecision(ctx context.Context, auctionID, sellerID uuid.UUID) (*domain.Auction, *domain.HighestBidSnapshot, error) {
	a, err := m.auctions.GetByID(ctx, auctionID)
	if err != nil {
		return nil, nil, err
	}
	if !a.IsSeller(sellerID) {
		return nil, nil, domain.ErrForbidden
	}
	if !a.AwaitingDecision() {
		return nil, nil, domain.ErrInvalidState
	}
	leading, err := m.snapshots.Snapshot(ctx, a)
	if err != nil {
		return nil, nil, fmt.Errorf("load leading bid: %w", err)
	}
	return a, leading, nil
}

// Accept sells to the leading bidder at the leading amount.
func (m *LifecycleManager) Accept(ctx context.Context, auctionID, sellerID uuid.UUID) (*DecisionResult, error) {
	a, leading, err := m.loadForDecision(ctx, auctionID, sellerID)
	if err != nil {
		return nil, err
	}
	if !leading.HasBidder() {
		return nil, domain.ErrNoBids
	}
	if err := m.auctions.Transition(ctx, nil, a.ID, domain.StatusEnded, domain.StatusClosed, domain.DecisionAccepted); err != nil {
		return nil, err
	}
	a.Status, a.Decision = domain.StatusClosed, domain.DecisionAccepted
	m.teardown(ctx, a.ID)

	log.Info("Seller accepted highest bid",
		zap.String("auctionID", a.ID.String()),
		zap.String("amount", leading.Amount.String()),
	)
	m.broadcast(ctx, a.ID, domain.EventSellerDecision, decisionPayload(a, leading))
	m.notify(ctx, *leading.BidderID, domain.EventAuctionWon, decisionPayload(a, leading))
	m.mailSale(ctx, a, *leading.BidderID, leading.Amount)

	return &DecisionResult{Auction: a, Leading: leading}, nil
}

// Reject declines the leading bid. The auction stays ended with no sale.
func (m *LifecycleManager) Reject(ctx context.Context, auctionID, sellerID uuid.UUID) (*DecisionResult, error) {
	a, leading, err := m.loadForDecision(ctx, auctionID, sellerID)
	if err != nil {
		return nil, err
	}
	if err := m.auctions.Transition(ctx, nil, a.ID, domain.StatusEnded, domain.StatusEnded, domain.DecisionRejected); err != nil {
		return nil, err
	}
	a.Decision = domain.DecisionRejected
	m.teardown(ctx, a.ID)

	log.Info("Seller rejected highest bid", zap.String("auctionID", a.ID.String()))
	m.broadcast(ctx, a.ID, domain.EventSellerDecision, decisionPayload(a, leading))
	if leading.HasBidder() {
		m.notify(ctx, *leading.BidderID, domain.EventBidRejected, decisionPayload(a, leading))
		if buyer := m.user(ctx, *leading.BidderID); buyer != nil {
			if err := m.mailer.SendBidRejected(ctx, buyer, a, leading.Amount); err != nil {
				log.Warn("Failed to queue bid rejected email", zap.String("auctionID", a.ID.String()), zap.Error(err))
			}
		}
	}
	return &DecisionResult{Auction: a, Leading: leading}, nil
}

// Counter proposes amount to the leading bidder.
func (m *LifecycleManager) Counter(ctx context.Context, auctionID, sellerID uuid.UUID, amount decimal.Decimal) (*DecisionResult, error) {
	if !domain.ValidAmount(amount) {
		return nil, domain.ErrInvalidAmount
	}
	a, leading, err := m.loadForDecision(ctx, auctionID, sellerID)
	if err != nil {
		return nil, err
	}
	if !leading.HasBidder() {
		return nil, domain.ErrNoBids
	}

	offer := domain.NewCounterOffer(a, leading, amount, m.now(), m.counterTTL)
	err = db.RunInTx(ctx, m.tx, func(tx pgx.Tx) error {
		if err := m.auctions.Transition(ctx, tx, a.ID, domain.StatusEnded, domain.StatusCounterOffer, domain.DecisionCountered); err != nil {
			return err
		}
		return m.offers.Create(ctx, tx, offer)
	})
	if err != nil {
		return nil, err
	}
	a.Status, a.Decision = domain.StatusCounterOffer, domain.DecisionCountered
	if err := m.cache.SetStatus(ctx, a.ID, domain.StatusCounterOffer); err != nil {
		log.Warn("Failed to cache counter-offer status", zap.String("auctionID", a.ID.String()), zap.Error(err))
	}

	log.Info("Counter offer made",
		zap.String("auctionID", a.ID.String()),
		zap.String("amount", amount.String()),
		zap.String("buyerID", offer.BuyerID.String()),
	)
	payload := m.counterPayload(ctx, a, offer)
	m.broadcast(ctx, a.ID, domain.EventCounterOfferMade, payload)
	m.notify(ctx, offer.BuyerID, domain.EventCounterOfferReceived, payload)

	return &DecisionResult{Auction: a, Leading: leading, CounterOffer: offer}, nil
}

// RespondCounter applies the countered bidder's answer.
func (m *LifecycleManager) RespondCounter(ctx context.Context, auctionID, buyerID uuid.UUID, response domain.CounterResponse) (*DecisionResult, error) {
	if !response.Valid() {
		return nil, apperr.Validation("action must be accept or reject")
	}
	a, err := m.auctions.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.StatusCounterOffer {
		return nil, domain.ErrInvalidState
	}
	offer, err := m.offers.GetPendingByAuction(ctx, a.ID)
	if err != nil {
		if errors.Is(err, domain.ErrCounterOfferNotFound) {
			return nil, domain.ErrCounterNotPending
		}
		return nil, err
	}
	if offer.BuyerID != buyerID {
		return nil, domain.ErrNotCounterBuyer
	}
	if offer.Expired(m.now()) {
		if err := m.ExpireCounter(ctx, offer); err != nil {
			log.Warn("Failed to expire counter offer", zap.String("offerID", offer.ID.String()), zap.Error(err))
		}
		return nil, domain.ErrCounterNotPending
	}

	offerStatus, auctionStatus := domain.CounterOfferRejected, domain.StatusEnded
	roomEvent, sellerEvent := domain.EventCounterOfferRejected, domain.EventCounterOfferBuyerRejected
	if response == domain.CounterAccept {
		offerStatus, auctionStatus = domain.CounterOfferAccepted, domain.StatusClosed
		roomEvent, sellerEvent = domain.EventCounterOfferAccepted, domain.EventCounterOfferBuyerAccepted
	}

	if err := m.resolveCounter(ctx, a, offer, offerStatus, auctionStatus); err != nil {
		return nil, err
	}

	log.Info("Counter offer answered",
		zap.String("auctionID", a.ID.String()),
		zap.String("response", string(response)),
	)
	payload := m.counterPayload(ctx, a, offer)
	m.broadcast(ctx, a.ID, roomEvent, payload)
	m.notify(ctx, a.SellerID, sellerEvent, payload)
	if response == domain.CounterAccept {
		m.mailSale(ctx, a, offer.BuyerID, offer.CounterOfferAmount)
	}

	return &DecisionResult{Auction: a, CounterOffer: offer}, nil
}

// ExpireCounter resolves a pending offer that outlived its deadline as
// rejected and leaves the auction ended without a sale.
func (m *LifecycleManager) ExpireCounter(ctx context.Context, offer *domain.CounterOffer) error {
	a, err := m.auctions.GetByID(ctx, offer.AuctionID)
	if err != nil {
		return err
	}
	if err := m.resolveCounter(ctx, a, offer, domain.CounterOfferRejected, domain.StatusEnded); err != nil {
		return err
	}

	log.Info("Counter offer expired", zap.String("auctionID", a.ID.String()), zap.String("offerID", offer.ID.String()))
	payload := m.counterPayload(ctx, a, offer)
	m.broadcast(ctx, a.ID, domain.EventCounterOfferExpired, payload)
	m.notify(ctx, offer.BuyerID, domain.EventCounterOfferExpired, payload)
	m.notify(ctx, a.SellerID, domain.EventCounterOfferExpired, payload)
	return nil
}

func (m *LifecycleManager) resolveCounter(ctx context.Context, a *domain.Auction, offer *domain.CounterOffer, offerStatus domain.CounterOfferStatus, to domain.AuctionStatus) error {
	at := m.now()
	err := db.RunInTx(ctx, m.tx, func(tx pgx.Tx) error {
		if err := m.offers.Resolve(ctx, tx, offer.ID, offerStatus, at); err != nil {
			return err
		}
		return m.auctions.Transition(ctx, tx, a.ID, domain.StatusCounterOffer, to, domain.DecisionNone)
	})
	if err != nil {
		return err
	}
	offer.Status, offer.RespondedAt = offerStatus, &at
	a.Status = to
	m.teardown(ctx, a.ID)
	return nil
}

// CounterOffer returns the latest counter offer of an auction.
func (m *LifecycleManager) CounterOffer(ctx context.Context, auctionID uuid.UUID) (*domain.CounterOffer, error) {
	if _, err := m.auctions.GetByID(ctx, auctionID); err != nil {
		return nil, err
	}
	return m.offers.GetLatestByAuction(ctx, auctionID)
}

func (m *LifecycleManager) teardown(ctx context.Context, auctionID uuid.UUID) {
	if err := m.cache.Teardown(ctx, auctionID); err != nil {
		log.Warn("Failed to tear down auction cache state", zap.String("auctionID", auctionID.String()), zap.Error(err))
	}
}

func (m *LifecycleManager) broadcast(ctx context.Context, auctionID uuid.UUID, event string, payload any) {
	if err := m.events.BroadcastToAuction(ctx, auctionID, event, payload); err != nil {
		log.Warn("Failed to broadcast auction event",
			zap.String("auctionID", auctionID.String()), zap.String("event", event), zap.Error(err))
	}
}

func (m *LifecycleManager) notify(ctx context.Context, userID uuid.UUID, event string, payload any) {
	if err := m.events.NotifyUser(ctx, userID, event, payload); err != nil {
		log.Warn("Failed to notify user",
			zap.String("userID", userID.String()), zap.String("event", event), zap.Error(err))
	}
}

func (m *LifecycleManager) user(ctx context.Context, id uuid.UUID) *userdomain.User {
	u, err := m.users.GetByID(ctx, id)
	if err != nil {
		log.Warn("Could not load user for email", zap.String("userID", id.String()), zap.Error(err))
		return nil
	}
	return u
}

// mailSale queues the buyer and seller confirmations of a completed sale.
func (m *LifecycleManager) mailSale(ctx context.Context, a *domain.Auction, buyerID uuid.UUID, amount decimal.Decimal) {
	buyer := m.user(ctx, buyerID)
	if buyer == nil {
		return
	}
	if err := m.mailer.SendBidAccepted(ctx, buyer, a, amount); err != nil {
		log.Warn("Failed to queue bid accepted email", zap.String("auctionID", a.ID.String()), zap.Error(err))
	}
	if seller := m.user(ctx, a.SellerID); seller != nil {
		if err := m.mailer.SendSaleConfirmed(ctx, seller, a, amount, buyer.DisplayName); err != nil {
			log.Warn("Failed to queue sale confirmation email", zap.String("auctionID", a.ID.String()), zap.Error(err))
		}
	}
}

func decisionPayload(a *domain.Auction, leading *domain.HighestBidSnapshot) domain.SellerDecisionPayload {
	p := domain.SellerDecisionPayload{
		AuctionID:    a.ID,
		AuctionTitle: a.Title,
		Decision:     a.Decision,
		Status:       a.Status,
	}
	if leading != nil {
		p.Amount = leading.Amount
		p.BidderID = leading.BidderID
		if leading.HasBidder() {
			p.BidderDisplayName = leading.BidderDisplayName
		}
	}
	return p
}

func (m *LifecycleManager) counterPayload(ctx context.Context, a *domain.Auction, offer *domain.CounterOffer) domain.CounterOfferPayload {
	p := domain.CounterOfferPayload{
		AuctionID:      a.ID,
		AuctionTitle:   a.Title,
		CounterOfferID: offer.ID,
		BuyerID:        offer.BuyerID,
		OriginalBid:    offer.OriginalBid,
		Amount:         offer.CounterOfferAmount,
		Status:         offer.Status,
		ExpiresAt:      offer.ExpiresAt,
	}
	if buyer, err := m.users.GetByID(ctx, offer.BuyerID); err == nil {
		p.BuyerDisplayName = buyer.DisplayName
	}
	return p
}
