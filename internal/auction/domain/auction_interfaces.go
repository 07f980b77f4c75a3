package domain

import (
	"context"
	"time"

	userdomain "github.com/cristianortiz/auctionhouse/internal/user/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AuctionFilter selects a page of auctions for listing.
type AuctionFilter struct {
	Status AuctionStatus
	Now    time.Time
	Limit  int
	Offset int
}

type AuctionRepository interface {
	Create(ctx context.Context, auction *Auction) error
	// GetByID returns ErrAuctionNotFound when no row matches.
	GetByID(ctx context.Context, id uuid.UUID) (*Auction, error)
	List(ctx context.Context, filter AuctionFilter) ([]*Auction, int, error)
	// ListStartDue returns scheduled auctions whose StartAt <= now.
	ListStartDue(ctx context.Context, now time.Time, limit int) ([]*Auction, error)
	// ListEndDue returns live auctions whose EndAt <= now.
	ListEndDue(ctx context.Context, now time.Time, limit int) ([]*Auction, error)
	// ListLive returns live auctions still inside their window.
	ListLive(ctx context.Context, now time.Time, limit int) ([]*Auction, error)
	// Transition moves the auction from one status to another. A non empty
	// decision is only written when none was recorded before. It returns
	// ErrInvalidState when the row is not in the expected state. tx may be nil.
	Transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to AuctionStatus, decision Decision) error
}

type BidRepository interface {
	// Save inserts a bid. tx may be nil.
	Save(ctx context.Context, tx pgx.Tx, bid *Bid) error
	// GetByID returns ErrBidNotFound when no row matches.
	GetByID(ctx context.Context, id uuid.UUID) (*Bid, error)
	// GetHighest returns the highest non deleted bid, nil when there is none.
	GetHighest(ctx context.Context, auctionID uuid.UUID) (*Bid, error)
	// ListRecent returns non deleted bids ordered by amount desc.
	ListRecent(ctx context.Context, auctionID uuid.UUID, limit int) ([]*BidView, error)
	MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) error
}

type CounterOfferRepository interface {
	Create(ctx context.Context, tx pgx.Tx, offer *CounterOffer) error
	// GetPendingByAuction returns ErrCounterOfferNotFound when none is pending.
	GetPendingByAuction(ctx context.Context, auctionID uuid.UUID) (*CounterOffer, error)
	// GetLatestByAuction returns ErrCounterOfferNotFound when the auction has none.
	GetLatestByAuction(ctx context.Context, auctionID uuid.UUID) (*CounterOffer, error)
	// Resolve moves a pending offer to status, ErrCounterNotPending otherwise.
	Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status CounterOfferStatus, at time.Time) error
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*CounterOffer, error)
}

// UserReader is the slice of the user module the auction core needs.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*userdomain.User, error)
}

// StateCache is the fast path store for live auction state. It holds the
// ephemeral status, the highest bid snapshot and the per auction lock.
type StateCache interface {
	// AcquireLock sets the lock only if absent, with expiry ttl.
	AcquireLock(ctx context.Context, auctionID uuid.UUID, token string, ttl time.Duration) (bool, error)
	// ReleaseLock deletes the lock only if it still holds token.
	ReleaseLock(ctx context.Context, auctionID uuid.UUID, token string) (bool, error)
	// GetStatus returns false when no status is cached.
	GetStatus(ctx context.Context, auctionID uuid.UUID) (AuctionStatus, bool, error)
	SetStatus(ctx context.Context, auctionID uuid.UUID, status AuctionStatus) error
	// GetSnapshot returns nil when no snapshot is cached.
	GetSnapshot(ctx context.Context, auctionID uuid.UUID) (*HighestBidSnapshot, error)
	SetSnapshot(ctx context.Context, auctionID uuid.UUID, snapshot HighestBidSnapshot) error
	DeleteSnapshot(ctx context.Context, auctionID uuid.UUID) error
	// Teardown removes status, snapshot and lock.
	Teardown(ctx context.Context, auctionID uuid.UUID) error
}

// Broadcaster fans events out to the observers of an auction and to users.
// Delivery is at most once per connected observer.
type Broadcaster interface {
	BroadcastToAuction(ctx context.Context, auctionID uuid.UUID, event string, payload any) error
	NotifyUser(ctx context.Context, userID uuid.UUID, event string, payload any) error
}

// Mailer sends finalization emails. Implementations must not block the caller
// for delivery.
type Mailer interface {
	SendBidAccepted(ctx context.Context, buyer *userdomain.User, auction *Auction, amount decimal.Decimal) error
	SendSaleConfirmed(ctx context.Context, seller *userdomain.User, auction *Auction, amount decimal.Decimal, buyerName string) error
	SendBidRejected(ctx context.Context, buyer *userdomain.User, auction *Auction, amount decimal.Decimal) error
}

// TxBeginner opens durable store transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
