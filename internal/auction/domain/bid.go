package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid is an accepted, persisted bid. Rows are never updated except for the
// logical removal marker DeletedAt.
type Bid struct {
	ID        uuid.UUID       `json:"id"`
	AuctionID uuid.UUID       `json:"auctionId"`
	BidderID  uuid.UUID       `json:"bidderId"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
	DeletedAt *time.Time      `json:"deletedAt,omitempty"`
}

func NewBid(id, auctionID, bidderID uuid.UUID, amount decimal.Decimal, createdAt time.Time) *Bid {
	return &Bid{
		ID:        id,
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: createdAt,
	}
}

// BidView is a bid joined with its bidder's display name.
type BidView struct {
	Bid
	BidderDisplayName string `json:"bidderDisplayName"`
}
