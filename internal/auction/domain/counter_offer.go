package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CounterOfferStatus string

const (
	CounterOfferPending  CounterOfferStatus = "pending"
	CounterOfferAccepted CounterOfferStatus = "accepted"
	CounterOfferRejected CounterOfferStatus = "rejected"
)

// CounterResponse is the buyer's answer to a counter offer.
type CounterResponse string

const (
	CounterAccept CounterResponse = "accept"
	CounterReject CounterResponse = "reject"
)

func (r CounterResponse) Valid() bool {
	return r == CounterAccept || r == CounterReject
}

// CounterOffer is a seller's price proposal to the leading bidder of an
// ended auction. At most one is pending per auction.
type CounterOffer struct {
	ID                 uuid.UUID          `json:"id"`
	AuctionID          uuid.UUID          `json:"auctionId"`
	SellerID           uuid.UUID          `json:"sellerId"`
	BuyerID            uuid.UUID          `json:"buyerId"`
	OriginalBid        decimal.Decimal    `json:"originalBid"`
	CounterOfferAmount decimal.Decimal    `json:"counterOfferAmount"`
	Status             CounterOfferStatus `json:"status"`
	ExpiresAt          time.Time          `json:"expiresAt"`
	CreatedAt          time.Time          `json:"createdAt"`
	RespondedAt        *time.Time         `json:"respondedAt,omitempty"`
}

func NewCounterOffer(a *Auction, leading *HighestBidSnapshot, amount decimal.Decimal, now time.Time, ttl time.Duration) *CounterOffer {
	return &CounterOffer{
		ID:                 uuid.New(),
		AuctionID:          a.ID,
		SellerID:           a.SellerID,
		BuyerID:            *leading.BidderID,
		OriginalBid:        leading.Amount,
		CounterOfferAmount: amount,
		Status:             CounterOfferPending,
		ExpiresAt:          now.Add(ttl),
		CreatedAt:          now,
	}
}

func (c *CounterOffer) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
