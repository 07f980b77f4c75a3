package domain

import (
	"strings"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/shared/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuctionStatus represents where an auction is in its sale process
type AuctionStatus string

const (
	StatusScheduled    AuctionStatus = "scheduled"
	StatusLive         AuctionStatus = "live"
	StatusEnded        AuctionStatus = "ended"
	StatusCounterOffer AuctionStatus = "counter-offer"
	StatusClosed       AuctionStatus = "closed"
)

func (s AuctionStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusEnded, StatusCounterOffer, StatusClosed:
		return true
	}
	return false
}

// Decision is the seller's one-shot verdict on an ended auction.
type Decision string

const (
	DecisionNone      Decision = ""
	DecisionAccepted  Decision = "accepted"
	DecisionRejected  Decision = "rejected"
	DecisionCountered Decision = "countered"
)

type Auction struct {
	ID            uuid.UUID       `json:"id"`
	SellerID      uuid.UUID       `json:"sellerId"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	StartingPrice decimal.Decimal `json:"startingPrice"`
	BidIncrement  decimal.Decimal `json:"bidIncrement"`
	StartAt       time.Time       `json:"startAt"`
	EndAt         time.Time       `json:"endAt"`
	Status        AuctionStatus   `json:"status"`
	Decision      Decision        `json:"decision,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// MoneyPlaces is the number of decimal places amounts are stored with.
const MoneyPlaces = 2

// ValidAmount reports whether d is positive and needs no rounding to be stored.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Truncate(MoneyPlaces))
}

// NewAuctionParams carries the seller supplied listing data.
type NewAuctionParams struct {
	SellerID      uuid.UUID
	Title         string
	Description   string
	StartingPrice decimal.Decimal
	BidIncrement  decimal.Decimal
	StartAt       time.Time
	EndAt         time.Time
}

// NewAuction validates the listing and returns it in the scheduled state.
func NewAuction(p NewAuctionParams, now time.Time) (*Auction, error) {
	title := strings.TrimSpace(p.Title)
	switch {
	case title == "":
		return nil, apperr.Validation("title is required")
	case !p.StartingPrice.IsPositive():
		return nil, apperr.Validation("startingPrice must be positive")
	case !p.BidIncrement.IsPositive():
		return nil, apperr.Validation("bidIncrement must be positive")
	case !ValidAmount(p.StartingPrice), !ValidAmount(p.BidIncrement):
		return nil, apperr.Validation("amounts must have at most 2 decimal places")
	case !p.StartAt.After(now):
		return nil, apperr.Validation("start time must be in the future")
	case !p.EndAt.After(p.StartAt):
		return nil, apperr.Validation("end time must be after start time")
	}

	return &Auction{
		ID:            uuid.New(),
		SellerID:      p.SellerID,
		Title:         title,
		Description:   p.Description,
		StartingPrice: p.StartingPrice,
		BidIncrement:  p.BidIncrement,
		StartAt:       p.StartAt.UTC(),
		EndAt:         p.EndAt.UTC(),
		Status:        StatusScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// InWindow reports whether now lies in [StartAt, EndAt).
func (a *Auction) InWindow(now time.Time) bool {
	return !now.Before(a.StartAt) && now.Before(a.EndAt)
}

// IsSeller reports whether userID is the recorded seller.
func (a *Auction) IsSeller(userID uuid.UUID) bool {
	return a.SellerID == userID
}

// AwaitingDecision reports whether the seller may still accept, reject or counter.
func (a *Auction) AwaitingDecision() bool {
	return a.Status == StatusEnded && a.Decision == DecisionNone
}

// MinimumAcceptable is max(startingPrice, highest) + increment. highest may be nil.
func (a *Auction) MinimumAcceptable(highest *HighestBidSnapshot) decimal.Decimal {
	base := a.StartingPrice
	if highest != nil && highest.Amount.GreaterThan(base) {
		base = highest.Amount
	}
	return base.Add(a.BidIncrement)
}
