package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const StartingPriceDisplayName = "Starting Price"

// HighestBidSnapshot is the cached summary of the leading bid. It is derived
// data, rebuildable from the bid history.
type HighestBidSnapshot struct {
	Amount            decimal.Decimal `json:"amount"`
	BidID             *uuid.UUID      `json:"bidId"`
	BidderID          *uuid.UUID      `json:"bidderId"`
	BidderDisplayName string          `json:"bidderDisplayName"`
	ObservedAt        time.Time       `json:"observedAt"`
}

// HasBidder is false for a snapshot seeded from the starting price.
func (s *HighestBidSnapshot) HasBidder() bool {
	return s != nil && s.BidderID != nil
}

// IsLeader reports whether userID holds the leading bid.
func (s *HighestBidSnapshot) IsLeader(userID uuid.UUID) bool {
	return s.HasBidder() && *s.BidderID == userID
}

// SeedSnapshot is the snapshot of a live auction nobody bid on yet.
func SeedSnapshot(a *Auction, now time.Time) HighestBidSnapshot {
	return HighestBidSnapshot{
		Amount:            a.StartingPrice,
		BidderDisplayName: StartingPriceDisplayName,
		ObservedAt:        now,
	}
}

func SnapshotFromBid(b *Bid, bidderDisplayName string, now time.Time) HighestBidSnapshot {
	bidID, bidderID := b.ID, b.BidderID
	return HighestBidSnapshot{
		Amount:            b.Amount,
		BidID:             &bidID,
		BidderID:          &bidderID,
		BidderDisplayName: bidderDisplayName,
		ObservedAt:        now,
	}
}
