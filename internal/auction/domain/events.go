package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event names emitted to realtime observers.
const (
	EventBidNew                    = "bid:new"
	EventBidOutbid                 = "bid:outbid"
	EventAuctionStarted            = "auction:started"
	EventAuctionEnded              = "auction:ended"
	EventSellerDecision            = "seller:decision"
	EventAuctionWon                = "auction:won"
	EventBidRejected               = "bid:rejected"
	EventCounterOfferMade          = "counter-offer:made"
	EventCounterOfferReceived      = "counter-offer:received"
	EventCounterOfferAccepted      = "counter-offer:accepted"
	EventCounterOfferRejected      = "counter-offer:rejected"
	EventCounterOfferBuyerAccepted = "counter-offer:buyer-accepted"
	EventCounterOfferBuyerRejected = "counter-offer:buyer-rejected"
	EventCounterOfferExpired       = "counter-offer:expired"
)

// Every payload repeats auctionId and auctionTitle so observers can render
// it without fetching the auction.

type BidNewPayload struct {
	AuctionID         uuid.UUID          `json:"auctionId"`
	AuctionTitle      string             `json:"auctionTitle"`
	BidID             uuid.UUID          `json:"bidId"`
	BidderID          uuid.UUID          `json:"bidderId"`
	BidderDisplayName string             `json:"bidderDisplayName"`
	Amount            decimal.Decimal    `json:"amount"`
	MinimumNextBid    decimal.Decimal    `json:"minimumNextBid"`
	CreatedAt         time.Time          `json:"createdAt"`
	CurrentHighest    HighestBidSnapshot `json:"currentHighest"`
}

type OutbidPayload struct {
	AuctionID         uuid.UUID       `json:"auctionId"`
	AuctionTitle      string          `json:"auctionTitle"`
	Amount            decimal.Decimal `json:"amount"`
	PreviousAmount    decimal.Decimal `json:"previousAmount"`
	BidderDisplayName string          `json:"bidderDisplayName"`
}

type AuctionStatusPayload struct {
	AuctionID      uuid.UUID           `json:"auctionId"`
	AuctionTitle   string              `json:"auctionTitle"`
	Status         AuctionStatus       `json:"status"`
	StartAt        time.Time           `json:"startAt"`
	EndAt          time.Time           `json:"endAt"`
	Amount         decimal.Decimal     `json:"amount"`
	CurrentHighest *HighestBidSnapshot `json:"currentHighest,omitempty"`
}

type SellerDecisionPayload struct {
	AuctionID         uuid.UUID       `json:"auctionId"`
	AuctionTitle      string          `json:"auctionTitle"`
	Decision          Decision        `json:"decision"`
	Status            AuctionStatus   `json:"status"`
	Amount            decimal.Decimal `json:"amount"`
	BidderID          *uuid.UUID      `json:"bidderId,omitempty"`
	BidderDisplayName string          `json:"bidderDisplayName,omitempty"`
}

type CounterOfferPayload struct {
	AuctionID        uuid.UUID          `json:"auctionId"`
	AuctionTitle     string             `json:"auctionTitle"`
	CounterOfferID   uuid.UUID          `json:"counterOfferId"`
	BuyerID          uuid.UUID          `json:"buyerId"`
	BuyerDisplayName string             `json:"buyerDisplayName"`
	OriginalBid      decimal.Decimal    `json:"originalBid"`
	Amount           decimal.Decimal    `json:"amount"`
	Status           CounterOfferStatus `json:"status"`
	ExpiresAt        time.Time          `json:"expiresAt"`
}
