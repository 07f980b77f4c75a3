package http

import (
	"time"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type createAuctionRequest struct {
	SellerID      string           `json:"sellerId" validate:"required,uuid"`
	Title         string           `json:"title" validate:"required,max=200"`
	Description   string           `json:"description" validate:"max=4000"`
	StartingPrice *decimal.Decimal `json:"startingPrice" validate:"required"`
	BidIncrement  *decimal.Decimal `json:"bidIncrement" validate:"required"`
	StartAt       time.Time        `json:"startAt" validate:"required"`
	EndAt         time.Time        `json:"endAt" validate:"required"`
}

type placeBidRequest struct {
	BidderID string           `json:"bidderId" validate:"required,uuid"`
	Amount   *decimal.Decimal `json:"amount" validate:"required"`
}

type placeBidResponse struct {
	BidID             uuid.UUID                 `json:"bidId"`
	Amount            decimal.Decimal           `json:"amount"`
	CreatedAt         time.Time                 `json:"createdAt"`
	MinimumNextBid    decimal.Decimal           `json:"minimumNextBid"`
	CurrentHighestBid domain.HighestBidSnapshot `json:"currentHighestBid"`
}

type deleteBidRequest struct {
	BidderID string `json:"bidderId" validate:"required,uuid"`
}

// sellerRequest is the body of end, accept and reject.
type sellerRequest struct {
	SellerID string `json:"sellerId" validate:"required,uuid"`
}

type counterOfferRequest struct {
	SellerID string           `json:"sellerId" validate:"required,uuid"`
	Amount   *decimal.Decimal `json:"amount" validate:"required"`
}

type respondCounterRequest struct {
	BuyerID string `json:"buyerId" validate:"required,uuid"`
	Action  string `json:"action" validate:"required,oneof=accept reject"`
}
