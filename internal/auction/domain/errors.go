package domain

import "github.com/cristianortiz/auctionhouse/internal/shared/apperr"

var (
	ErrAuctionNotFound      = apperr.New(apperr.CodeNotFound, "auction not found")
	ErrBidNotFound          = apperr.New(apperr.CodeNotFound, "bid not found")
	ErrCounterOfferNotFound = apperr.New(apperr.CodeNotFound, "counter offer not found")
	ErrSelfBid              = apperr.New(apperr.CodeSelfBid, "cannot bid on your own auction")
	ErrInvalidAmount        = apperr.New(apperr.CodeInvalidAmount, "amount must be positive with at most 2 decimal places")
	ErrBidTooLow            = apperr.New(apperr.CodeBidTooLow, "bid amount is too low")
	ErrAuctionOutOfWindow   = apperr.New(apperr.CodeOutOfWindow, "auction is not within the bidding window")
	ErrAuctionNotLive       = apperr.New(apperr.CodeNotLive, "auction is not currently live")
	ErrInvalidState         = apperr.New(apperr.CodeInvalidState, "auction is not in a state that allows this action")
	ErrCounterNotPending    = apperr.New(apperr.CodeInvalidState, "counter offer is no longer pending")
	ErrLeadingBid           = apperr.New(apperr.CodeInvalidState, "the leading bid cannot be deleted")
	ErrForbidden            = apperr.New(apperr.CodeForbidden, "only the auction owner can perform this action")
	ErrNotCounterBuyer      = apperr.New(apperr.CodeForbidden, "only the countered bidder can respond")
	ErrNotBidOwner          = apperr.New(apperr.CodeForbidden, "only the bidder can delete this bid")
	ErrNoBids               = apperr.New(apperr.CodeNoBids, "auction has no bids")
	ErrBidLocked            = apperr.NewRetryable(apperr.CodeBidLocked, "another bid is being processed, please try again")
)
