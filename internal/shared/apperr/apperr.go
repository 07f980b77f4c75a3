package apperr

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
)

// Code is the machine readable reason attached to every rejection.
type Code string

const (
	CodeSelfBid       Code = "SELF_BID"
	CodeNotFound      Code = "NOT_FOUND"
	CodeBidTooLow     Code = "BID_TOO_LOW"
	CodeOutOfWindow   Code = "AUCTION_OUT_OF_WINDOW"
	CodeNotLive       Code = "AUCTION_NOT_LIVE"
	CodeInvalidState  Code = "INVALID_STATE"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNoBids        Code = "NO_BIDS"
	CodeInvalidAmount Code = "INVALID_AMOUNT"
	CodeValidation    Code = "VALIDATION"
	CodeConflict      Code = "CONFLICT"
	CodeBidLocked     Code = "BID_LOCKED"
	CodeInternal      Code = "INTERNAL"
)

// Rejection is a business level refusal. Callers get it verbatim, it is never
// a sign of an infrastructure problem.
type Rejection struct {
	Code      Code             `json:"code"`
	Message   string           `json:"error"`
	Retryable bool             `json:"retryable"`
	Minimum   *decimal.Decimal `json:"minimum,omitempty"`
}

func New(code Code, message string) *Rejection {
	return &Rejection{Code: code, Message: message}
}

// NewRetryable builds a contention rejection the caller may retry with backoff.
func NewRetryable(code Code, message string) *Rejection {
	return &Rejection{Code: code, Message: message, Retryable: true}
}

func (r *Rejection) Error() string {
	return string(r.Code) + ": " + r.Message
}

// Is matches any rejection with the same code and message, so copies produced
// by WithMinimum or WithMessage still satisfy errors.Is against the sentinel.
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	if !ok {
		return false
	}
	return r.Code == t.Code && (t.Message == "" || r.Message == t.Message)
}

// WithMinimum returns a copy carrying the smallest acceptable amount.
func (r *Rejection) WithMinimum(min decimal.Decimal) *Rejection {
	cp := *r
	cp.Minimum = &min
	return &cp
}

// Validation builds a request shape rejection.
func Validation(message string) *Rejection {
	return New(CodeValidation, message)
}

// As extracts the rejection from an error chain.
func As(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// CodeOf returns the rejection code, or CodeInternal for anything else.
func CodeOf(err error) Code {
	if r, ok := As(err); ok {
		return r.Code
	}
	return CodeInternal
}

// HTTPStatus maps a rejection code to the status used by the HTTP surface.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden, CodeSelfBid:
		return http.StatusForbidden
	case CodeBidLocked, CodeInvalidState, CodeConflict:
		return http.StatusConflict
	case CodeBidTooLow, CodeOutOfWindow, CodeNotLive, CodeNoBids, CodeInvalidAmount, CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
