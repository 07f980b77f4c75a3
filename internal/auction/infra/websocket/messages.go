package websocket

import (
	"encoding/json"

	"github.com/cristianortiz/auctionhouse/internal/shared/apperr"
	"github.com/shopspring/decimal"
)

// MessageType defines ws type message
type MessageType string

const (
	MessageTypeClientBid   MessageType = "bid:place"    // client msg to make a bid
	MessageTypeServerBid   MessageType = "bid:accepted" // server msg confirming the sender's bid
	MessageTypeServerError MessageType = "server:error" // server msg indicating error
)

// BaseMessage is base struct for all the WS messages, includes a Type field for identify the message type
type BaseMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ClientBidPayload is the payload of a bid sent by the client, the auction
// comes from the connection's room.
type ClientBidPayload struct {
	BidderID string          `json:"bidderId"`
	Amount   decimal.Decimal `json:"amount"`
}

// ServerBidMessage confirms an accepted bid to the client that placed it, the
// room learns about it through bid:new.
type ServerBidMessage struct {
	Type    MessageType `json:"type"`
	Payload struct {
		BidID          string          `json:"bidId"`
		Amount         decimal.Decimal `json:"amount"`
		MinimumNextBid decimal.Decimal `json:"minimumNextBid"`
	} `json:"payload"`
}

type ServerErrorMessage struct {
	Type    MessageType `json:"type"`
	Payload struct {
		Error   string           `json:"error"`
		Code    apperr.Code      `json:"code"`
		Minimum *decimal.Decimal `json:"minimum,omitempty"`
	} `json:"payload"`
}
