package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	auctiondomain "github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/cristianortiz/auctionhouse/internal/notification/domain"
	"github.com/cristianortiz/auctionhouse/internal/shared/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// payloadFields is the subset every user addressed payload carries.
type payloadFields struct {
	AuctionID    *uuid.UUID       `json:"auctionId"`
	AuctionTitle string           `json:"auctionTitle"`
	Amount       *decimal.Decimal `json:"amount"`
}

type template struct {
	title   string
	message func(f payloadFields) string
}

func amountOf(f payloadFields) string {
	if f.Amount == nil {
		return ""
	}
	return f.Amount.StringFixed(2)
}

var templates = map[string]template{
	auctiondomain.EventBidOutbid: {"You've been outbid", func(f payloadFields) string {
		return fmt.Sprintf("Someone bid $%s on %q", amountOf(f), f.AuctionTitle)
	}},
	auctiondomain.EventAuctionWon: {"You won the auction", func(f payloadFields) string {
		return fmt.Sprintf("The seller accepted your bid of $%s on %q", amountOf(f), f.AuctionTitle)
	}},
	auctiondomain.EventBidRejected: {"Bid rejected", func(f payloadFields) string {
		return fmt.Sprintf("The seller rejected your bid of $%s on %q", amountOf(f), f.AuctionTitle)
	}},
	auctiondomain.EventCounterOfferReceived: {"Counter offer received", func(f payloadFields) string {
		return fmt.Sprintf("The seller of %q proposes $%s", f.AuctionTitle, amountOf(f))
	}},
	auctiondomain.EventCounterOfferBuyerAccepted: {"Counter offer accepted", func(f payloadFields) string {
		return fmt.Sprintf("The buyer accepted $%s for %q", amountOf(f), f.AuctionTitle)
	}},
	auctiondomain.EventCounterOfferBuyerRejected: {"Counter offer rejected", func(f payloadFields) string {
		return fmt.Sprintf("The buyer rejected $%s for %q", amountOf(f), f.AuctionTitle)
	}},
	auctiondomain.EventCounterOfferExpired: {"Counter offer expired", func(f payloadFields) string {
		return fmt.Sprintf("The counter offer of $%s for %q expired", amountOf(f), f.AuctionTitle)
	}},
}

// Notifier decorates an auction event broadcaster, persisting every user
// addressed event before forwarding it. Room broadcasts pass through.
type Notifier struct {
	next  auctiondomain.Broadcaster
	store domain.Store
	now   func() time.Time
}

func NewNotifier(next auctiondomain.Broadcaster, store domain.Store) *Notifier {
	return &Notifier{next: next, store: store, now: time.Now}
}

func (n *Notifier) BroadcastToAuction(ctx context.Context, auctionID uuid.UUID, event string, payload any) error {
	return n.next.BroadcastToAuction(ctx, auctionID, event, payload)
}

// NotifyUser stores then forwards. A storage failure is logged and does not
// keep the realtime event from going out.
func (n *Notifier) NotifyUser(ctx context.Context, userID uuid.UUID, event string, payload any) error {
	if notification, err := n.build(userID, event, payload); err != nil {
		log.Warn("Could not build notification", zap.String("event", event), zap.Error(err))
	} else if err := n.store.Push(ctx, notification); err != nil {
		log.Error("Failed to store notification",
			zap.String("userID", userID.String()),
			zap.String("event", event),
			zap.Error(err),
		)
	}
	return n.next.NotifyUser(ctx, userID, event, payload)
}

func (n *Notifier) build(userID uuid.UUID, event string, payload any) (*domain.Notification, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var f payloadFields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}

	tpl, ok := templates[event]
	if !ok {
		tpl = template{title: event, message: func(payloadFields) string { return "" }}
	}
	return &domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      event,
		Title:     tpl.title,
		Message:   tpl.message(f),
		AuctionID: f.AuctionID,
		Amount:    f.Amount,
		CreatedAt: n.now().UTC(),
	}, nil
}
