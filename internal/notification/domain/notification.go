package domain

import (
	"context"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/shared/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotificationNotFound = apperr.New(apperr.CodeNotFound, "notification not found")

// Notification is a persisted copy of a user addressed event, kept so a
// user who was offline can catch up.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"userId"`
	Type      string           `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	AuctionID *uuid.UUID       `json:"auctionId,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Store keeps the most recent notifications of each user, newest first.
type Store interface {
	Push(ctx context.Context, n *Notification) error
	List(ctx context.Context, userID uuid.UUID) ([]*Notification, error)
	// MarkRead returns ErrNotificationNotFound when the user has no such notification.
	MarkRead(ctx context.Context, userID, id uuid.UUID) (*Notification, error)
}
