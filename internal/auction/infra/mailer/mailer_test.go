package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	userdomain "github.com/cristianortiz/auctionhouse/internal/user/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *recordingSender) sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.msgs...)
}

func fixtures() (*userdomain.User, *userdomain.User, *domain.Auction) {
	buyer := &userdomain.User{ID: uuid.New(), DisplayName: "Bea", Email: "bea@example.com"}
	seller := &userdomain.User{ID: uuid.New(), DisplayName: "Sam", Email: "sam@example.com"}
	a := &domain.Auction{ID: uuid.New(), SellerID: seller.ID, Title: "Vintage camera"}
	return buyer, seller, a
}

func TestMailerDeliversInBackground(t *testing.T) {
	sender := &recordingSender{}
	m := New(sender, "no-reply@auctionhouse.local", 2, 8)
	t.Cleanup(m.Close)
	buyer, seller, a := fixtures()

	// a cancelled request context must not stop delivery
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, m.SendBidAccepted(ctx, buyer, a, decimal.NewFromInt(5000)))
	require.NoError(t, m.SendSaleConfirmed(ctx, seller, a, decimal.NewFromInt(5000), buyer.DisplayName))

	require.Eventually(t, func() bool { return len(sender.sent()) == 2 }, time.Second, 5*time.Millisecond)

	byTo := map[string]Message{}
	for _, msg := range sender.sent() {
		byTo[msg.To] = msg
	}
	assert.Equal(t, "no-reply@auctionhouse.local", byTo[buyer.Email].From)
	assert.Contains(t, byTo[buyer.Email].Body, "$5000.00")
	assert.Contains(t, byTo[seller.Email].Body, "Bea")
	assert.Equal(t, `"Vintage camera" is sold`, byTo[seller.Email].Subject)
}

func TestMailerDeliveryFailureIsNotReturned(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp: 421 service not available")}
	m := New(sender, "no-reply@auctionhouse.local", 1, 1)
	t.Cleanup(m.Close)
	buyer, _, a := fixtures()

	require.NoError(t, m.SendBidRejected(context.Background(), buyer, a, decimal.NewFromInt(5000)))
	require.Eventually(t, func() bool { return len(sender.sent()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Contains(t, sender.sent()[0].Subject, "not accepted")
}
