package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/cristianortiz/auctionhouse/internal/shared/logger"
	userdomain "github.com/cristianortiz/auctionhouse/internal/user/domain"
	"github.com/shopspring/decimal"
	"github.com/viney-shih/goroutines"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	scheduleTimeout = 3 * time.Second
	sendTimeout     = 10 * time.Second
)

// Message is one rendered email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender delivers a rendered message, e.g. over SMTP or a provider API.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	log.Info("Email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// Mailer renders the finalization emails and hands them to a bounded worker
// pool. Send* only fail when the pool queue stays full, delivery errors are
// logged by the worker.
type Mailer struct {
	sender Sender
	from   string
	pool   *goroutines.Pool
}

func New(sender Sender, from string, workers, queueLength int) *Mailer {
	return &Mailer{
		sender: sender,
		from:   from,
		pool:   goroutines.NewPool(workers, goroutines.WithTaskQueueLength(queueLength)),
	}
}

func (m *Mailer) SendBidAccepted(ctx context.Context, buyer *userdomain.User, auction *domain.Auction, amount decimal.Decimal) error {
	return m.enqueue(ctx, auction, Message{
		To:      buyer.Email,
		Subject: fmt.Sprintf("You won %q", auction.Title),
		Body: fmt.Sprintf("Hi %s,\n\nThe seller accepted your bid of $%s on %q. They will contact you to arrange payment and delivery.\n",
			buyer.DisplayName, amount.StringFixed(2), auction.Title),
	})
}

func (m *Mailer) SendSaleConfirmed(ctx context.Context, seller *userdomain.User, auction *domain.Auction, amount decimal.Decimal, buyerName string) error {
	return m.enqueue(ctx, auction, Message{
		To:      seller.Email,
		Subject: fmt.Sprintf("%q is sold", auction.Title),
		Body: fmt.Sprintf("Hi %s,\n\nYou sold %q to %s for $%s.\n",
			seller.DisplayName, auction.Title, buyerName, amount.StringFixed(2)),
	})
}

func (m *Mailer) SendBidRejected(ctx context.Context, buyer *userdomain.User, auction *domain.Auction, amount decimal.Decimal) error {
	return m.enqueue(ctx, auction, Message{
		To:      buyer.Email,
		Subject: fmt.Sprintf("Your bid on %q was not accepted", auction.Title),
		Body: fmt.Sprintf("Hi %s,\n\nThe seller decided not to accept your bid of $%s on %q.\n",
			buyer.DisplayName, amount.StringFixed(2), auction.Title),
	})
}

func (m *Mailer) enqueue(ctx context.Context, auction *domain.Auction, msg Message) error {
	msg.From = m.from
	// the request that triggered the email must not cancel its delivery
	ctx = context.WithoutCancel(ctx)
	err := m.pool.ScheduleWithTimeout(scheduleTimeout, func() {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		if err := m.sender.Send(sendCtx, msg); err != nil {
			log.Error("Failed to send email",
				zap.String("auctionID", auction.ID.String()),
				zap.String("to", msg.To),
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule email: %w", err)
	}
	return nil
}

// Close stops accepting emails and releases the workers.
func (m *Mailer) Close() {
	m.pool.Release()
}
