// Package auctiontest provides in-memory doubles of the auction ports for
// use case tests.
package auctiontest

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/cristianortiz/auctionhouse/internal/shared/redisclient"
	userdomain "github.com/cristianortiz/auctionhouse/internal/user/domain"
	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// NewRedis starts a miniredis server bound to the test lifetime and returns
// a pool dialing it.
func NewRedis(t testing.TB) (*miniredis.Miniredis, *redis.Pool) {
	t.Helper()
	mr := miniredis.RunT(t)
	pool := redisclient.NewPool(mr.Addr(), "")
	t.Cleanup(func() { _ = pool.Close() })
	return mr, pool
}

type AuctionRepo struct {
	mu       sync.Mutex
	auctions map[uuid.UUID]*domain.Auction
	// Fail makes every call return this error when set.
	Fail error
}

func NewAuctionRepo(auctions ...*domain.Auction) *AuctionRepo {
	r := &AuctionRepo{auctions: make(map[uuid.UUID]*domain.Auction)}
	for _, a := range auctions {
		r.auctions[a.ID] = a
	}
	return r
}

func (r *AuctionRepo) Create(_ context.Context, a *domain.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	cp := *a
	r.auctions[a.ID] = &cp
	return nil
}

func (r *AuctionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return nil, r.Fail
	}
	a, ok := r.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *AuctionRepo) List(_ context.Context, f domain.AuctionFilter) ([]*domain.Auction, int, error) {
	matched := r.filter(func(a *domain.Auction) bool {
		if f.Status == "" {
			return true
		}
		if a.Status != f.Status {
			return false
		}
		return f.Status != domain.StatusLive || a.InWindow(f.Now)
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if f.Offset >= total {
		return []*domain.Auction{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < total {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

func (r *AuctionRepo) ListStartDue(_ context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	return limitTo(r.filter(func(a *domain.Auction) bool {
		return a.Status == domain.StatusScheduled && !a.StartAt.After(now)
	}), limit), nil
}

func (r *AuctionRepo) ListEndDue(_ context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	return limitTo(r.filter(func(a *domain.Auction) bool {
		return a.Status == domain.StatusLive && !a.EndAt.After(now)
	}), limit), nil
}

func (r *AuctionRepo) ListLive(_ context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	return limitTo(r.filter(func(a *domain.Auction) bool {
		return a.Status == domain.StatusLive && a.InWindow(now)
	}), limit), nil
}

func (r *AuctionRepo) Transition(_ context.Context, _ pgx.Tx, id uuid.UUID, from, to domain.AuctionStatus, decision domain.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	a, ok := r.auctions[id]
	if !ok || a.Status != from {
		return domain.ErrInvalidState
	}
	if decision != domain.DecisionNone {
		if a.Decision != domain.DecisionNone {
			return domain.ErrInvalidState
		}
		a.Decision = decision
	}
	a.Status = to
	return nil
}

// Status reads the stored status directly.
func (r *AuctionRepo) Status(id uuid.UUID) domain.AuctionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.auctions[id].Status
}

func (r *AuctionRepo) filter(keep func(a *domain.Auction) bool) []*domain.Auction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Auction{}
	for _, a := range r.auctions {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out
}

func limitTo(in []*domain.Auction, limit int) []*domain.Auction {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}

// BidRepo keeps bids in insertion order, which is the settlement order.
type BidRepo struct {
	mu    sync.Mutex
	bids  []*domain.Bid
	users *UserRepo
	// SaveErr is returned by Save when set.
	SaveErr error
}

func NewBidRepo(users *UserRepo) *BidRepo {
	return &BidRepo{users: users}
}

// Save appends b. Inside a fake transaction the row only shows up on commit.
func (r *BidRepo) Save(_ context.Context, tx pgx.Tx, b *domain.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	cp := *b
	insert := func() {
		r.mu.Lock()
		r.bids = append(r.bids, &cp)
		r.mu.Unlock()
	}
	if t, ok := tx.(*Tx); ok {
		t.onCommit = append(t.onCommit, insert)
		return nil
	}
	r.bids = append(r.bids, &cp)
	return nil
}

func (r *BidRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bids {
		if b.ID == id {
			cp := *b
			return &cp, nil
		}
	}
	return nil, domain.ErrBidNotFound
}

func (r *BidRepo) GetHighest(_ context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *domain.Bid
	for _, b := range r.bids {
		if b.AuctionID != auctionID || b.DeletedAt != nil {
			continue
		}
		if best == nil || b.Amount.GreaterThan(best.Amount) {
			best = b
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (r *BidRepo) ListRecent(ctx context.Context, auctionID uuid.UUID, limit int) ([]*domain.BidView, error) {
	r.mu.Lock()
	var out []*domain.BidView
	for _, b := range r.bids {
		if b.AuctionID == auctionID && b.DeletedAt == nil {
			out = append(out, &domain.BidView{Bid: *b})
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Amount.GreaterThan(out[j].Amount) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for _, v := range out {
		if u, err := r.users.GetByID(ctx, v.BidderID); err == nil {
			v.BidderDisplayName = u.DisplayName
		}
	}
	return out, nil
}

func (r *BidRepo) MarkDeleted(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bids {
		if b.ID == id && b.DeletedAt == nil {
			b.DeletedAt = &at
			return nil
		}
	}
	return domain.ErrBidNotFound
}

// Accepted returns the accepted amounts of an auction in settlement order.
func (r *BidRepo) Accepted(auctionID uuid.UUID) []decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []decimal.Decimal
	for _, b := range r.bids {
		if b.AuctionID == auctionID {
			out = append(out, b.Amount)
		}
	}
	return out
}

type CounterOfferRepo struct {
	mu     sync.Mutex
	offers []*domain.CounterOffer
}

func NewCounterOfferRepo() *CounterOfferRepo {
	return &CounterOfferRepo{}
}

func (r *CounterOfferRepo) Create(_ context.Context, _ pgx.Tx, o *domain.CounterOffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.offers {
		if existing.AuctionID == o.AuctionID && existing.Status == domain.CounterOfferPending {
			return domain.ErrInvalidState
		}
	}
	cp := *o
	r.offers = append(r.offers, &cp)
	return nil
}

func (r *CounterOfferRepo) GetPendingByAuction(_ context.Context, auctionID uuid.UUID) (*domain.CounterOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.offers {
		if o.AuctionID == auctionID && o.Status == domain.CounterOfferPending {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrCounterOfferNotFound
}

func (r *CounterOfferRepo) GetLatestByAuction(_ context.Context, auctionID uuid.UUID) (*domain.CounterOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.offers) - 1; i >= 0; i-- {
		if r.offers[i].AuctionID == auctionID {
			cp := *r.offers[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrCounterOfferNotFound
}

func (r *CounterOfferRepo) Resolve(_ context.Context, _ pgx.Tx, id uuid.UUID, status domain.CounterOfferStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.offers {
		if o.ID == id {
			if o.Status != domain.CounterOfferPending {
				return domain.ErrCounterNotPending
			}
			o.Status = status
			o.RespondedAt = &at
			return nil
		}
	}
	return domain.ErrCounterOfferNotFound
}

func (r *CounterOfferRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]*domain.CounterOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CounterOffer
	for _, o := range r.offers {
		if o.Status == domain.CounterOfferPending && o.Expired(now) {
			cp := *o
			out = append(out, &cp)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// UserRepo satisfies both the user module repository and domain.UserReader.
type UserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*userdomain.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[uuid.UUID]*userdomain.User)}
}

// Add stores a registered user with the given display name.
func (r *UserRepo) Add(name string) *userdomain.User {
	u := &userdomain.User{
		ID:          uuid.New(),
		DisplayName: name,
		Email:       name + "@example.com",
		UserType:    userdomain.UserTypeRegistered,
		CreatedAt:   time.Now().UTC(),
	}
	r.mu.Lock()
	r.users[u.ID] = u
	r.mu.Unlock()
	return u
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, userdomain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, userdomain.ErrUserNotFound
}

func (r *UserRepo) Create(_ context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if u.Email != "" && existing.Email == u.Email {
			return userdomain.ErrEmailTaken
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

// Tx is a fake transaction. Fakes that honour it defer their writes to
// Commit, the others write through. Calling any method other than Commit or
// Rollback panics through the nil embedded interface.
type Tx struct {
	pgx.Tx
	beginner *TxBeginner
	onCommit []func()
}

func (t *Tx) Commit(context.Context) error {
	t.beginner.mu.Lock()
	defer t.beginner.mu.Unlock()
	if t.beginner.CommitErr != nil {
		return t.beginner.CommitErr
	}
	t.beginner.Commits++
	for _, apply := range t.onCommit {
		apply()
	}
	return nil
}

func (t *Tx) Rollback(context.Context) error {
	t.beginner.mu.Lock()
	t.beginner.Rollbacks++
	t.beginner.mu.Unlock()
	return nil
}

type TxBeginner struct {
	mu        sync.Mutex
	Commits   int
	Rollbacks int
	// CommitErr makes every commit fail and drop its writes.
	CommitErr error
}

func (b *TxBeginner) Begin(context.Context) (pgx.Tx, error) {
	return &Tx{beginner: b}, nil
}

// Event is one recorded broadcast.
type Event struct {
	AuctionID *uuid.UUID
	UserID    *uuid.UUID
	Name      string
	Payload   any
}

// Recorder is a domain.Broadcaster keeping everything it is asked to send.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) BroadcastToAuction(_ context.Context, auctionID uuid.UUID, event string, payload any) error {
	r.mu.Lock()
	r.events = append(r.events, Event{AuctionID: &auctionID, Name: event, Payload: payload})
	r.mu.Unlock()
	return nil
}

func (r *Recorder) NotifyUser(_ context.Context, userID uuid.UUID, event string, payload any) error {
	r.mu.Lock()
	r.events = append(r.events, Event{UserID: &userID, Name: event, Payload: payload})
	r.mu.Unlock()
	return nil
}

// Names returns the recorded event names in emission order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

// ForUser returns the events addressed to one user.
func (r *Recorder) ForUser(userID uuid.UUID) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.UserID != nil && *e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the first event with the given name.
func (r *Recorder) Find(name string) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Name == name {
			return e, true
		}
	}
	return Event{}, false
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Mail is one recorded email.
type Mail struct {
	Kind   string
	To     uuid.UUID
	Amount decimal.Decimal
}

type MailRecorder struct {
	mu    sync.Mutex
	Mails []Mail
}

func (m *MailRecorder) SendBidAccepted(_ context.Context, buyer *userdomain.User, _ *domain.Auction, amount decimal.Decimal) error {
	m.record("bid-accepted", buyer.ID, amount)
	return nil
}

func (m *MailRecorder) SendSaleConfirmed(_ context.Context, seller *userdomain.User, _ *domain.Auction, amount decimal.Decimal, _ string) error {
	m.record("sale-confirmed", seller.ID, amount)
	return nil
}

func (m *MailRecorder) SendBidRejected(_ context.Context, buyer *userdomain.User, _ *domain.Auction, amount decimal.Decimal) error {
	m.record("bid-rejected", buyer.ID, amount)
	return nil
}

func (m *MailRecorder) record(kind string, to uuid.UUID, amount decimal.Decimal) {
	m.mu.Lock()
	m.Mails = append(m.Mails, Mail{Kind: kind, To: to, Amount: amount})
	m.mu.Unlock()
}

func (m *MailRecorder) Kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Mails))
	for _, mail := range m.Mails {
		out = append(out, mail.Kind)
	}
	return out
}
