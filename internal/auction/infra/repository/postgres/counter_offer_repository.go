package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	counterOfferColumns = `id, auction_id, seller_id, buyer_id, original_bid, counter_offer_amount,
    status, expires_at, created_at, responded_at`

	uniqueViolation = "23505"
)

type CounterOfferRepository struct {
	pool *pgxpool.Pool
}

func NewCounterOfferRepository(pool *pgxpool.Pool) *CounterOfferRepository {
	return &CounterOfferRepository{pool: pool}
}

// Create inserts a pending offer. The partial unique index turns a second
// pending offer for the same auction into ErrInvalidState.
func (r *CounterOfferRepository) Create(ctx context.Context, tx pgx.Tx, o *domain.CounterOffer) error {
	query := `
        INSERT INTO counter_offers (id, auction_id, seller_id, buyer_id, original_bid,
            counter_offer_amount, status, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := on(r.pool, tx).Exec(ctx, query,
		o.ID,
		o.AuctionID,
		o.SellerID,
		o.BuyerID,
		o.OriginalBid,
		o.CounterOfferAmount,
		o.Status,
		o.ExpiresAt,
		o.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrInvalidState
	}
	return err
}

func (r *CounterOfferRepository) GetPendingByAuction(ctx context.Context, auctionID uuid.UUID) (*domain.CounterOffer, error) {
	query := `SELECT ` + counterOfferColumns + ` FROM counter_offers
        WHERE auction_id = $1 AND status = 'pending'`
	return r.getOne(ctx, query, auctionID)
}

func (r *CounterOfferRepository) GetLatestByAuction(ctx context.Context, auctionID uuid.UUID) (*domain.CounterOffer, error) {
	query := `SELECT ` + counterOfferColumns + ` FROM counter_offers
        WHERE auction_id = $1
        ORDER BY created_at DESC
        LIMIT 1`
	return r.getOne(ctx, query, auctionID)
}

func (r *CounterOfferRepository) Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.CounterOfferStatus, at time.Time) error {
	query := `
        UPDATE counter_offers
        SET status = $2, responded_at = $3
        WHERE id = $1 AND status = 'pending'
    `
	tag, err := on(r.pool, tx).Exec(ctx, query, id, string(status), at)
	if err != nil {
		return fmt.Errorf("resolve counter offer %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCounterNotPending
	}
	return nil
}

func (r *CounterOfferRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.CounterOffer, error) {
	query := `SELECT ` + counterOfferColumns + ` FROM counter_offers
        WHERE status = 'pending' AND expires_at <= $1
        ORDER BY expires_at ASC
        LIMIT $2`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []*domain.CounterOffer
	for rows.Next() {
		o, err := scanCounterOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *CounterOfferRepository) getOne(ctx context.Context, query string, args ...any) (*domain.CounterOffer, error) {
	o, err := scanCounterOffer(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCounterOfferNotFound
		}
		return nil, err
	}
	return o, nil
}

func scanCounterOffer(row pgx.Row) (*domain.CounterOffer, error) {
	o := &domain.CounterOffer{}
	err := row.Scan(
		&o.ID,
		&o.AuctionID,
		&o.SellerID,
		&o.BuyerID,
		&o.OriginalBid,
		&o.CounterOfferAmount,
		&o.Status,
		&o.ExpiresAt,
		&o.CreatedAt,
		&o.RespondedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}
