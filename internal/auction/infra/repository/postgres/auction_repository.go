package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auctionColumns = `id, seller_id, title, description, starting_price, bid_increment,
    start_at, end_at, status, decision, created_at, updated_at`

// AuctionRepository implements domain.AuctionRepository interface
type AuctionRepository struct {
	pool *pgxpool.Pool
}

// NewAuctionRepository creates a new instance of AuctionRepository
func NewAuctionRepository(pool *pgxpool.Pool) *AuctionRepository {
	return &AuctionRepository{pool: pool}
}

func (r *AuctionRepository) Create(ctx context.Context, a *domain.Auction) error {
	query := `
        INSERT INTO auctions (id, seller_id, title, description, starting_price, bid_increment,
            start_at, end_at, status, decision, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `
	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.SellerID,
		a.Title,
		a.Description,
		a.StartingPrice,
		a.BidIncrement,
		a.StartAt,
		a.EndAt,
		a.Status,
		a.Decision,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`
	a, err := scanAuction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}
	return a, nil
}

// List pages auctions newest first. A live filter only keeps auctions
// still inside their window.
func (r *AuctionRepository) List(ctx context.Context, f domain.AuctionFilter) ([]*domain.Auction, int, error) {
	where := `WHERE ($1 = '' OR status = $1)
        AND ($1 <> 'live' OR (start_at <= $2 AND end_at > $2))`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM auctions `+where, string(f.Status), f.Now).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count auctions: %w", err)
	}

	query := `SELECT ` + auctionColumns + ` FROM auctions ` + where + `
        ORDER BY created_at DESC
        LIMIT $3 OFFSET $4`
	auctions, err := r.queryAuctions(ctx, query, string(f.Status), f.Now, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, err
	}
	return auctions, total, nil
}

func (r *AuctionRepository) ListStartDue(ctx context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions
        WHERE status = 'scheduled' AND start_at <= $1
        ORDER BY start_at ASC
        LIMIT $2`
	return r.queryAuctions(ctx, query, now, limit)
}

func (r *AuctionRepository) ListEndDue(ctx context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions
        WHERE status = 'live' AND end_at <= $1
        ORDER BY end_at ASC
        LIMIT $2`
	return r.queryAuctions(ctx, query, now, limit)
}

func (r *AuctionRepository) ListLive(ctx context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions
        WHERE status = 'live' AND start_at <= $1 AND end_at > $1
        ORDER BY end_at ASC
        LIMIT $2`
	return r.queryAuctions(ctx, query, now, limit)
}

// Transition is a conditional update, the row only moves when it is still in
// status from and, for a decision, none was recorded yet.
func (r *AuctionRepository) Transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.AuctionStatus, decision domain.Decision) error {
	query := `
        UPDATE auctions
        SET status = $3,
            decision = CASE WHEN $4 = '' THEN decision ELSE $4 END,
            updated_at = NOW()
        WHERE id = $1 AND status = $2 AND ($4 = '' OR decision = '')
    `
	tag, err := on(r.pool, tx).Exec(ctx, query, id, string(from), string(to), string(decision))
	if err != nil {
		return fmt.Errorf("transition auction %s %s->%s: %w", id, from, to, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

func (r *AuctionRepository) queryAuctions(ctx context.Context, query string, args ...any) ([]*domain.Auction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	auctions := []*domain.Auction{}
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return auctions, nil
}

func scanAuction(row pgx.Row) (*domain.Auction, error) {
	a := &domain.Auction{}
	err := row.Scan(
		&a.ID,
		&a.SellerID,
		&a.Title,
		&a.Description,
		&a.StartingPrice,
		&a.BidIncrement,
		&a.StartAt,
		&a.EndAt,
		&a.Status,
		&a.Decision,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}
