package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BidRepository implements domain.BidRepository interface
type BidRepository struct {
	pool *pgxpool.Pool
}

// NewBidRepository creates new instance of BidRepository.
func NewBidRepository(pool *pgxpool.Pool) *BidRepository {
	return &BidRepository{pool: pool}
}

// Save only inserts, the leading snapshot is maintained by the caller.
func (r *BidRepository) Save(ctx context.Context, tx pgx.Tx, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (id, auction_id, bidder_id, amount, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := on(r.pool, tx).Exec(ctx, query,
		bid.ID,
		bid.AuctionID,
		bid.BidderID,
		bid.Amount,
		bid.CreatedAt,
	)
	return err
}

func (r *BidRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder_id, amount, created_at, deleted_at
        FROM bids
        WHERE id = $1
    `
	bid, err := scanBid(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBidNotFound
		}
		return nil, err
	}
	return bid, nil
}

func (r *BidRepository) GetHighest(ctx context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder_id, amount, created_at, deleted_at
        FROM bids
        WHERE auction_id = $1 AND deleted_at IS NULL
        ORDER BY amount DESC, created_at ASC
        LIMIT 1
    `
	bid, err := scanBid(r.pool.QueryRow(ctx, query, auctionID))
	if err != nil {
		//if there is any bid for this auction
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return bid, nil
}

func (r *BidRepository) ListRecent(ctx context.Context, auctionID uuid.UUID, limit int) ([]*domain.BidView, error) {
	query := `
        SELECT b.id, b.auction_id, b.bidder_id, b.amount, b.created_at, b.deleted_at, u.display_name
        FROM bids b
        JOIN users u ON u.id = b.bidder_id
        WHERE b.auction_id = $1 AND b.deleted_at IS NULL
        ORDER BY b.amount DESC
        LIMIT $2
    `
	rows, err := r.pool.Query(ctx, query, auctionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := []*domain.BidView{}
	for rows.Next() {
		v := &domain.BidView{}
		err := rows.Scan(
			&v.ID,
			&v.AuctionID,
			&v.BidderID,
			&v.Amount,
			&v.CreatedAt,
			&v.DeletedAt,
			&v.BidderDisplayName,
		)
		if err != nil {
			return nil, err
		}
		bids = append(bids, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bids, nil
}

func (r *BidRepository) MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE bids SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBidNotFound
	}
	return nil
}

func scanBid(row pgx.Row) (*domain.Bid, error) {
	bid := &domain.Bid{}
	err := row.Scan(
		&bid.ID,
		&bid.AuctionID,
		&bid.BidderID,
		&bid.Amount,
		&bid.CreatedAt,
		&bid.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return bid, nil
}
