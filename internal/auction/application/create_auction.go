package application

import (
	"context"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateAuctionDTO is the input of CreateAuctionUseCase.
type CreateAuctionDTO struct {
	SellerID      uuid.UUID
	Title         string
	Description   string
	StartingPrice decimal.Decimal
	BidIncrement  decimal.Decimal
	StartAt       time.Time
	EndAt         time.Time
}

type CreateAuctionUseCase struct {
	auctions domain.AuctionRepository
	users    domain.UserReader
	now      func() time.Time
}

func NewCreateAuctionUseCase(auctions domain.AuctionRepository, users domain.UserReader, now func() time.Time) *CreateAuctionUseCase {
	if now == nil {
		now = time.Now
	}
	return &CreateAuctionUseCase{auctions: auctions, users: users, now: now}
}

func (uc *CreateAuctionUseCase) Execute(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error) {
	seller, err := uc.users.GetByID(ctx, cmd.SellerID)
	if err != nil {
		return nil, err
	}
	a, err := domain.NewAuction(domain.NewAuctionParams{
		SellerID:      seller.ID,
		Title:         cmd.Title,
		Description:   cmd.Description,
		StartingPrice: cmd.StartingPrice,
		BidIncrement:  cmd.BidIncrement,
		StartAt:       cmd.StartAt,
		EndAt:         cmd.EndAt,
	}, uc.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := uc.auctions.Create(ctx, a); err != nil {
		log.Error("Failed to create auction", zap.String("sellerID", seller.ID.String()), zap.Error(err))
		return nil, err
	}

	log.Info("Auction created",
		zap.String("auctionID", a.ID.String()),
		zap.String("sellerID", seller.ID.String()),
		zap.Time("startAt", a.StartAt),
	)
	return a, nil
}
