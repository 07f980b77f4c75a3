package application

import (
	"context"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuctionService defines application interface layer of auction module
// exposes uses cases to external layer, aka infra
type AuctionService interface {
	CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error)
	GetAuction(ctx context.Context, auctionID uuid.UUID) (*AuctionView, error)
	ListAuctions(ctx context.Context, q ListAuctionsQuery) (*AuctionPage, error)
	// PlaceBid handles logic when a user makes a bid in an auction
	// receives a command with necesary data and returns the accepted bid or a rejection
	PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*AcceptedBid, error)
	DeleteBid(ctx context.Context, auctionID, bidID, bidderID uuid.UUID) error
	EndAuction(ctx context.Context, auctionID, sellerID uuid.UUID) (*domain.Auction, error)
	AcceptBid(ctx context.Context, auctionID, sellerID uuid.UUID) (*DecisionResult, error)
	RejectBid(ctx context.Context, auctionID, sellerID uuid.UUID) (*DecisionResult, error)
	CounterOffer(ctx context.Context, auctionID, sellerID uuid.UUID, amount decimal.Decimal) (*DecisionResult, error)
	GetCounterOffer(ctx context.Context, auctionID uuid.UUID) (*domain.CounterOffer, error)
	RespondCounterOffer(ctx context.Context, auctionID, buyerID uuid.UUID, response domain.CounterResponse) (*DecisionResult, error)
}

// concret implementation of AuctionService (struct)
type auctionService struct {
	createUC   *CreateAuctionUseCase
	getUC      *GetAuctionUseCase
	placeBidUC *PlaceBidUseCase
	deleteUC   *DeleteBidUseCase
	lifecycle  *LifecycleManager
}

func NewAuctionService(
	createUC *CreateAuctionUseCase,
	getUC *GetAuctionUseCase,
	placeBidUC *PlaceBidUseCase,
	deleteUC *DeleteBidUseCase,
	lifecycle *LifecycleManager,
) AuctionService {
	return &auctionService{
		createUC:   createUC,
		getUC:      getUC,
		placeBidUC: placeBidUC,
		deleteUC:   deleteUC,
		lifecycle:  lifecycle,
	}
}

func (as *auctionService) CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error) {
	return as.createUC.Execute(ctx, cmd)
}

func (as *auctionService) GetAuction(ctx context.Context, auctionID uuid.UUID) (*AuctionView, error) {
	return as.getUC.Execute(ctx, auctionID)
}

func (as *auctionService) ListAuctions(ctx context.Context, q ListAuctionsQuery) (*AuctionPage, error) {
	return as.getUC.List(ctx, q)
}

// PlaceBid implements AuctionService.
func (as *auctionService) PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*AcceptedBid, error) {
	return as.placeBidUC.Execute(ctx, cmd)
}

func (as *auctionService) DeleteBid(ctx context.Context, auctionID, bidID, bidderID uuid.UUID) error {
	return as.deleteUC.Execute(ctx, auctionID, bidID, bidderID)
}

func (as *auctionService) EndAuction(ctx context.Context, auctionID, sellerID uuid.UUID) (*domain.Auction, error) {
	return as.lifecycle.End(ctx, auctionID, &sellerID)
}

func (as *auctionService) AcceptBid(ctx context.Context, auctionID, sellerID uuid.UUID) (*DecisionResult, error) {
	return as.lifecycle.Accept(ctx, auctionID, sellerID)
}

func (as *auctionService) RejectBid(ctx context.Context, auctionID, sellerID uuid.UUID) (*DecisionResult, error) {
	return as.lifecycle.Reject(ctx, auctionID, sellerID)
}

func (as *auctionService) CounterOffer(ctx context.Context, auctionID, sellerID uuid.UUID, amount decimal.Decimal) (*DecisionResult, error) {
	return as.lifecycle.Counter(ctx, auctionID, sellerID, amount)
}

func (as *auctionService) GetCounterOffer(ctx context.Context, auctionID uuid.UUID) (*domain.CounterOffer, error) {
	return as.lifecycle.CounterOffer(ctx, auctionID)
}

func (as *auctionService) RespondCounterOffer(ctx context.Context, auctionID, buyerID uuid.UUID, response domain.CounterResponse) (*DecisionResult, error) {
	return as.lifecycle.RespondCounter(ctx, auctionID, buyerID, response)
}
