package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/auction/application"
	"github.com/cristianortiz/auctionhouse/internal/auction/application/mocks"
	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/cristianortiz/auctionhouse/internal/shared/httpserver"
	"github.com/cristianortiz/auctionhouse/internal/shared/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) (*fiber.App, *mocks.AuctionService) {
	svc := mocks.NewAuctionService(t)
	app := fiber.New(fiber.Config{ErrorHandler: httpserver.ErrorHandler})
	NewAuctionHandler(svc, validator.New()).RegisterRoutes(app.Group("/api"))
	return app, svc
}

func do(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func amountIs(v int64) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(v)) })
}

func TestPlaceBid(t *testing.T) {
	app, svc := newApp(t)
	auctionID, bidderID, bidID := uuid.New(), uuid.New(), uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc.On("PlaceBid", mock.Anything, mock.MatchedBy(func(cmd application.PlaceBidDTO) bool {
		return cmd.AuctionID == auctionID && cmd.BidderID == bidderID && cmd.Amount.Equal(decimal.NewFromInt(1100))
	})).Return(&application.AcceptedBid{
		Bid:            domain.NewBid(bidID, auctionID, bidderID, decimal.NewFromInt(1100), now),
		Snapshot:       domain.HighestBidSnapshot{Amount: decimal.NewFromInt(1100), BidID: &bidID, BidderID: &bidderID, BidderDisplayName: "alice", ObservedAt: now},
		MinimumNextBid: decimal.NewFromInt(1150),
	}, nil).Once()

	resp, body := do(t, app, http.MethodPost, "/api/auctions/"+auctionID.String()+"/bid",
		`{"bidderId":"`+bidderID.String()+`","amount":"1100"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, bidID.String(), body["bidId"])
	assert.Equal(t, "1100", body["amount"])
	assert.Equal(t, "1150", body["minimumNextBid"])
}

func TestPlaceBidRejections(t *testing.T) {
	app, svc := newApp(t)
	auctionID, bidderID := uuid.New(), uuid.New()
	path := "/api/auctions/" + auctionID.String() + "/bid"

	svc.On("PlaceBid", mock.Anything, mock.Anything).
		Return(nil, domain.ErrBidTooLow.WithMinimum(decimal.NewFromInt(1050))).Once()
	resp, body := do(t, app, http.MethodPost, path, `{"bidderId":"`+bidderID.String()+`","amount":1000}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "BID_TOO_LOW", body["code"])
	assert.Equal(t, "1050", body["minimum"])

	svc.On("PlaceBid", mock.Anything, mock.Anything).Return(nil, domain.ErrSelfBid).Once()
	resp, body = do(t, app, http.MethodPost, path, `{"bidderId":"`+bidderID.String()+`","amount":1100}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "SELF_BID", body["code"])

	svc.On("PlaceBid", mock.Anything, mock.Anything).Return(nil, domain.ErrBidLocked).Once()
	resp, body = do(t, app, http.MethodPost, path, `{"bidderId":"`+bidderID.String()+`","amount":1100}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, true, body["retryable"])
}

func TestRequestValidation(t *testing.T) {
	app, _ := newApp(t)
	id := uuid.New().String()

	tests := []struct {
		desc   string
		method string
		path   string
		body   string
	}{
		{"bad auction id", http.MethodGet, "/api/auctions/not-a-uuid", ""},
		{"missing amount", http.MethodPost, "/api/auctions/" + id + "/bid", `{"bidderId":"` + id + `"}`},
		{"bad bidder id", http.MethodPost, "/api/auctions/" + id + "/bid", `{"bidderId":"x","amount":10}`},
		{"malformed body", http.MethodPost, "/api/auctions/" + id + "/accept", `{"sellerId":`},
		{"unknown action", http.MethodPost, "/api/auctions/" + id + "/counter-offer/respond", `{"buyerId":"` + id + `","action":"maybe"}`},
		{"unknown status", http.MethodGet, "/api/auctions?status=paused", ""},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			resp, body := do(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "VALIDATION", body["code"])
		})
	}
}

func TestGetAuctionNotFound(t *testing.T) {
	app, svc := newApp(t)
	id := uuid.New()
	svc.On("GetAuction", mock.Anything, id).Return(nil, domain.ErrAuctionNotFound).Once()

	resp, body := do(t, app, http.MethodGet, "/api/auctions/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestListAuctions(t *testing.T) {
	app, svc := newApp(t)
	svc.On("ListAuctions", mock.Anything, application.ListAuctionsQuery{Status: domain.StatusLive, Page: 2, Limit: 5}).
		Return(&application.AuctionPage{Auctions: []*application.AuctionView{}, Pagination: application.Pagination{Page: 2, Limit: 5, Total: 7}}, nil).Once()

	resp, body := do(t, app, http.MethodGet, "/api/auctions?status=live&page=2&limit=5", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(7), pagination["total"])
}

func TestSellerDecisions(t *testing.T) {
	app, svc := newApp(t)
	auctionID, sellerID := uuid.New(), uuid.New()
	base := "/api/auctions/" + auctionID.String()
	seller := `{"sellerId":"` + sellerID.String() + `"}`
	closed := &application.DecisionResult{Auction: &domain.Auction{ID: auctionID, Status: domain.StatusClosed, Decision: domain.DecisionAccepted}}

	svc.On("AcceptBid", mock.Anything, auctionID, sellerID).Return(closed, nil).Once()
	resp, body := do(t, app, http.MethodPost, base+"/accept", seller)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "closed", body["auction"].(map[string]interface{})["status"])

	svc.On("RejectBid", mock.Anything, auctionID, sellerID).Return(nil, domain.ErrForbidden).Once()
	resp, body = do(t, app, http.MethodPost, base+"/reject", seller)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", body["code"])

	svc.On("EndAuction", mock.Anything, auctionID, sellerID).Return(nil, domain.ErrInvalidState).Once()
	resp, body = do(t, app, http.MethodPost, base+"/end", seller)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_STATE", body["code"])

	svc.On("CounterOffer", mock.Anything, auctionID, sellerID, amountIs(4500)).
		Return(&application.DecisionResult{Auction: &domain.Auction{ID: auctionID, Status: domain.StatusCounterOffer}}, nil).Once()
	resp, _ = do(t, app, http.MethodPost, base+"/counter-offer", `{"sellerId":"`+sellerID.String()+`","amount":4500}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCounterOfferResponse(t *testing.T) {
	app, svc := newApp(t)
	auctionID, buyerID := uuid.New(), uuid.New()
	base := "/api/auctions/" + auctionID.String() + "/counter-offer"

	svc.On("GetCounterOffer", mock.Anything, auctionID).
		Return(&domain.CounterOffer{AuctionID: auctionID, BuyerID: buyerID, Status: domain.CounterOfferPending}, nil).Once()
	resp, body := do(t, app, http.MethodGet, base, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pending", body["status"])

	svc.On("RespondCounterOffer", mock.Anything, auctionID, buyerID, domain.CounterReject).
		Return(&application.DecisionResult{Auction: &domain.Auction{ID: auctionID, Status: domain.StatusEnded}}, nil).Once()
	resp, _ = do(t, app, http.MethodPost, base+"/respond", `{"buyerId":"`+buyerID.String()+`","action":"reject"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteBid(t *testing.T) {
	app, svc := newApp(t)
	auctionID, bidID, bidderID := uuid.New(), uuid.New(), uuid.New()

	svc.On("DeleteBid", mock.Anything, auctionID, bidID, bidderID).Return(nil).Once()
	resp, _ := do(t, app, http.MethodDelete,
		"/api/auctions/"+auctionID.String()+"/bids/"+bidID.String(),
		`{"bidderId":"`+bidderID.String()+`"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
