package http

import (
	"github.com/cristianortiz/auctionhouse/internal/auction/application"
	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/cristianortiz/auctionhouse/internal/shared/apperr"
	"github.com/cristianortiz/auctionhouse/internal/shared/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AuctionHandler exposes the auction module over REST.
type AuctionHandler struct {
	service  application.AuctionService
	validate *validator.Validator
}

func NewAuctionHandler(service application.AuctionService, validate *validator.Validator) *AuctionHandler {
	return &AuctionHandler{service: service, validate: validate}
}

// RegisterRoutes mounts the auction routes under r, usually the /api group.
func (h *AuctionHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/auctions")
	g.Post("/", h.create)
	g.Get("/", h.list)
	g.Get("/:id", h.get)
	g.Post("/:id/bid", h.placeBid)
	g.Delete("/:id/bids/:bidId", h.deleteBid)
	g.Post("/:id/end", h.end)
	g.Post("/:id/accept", h.accept)
	g.Post("/:id/reject", h.reject)
	g.Post("/:id/counter-offer", h.counter)
	g.Get("/:id/counter-offer", h.getCounter)
	g.Post("/:id/counter-offer/respond", h.respondCounter)
}

func (h *AuctionHandler) create(c *fiber.Ctx) error {
	var req createAuctionRequest
	if err := h.validate.Bind(c, &req); err != nil {
		return err
	}
	a, err := h.service.CreateAuction(c.UserContext(), application.CreateAuctionDTO{
		SellerID:      uuid.MustParse(req.SellerID),
		Title:         req.Title,
		Description:   req.Description,
		StartingPrice: *req.StartingPrice,
		BidIncrement:  *req.BidIncrement,
		StartAt:       req.StartAt,
		EndAt:         req.EndAt,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

func (h *AuctionHandler) list(c *fiber.Ctx) error {
	status := domain.AuctionStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return apperr.Validation("status is not a known auction status")
	}
	page, err := h.service.ListAuctions(c.UserContext(), application.ListAuctionsQuery{
		Status: status,
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 0),
	})
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *AuctionHandler) get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	view, err := h.service.GetAuction(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (h *AuctionHandler) placeBid(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req placeBidRequest
	if err := h.validate.Bind(c, &req); err != nil {
		return err
	}
	accepted, err := h.service.PlaceBid(c.UserContext(), application.PlaceBidDTO{
		AuctionID: id,
		BidderID:  uuid.MustParse(req.BidderID),
		Amount:    *req.Amount,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(placeBidResponse{
		BidID:             accepted.Bid.ID,
		Amount:            accepted.Bid.Amount,
		CreatedAt:         accepted.Bid.CreatedAt,
		MinimumNextBid:    accepted.MinimumNextBid,
		CurrentHighestBid: accepted.Snapshot,
	})
}

func (h *AuctionHandler) deleteBid(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	bidID, err := paramUUID(c, "bidId")
	if err != nil {
		return err
	}
	var req deleteBidRequest
	if err := h.validate.Bind(c, &req); err != nil {
		return err
	}
	if err := h.service.DeleteBid(c.UserContext(), id, bidID, uuid.MustParse(req.BidderID)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuctionHandler) end(c *fiber.Ctx) error {
	id, sellerID, err := h.sellerAction(c)
	if err != nil {
		return err
	}
	a, err := h.service.EndAuction(c.UserContext(), id, sellerID)
	if err != nil {
		return err
	}
	return c.JSON(a)
}

func (h *AuctionHandler) accept(c *fiber.Ctx) error {
	id, sellerID, err := h.sellerAction(c)
	if err != nil {
		return err
	}
	res, err := h.service.AcceptBid(c.UserContext(), id, sellerID)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *AuctionHandler) reject(c *fiber.Ctx) error {
	id, sellerID, err := h.sellerAction(c)
	if err != nil {
		return err
	}
	res, err := h.service.RejectBid(c.UserContext(), id, sellerID)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *AuctionHandler) counter(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req counterOfferRequest
	if err := h.validate.Bind(c, &req); err != nil {
		return err
	}
	res, err := h.service.CounterOffer(c.UserContext(), id, uuid.MustParse(req.SellerID), *req.Amount)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *AuctionHandler) getCounter(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	offer, err := h.service.GetCounterOffer(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(offer)
}

func (h *AuctionHandler) respondCounter(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req respondCounterRequest
	if err := h.validate.Bind(c, &req); err != nil {
		return err
	}
	res, err := h.service.RespondCounterOffer(c.UserContext(), id, uuid.MustParse(req.BuyerID), domain.CounterResponse(req.Action))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *AuctionHandler) sellerAction(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	id, err := paramUUID(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	var req sellerRequest
	if err := h.validate.Bind(c, &req); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return id, uuid.MustParse(req.SellerID), nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation(name + " must be a valid UUID")
	}
	return id, nil
}
