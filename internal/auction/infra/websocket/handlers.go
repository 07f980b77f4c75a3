package websocket

import (
	"context"
	"encoding/json"

	"github.com/cristianortiz/auctionhouse/internal/auction/application"
	"github.com/cristianortiz/auctionhouse/internal/shared/apperr"
	"github.com/cristianortiz/auctionhouse/internal/shared/logger"
	"github.com/cristianortiz/auctionhouse/internal/shared/websocket"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionWSHandler handles the ws inbound msgs wich are specific for auction module (remember is a bounded context)
type AuctionWSHandler struct {
	auctionService application.AuctionService // application layer dependency
	hub            *websocket.Hub             // shared hub dependency to send msgs
}

// NewAuctionWSHandler creates a new instance of AuctionWSHandler
func NewAuctionWSHandler(auctionService application.AuctionService, hub *websocket.Hub) *AuctionWSHandler {
	return &AuctionWSHandler{
		auctionService: auctionService,
		hub:            hub,
	}
}

// RegisterRoutes mounts the upgrade endpoints. ctx bounds the read pumps.
func (h *AuctionWSHandler) RegisterRoutes(ctx context.Context, app *fiber.App) {
	ws := app.Group("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	ws.Get("/auctions/:id", func(c *fiber.Ctx) error {
		if _, err := uuid.Parse(c.Params("id")); err != nil {
			return apperr.Validation("id must be a valid UUID")
		}
		if userID := c.Query("userId"); userID != "" {
			if _, err := uuid.Parse(userID); err != nil {
				return apperr.Validation("userId must be a valid UUID")
			}
		}
		c.Locals("room", c.Params("id"))
		c.Locals("userID", c.Query("userId"))
		return c.Next()
	}, fiberws.New(func(conn *fiberws.Conn) {
		h.serve(ctx, conn)
	}))

	ws.Get("/users/:id", func(c *fiber.Ctx) error {
		if _, err := uuid.Parse(c.Params("id")); err != nil {
			return apperr.Validation("id must be a valid UUID")
		}
		c.Locals("room", "")
		c.Locals("userID", c.Params("id"))
		return c.Next()
	}, fiberws.New(func(conn *fiberws.Conn) {
		h.serve(ctx, conn)
	}))
}

// serve runs the pumps of one connection, it returns when the peer goes away.
func (h *AuctionWSHandler) serve(ctx context.Context, conn *fiberws.Conn) {
	room, _ := conn.Locals("room").(string)
	userID, _ := conn.Locals("userID").(string)

	client := websocket.NewClient(h.hub, conn, uuid.NewString(), room, userID)
	h.hub.RegisterClient(client)

	go client.WritePump()
	client.ReadPump(ctx)
}

// ListenForMessages starts a go routine that listen the Hub inbound channel for messages and proccess every one of them
func (h *AuctionWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("AuctionWSHandler started listening for inbound messages from hub")
	for {
		select {
		case <-ctx.Done():
			log.Info("AuctionWSHandler stopped listening for inbound messages from hub")
			return
		case msg := <-h.hub.InboundMessages:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}

}

// processMesssage dispatch the message by this type
func (h *AuctionWSHandler) processMessage(ctx context.Context, client *websocket.Client, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		h.sendErrorToClient(client, apperr.Validation("invalid message format"))
		return
	}
	switch baseMsg.Type {
	case MessageTypeClientBid:
		h.handleClientBidMessage(ctx, client, baseMsg.Payload)
	default:
		h.sendErrorToClient(client, apperr.Validation("unknown message type"))
	}
}

func (h *AuctionWSHandler) handleClientBidMessage(ctx context.Context, client *websocket.Client, payload json.RawMessage) {
	var bid ClientBidPayload
	if err := json.Unmarshal(payload, &bid); err != nil {
		h.sendErrorToClient(client, apperr.Validation("invalid bid message format"))
		return
	}
	auctionID, err := uuid.Parse(client.Room)
	if err != nil {
		h.sendErrorToClient(client, apperr.Validation("connection is not watching an auction"))
		return
	}
	bidderID, err := uuid.Parse(bid.BidderID)
	if err != nil {
		h.sendErrorToClient(client, apperr.Validation("bidderId must be a valid UUID"))
		return
	}
	// an identified connection may only bid as itself
	if client.UserID != "" && client.UserID != bidderID.String() {
		h.sendErrorToClient(client, apperr.New(apperr.CodeForbidden, "bidderId does not match the connection"))
		return
	}

	accepted, err := h.auctionService.PlaceBid(ctx, application.PlaceBidDTO{
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    bid.Amount,
	})
	if err != nil {
		h.sendErrorToClient(client, err)
		return
	}

	ack := ServerBidMessage{Type: MessageTypeServerBid}
	ack.Payload.BidID = accepted.Bid.ID.String()
	ack.Payload.Amount = accepted.Bid.Amount
	ack.Payload.MinimumNextBid = accepted.MinimumNextBid
	data, err := json.Marshal(ack)
	if err != nil {
		log.Error("failed to marshal ServerBidMessage", zap.Error(err))
		return
	}
	h.hub.Reply(client, data)
}

// sendErrorToClient serializes and sends an error msg to a specific client,
// infrastructure errors are logged and masked.
func (h *AuctionWSHandler) sendErrorToClient(client *websocket.Client, cause error) {
	errMsg := ServerErrorMessage{Type: MessageTypeServerError}
	if r, ok := apperr.As(cause); ok {
		errMsg.Payload.Error = r.Message
		errMsg.Payload.Code = r.Code
		errMsg.Payload.Minimum = r.Minimum
	} else {
		log.Error("bid over websocket failed",
			zap.String("clientID", client.ID),
			zap.String("room", client.Room),
			zap.Error(cause),
		)
		errMsg.Payload.Error = "internal server error"
		errMsg.Payload.Code = apperr.CodeInternal
	}
	data, err := json.Marshal(errMsg)
	if err != nil {
		log.Error("failed to marshal ServerErrorMessage", zap.Error(err))
		return
	}
	h.hub.Reply(client, data)
}
