package http

import (
	"github.com/cristianortiz/auctionhouse/internal/notification/application"
	"github.com/cristianortiz/auctionhouse/internal/shared/apperr"
	"github.com/cristianortiz/auctionhouse/internal/shared/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type markReadRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

// NotificationHandler serves a user's notification inbox.
type NotificationHandler struct {
	service  application.NotificationService
	validate *validator.Validator
}

func NewNotificationHandler(service application.NotificationService, validate *validator.Validator) *NotificationHandler {
	return &NotificationHandler{service: service, validate: validate}
}

func (h *NotificationHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/notifications")
	g.Get("/", h.list)
	g.Post("/:id/read", h.markRead)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		return apperr.Validation("userId must be a valid UUID")
	}
	items, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"notifications": items})
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.Validation("id must be a valid UUID")
	}
	var req markReadRequest
	if err := h.validate.Bind(c, &req); err != nil {
		return err
	}
	n, err := h.service.MarkRead(c.UserContext(), uuid.MustParse(req.UserID), id)
	if err != nil {
		return err
	}
	return c.JSON(n)
}
