package http

import (
	"github.com/cristianortiz/auctionhouse/internal/shared/apperr"
	"github.com/cristianortiz/auctionhouse/internal/shared/validator"
	"github.com/cristianortiz/auctionhouse/internal/user/application"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type createGuestRequest struct {
	DisplayName string `json:"displayName" validate:"required,max=80"`
	Email       string `json:"email" validate:"required,email"`
}

type UserHandler struct {
	service  application.UserService
	validate *validator.Validator
}

func NewUserHandler(service application.UserService, validate *validator.Validator) *UserHandler {
	return &UserHandler{service: service, validate: validate}
}

func (h *UserHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/users")
	g.Post("/guest", h.createGuest)
	g.Get("/:id", h.get)
}

func (h *UserHandler) createGuest(c *fiber.Ctx) error {
	var req createGuestRequest
	if err := h.validate.Bind(c, &req); err != nil {
		return err
	}
	user, err := h.service.CreateGuest(c.UserContext(), req.DisplayName, req.Email)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *UserHandler) get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.Validation("id must be a valid UUID")
	}
	user, err := h.service.GetUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(user)
}
