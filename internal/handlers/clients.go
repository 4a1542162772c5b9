package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/shelter-intake/internal/services"
	"github.com/localnerve/shelter-intake/internal/utils"
	"gorm.io/gorm"
)

// ClientHandler handles client routes
type ClientHandler struct {
	DB *gorm.DB
}

type matchResult struct {
	ClientID *uint64 `json:"clientId"`
	Matched  bool    `json:"matched"`
}

// ListClients handles GET /api/clients
// @Summary List clients
// @Tags Clients
// @Produce json
// @Param search query string false "Name, email or phone"
// @Param page query int false "Page, 1-based"
// @Param pageSize query int false "Page size"
// @Success 200 {object} services.ClientPage
// @Security CookieAuth
// @Router /clients [get]
func (h *ClientHandler) ListClients(c *fiber.Ctx) error {
	page, err := services.ListClients(c.UserContext(), h.DB, strings.TrimSpace(c.Query("search")), parsePage(c))
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, page, fiber.StatusOK)
}

// CreateClient handles POST /api/clients
// @Summary Create a client
// @Tags Clients
// @Accept json
// @Produce json
// @Param client body services.ClientInput true "Client"
// @Success 201 {object} models.Client
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clients [post]
func (h *ClientHandler) CreateClient(c *fiber.Ctx) error {
	var in services.ClientInput
	if err := parseBody(c, &in); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	client, err := services.CreateClient(c.UserContext(), h.DB, in)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, client, fiber.StatusCreated)
}

// GetClient handles GET /api/clients/:id
// @Summary Get a client
// @Tags Clients
// @Produce json
// @Param id path int true "Client ID"
// @Success 200 {object} models.Client
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clients/{id} [get]
func (h *ClientHandler) GetClient(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	client, err := services.GetClient(c.UserContext(), h.DB, id)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, client, fiber.StatusOK)
}

// UpdateClient handles PATCH /api/clients/:id
// @Summary Update a client
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path int true "Client ID"
// @Param patch body services.ClientPatch true "Changes"
// @Success 200 {object} models.Client
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clients/{id} [patch]
func (h *ClientHandler) UpdateClient(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	var patch services.ClientPatch
	if err := parseBody(c, &patch); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	client, err := services.UpdateClient(c.UserContext(), h.DB, id, patch)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, client, fiber.StatusOK)
}

// DeleteClient handles DELETE /api/clients/:id
// @Summary Delete a client no response refers to
// @Tags Clients
// @Param id path int true "Client ID"
// @Success 204
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clients/{id} [delete]
func (h *ClientHandler) DeleteClient(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	if err := services.DeleteClient(c.UserContext(), h.DB, id); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MatchClient handles POST /api/clients/match
// @Summary Find an existing client by name, phone and date of birth
// @Description All four fields are required for a match; anything less returns matched false.
// @Tags Clients
// @Accept json
// @Produce json
// @Param fields body services.ClientFields true "Identifying fields"
// @Success 200 {object} matchResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clients/match [post]
func (h *ClientHandler) MatchClient(c *fiber.Ctx) error {
	var fields services.ClientFields
	if err := parseBody(c, &fields); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	id, err := services.MatchClientFields(c.UserContext(), h.DB, fields)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, matchResult{ClientID: id, Matched: id != nil}, fiber.StatusOK)
}
