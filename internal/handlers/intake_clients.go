package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/shelter-intake/internal/services"
	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/localnerve/shelter-intake/internal/utils"
	"gorm.io/gorm"
)

// intakeClientKeys are the top-level body keys that are not dynamic answers
var intakeClientKeys = map[string]bool{
	"createdBy": true, "unitId": true, "status": true, "firstName": true,
	"lastName": true, "formId": true, "formKey": true, "dynamicFields": true,
}

// IntakeClientHandler handles intake client routes
type IntakeClientHandler struct {
	DB             *gorm.DB
	DefaultFormKey string
}

// CreateIntakeClient handles POST /api/intakeClients
// @Summary Create an intake client with its first session
// @Description Answers come from dynamicFields and from any top-level key that is not a fixed field.
// @Tags IntakeClients
// @Accept json
// @Produce json
// @Param body body services.IntakeClientInput true "Intake client"
// @Success 201 {object} services.IntakeClientResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /intakeClients [post]
func (h *IntakeClientHandler) CreateIntakeClient(c *fiber.Ctx) error {
	var in services.IntakeClientInput
	if err := parseBody(c, &in); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	var raw map[string]any
	if err := parseBody(c, &raw); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	fields := make(map[string]any)
	for k, v := range raw {
		if !intakeClientKeys[k] {
			fields[k] = v
		}
	}
	switch dynamic := raw["dynamicFields"].(type) {
	case nil:
	case map[string]any:
		for k, v := range dynamic {
			fields[k] = v
		}
	default:
		return utils.ServiceErrorResponse(c, types.NewValidationError("dynamicFields must be an object"))
	}
	in.Fields = fields

	result, err := services.CreateIntakeClient(c.UserContext(), h.DB, in, h.DefaultFormKey)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, result, fiber.StatusCreated)
}

// GetIntakeClient handles GET /api/intakeClients/:id
// @Summary Get an intake client and its answers
// @Tags IntakeClients
// @Produce json
// @Param id path int true "Intake client ID"
// @Success 200 {object} services.IntakeClientDetail
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /intakeClients/{id} [get]
func (h *IntakeClientHandler) GetIntakeClient(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	detail, err := services.GetIntakeClient(c.UserContext(), h.DB, id)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, detail, fiber.StatusOK)
}
