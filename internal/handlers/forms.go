// forms.go
//
// Shelter intake case-management data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of shelter-intake.
// shelter-intake is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// shelter-intake is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with shelter-intake.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/shelter-intake/internal/services"
	"github.com/localnerve/shelter-intake/internal/utils"
	"gorm.io/gorm"
)

// FormHandler handles intake form routes
type FormHandler struct {
	DB *gorm.DB
}

// ListForms handles GET /api/intakeForms
// @Summary List intake forms
// @Tags IntakeForms
// @Produce json
// @Param activeOnly query bool false "Only active forms"
// @Success 200 {array} models.IntakeForm
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /intakeForms [get]
func (h *FormHandler) ListForms(c *fiber.Ctx) error {
	activeOnly, err := queryBool(c, "activeOnly", false)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	forms, err := services.ListForms(c.UserContext(), h.DB, activeOnly)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, forms, fiber.StatusOK)
}

// CreateForm handles POST /api/intakeForms
// @Summary Create an intake form
// @Tags IntakeForms
// @Accept json
// @Produce json
// @Param form body services.FormInput true "Form"
// @Success 201 {object} models.IntakeForm
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /intakeForms [post]
func (h *FormHandler) CreateForm(c *fiber.Ctx) error {
	var in services.FormInput
	if err := parseBody(c, &in); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	form, err := services.CreateForm(c.UserContext(), h.DB, in)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, form, fiber.StatusCreated)
}

// GetForm handles GET /api/intakeForms/:id
// @Summary Get an intake form
// @Tags IntakeForms
// @Produce json
// @Param id path int true "Form ID"
// @Success 200 {object} models.IntakeForm
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /intakeForms/{id} [get]
func (h *FormHandler) GetForm(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	form, err := services.GetForm(c.UserContext(), h.DB, id)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, form, fiber.StatusOK)
}

// UpdateForm handles PATCH /api/intakeForms/:id
// @Summary Update an intake form
// @Tags IntakeForms
// @Accept json
// @Produce json
// @Param id path int true "Form ID"
// @Param patch body services.FormPatch true "Changes"
// @Success 200 {object} models.IntakeForm
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /intakeForms/{id} [patch]
func (h *FormHandler) UpdateForm(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	var patch services.FormPatch
	if err := parseBody(c, &patch); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	form, err := services.UpdateForm(c.UserContext(), h.DB, id, patch)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, form, fiber.StatusOK)
}

// DeleteForm handles DELETE /api/intakeForms/:id
// @Summary Delete an unused intake form
// @Description Forms with questions or responses cannot be deleted; deactivate them instead.
// @Tags IntakeForms
// @Param id path int true "Form ID"
// @Success 204
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /intakeForms/{id} [delete]
func (h *FormHandler) DeleteForm(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	if err := services.DeleteForm(c.UserContext(), h.DB, id); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
