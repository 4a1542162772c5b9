package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/shelter-intake/internal/services"
	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/localnerve/shelter-intake/internal/utils"
	"gorm.io/gorm"
)

// QuestionHandler handles form question routes
type QuestionHandler struct {
	DB             *gorm.DB
	DefaultFormKey string
}

type createQuestionRequest struct {
	services.QuestionInput
	FormKey string `json:"formKey"`
}

type visibilityRequest struct {
	IsVisible *bool `json:"isVisible"`
}

// reorderItem accepts the display order in camelCase or snake_case
type reorderItem struct {
	ID                types.FlexID `json:"id"`
	DisplayOrder      *int         `json:"displayOrder"`
	DisplayOrderSnake *int         `json:"display_order"`
}

type reorderRequest struct {
	FormID types.FlexID                `json:"formId"`
	Orders types.FlexList[reorderItem] `json:"orders"`
}

// ListQuestions handles GET /api/formQuestions
// @Summary List the questions of a form
// @Description Without formId or formKey the default intake form is used.
// @Tags FormQuestions
// @Produce json
// @Param formId query int false "Form ID"
// @Param formKey query string false "Form key"
// @Param includeHidden query bool false "Include hidden questions"
// @Success 200 {array} models.FormQuestion
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /formQuestions [get]
func (h *QuestionHandler) ListQuestions(c *fiber.Ctx) error {
	formID, err := queryUint(c, "formId")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	includeHidden, err := queryBool(c, "includeHidden", false)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	ctx := c.UserContext()
	form, err := services.ResolveForm(ctx, h.DB, formID, c.Query("formKey"), h.DefaultFormKey)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	questions, err := services.ListQuestions(ctx, h.DB, form.ID, includeHidden)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, questions, fiber.StatusOK)
}

// CreateQuestion handles POST /api/formQuestions
// @Summary Add a question to a form
// @Tags FormQuestions
// @Accept json
// @Produce json
// @Param question body services.QuestionInput true "Question"
// @Success 201 {object} models.FormQuestion
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /formQuestions [post]
func (h *QuestionHandler) CreateQuestion(c *fiber.Ctx) error {
	var req createQuestionRequest
	if err := parseBody(c, &req); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	ctx := c.UserContext()
	if req.FormID == 0 && req.FormKey != "" {
		form, err := services.GetFormByKey(ctx, h.DB, req.FormKey)
		if err != nil {
			return utils.ServiceErrorResponse(c, err)
		}
		req.FormID = form.ID
	}

	q, err := services.CreateQuestion(ctx, h.DB, req.QuestionInput)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, q, fiber.StatusCreated)
}

// GetQuestion handles GET /api/formQuestions/:id
// @Summary Get a question
// @Tags FormQuestions
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} models.FormQuestion
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /formQuestions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	q, err := services.GetQuestion(c.UserContext(), h.DB, id)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, q, fiber.StatusOK)
}

// UpdateQuestion handles PATCH /api/formQuestions/:id
// @Summary Update a question
// @Description Moving a question onto an occupied display order swaps it with the holder.
// @Tags FormQuestions
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param patch body services.QuestionPatch true "Changes"
// @Success 200 {object} models.FormQuestion
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /formQuestions/{id} [patch]
func (h *QuestionHandler) UpdateQuestion(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	var patch services.QuestionPatch
	if err := parseBody(c, &patch); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	q, err := services.UpdateQuestion(c.UserContext(), h.DB, id, patch)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, q, fiber.StatusOK)
}

// SetVisibility handles PATCH /api/formQuestions/:id/visibility
// @Summary Show or hide a question
// @Tags FormQuestions
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param body body visibilityRequest true "Visibility"
// @Success 200 {object} models.FormQuestion
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /formQuestions/{id}/visibility [patch]
func (h *QuestionHandler) SetVisibility(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	var req visibilityRequest
	if err := parseBody(c, &req); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	if req.IsVisible == nil {
		return utils.BadRequestResponse(c, "isVisible is required")
	}

	q, err := services.SetVisibility(c.UserContext(), h.DB, id, *req.IsVisible)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, q, fiber.StatusOK)
}

// ReorderQuestions handles PATCH /api/formQuestions/reorder
// @Summary Set the display order of several questions at once
// @Description All orders are applied in one transaction. Returns the full question list of the form.
// @Tags FormQuestions
// @Accept json
// @Produce json
// @Param body body reorderRequest true "Orders"
// @Success 200 {array} models.FormQuestion
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /formQuestions/reorder [patch]
func (h *QuestionHandler) ReorderQuestions(c *fiber.Ctx) error {
	var req reorderRequest
	if err := parseBody(c, &req); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	orders := make([]services.QuestionOrder, 0, req.Orders.Len())
	for i, item := range req.Orders.Slice() {
		order := item.DisplayOrder
		if order == nil {
			order = item.DisplayOrderSnake
		}
		if !item.ID.Valid || order == nil {
			return utils.BadRequestResponse(c, "orders["+strconv.Itoa(i)+"] needs id and displayOrder")
		}
		orders = append(orders, services.QuestionOrder{ID: item.ID.ID, DisplayOrder: *order})
	}

	questions, err := services.ReorderQuestions(c.UserContext(), h.DB, req.FormID.ID, orders)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, questions, fiber.StatusOK)
}

// DeleteQuestion handles DELETE /api/formQuestions/:id
// @Summary Delete a question
// @Description Core questions and questions with responses cannot be deleted.
// @Tags FormQuestions
// @Param id path int true "Question ID"
// @Success 204
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /formQuestions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	if err := services.DeleteQuestion(c.UserContext(), h.DB, id); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
