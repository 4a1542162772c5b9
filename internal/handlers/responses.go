package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/shelter-intake/internal/services"
	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/localnerve/shelter-intake/internal/utils"
	"gorm.io/gorm"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ResponseHandler handles intake response routes
type ResponseHandler struct {
	DB             *gorm.DB
	DefaultFormKey string
}

type submitRequest struct {
	SessionID string         `json:"sessionId"`
	FormID    types.FlexID   `json:"formId"`
	FormKey   string         `json:"formKey"`
	ClientID  types.FlexID   `json:"clientId"`
	Answers   map[string]any `json:"answers"`
}

type updateSessionRequest struct {
	Answers map[string]any `json:"answers"`
}

type attachClientRequest struct {
	ClientID types.FlexID `json:"clientId"`
}

// SubmitResponses handles POST /api/intakeResponses
// @Summary Submit answers for a session
// @Description Stores one row per answered question. A new session id is generated when none is given.
// @Description Without clientId the answers are matched against existing clients.
// @Tags IntakeResponses
// @Accept json
// @Produce json
// @Param body body submitRequest true "Submission"
// @Success 201 {object} services.SubmitResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /intakeResponses [post]
func (h *ResponseHandler) SubmitResponses(c *fiber.Ctx) error {
	var req submitRequest
	if err := parseBody(c, &req); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	if len(req.Answers) == 0 {
		return utils.BadRequestResponse(c, "answers must not be empty")
	}

	ctx := c.UserContext()
	form, err := services.ResolveForm(ctx, h.DB, req.FormID.ID, req.FormKey, h.DefaultFormKey)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	result, err := services.SubmitResponses(ctx, h.DB, services.SubmitInput{
		SessionID: req.SessionID,
		FormID:    form.ID,
		ClientID:  req.ClientID.Ptr(),
		Answers:   req.Answers,
	})
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, result, fiber.StatusCreated)
}

// ListByForm handles GET /api/intakeResponses/form/:formId
// @Summary List materialized sessions of a form
// @Description Sessions are newest first. filter is a JSON condition tree over field keys.
// @Tags IntakeResponses
// @Produce json
// @Param formId path int true "Form ID"
// @Param search query string false "Case-insensitive text search"
// @Param page query int false "Page, 1-based"
// @Param pageSize query int false "Page size"
// @Param filter query string false "JSON filter"
// @Success 200 {object} services.SessionPage
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /intakeResponses/form/{formId} [get]
func (h *ResponseHandler) ListByForm(c *fiber.Ctx) error {
	formID, err := parseID(c, "formId")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	filter, err := parseFilter(c)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	page, err := services.MaterializeBySession(c.UserContext(), h.DB, formID, services.MaterializeQuery{
		Filter: filter,
		Search: strings.TrimSpace(c.Query("search")),
		Page:   parsePage(c),
	})
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, page, fiber.StatusOK)
}

// Export handles GET /api/intakeResponses/form/:formId/export
// @Summary Export the sessions of a form as an xlsx workbook
// @Tags IntakeResponses
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param formId path int true "Form ID"
// @Param search query string false "Case-insensitive text search"
// @Param filter query string false "JSON filter"
// @Success 200 {file} file
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /intakeResponses/form/{formId}/export [get]
func (h *ResponseHandler) Export(c *fiber.Ctx) error {
	formID, err := parseID(c, "formId")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	filter, err := parseFilter(c)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	wb, filename, err := services.ExportFormResponses(c.UserContext(), h.DB, formID, filter, strings.TrimSpace(c.Query("search")))
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	defer wb.Close()

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return utils.ServiceErrorResponse(c, fmt.Errorf("write workbook: %w", err))
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

// GetSession handles GET /api/intakeResponses/session/:sessionId
// @Summary Get one materialized session
// @Tags IntakeResponses
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /intakeResponses/session/{sessionId} [get]
func (h *ResponseHandler) GetSession(c *fiber.Ctx) error {
	rec, err := services.GetSession(c.UserContext(), h.DB, c.Params("sessionId"))
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, rec, fiber.StatusOK)
}

// UpdateSession handles PUT /api/intakeResponses/session/:sessionId
// @Summary Change answers of a session
// @Tags IntakeResponses
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param body body updateSessionRequest true "Answers"
// @Success 200 {object} services.SubmitResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /intakeResponses/session/{sessionId} [put]
func (h *ResponseHandler) UpdateSession(c *fiber.Ctx) error {
	var req updateSessionRequest
	if err := parseBody(c, &req); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	if len(req.Answers) == 0 {
		return utils.BadRequestResponse(c, "answers must not be empty")
	}

	result, err := services.UpdateSession(c.UserContext(), h.DB, c.Params("sessionId"), req.Answers)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, result, fiber.StatusOK)
}

// DeleteSession handles DELETE /api/intakeResponses/session/:sessionId
// @Summary Delete every response of a session
// @Tags IntakeResponses
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /intakeResponses/session/{sessionId} [delete]
func (h *ResponseHandler) DeleteSession(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	affected, err := services.DeleteSession(c.UserContext(), h.DB, sessionID)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	if affected == 0 {
		return utils.NotFoundResponse(c, fmt.Sprintf("session %s not found", sessionID))
	}
	return utils.MutationSuccessResponse(c, affected)
}

// AttachClient handles PATCH /api/intakeResponses/session/:sessionId/client
// @Summary Link a session to a client, or unlink it with null
// @Tags IntakeResponses
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param body body attachClientRequest true "Client"
// @Success 200 {object} map[string]any
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /intakeResponses/session/{sessionId}/client [patch]
func (h *ResponseHandler) AttachClient(c *fiber.Ctx) error {
	var req attachClientRequest
	if err := parseBody(c, &req); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	if !req.ClientID.Set {
		return utils.BadRequestResponse(c, "clientId is required, use null to unlink")
	}

	affected, err := services.AttachClient(c.UserContext(), h.DB, c.Params("sessionId"), req.ClientID.Ptr())
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.MutationSuccessResponse(c, affected)
}

// ByClient handles GET /api/intakeResponses/client/:clientId
// @Summary Merge every answer of a client into one record
// @Description Later sessions override earlier ones per field.
// @Tags IntakeResponses
// @Produce json
// @Param clientId path int true "Client ID"
// @Param formId query int false "Limit to one form"
// @Success 200 {object} map[string]any
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /intakeResponses/client/{clientId} [get]
func (h *ResponseHandler) ByClient(c *fiber.Ctx) error {
	clientID, err := parseID(c, "clientId")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	formID, err := queryUint(c, "formId")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	rec, err := services.MaterializeByClient(c.UserContext(), h.DB, clientID, formID)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, rec, fiber.StatusOK)
}
