package utils

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/shelter-intake/internal/types"
	"go.uber.org/zap"
)

// SuccessResponse sends a standard success response
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// ErrorResponse sends the standard error envelope
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// StatusForKind maps a service error kind to its HTTP status
func StatusForKind(kind types.ErrorKind) int {
	switch kind {
	case types.KindValidation, types.KindForbidden, types.KindConflict:
		return fiber.StatusBadRequest
	case types.KindDuplicate:
		return fiber.StatusConflict
	case types.KindNotFound:
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

var exposeDatabaseErrors atomic.Bool

// ExposeDatabaseErrors sets whether 500 responses carry the error text
// instead of a generic message
func ExposeDatabaseErrors(expose bool) {
	exposeDatabaseErrors.Store(expose)
}

// ServiceErrorResponse renders an error returned by the services package.
// Database and unclassified errors are logged and reported without their
// driver detail unless ExposeDatabaseErrors is on.
func ServiceErrorResponse(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ErrorResponse(c, fe.Message, fe.Code, "request")
	}

	var ce *types.CustomError
	if !errors.As(err, &ce) || ce.Kind == "" || ce.Kind == types.KindDatabase {
		zap.L().Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		message := "Internal server error"
		if exposeDatabaseErrors.Load() {
			message = err.Error()
		}
		return ErrorResponse(c, message, fiber.StatusInternalServerError, string(types.KindDatabase))
	}

	return ErrorResponse(c, ce.Message, StatusForKind(ce.Kind), string(ce.Kind))
}

// BadRequestResponse sends a 400 for a malformed request
func BadRequestResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, message, fiber.StatusBadRequest, string(types.KindValidation))
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	})
}

// MutationSuccessResponse sends a success response for bulk mutations
func MutationSuccessResponse(c *fiber.Ctx, affectedRows int64) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":      "Success",
		"ok":           true,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"affectedRows": affectedRows,
	})
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
}

// SuccessResponseStruct defines the schema for mutation success responses
type SuccessResponseStruct struct {
	Message      string `json:"message"`
	Ok           bool   `json:"ok"`
	Timestamp    string `json:"timestamp"`
	AffectedRows int64  `json:"affectedRows"`
}

// ErrorHandler is the Fiber error handler. Errors carrying an explicit HTTP
// code keep it; service errors are mapped by kind.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var ce *types.CustomError
	if errors.As(err, &ce) && ce.Code != 0 {
		return ErrorResponse(c, ce.Message, ce.Code, ce.Type)
	}
	return ServiceErrorResponse(c, err)
}
