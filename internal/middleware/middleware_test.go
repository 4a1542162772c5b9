package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/localnerve/shelter-intake/internal/config"
	"github.com/localnerve/shelter-intake/internal/middleware"
	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/localnerve/shelter-intake/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func authApp(auth *middleware.Auth) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	app.Get("/admin", auth.Admin(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user": c.Locals("user")})
	})
	app.Get("/staff", auth.Staff(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func withCookie(path, value string) *http.Request {
	req := httptest.NewRequest("GET", path, nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: value})
	return req
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	app := authApp(middleware.NewAuth(&config.Config{AuthDisabled: true}))

	resp, err := app.Test(httptest.NewRequest("GET", "/staff", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestAuthRequiresCookie(t *testing.T) {
	app := authApp(&middleware.Auth{Validate: func(string, []string) (any, error) { return "u", nil }})

	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAuthChecksRoles(t *testing.T) {
	var gotRoles []string
	auth := &middleware.Auth{Validate: func(cookie string, roles []string) (any, error) {
		gotRoles = roles
		if cookie != "good" {
			return nil, errors.New("session is not valid")
		}
		return map[string]any{"email": "staff@example.org"}, nil
	}}
	app := authApp(auth)

	resp, err := app.Test(withCookie("/staff", "good"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"staff", "admin"}, gotRoles)

	resp, err = app.Test(withCookie("/admin", "good"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"admin"}, gotRoles)

	resp, err = app.Test(withCookie("/admin", "bad"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", func(c *fiber.Ctx) error { return types.NewNotFoundError("nothing here") })

	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-1", resp.Header.Get(middleware.RequestIDHeader))

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	generated := resp.Header.Get(middleware.RequestIDHeader)
	_, err = uuid.Parse(generated)
	assert.NoError(t, err, "expected a uuid request id, got %q", generated)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, 404, entries[1].ContextMap()["status"])
	assert.Equal(t, generated, entries[1].ContextMap()["request_id"])
}
