package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/shelter-intake/internal/config"
	"github.com/localnerve/shelter-intake/internal/services"
	"github.com/localnerve/shelter-intake/internal/types"
	"go.uber.org/zap"
)

// SessionCookie is the Authorizer session cookie name
const SessionCookie = "cookie_session"

// SessionValidator checks a session cookie against roles and returns the user
type SessionValidator func(cookie string, roles []string) (any, error)

// Auth guards routes with Authorizer role checks
type Auth struct {
	Config   *config.Config
	Validate SessionValidator
}

// NewAuth returns an Auth that validates sessions through the Authorizer client
func NewAuth(cfg *config.Config) *Auth {
	return &Auth{Config: cfg, Validate: services.ValidateSession}
}

// Admin allows admins only: catalog changes and deletes
func (a *Auth) Admin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return a.authorize(c, []string{services.RoleAdmin}, "authorization.admin")
	}
}

// Staff allows staff and admins: intake work and client records
func (a *Auth) Staff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return a.authorize(c, []string{services.RoleStaff, services.RoleAdmin}, "authorization.staff")
	}
}

// authorize performs the authorization check
func (a *Auth) authorize(c *fiber.Ctx, roles []string, errorType string) error {
	if a.Config != nil && a.Config.AuthDisabled {
		return c.Next()
	}

	session := c.Cookies(SessionCookie)
	if session == "" {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Authorizer cookie %q not found", SessionCookie),
			Type:    errorType,
		}
	}

	if a.Config != nil && !services.IsAuthorizerInitialized() {
		if err := services.InitAuthorizer(a.Config, c.Protocol(), c.Hostname()); err != nil {
			zap.L().Error("authorizer unavailable", zap.Error(err))
			return &types.CustomError{
				Code:    fiber.StatusServiceUnavailable,
				Message: "Authorization service unavailable",
				Type:    errorType,
			}
		}
	}

	user, err := a.Validate(session, roles)
	if err != nil {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Invalid session: %v", err),
			Type:    errorType,
		}
	}

	c.Locals("user", user)
	return c.Next()
}
