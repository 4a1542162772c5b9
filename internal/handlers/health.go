package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/shelter-intake/internal/config"
	"github.com/localnerve/shelter-intake/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports database and Authorizer reachability
type HealthHandler struct {
	DB     *gorm.DB
	Config *config.Config
}

// Health handles GET /api/health
// @Summary Service health
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	result := services.HealthCheck(c.UserContext(), h.Config, h.DB)
	status := fiber.StatusOK
	if !result.Healthy() {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
