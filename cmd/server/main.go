// main.go
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

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/shelter-intake/data"
	"github.com/localnerve/shelter-intake/internal/config"
	"github.com/localnerve/shelter-intake/internal/database"
	"github.com/localnerve/shelter-intake/internal/handlers"
	"github.com/localnerve/shelter-intake/internal/logging"
	"github.com/localnerve/shelter-intake/internal/middleware"
	"github.com/localnerve/shelter-intake/internal/services"
	"github.com/localnerve/shelter-intake/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/localnerve/shelter-intake/docs/api" // Swagger docs
)

// @title Shelter Intake API
// @version 1.0.0
// @description Dynamic intake forms, EAV responses and client reconciliation for shelter case management
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/shelter-intake
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if cfg.SeedForms {
		created, err := services.SeedForms(context.Background(), db, data.SeedForms)
		if err != nil {
			return fmt.Errorf("failed to seed forms: %w", err)
		}
		logger.Info("form catalog ready", zap.Int("seeded", created))
	}

	app := newApp(cfg, db, logger)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		logger.Info("gracefully shutting down", zap.String("signal", sig.String()))
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.Port), zap.String("db_type", cfg.DBType))
	return app.Listen(":" + cfg.Port)
}

// newApp builds the Fiber app with the global middleware, metrics, docs and API routes
func newApp(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *fiber.App {
	utils.ExposeDatabaseErrors(cfg.ExposeDBErrors)

	app := fiber.New(fiber.Config{
		ErrorHandler: utils.ErrorHandler,
		AppName:      "shelter-intake",
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(logger))
	app.Use(compress.New())

	prometheus := fiberprometheus.New("shelter_intake")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	app.Get("/swagger/*", swagger.HandlerDefault)

	auth := middleware.NewAuth(cfg)
	if cfg.AuthDisabled {
		logger.Warn("authorization is disabled, every route is open")
	} else {
		logger.Info("Authorizer will be initialized on first authenticated request", zap.String("url", cfg.AuthzURL))
	}

	handlers.RegisterRoutes(app.Group("/api"), db, cfg, auth)

	app.Use(func(c *fiber.Ctx) error {
		return utils.ErrorResponse(c, "[404] Resource Not Found", fiber.StatusNotFound, "not_found")
	})

	return app
}
