package handlers

import (
	"context"
	"errors"
	"time"
	"warrantyhub/config"
	"warrantyhub/internal/database"

	"github.com/gofiber/fiber/v2"
)

const healthPingTimeout = 2 * time.Second

var errDatabaseNotInitialized = errors.New("database not initialized")

// HealthHandler reports "degraded" with a 503 when the database does not
// answer a ping.
func HealthHandler(router fiber.Router, config config.Config, db database.DB) {
	router.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		code := fiber.StatusOK

		if err := pingDatabase(c.UserContext(), db); err != nil {
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status":  status,
			"version": config.GeneralVersion,
			"service": "warrantyhub_api",
		})
	})
}

func pingDatabase(ctx context.Context, db database.DB) error {
	if db.SQL == nil {
		return errDatabaseNotInitialized
	}

	sqlDB, err := db.SQL.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
