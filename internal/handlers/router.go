package handlers

import (
	"errors"
	"warrantyhub/internal/app"
	"warrantyhub/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// Public write endpoints allow a short burst per client IP, refilling at
// one request per second.
const (
	publicRateLimit = rate.Limit(1)
	publicRateBurst = 20
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	if app == nil {
		return errors.New("app is nil")
	}

	api := router.Group("/api")
	HealthHandler(api, app.Config, app.Database)
	NewCronHandler(*app, api).Register()
	NewActionLogHandler(*app, api).Register()
	NewWarrantyHandler(*app, api).Register()
	NewReminderHandler(*app, api).Register()
	NewSchedulerHandler(*app, api).Register()

	return nil
}
