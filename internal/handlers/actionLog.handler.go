package handlers

import (
	"errors"
	"warrantyhub/internal/app"
	actionLogController "warrantyhub/internal/controllers/actionLog"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type ActionLogHandler struct {
	Handler
	actionLogController actionLogController.ActionLogControllerInterface
}

func NewActionLogHandler(app app.App, router fiber.Router) *ActionLogHandler {
	log := logger.New("handlers").File("actionLog_handler")
	return &ActionLogHandler{
		actionLogController: app.Controllers.ActionLog,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ActionLogHandler) Register() {
	actions := h.router.Group("/actions")
	actions.Post("/log", h.middleware.RateLimit(publicRateLimit, publicRateBurst), h.logAction)
	actions.Get("/log", h.middleware.RequireCronSecret(), h.listActions)
	actions.Get("/stats", h.middleware.RequireCronSecret(), h.getStats)
}

func actionLogError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, actionLogController.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, actionLogController.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, actionLogController.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
	}
}

func (h *ActionLogHandler) logAction(c *fiber.Ctx) error {
	var req actionLogController.LogActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	action, err := h.actionLogController.LogAction(c.UserContext(), &req, h.middleware.IsOperator(c))
	if err != nil {
		return actionLogError(c, err, "Failed to log action")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"action":  action,
	})
}

func (h *ActionLogHandler) listActions(c *fiber.Ctx) error {
	var query actionLogController.ListActionsQuery
	if err := c.QueryParser(&query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid query parameters",
		})
	}

	actions, err := h.actionLogController.ListActions(c.UserContext(), &query)
	if err != nil {
		return actionLogError(c, err, "Failed to list actions")
	}

	return c.JSON(fiber.Map{
		"actions": actions,
		"count":   len(actions),
	})
}

func (h *ActionLogHandler) getStats(c *fiber.Ctx) error {
	stats, err := h.actionLogController.GetStats(c.UserContext(), c.Query("from"), c.Query("to"))
	if err != nil {
		return actionLogError(c, err, "Failed to load action stats")
	}

	return c.JSON(stats)
}
