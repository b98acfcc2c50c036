package handlers

import (
	"errors"
	"warrantyhub/internal/app"
	reminderController "warrantyhub/internal/controllers/reminder"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type ReminderHandler struct {
	Handler
	reminderController reminderController.ReminderControllerInterface
}

func NewReminderHandler(app app.App, router fiber.Router) *ReminderHandler {
	log := logger.New("handlers").File("reminder_handler")
	return &ReminderHandler{
		reminderController: app.Controllers.Reminder,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ReminderHandler) Register() {
	reminders := h.router.Group("/reminders")
	reminders.Post("/test", h.middleware.RequireCronSecret(), h.sendTestReminder)
	reminders.Get("/opt-out", h.middleware.RateLimit(publicRateLimit, publicRateBurst), h.optOut)
}

func (h *ReminderHandler) sendTestReminder(c *fiber.Ctx) error {
	var req reminderController.TestReminderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.reminderController.SendTestReminder(c.UserContext(), &req); err != nil {
		switch {
		case errors.Is(err, reminderController.ErrValidation):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, reminderController.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Machine not found"})
		case errors.Is(err, reminderController.ErrNoSchedule):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Machine has no service schedule",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to send test reminder",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *ReminderHandler) optOut(c *fiber.Ctx) error {
	response, err := h.reminderController.OptOut(c.UserContext(), c.Query("token"))
	if err != nil {
		switch {
		case errors.Is(err, reminderController.ErrInvalidToken):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "This link is invalid or has expired",
			})
		case errors.Is(err, reminderController.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Machine not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update reminder preferences",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"result":  response,
	})
}
