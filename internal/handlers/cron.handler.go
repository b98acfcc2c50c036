package handlers

import (
	"errors"
	"warrantyhub/internal/app"
	reminderController "warrantyhub/internal/controllers/reminder"
	"warrantyhub/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type CronHandler struct {
	Handler
	reminderController reminderController.ReminderControllerInterface
}

func NewCronHandler(app app.App, router fiber.Router) *CronHandler {
	log := logger.New("handlers").File("cron_handler")
	return &CronHandler{
		reminderController: app.Controllers.Reminder,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *CronHandler) Register() {
	cron := h.router.Group("/cron-trigger", h.middleware.RequireCronSecret())
	cron.Get("", h.trigger)
	cron.Post("", h.trigger)
}

func (h *CronHandler) trigger(c *fiber.Ctx) error {
	response, err := h.reminderController.TriggerReminders(c.UserContext())
	if err != nil {
		if errors.Is(err, services.ErrJobRunning) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Reminder run already in progress",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process reminders",
		})
	}

	return c.JSON(response)
}
