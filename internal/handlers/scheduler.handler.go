package handlers

import (
	"errors"
	"warrantyhub/internal/app"
	reminderController "warrantyhub/internal/controllers/reminder"
	"warrantyhub/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type SchedulerHandler struct {
	Handler
	reminderController reminderController.ReminderControllerInterface
}

func NewSchedulerHandler(app app.App, router fiber.Router) *SchedulerHandler {
	log := logger.New("handlers").File("scheduler_handler")
	return &SchedulerHandler{
		reminderController: app.Controllers.Reminder,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *SchedulerHandler) Register() {
	scheduler := h.router.Group("/scheduler", h.middleware.RequireCronSecret())
	scheduler.Get("/status", h.getStatus)
	scheduler.Post("/jobs/:name/trigger", h.triggerJob)
}

func (h *SchedulerHandler) getStatus(c *fiber.Ctx) error {
	return c.JSON(h.reminderController.SchedulerStatus())
}

func (h *SchedulerHandler) triggerJob(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("triggerJob")
	name := c.Params("name")

	run, err := h.reminderController.TriggerJob(c.UserContext(), name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrJobNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Job not found"})
		case errors.Is(err, services.ErrJobRunning):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Job is already running"})
		}
		log.Warn("manual job run failed", "job", name, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Job failed",
			"run":   run,
		})
	}

	return c.JSON(run)
}
