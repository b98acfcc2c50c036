package handlers

import (
	"errors"
	"warrantyhub/internal/app"
	warrantyController "warrantyhub/internal/controllers/warranty"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type WarrantyHandler struct {
	Handler
	warrantyController warrantyController.WarrantyControllerInterface
}

func NewWarrantyHandler(app app.App, router fiber.Router) *WarrantyHandler {
	log := logger.New("handlers").File("warranty_handler")
	return &WarrantyHandler{
		warrantyController: app.Controllers.Warranty,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *WarrantyHandler) Register() {
	machines := h.router.Group("/machines")
	machines.Get("/:id/warranty", h.getWarrantyStatus)
	machines.Get("/serial/:serial/warranty", h.getWarrantyStatusBySerial)
}

func (h *WarrantyHandler) getWarrantyStatus(c *fiber.Ctx) error {
	status, err := h.warrantyController.GetWarrantyStatus(c.UserContext(), c.Params("id"))
	return h.respond(c, status, err, "Invalid machine ID")
}

func (h *WarrantyHandler) getWarrantyStatusBySerial(c *fiber.Ctx) error {
	status, err := h.warrantyController.GetWarrantyStatusBySerial(c.UserContext(), c.Params("serial"))
	return h.respond(c, status, err, "Invalid serial number")
}

func (h *WarrantyHandler) respond(
	c *fiber.Ctx,
	status *warrantyController.WarrantyStatusResponse,
	err error,
	invalidMessage string,
) error {
	if err != nil {
		switch {
		case errors.Is(err, warrantyController.ErrValidation):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": invalidMessage})
		case errors.Is(err, warrantyController.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Machine not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load warranty status",
		})
	}

	return c.JSON(status)
}
