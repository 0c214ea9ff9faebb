package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/evcare-vn/evcare_backend/internal/registry"
)

type PresenceHandler struct {
	reg registry.Registry
}

func NewPresenceHandler(reg registry.Registry) *PresenceHandler {
	return &PresenceHandler{reg: reg}
}

// GET /presence/:userId (staff)
// Presence is heartbeat-driven: an entry exists while the user keeps making
// authenticated requests and lapses on its own afterwards.
func (h *PresenceHandler) IsOnline(c fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return badRequest(c, "userId is required")
	}

	online, err := h.reg.IsOnline(c.Context(), userID)
	if err != nil {
		return internalError(c)
	}

	return ok(c, "presence", fiber.Map{"userId": userID, "online": online})
}
