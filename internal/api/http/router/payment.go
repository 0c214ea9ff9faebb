package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/evcare-vn/evcare_backend/internal/api/http/handler"
)

func (r *Router) registerPaymentRoutes(
	api fiber.Router,
	ph *handler.PaymentHandler,
	authRequired fiber.Handler,
) {
	// Public: gateway callback and browser return targets (no auth)
	api.Post("/payments/webhook", ph.Webhook)
	api.Get("/payments/success", ph.Success)
	api.Get("/payments/cancel", ph.Cancel)

	payments := api.Group("/payments", authRequired)
	payments.Get("/sync/:orderCode", ph.Sync)
	payments.Get("/:orderCode", ph.GetByOrderCode)
}
