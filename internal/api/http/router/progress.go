package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/evcare-vn/evcare_backend/internal/api/http/handler"
)

func (r *Router) registerProgressRoutes(
	api fiber.Router,
	ph *handler.ProgressHandler,
	authRequired fiber.Handler,
	staffOnly fiber.Handler,
	technicianOnly fiber.Handler,
) {
	api.Get("/invoices", ph.ListMyInvoices, authRequired)

	prog := api.Group("/progress", authRequired)

	p := prog.Group("/:id")
	p.Get("/", ph.Get)
	p.Post("/inspection-quote", ph.InspectionQuote, technicianOnly)
	p.Post("/quote-response", ph.QuoteResponse)
	p.Post("/start-maintenance", ph.StartMaintenance, technicianOnly)
	p.Post("/complete-maintenance", ph.CompleteMaintenance, technicianOnly)
	p.Post("/cash-payment", ph.CashPayment, staffOnly)
}
