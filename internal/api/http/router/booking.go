package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/evcare-vn/evcare_backend/internal/api/http/handler"
)

func (r *Router) registerBookingRoutes(
	api fiber.Router,
	bh *handler.BookingHandler,
	authRequired fiber.Handler,
	staffOnly fiber.Handler,
) {
	bookings := api.Group("/booking", authRequired)

	bookings.Get("/slots/:serviceCenterId/:serviceTypeId?", bh.GetSlots)
	bookings.Get("/", bh.ListMine)
	bookings.Post("/", bh.Create)

	b := bookings.Group("/:bookingId")
	b.Get("/", bh.GetByID)
	b.Post("/confirm", bh.Confirm, staffOnly)
	b.Post("/cancel", bh.Cancel)
	b.Put("/reschedule", bh.Reschedule)
}
