package middleware

import (
	"github.com/gofiber/fiber/v3"

	pasetotoken "github.com/evcare-vn/evcare_backend/pkg/paseto"
)

// StaffOnly restricts a route to staff and admin tokens.
func StaffOnly() fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, found := pasetotoken.ClaimsFromFiber(c)
		if !found {
			return unauthorized(c)
		}
		if !claims.Role.IsStaff() {
			return forbidden(c)
		}
		return c.Next()
	}
}

// TechnicianOnly restricts a route to technicians, staff and admin tokens.
// Staff pass because they cover the floor when a technician is out.
func TechnicianOnly() fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, found := pasetotoken.ClaimsFromFiber(c)
		if !found {
			return unauthorized(c)
		}
		if claims.Role != pasetotoken.RoleTechnician && !claims.Role.IsStaff() {
			return forbidden(c)
		}
		return c.Next()
	}
}
