package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/evcare-vn/evcare_backend/internal/registry"
	pasetotoken "github.com/evcare-vn/evcare_backend/pkg/paseto"
)

// AuthRequired validates a Bearer PASETO access token. On success it stores
// *pasetotoken.Claims in c.Locals(pasetotoken.CtxKeyClaims) and refreshes the
// caller's presence entry, so every authenticated request doubles as a
// heartbeat.
func AuthRequired(mgr *pasetotoken.Manager, reg registry.Registry) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return unauthorized(c)
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return unauthorized(c)
		}

		claims, err := mgr.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			return unauthorized(c)
		}

		if err := reg.Register(c.Context(), claims.UserID); err != nil {
			slog.Warn("presence heartbeat failed", "user_id", claims.UserID, "err", err)
		}

		c.Locals(pasetotoken.CtxKeyClaims, claims)
		return c.Next()
	}
}
