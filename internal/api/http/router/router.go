package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/evcare-vn/evcare_backend/config"
	"github.com/evcare-vn/evcare_backend/internal/api/http/handler"
	"github.com/evcare-vn/evcare_backend/internal/api/http/middleware"
	"github.com/evcare-vn/evcare_backend/internal/registry"
	"github.com/evcare-vn/evcare_backend/internal/service/booking"
	"github.com/evcare-vn/evcare_backend/internal/service/payment"
	"github.com/evcare-vn/evcare_backend/internal/service/progress"
	pasetotoken "github.com/evcare-vn/evcare_backend/pkg/paseto"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg         *config.Config
	BookingSvc  booking.Service
	ProgressSvc progress.Service
	PaymentSvc  payment.Service
	Registry    registry.Registry
	PasetoMgr   *pasetotoken.Manager
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Middlewares
	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.Registry)
	staffOnly := middleware.StaffOnly()
	technicianOnly := middleware.TechnicianOnly()

	// 3. Handlers
	bookingH := handler.NewBookingHandler(r.p.BookingSvc)
	progressH := handler.NewProgressHandler(r.p.ProgressSvc)
	paymentH := handler.NewPaymentHandler(r.p.PaymentSvc, r.p.Cfg.PayOS.ChecksumKey)
	presenceH := handler.NewPresenceHandler(r.p.Registry)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerBookingRoutes(api, bookingH, authRequired, staffOnly)
	r.registerProgressRoutes(api, progressH, authRequired, staffOnly, technicianOnly)
	r.registerPaymentRoutes(api, paymentH, authRequired)
	r.registerPresenceRoutes(api, presenceH, authRequired, staffOnly)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New())
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}

func (r *Router) registerPresenceRoutes(
	api fiber.Router,
	ph *handler.PresenceHandler,
	authRequired fiber.Handler,
	staffOnly fiber.Handler,
) {
	api.Get("/presence/:userId", ph.IsOnline, authRequired, staffOnly)
}
