package app

import (
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/evcare-vn/evcare_backend/config"
	"github.com/evcare-vn/evcare_backend/internal/registry"
	"github.com/evcare-vn/evcare_backend/internal/service/booking"
	"github.com/evcare-vn/evcare_backend/internal/service/inventory"
	"github.com/evcare-vn/evcare_backend/internal/service/notification"
	"github.com/evcare-vn/evcare_backend/internal/service/payment"
	"github.com/evcare-vn/evcare_backend/internal/service/progress"
	"github.com/evcare-vn/evcare_backend/internal/store"
	pasetotoken "github.com/evcare-vn/evcare_backend/pkg/paseto"
	"github.com/evcare-vn/evcare_backend/pkg/payos"
)

// ServiceModule provides the stores and application services.
var ServiceModule = fx.Module("services",
	fx.Provide(
		store.NewAppointmentStore,
		store.NewCatalogStore,
		store.NewPackageStore,
		store.NewPaymentStore,
		store.NewProgressStore,
		store.NewScheduleStore,
		store.NewInventoryStore,
		store.NewInvoiceStore,

		ProvideRegistry,
		ProvideNotificationService,
		ProvideInventoryService,
		ProvidePaymentService,
		ProvideProgressService,
		ProvideBookingService,
		ProvidePasetoManager,
	),
)

func ProvideRegistry(rdb *redis.Client) registry.Registry {
	return registry.NewRedis(rdb, registry.DefaultTTL)
}

func ProvideNotificationService(nc *nats.Conn) notification.Service {
	return notification.New(nc, slog.Default())
}

func ProvideInventoryService(holds *store.InventoryStore, cfg *config.Config) inventory.Service {
	return inventory.New(holds, cfg.Booking, slog.Default())
}

func ProvidePaymentService(
	payments *store.PaymentStore,
	appts *store.AppointmentStore,
	gateway *payos.Client,
	notifier notification.Service,
	cfg *config.Config,
) payment.Service {
	return payment.New(payments, appts, gateway, notifier, cfg.PayOS, slog.Default())
}

func ProvideProgressService(
	appts *store.AppointmentStore,
	prog *store.ProgressStore,
	schedules *store.ScheduleStore,
	invoices *store.InvoiceStore,
	catalog *store.CatalogStore,
	reserver inventory.Service,
	notifier notification.Service,
	cfg *config.Config,
) progress.Service {
	return progress.New(appts, prog, schedules, invoices, catalog, reserver, notifier, cfg.Booking, slog.Default())
}

func ProvideBookingService(
	appts *store.AppointmentStore,
	catalog *store.CatalogStore,
	packages *store.PackageStore,
	payments payment.Service,
	inv inventory.Service,
	notifier notification.Service,
	cfg *config.Config,
) booking.Service {
	return booking.New(appts, catalog, packages, payments, inv, notifier, cfg.Booking, slog.Default())
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}
