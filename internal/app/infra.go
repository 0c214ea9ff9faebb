package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"

	"github.com/evcare-vn/evcare_backend/config"
	"github.com/evcare-vn/evcare_backend/pkg/email"
	"github.com/evcare-vn/evcare_backend/pkg/mongodb"
	"github.com/evcare-vn/evcare_backend/pkg/payos"
	redispkg "github.com/evcare-vn/evcare_backend/pkg/redis"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideMongoClient),
	fx.Provide(ProvideMongoDatabase),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvidePayOSClient),
)

func ProvideMongoClient(lc fx.Lifecycle, cfg *config.Config) (*mongo.Client, error) {
	client, err := mongodb.Connect(cfg.Mongo)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing mongo connection")
			return client.Disconnect(ctx)
		},
	})
	return client, nil
}

func ProvideMongoDatabase(client *mongo.Client, cfg *config.Config) *mongo.Database {
	return mongodb.Database(client, cfg.Mongo)
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.Nats.URL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvideEmailClient(cfg *config.Config) (*email.Client, error) {
	return email.NewFromCentral(cfg.Email)
}

func ProvidePayOSClient(cfg *config.Config) *payos.Client {
	return payos.New(cfg.PayOS)
}
