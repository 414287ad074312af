package main

import (
	"context"
	"log/slog"
	"os"

	"authservice/config"
	"authservice/internal/delivery"
	"authservice/internal/delivery/api"
	"authservice/internal/delivery/api/middleware"
	"authservice/internal/delivery/api/router/handler"
	"authservice/internal/infra/auth"
	"authservice/internal/infra/auth/google"
	logs "authservice/internal/infra/log"
	"authservice/internal/infra/metrics"
	"authservice/internal/infra/persistence/postgres"
	"authservice/internal/infra/pubsub"
	"authservice/internal/usecase"
	"authservice/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

type seedAdminParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	AuthUC usecase.AuthUsecase
	Logger *slog.Logger
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			seedAdmin,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Options(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
			postgres.New,
			metrics.NewProm,
		),
		pubsub.Module,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			auth.NewPasswordAuthenticator,
			google.NewAuthService,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewUserHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// seedAdmin creates the configured administrator once the schema is in place.
func seedAdmin(params seedAdminParams) {
	admin := params.Config.Admin
	if admin == nil || admin.Email == "" || admin.Password == "" {
		return
	}

	params.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := params.AuthUC.EnsureAdmin(ctx, admin.Email, admin.Password); err != nil {
				params.Logger.Error("Failed to seed admin account", slog.Any("error", err))

				return err
			}

			return nil
		},
	})
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
