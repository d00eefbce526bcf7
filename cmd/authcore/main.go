package main

import (
	"context"
	"log/slog"
	"os"

	"authcore/config"
	"authcore/internal/delivery"
	"authcore/internal/delivery/http"
	"authcore/internal/delivery/http/middleware"
	"authcore/internal/delivery/http/response"
	"authcore/internal/delivery/http/router/handler"
	"authcore/internal/delivery/worker"
	"authcore/internal/domain/service"
	"authcore/internal/infra/auth"
	"authcore/internal/infra/auth/github"
	"authcore/internal/infra/auth/google"
	logs "authcore/internal/infra/log"
	"authcore/internal/infra/mail"
	"authcore/internal/infra/persistence/postgres"
	"authcore/internal/infra/ratelimit"
	"authcore/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
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
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		ratelimit.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewRefreshTokenRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewArgon2Hasher,
			auth.NewJWTService,
			mail.NewSender,
			fx.Annotate(
				github.NewOAuthService,
				fx.As(new(service.OAuthProvider)),
				fx.ResultTags(`group:"oauthProviders"`),
			),
			fx.Annotate(
				google.NewOAuthService,
				fx.As(new(service.OAuthProvider)),
				fx.ResultTags(`group:"oauthProviders"`),
			),
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewVerificationService,
			impl.NewOAuthService,
			impl.NewProfileService,
			impl.NewSessionService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewRateLimitMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			response.NewSessionCookies,
			handler.NewAuthHandler,
			handler.NewOAuthHandler,
			handler.NewUserHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
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
