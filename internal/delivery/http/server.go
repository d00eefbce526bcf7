// Package http serves the authentication API.
package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"authcore/config"
	"authcore/internal/delivery"
	httpmiddleware "authcore/internal/delivery/http/middleware"
	"authcore/internal/delivery/http/router"
	"authcore/internal/delivery/http/validator"
	"authcore/internal/delivery/middleware"
	"authcore/internal/domain/lifecycle"
	"authcore/internal/errors"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"golang.org/x/net/http2"
)

type httpServer struct {
	cfg    *config.Config
	logger *slog.Logger
	server *echo.Echo
}

// ServerParams holds dependencies for HTTP server, injected by Fx.
type ServerParams struct {
	fx.In

	Lc           fx.Lifecycle
	Cfg          *config.Config
	Logger       *slog.Logger
	RouterParams router.RouterParams
}

func NewServer(params ServerParams) (delivery.Delivery, error) {
	srv := &httpServer{
		cfg:    params.Cfg,
		logger: params.Logger,
		server: newEcho(params.Cfg, params.Logger, params.RouterParams),
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

func newEcho(cfg *config.Config, logger *slog.Logger, routerParams router.RouterParams) *echo.Echo {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Server.ReadTimeout = cfg.HTTP.Timeouts.ReadTimeout
	echoServer.Server.ReadHeaderTimeout = cfg.HTTP.Timeouts.ReadHeaderTimeout
	echoServer.Server.WriteTimeout = cfg.HTTP.Timeouts.WriteTimeout
	echoServer.Server.IdleTimeout = cfg.HTTP.Timeouts.IdleTimeout

	// Set up middleware in correct order
	// 1. Recover middleware first (to catch panics early)
	echoServer.Use(echomiddleware.Recover())

	// 2. Request ID middleware (must be before logger to include in logs)
	requestIDMiddleware := middleware.NewRequestIDMiddleware(logger)
	echoServer.Use(requestIDMiddleware.Process)

	// 3. Logger middleware
	loggerMiddleware := middleware.NewLoggerMiddleware(logger, cfg)
	echoServer.Use(loggerMiddleware.Handle)

	// 4. CORS answers preflight requests before dispatch
	echoServer.Use(httpmiddleware.CORS(cfg))

	// 5. Security headers
	echoServer.Use(httpmiddleware.SecureHeaders(cfg))

	// 6. Request body size limit
	echoServer.Use(echomiddleware.BodyLimit(cfg.HTTP.MaxRequestBodySize))

	// Set up centralized error handler
	errorMiddleware := httpmiddleware.NewErrorMiddleware(logger)
	echoServer.HTTPErrorHandler = errorMiddleware.HandleHTTPError

	// Set up validator
	echoServer.Validator = validator.New()

	router.NewRouter(routerParams).RegisterRoutes(echoServer)

	return echoServer
}

func (s *httpServer) Serve(ctx context.Context) error {
	hostPort := net.JoinHostPort("0.0.0.0", strconv.Itoa(s.cfg.HTTP.Port))
	s.logger.Info("Starting HTTP server", slog.String("host_port", hostPort))
	h2Server := &http2.Server{
		IdleTimeout: s.cfg.HTTP.Timeouts.IdleTimeout,
	}
	if err := s.server.StartH2CServer(hostPort, h2Server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithStack(err)
	}

	return nil
}

func (s *httpServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")

	return errors.WithStack(s.server.Shutdown(shutdownCtx))
}
