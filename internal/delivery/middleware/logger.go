package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"authcore/config"
	deliverycontext "authcore/internal/delivery/context"
	domainerrors "authcore/internal/domain/errors"
	"authcore/internal/errors"

	"github.com/labstack/echo/v4"
)

// healthPath is excluded from the access log.
const healthPath = "/health"

// LoggerMiddleware writes one access log line per request while debug is enabled.
type LoggerMiddleware struct {
	logger *slog.Logger
	debug  bool
}

// NewLoggerMiddleware creates a new logger middleware
func NewLoggerMiddleware(logger *slog.Logger, config *config.Config) *LoggerMiddleware {
	return &LoggerMiddleware{
		logger: logger,
		debug:  config.Env.Debug,
	}
}

// Handle processes request logging
func (m *LoggerMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !m.debug || c.Request().URL.Path == healthPath {
			return next(c)
		}

		start := time.Now()
		err := next(c)
		m.logRequest(c, start, err)

		return err
	}
}

func (m *LoggerMiddleware) logRequest(c echo.Context, start time.Time, err error) {
	req := c.Request()
	res := c.Response()

	// The error handler has not written the response yet, so derive the status from err
	status := res.Status
	if err != nil && !res.Committed {
		status = statusOf(err)
	}

	fields := []slog.Attr{
		slog.String("request_id", deliverycontext.GetRequestID(c)),
		slog.String("method", req.Method),
		slog.String("uri", req.URL.Path),
		slog.Int("status", status),
		slog.Duration("latency", time.Since(start)),
		slog.String("remote_ip", ClientIP(c)),
		slog.String("user_agent", req.UserAgent()),
	}

	// Legacy endpoints carry the action in the query string
	action := c.Param("action")
	if action == "" {
		action = c.QueryParam("action")
	}
	if action != "" {
		fields = append(fields, slog.String("action", action))
	}
	if userID, ok := deliverycontext.GetUserID(c); ok {
		fields = append(fields, slog.String("user_id", userID.String()))
	}
	if err != nil {
		fields = append(fields, slog.Any("error", err))
	}

	logLevel := slog.LevelInfo
	if status >= 400 {
		logLevel = slog.LevelWarn
	}
	if status >= 500 {
		logLevel = slog.LevelError
	}

	m.logger.LogAttrs(context.Background(), logLevel, "HTTP Request", fields...)
}

func statusOf(err error) int {
	if appErr, ok := errors.AsType[domainerrors.AppError](err); ok {
		return appErr.HTTPCode()
	}
	if httpErr, ok := errors.AsType[*echo.HTTPError](err); ok {
		return httpErr.Code
	}

	return http.StatusInternalServerError
}
