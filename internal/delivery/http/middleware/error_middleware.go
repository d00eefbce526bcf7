package middleware

import (
	"log/slog"
	"net/http"

	deliverycontext "authcore/internal/delivery/context"
	domainerrors "authcore/internal/domain/errors"
	"authcore/internal/errors"

	"github.com/labstack/echo/v4"
)

// ErrorMiddleware renders every error returned by a handler as a JSON object
// with at least an "error" field.
type ErrorMiddleware struct {
	logger *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger: logger,
	}
}

// HandleHTTPError handles errors as Echo's HTTPErrorHandler
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	logger := deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger)

	// Router and middleware errors raised by echo itself
	_, isAppErr := errors.AsType[domainerrors.AppError](err)
	if httpErr, ok := errors.AsType[*echo.HTTPError](err); ok && !isAppErr {
		message := http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}

		m.write(c, logger, httpErr.Code, map[string]any{"error": message})

		return
	}

	status, body := domainerrors.Body(err)
	if status >= http.StatusInternalServerError {
		// Internal causes stay in the logs
		logger.Error("Request failed",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
			slog.String("method", c.Request().Method),
		)
		delete(body, "details")
	}

	m.write(c, logger, status, body)
}

func (m *ErrorMiddleware) write(c echo.Context, logger *slog.Logger, status int, body map[string]any) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logger.Error("Failed to write error response", slog.Any("error", err))
	}
}
