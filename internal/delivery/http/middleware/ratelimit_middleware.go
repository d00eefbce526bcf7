package middleware

import (
	"log/slog"
	"math"
	"strconv"
	"time"

	deliverycontext "authcore/internal/delivery/context"
	deliverymiddleware "authcore/internal/delivery/middleware"
	domainerrors "authcore/internal/domain/errors"
	"authcore/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// RateRule allows Limit requests per Window for one client on one route.
type RateRule struct {
	Limit  int
	Window time.Duration
}

// RateLimitMiddleware throttles clients per route through a service.RateLimiter.
type RateLimitMiddleware struct {
	limiter service.RateLimiter
	logger  *slog.Logger
}

// NewRateLimitMiddleware is the constructor for RateLimitMiddleware.
func NewRateLimitMiddleware(limiter service.RateLimiter, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, logger: logger}
}

// Check counts the request against rule under the key "<client ip>:<route>".
// Denied requests get ErrRateLimited carrying retryAfter in whole seconds and a
// Retry-After header. Limiter failures let the request through.
func (m *RateLimitMiddleware) Check(c echo.Context, route string, rule RateRule) error {
	key := deliverymiddleware.ClientIP(c) + ":" + route

	decision, err := m.limiter.Check(c.Request().Context(), key, rule.Limit, rule.Window)
	if err != nil {
		deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).Warn("Rate limiter unavailable",
			slog.String("route", route),
			slog.Any("error", err),
		)

		return nil
	}
	if decision.Allowed {
		return nil
	}

	retryAfter := retryAfterSeconds(decision.RetryAfter)
	c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(retryAfter))

	return domainerrors.ErrRateLimited.WithRetryAfter(retryAfter)
}

// retryAfterSeconds rounds up and never reports less than one second.
func retryAfterSeconds(d time.Duration) int {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		return 1
	}

	return seconds
}
