package middleware

import (
	"authcore/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

const (
	headerPermissionsPolicy = "Permissions-Policy"

	permissionsPolicy     = "camera=(), microphone=(), geolocation=()"
	contentSecurityPolicy = "default-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'"
	hstsMaxAge            = 31536000
)

// SecureHeaders sets the browser hardening headers on every response.
// Strict-Transport-Security is only sent outside local mode.
func SecureHeaders(cfg *config.Config) echo.MiddlewareFunc {
	secureConfig := echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ContentSecurityPolicy: contentSecurityPolicy,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}
	if !cfg.App.Local {
		secureConfig.HSTSMaxAge = hstsMaxAge
	}

	secure := echomiddleware.SecureWithConfig(secureConfig)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return secure(func(c echo.Context) error {
			c.Response().Header().Set(headerPermissionsPolicy, permissionsPolicy)

			return next(c)
		})
	}
}

// CORS allows credentialed requests from the configured frontend origins.
func CORS(cfg *config.Config) echo.MiddlewareFunc {
	return echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.App.AllowedOrigins(),
		AllowMethods:     []string{echo.GET, echo.POST, echo.PATCH, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXCSRFToken, echo.HeaderXRequestedWith},
		AllowCredentials: true,
	})
}
