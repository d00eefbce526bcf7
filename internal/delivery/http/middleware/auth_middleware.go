package middleware

import (
	"strings"

	deliverycontext "authcore/internal/delivery/context"
	"authcore/internal/delivery/http/response"
	domainerrors "authcore/internal/domain/errors"
	"authcore/internal/domain/service"

	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// AuthMiddleware authenticates requests with the stateless access token.
type AuthMiddleware struct {
	tokenSvc service.TokenService
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

// Authenticate reads the access token from its cookie, falling back to an
// Authorization: Bearer header, and records the user ID for the handlers.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := accessToken(c)
		if token == "" {
			return domainerrors.ErrNotAuthenticated
		}

		claims, err := m.tokenSvc.ValidateAccessToken(token)
		if err != nil {
			return domainerrors.ErrInvalidToken
		}

		deliverycontext.SetUserID(c, claims.UserID)

		return next(c)
	}
}

func accessToken(c echo.Context) string {
	if token := response.Cookie(c, response.AccessTokenCookie); token != "" {
		return token
	}

	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, bearerPrefix); ok {
		return strings.TrimSpace(token)
	}

	return ""
}
