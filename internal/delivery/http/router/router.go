// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"net/http"
	"time"

	"authcore/internal/delivery/http/middleware"
	"authcore/internal/delivery/http/router/handler"
	"authcore/internal/domain/entity"
	domainerrors "authcore/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// Per client limits on the unauthenticated entry points.
var (
	loginLimit    = middleware.RateRule{Limit: 5, Window: time.Minute}
	registerLimit = middleware.RateRule{Limit: 3, Window: time.Minute}
	resendLimit   = middleware.RateRule{Limit: 2, Window: 5 * time.Minute}
)

type RouterParams struct {
	fx.In

	AuthHandler         *handler.AuthHandler
	OAuthHandler        *handler.OAuthHandler
	UserHandler         *handler.UserHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
}

// route is one action of an area.
type route struct {
	method    string
	handler   echo.HandlerFunc
	rateLimit *middleware.RateRule
	auth      bool
}

// actions maps an action name to its route.
type actions map[string]route

type area struct {
	name    string
	actions actions
	// fallback resolves actions this area does not own
	fallback *area
}

// router holds all the handlers that need to be registered.
type router struct {
	auth  *area
	oauth *area
	user  *area

	authMiddleware      *middleware.AuthMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	oauth := &area{
		name: "oauth",
		actions: actions{
			"github":          {method: http.MethodGet, handler: params.OAuthHandler.Authorize(entity.ProviderTypeGitHub)},
			"google":          {method: http.MethodGet, handler: params.OAuthHandler.Authorize(entity.ProviderTypeGoogle)},
			"callback-github": {method: http.MethodGet, handler: params.OAuthHandler.Callback(entity.ProviderTypeGitHub)},
			"callback-google": {method: http.MethodGet, handler: params.OAuthHandler.Callback(entity.ProviderTypeGoogle)},
		},
	}

	auth := &area{
		name: "auth",
		actions: actions{
			"login":               {method: http.MethodPost, handler: params.AuthHandler.Login, rateLimit: &loginLimit},
			"register":            {method: http.MethodPost, handler: params.AuthHandler.Register, rateLimit: &registerLimit},
			"logout":              {method: http.MethodPost, handler: params.AuthHandler.Logout},
			"refresh":             {method: http.MethodPost, handler: params.AuthHandler.Refresh},
			"verify-email":        {method: http.MethodGet, handler: params.AuthHandler.VerifyEmail},
			"resend-verification": {method: http.MethodPost, handler: params.AuthHandler.ResendVerification, rateLimit: &resendLimit},
			"cancel-registration": {method: http.MethodPost, handler: params.AuthHandler.CancelRegistration},
		},
		// Provider redirect URIs point at /api/auth/callback-<provider>
		fallback: oauth,
	}

	user := &area{
		name: "user",
		actions: actions{
			"me":             {method: http.MethodGet, handler: params.UserHandler.Me, auth: true},
			"sessions":       {method: http.MethodGet, handler: params.UserHandler.Sessions, auth: true},
			"revoke-session": {method: http.MethodDelete, handler: params.UserHandler.RevokeSession, auth: true},
			"revoke-all":     {method: http.MethodPost, handler: params.UserHandler.RevokeAllSessions, auth: true},
		},
	}

	return &router{
		auth:                auth,
		oauth:               oauth,
		user:                user,
		authMiddleware:      params.AuthMiddleware,
		rateLimitMiddleware: params.RateLimitMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
// Each area answers both /api/<area>/<action> and the legacy /api/<area>?action=<action>.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	for prefix, a := range map[string]*area{
		"/api/auth":       r.auth,
		"/api/auth/oauth": r.oauth,
		"/api/user":       r.user,
	} {
		e.Any(prefix, r.dispatch(a))
		e.Any(prefix+"/:action", r.dispatch(a))
	}
}

func (r *router) dispatch(a *area) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("action")
		if name == "" {
			name = c.QueryParam("action")
		}

		owner, rt, ok := a.lookup(name)
		if !ok {
			return domainerrors.ErrInvalidAction.WithDetails("unknown action: " + name)
		}

		// Throttled attempts count even when the method is wrong
		if rt.rateLimit != nil {
			if err := r.rateLimitMiddleware.Check(c, "/api/"+owner+"/"+name, *rt.rateLimit); err != nil {
				return err
			}
		}

		if c.Request().Method != rt.method {
			c.Response().Header().Set(echo.HeaderAllow, rt.method)

			return domainerrors.ErrMethodNotAllowed
		}

		next := rt.handler
		if rt.auth {
			next = r.authMiddleware.Authenticate(next)
		}

		return next(c)
	}
}

// lookup returns the name of the area owning the action and its route.
func (a *area) lookup(name string) (string, route, bool) {
	if name == "" {
		return "", route{}, false
	}
	if rt, ok := a.actions[name]; ok {
		return a.name, rt, true
	}
	if a.fallback != nil {
		return a.fallback.lookup(name)
	}

	return "", route{}, false
}
