package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"authcore/config"
	deliverycontext "authcore/internal/delivery/context"
	"authcore/internal/delivery/http/response"
	"authcore/internal/domain/entity"
	domainerrors "authcore/internal/domain/errors"
	"authcore/internal/errors"
	"authcore/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	loginPath    = "/login"
	callbackPath = "/auth/callback"
)

// redirectErrors are the error codes the frontend login page understands.
var redirectErrors = map[string]bool{
	"no_code":               true,
	"token_exchange_failed": true,
	"no_user_info":          true,
	"user_creation_failed":  true,
	"auth_failed":           true,
}

// OAuthHandler starts and completes provider sign-in by redirecting the browser.
type OAuthHandler struct {
	oauth       usecase.OAuthUsecase
	cookies     *response.SessionCookies
	frontendURL string
	logger      *slog.Logger
}

// NewOAuthHandler is the constructor for OAuthHandler, injected by Fx.
func NewOAuthHandler(oauth usecase.OAuthUsecase, cookies *response.SessionCookies, cfg *config.Config, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		oauth:       oauth,
		cookies:     cookies,
		frontendURL: cfg.App.FrontendURL,
		logger:      logger,
	}
}

// Authorize returns a handler redirecting to the provider's consent page.
func (h *OAuthHandler) Authorize(provider entity.ProviderType) echo.HandlerFunc {
	return func(c echo.Context) error {
		target, err := h.oauth.AuthorizationURL(provider)
		if err != nil {
			return errors.WithStack(err)
		}

		return c.Redirect(http.StatusFound, target)
	}
}

// Callback returns a handler finishing the provider flow. Every outcome is a
// redirect to the frontend; failures carry an error query parameter.
func (h *OAuthHandler) Callback(provider entity.ProviderType) echo.HandlerFunc {
	return func(c echo.Context) error {
		out, err := h.oauth.Callback(c.Request().Context(), provider, c.QueryParam("code"))
		if err != nil {
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).Warn("OAuth callback failed",
				slog.String("provider", provider.String()),
				slog.Any("error", err),
			)

			return c.Redirect(http.StatusFound, h.frontendURL+loginPath+"?error="+redirectError(err))
		}

		h.cookies.Set(c, out.Tokens, http.SameSiteStrictMode)

		query := url.Values{"provider": {provider.String()}}

		return c.Redirect(http.StatusFound, h.frontendURL+callbackPath+"?"+query.Encode())
	}
}

func redirectError(err error) string {
	if appErr, ok := errors.AsType[domainerrors.AppError](err); ok {
		if code := strings.ToLower(appErr.ErrorCode()); redirectErrors[code] {
			return code
		}
	}

	return "auth_failed"
}
