package response

import (
	"net/http"
	"time"

	"authcore/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// Session cookie names.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// SessionCookies writes and clears the two session cookies. Both are HttpOnly,
// Secure and scoped to the whole site.
type SessionCookies struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewSessionCookies takes the cookie lifetimes from the token lifetimes.
func NewSessionCookies(tokenService service.TokenService) *SessionCookies {
	return &SessionCookies{
		accessTTL:  tokenService.AccessTokenTTL(),
		refreshTTL: tokenService.RefreshTokenTTL(),
	}
}

// Set writes both tokens. Email flows use Lax, the OAuth redirect flow uses Strict.
func (s *SessionCookies) Set(c echo.Context, tokens *service.TokenPair, sameSite http.SameSite) {
	c.SetCookie(newCookie(AccessTokenCookie, tokens.AccessToken, int(s.accessTTL.Seconds()), sameSite))
	c.SetCookie(newCookie(RefreshTokenCookie, tokens.RefreshToken, int(s.refreshTTL.Seconds()), sameSite))
}

// Clear expires both cookies immediately.
func (s *SessionCookies) Clear(c echo.Context, sameSite http.SameSite) {
	c.SetCookie(newCookie(AccessTokenCookie, "", -1, sameSite))
	c.SetCookie(newCookie(RefreshTokenCookie, "", -1, sameSite))
}

// newCookie builds a session cookie. A negative maxAge is rendered as Max-Age=0.
func newCookie(name, value string, maxAge int, sameSite http.SameSite) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: sameSite,
	}
}

// Cookie returns the named cookie's value, or "" when absent.
func Cookie(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}

	return cookie.Value
}
