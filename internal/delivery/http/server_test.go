package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"authcore/config"
	httpmiddleware "authcore/internal/delivery/http/middleware"
	"authcore/internal/delivery/http/response"
	"authcore/internal/delivery/http/router"
	"authcore/internal/delivery/http/router/handler"
	"authcore/internal/domain/service"
	"authcore/internal/infra/auth"
	"authcore/internal/infra/auth/github"
	"authcore/internal/infra/auth/google"
	"authcore/internal/infra/persistence/model"
	"authcore/internal/infra/persistence/postgres"
	"authcore/internal/infra/ratelimit"
	"authcore/internal/usecase/impl"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testPassword      = "correct-horse-battery"
	testRefreshSecret = "test_refresh_secret_key_very_long_for_testing"
)

// capturingSender records the verification tokens it is asked to send.
type capturingSender struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (s *capturingSender) SendVerificationEmail(_ context.Context, to, _, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[to] = token

	return nil
}

func (s *capturingSender) SendWelcomeEmail(context.Context, string, string) error {
	return nil
}

func (s *capturingSender) token(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tokens[email]
}

type testServer struct {
	echo  *echo.Echo
	email *capturingSender
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		SecretKey: config.SecretKeyConfig{
			Access:  "test_access_secret_key_very_long_for_testing",
			Refresh: testRefreshSecret,
		},
		App: &config.AppConfig{Local: true, FrontendURL: "http://app.test", APIURL: "http://api.test"},
	}
	cfg.ApplyDefaults()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
		Logger:         logger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.UserModel{}, &model.RefreshTokenModel{}))

	users := postgres.NewUserRepository(db)
	tokens := postgres.NewRefreshTokenRepository(db)
	tokenService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)
	hasher := auth.NewArgon2HasherWithParams(auth.Argon2Params{
		Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	sender := &capturingSender{tokens: map[string]string{}}

	sessions := impl.NewSessionService(impl.SessionServiceParams{RefreshTokenRepo: tokens, Config: cfg, Logger: log})
	authUsecase := impl.NewAuthService(impl.AuthServiceParams{
		TxManager:        postgres.NewTransactionManager(db),
		UserRepo:         users,
		RefreshTokenRepo: tokens,
		Hasher:           hasher,
		TokenService:     tokenService,
		EmailSender:      sender,
		Sessions:         sessions,
		Config:           cfg,
		Logger:           log,
	})
	verification := impl.NewVerificationService(impl.VerificationServiceParams{
		UserRepo:         users,
		RefreshTokenRepo: tokens,
		TokenService:     tokenService,
		EmailSender:      sender,
		Sessions:         sessions,
		Config:           cfg,
		Logger:           log,
	})
	oauth := impl.NewOAuthService(impl.OAuthServiceParams{
		Providers:        []service.OAuthProvider{github.NewOAuthService(cfg, log), google.NewOAuthService(cfg, log)},
		UserRepo:         users,
		RefreshTokenRepo: tokens,
		TokenService:     tokenService,
		Sessions:         sessions,
		Config:           cfg,
		Logger:           log,
	})
	cookies := response.NewSessionCookies(tokenService)

	e := newEcho(cfg, log, router.RouterParams{
		AuthHandler:         handler.NewAuthHandler(authUsecase, verification, cookies),
		OAuthHandler:        handler.NewOAuthHandler(oauth, cookies, cfg, log),
		UserHandler:         handler.NewUserHandler(impl.NewProfileService(users, log), sessions, cookies),
		AuthMiddleware:      httpmiddleware.NewAuthMiddleware(tokenService),
		RateLimitMiddleware: httpmiddleware.NewRateLimitMiddleware(ratelimit.NewMemoryStore(), log),
	})

	return &testServer{echo: e, email: sender}
}

func (s *testServer) do(method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func credentials(email string) string {
	return `{"email":"` + email + `","password":"` + testPassword + `"}`
}

// registerAndVerify returns the session cookies issued by verification.
func (s *testServer) registerAndVerify(t *testing.T, email string) []*http.Cookie {
	t.Helper()

	rec := s.do(http.MethodPost, "/api/auth/register", `{"email":"`+email+`","password":"`+testPassword+`","name":"Ada"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/auth/verify-email?token="+s.email.token(email), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return rec.Result().Cookies()
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}

	return nil
}

func TestServer_RegisterVerifyAndMe(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/api/auth/register", `{"email":"ada@example.com","password":"`+testPassword+`","name":"Ada"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies(), "registration must not sign the user in")
	assert.NotContains(t, rec.Body.String(), "email_verified")
	assert.NotContains(t, rec.Body.String(), "password")

	body := decode(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])

	// Login is refused until the address is verified
	rec = srv.do(http.MethodPost, "/api/auth/login", credentials("ada@example.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "EMAIL_NOT_VERIFIED", decode(t, rec)["code"])

	token := srv.email.token("ada@example.com")
	require.NotEmpty(t, token)

	rec = srv.do(http.MethodGet, "/api/auth/verify-email?token="+token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["success"])

	cookies := rec.Result().Cookies()
	access := cookieNamed(cookies, response.AccessTokenCookie)
	refresh := cookieNamed(cookies, response.RefreshTokenCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)

	rec = srv.do(http.MethodGet, "/api/user/me", "", access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, user["id"], me["id"])
	assert.Equal(t, "email", me["provider"])

	// Tokens are single use
	rec = srv.do(http.MethodGet, "/api/auth/verify-email?token="+token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_LoginRateLimit(t *testing.T) {
	srv := newTestServer(t)
	srv.registerAndVerify(t, "grace@example.com")

	for i := range 5 {
		rec := srv.do(http.MethodPost, "/api/auth/login", credentials("grace@example.com"))
		require.Equal(t, http.StatusOK, rec.Code, "attempt %d: %s", i+1, rec.Body.String())
	}

	rec := srv.do(http.MethodPost, "/api/auth/login", credentials("grace@example.com"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	body := decode(t, rec)
	retryAfter, ok := body["retryAfter"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, retryAfter, float64(1))
	assert.LessOrEqual(t, retryAfter, float64(60))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderRetryAfter))
}

func TestServer_SessionsAndRefresh(t *testing.T) {
	srv := newTestServer(t)
	cookies := srv.registerAndVerify(t, "linus@example.com")
	access := cookieNamed(cookies, response.AccessTokenCookie)
	refresh := cookieNamed(cookies, response.RefreshTokenCookie)

	rec := srv.do(http.MethodGet, "/api/user/sessions", "", access, refresh)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["total"])

	rec = srv.do(http.MethodPost, "/api/auth/refresh", "", refresh)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rotated := cookieNamed(rec.Result().Cookies(), response.RefreshTokenCookie)
	require.NotNil(t, rotated)
	assert.NotEqual(t, refresh.Value, rotated.Value)

	// The rotated-out token no longer refreshes
	rec = srv.do(http.MethodPost, "/api/auth/refresh", "", refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(http.MethodPost, "/api/auth/logout", "", rotated)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := cookieNamed(rec.Result().Cookies(), response.RefreshTokenCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, http.SameSiteStrictMode, cleared.SameSite)
}

func TestServer_RefreshWrongTokenTypeClearsCookies(t *testing.T) {
	srv := newTestServer(t)

	// Signed with the refresh secret but carrying no token type
	token, err := auth.Sign(&service.Claims{UserID: uuid.New()}, testRefreshSecret, time.Hour)
	require.NoError(t, err)

	rec := srv.do(http.MethodPost, "/api/auth/refresh", "", &http.Cookie{Name: response.RefreshTokenCookie, Value: token})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN_TYPE", decode(t, rec)["code"])

	for _, name := range []string{response.AccessTokenCookie, response.RefreshTokenCookie} {
		cleared := cookieNamed(rec.Result().Cookies(), name)
		require.NotNil(t, cleared, name)
		assert.Empty(t, cleared.Value)
		assert.Negative(t, cleared.MaxAge)
	}
}

func TestServer_RevokeAllSessions(t *testing.T) {
	srv := newTestServer(t)
	first := srv.registerAndVerify(t, "barbara@example.com")

	rec := srv.do(http.MethodPost, "/api/auth/login", credentials("barbara@example.com"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := rec.Result().Cookies()
	access := cookieNamed(second, response.AccessTokenCookie)
	require.NotNil(t, access)

	rec = srv.do(http.MethodPost, "/api/user/revoke-all", "", access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["revoked"])
	assert.NotEmpty(t, body["message"])

	cleared := cookieNamed(rec.Result().Cookies(), response.RefreshTokenCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, http.SameSiteStrictMode, cleared.SameSite)

	// Neither device can refresh any more
	for _, cookies := range [][]*http.Cookie{first, second} {
		rec = srv.do(http.MethodPost, "/api/auth/refresh", "", cookieNamed(cookies, response.RefreshTokenCookie))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec = srv.do(http.MethodGet, "/api/user/sessions", "", access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(0), decode(t, rec)["total"])

	rec = srv.do(http.MethodPost, "/api/user/revoke-all", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_Dispatch(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		status int
	}{
		{name: "unknown action", method: http.MethodPost, target: "/api/auth/teleport", status: http.StatusBadRequest},
		{name: "missing action", method: http.MethodPost, target: "/api/auth", status: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodGet, target: "/api/auth/login", status: http.StatusMethodNotAllowed},
		{name: "legacy query form", method: http.MethodGet, target: "/api/auth?action=login", status: http.StatusMethodNotAllowed},
		{name: "unauthenticated me", method: http.MethodGet, target: "/api/user/me", status: http.StatusUnauthorized},
		{name: "legacy user me", method: http.MethodGet, target: "/api/user?action=me", status: http.StatusUnauthorized},
		{name: "health", method: http.MethodGet, target: "/health", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(tt.method, tt.target, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status >= http.StatusBadRequest {
				assert.NotEmpty(t, decode(t, rec)["error"])
			}
		})
	}
}

func TestServer_LegacyLoginBeforeVerification(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/api/auth?action=register", `{"email":"ken@example.com","password":"`+testPassword+`","name":"Ken"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(http.MethodPost, "/api/auth?action=login", credentials("ken@example.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["message"])
}

func TestServer_ValidationAndSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/api/auth/register", `{"email":"nope","password":"short","name":"A"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decode(t, rec)["code"])

	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
	assert.Equal(t, "DENY", rec.Header().Get(echo.HeaderXFrameOptions))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get(echo.HeaderReferrerPolicy))
	assert.NotEmpty(t, rec.Header().Get("Permissions-Policy"))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderContentSecurityPolicy))
}

func TestServer_ResendAndCancel(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/api/auth/resend-verification", `{"email":"ghost@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "If the email exists, a verification link has been sent.", decode(t, rec)["message"])

	rec = srv.do(http.MethodPost, "/api/auth/register", `{"email":"barbara@example.com","password":"`+testPassword+`","name":"Barbara"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	token := srv.email.token("barbara@example.com")

	rec = srv.do(http.MethodPost, "/api/auth/cancel-registration", `{"token":"`+token+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Registration cancelled successfully.", decode(t, rec)["message"])

	rec = srv.do(http.MethodPost, "/api/auth/cancel-registration", `{"token":"`+token+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Registration cancelled.", decode(t, rec)["message"])
}

func TestServer_OAuthCallbackErrorsRedirect(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/api/auth/callback-github", "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://app.test/login?error=auth_failed", rec.Header().Get(echo.HeaderLocation))
}
