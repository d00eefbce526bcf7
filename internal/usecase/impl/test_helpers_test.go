package impl

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"authcore/config"
	"authcore/internal/domain/entity"
	"authcore/internal/domain/service"
	"authcore/internal/infra/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testAPIURL = "http://api.test"

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig(maxActiveSessions int) *config.Config {
	cfg := &config.Config{
		SecretKey: config.SecretKeyConfig{
			Access:  "test_access_secret_key_very_long_for_testing",
			Refresh: "test_refresh_secret_key_very_long_for_testing",
		},
		Auth: &config.AuthConfig{
			MaxActiveSessions: maxActiveSessions,
		},
		App: &config.AppConfig{APIURL: testAPIURL},
	}
	cfg.ApplyDefaults()

	return cfg
}

// testClock is a settable time source shared by the services and fakes.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type testEnv struct {
	cfg     *config.Config
	clock   *testClock
	users   *fakeUserRepo
	tokens  *fakeRefreshTokenRepo
	tx      *fakeTxManager
	email   *fakeEmailSender
	hasher  service.PasswordHasher
	jwt     service.TokenService
	github  *fakeOAuthProvider
	google  *fakeOAuthProvider
	session *sessionService
	auth    *authService
	verify  *verificationService
	oauth   *oauthService
}

func newTestEnv(t *testing.T, maxActiveSessions int) *testEnv {
	t.Helper()

	cfg := newTestConfig(maxActiveSessions)
	jwtService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	clock := &testClock{now: time.Now().UTC()}
	users := newFakeUserRepo(clock.Now)
	tokens := newFakeRefreshTokenRepo(clock.Now)
	env := &testEnv{
		cfg:    cfg,
		clock:  clock,
		users:  users,
		tokens: tokens,
		tx:     &fakeTxManager{factory: &fakeRepoFactory{userRepo: users, refreshRepo: tokens}},
		email:  &fakeEmailSender{},
		hasher: auth.NewArgon2HasherWithParams(auth.Argon2Params{
			Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
		}),
		jwt:    jwtService,
		github: &fakeOAuthProvider{provider: entity.ProviderTypeGitHub, configured: true},
		google: &fakeOAuthProvider{provider: entity.ProviderTypeGoogle, configured: true},
	}

	logger := newDiscardLogger()
	env.session = newSessionService(SessionServiceParams{
		RefreshTokenRepo: tokens,
		Config:           cfg,
		Logger:           logger,
	})

	env.auth = newAuthService(AuthServiceParams{
		TxManager:        env.tx,
		UserRepo:         users,
		RefreshTokenRepo: tokens,
		Hasher:           env.hasher,
		TokenService:     jwtService,
		EmailSender:      env.email,
		Sessions:         env.session,
		Config:           cfg,
		Logger:           logger,
	})
	env.auth.now = clock.Now

	env.verify = newVerificationService(VerificationServiceParams{
		UserRepo:         users,
		RefreshTokenRepo: tokens,
		TokenService:     jwtService,
		EmailSender:      env.email,
		Sessions:         env.session,
		Config:           cfg,
		Logger:           logger,
	})
	env.verify.now = clock.Now

	env.oauth = newOAuthService(OAuthServiceParams{
		Providers:        []service.OAuthProvider{env.github, env.google},
		UserRepo:         users,
		RefreshTokenRepo: tokens,
		TokenService:     jwtService,
		Sessions:         env.session,
		Config:           cfg,
		Logger:           logger,
	})
	env.oauth.now = clock.Now

	return env
}

// seedVerifiedUser stores an email account that can log in with password.
func (env *testEnv) seedVerifiedUser(t *testing.T, email, password string) *entity.User {
	t.Helper()

	hash, err := env.hasher.Hash(password)
	require.NoError(t, err)

	return env.users.put(&entity.User{
		Email:         email,
		Name:          "Ann",
		PasswordHash:  hash,
		Provider:      entity.ProviderTypeEmail,
		EmailVerified: true,
		CreatedAt:     env.clock.Now(),
	})
}

// seedSession stores a refresh token row for userID expiring after ttl.
func (env *testEnv) seedSession(t *testing.T, user *entity.User, ttl time.Duration) *entity.RefreshToken {
	t.Helper()

	row := &entity.RefreshToken{
		UserID:    user.ID,
		Token:     "seed-" + uuid.NewString(),
		ExpiresAt: env.clock.Now().Add(ttl),
	}
	require.NoError(t, env.tokens.CreateRefreshToken(t.Context(), row))

	return row
}
