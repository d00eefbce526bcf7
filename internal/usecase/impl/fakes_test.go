package impl

import (
	"context"
	"slices"
	"sync"
	"time"

	"authcore/internal/domain/entity"
	domainerrors "authcore/internal/domain/errors"
	"authcore/internal/domain/repository"
	"authcore/internal/domain/service"

	"github.com/google/uuid"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
	now   func() time.Time

	createErr     error
	markErr       error
	setTokenErr   error
	deleteErr     error
	lastLoginErr  error
	oauthLoginErr error
}

func newFakeUserRepo(now func() time.Time) *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User), now: now}
}

func copyUser(user *entity.User) *entity.User {
	copied := *user

	return &copied
}

func (r *fakeUserRepo) find(match func(*entity.User) bool) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if match(user) {
			return copyUser(user), nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) FindByVerificationToken(_ context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, repository.ErrUserNotFound
	}

	return r.find(func(u *entity.User) bool { return u.VerificationToken == token })
}

func (r *fakeUserRepo) FindByProviderIdentity(_ context.Context, provider entity.ProviderType, providerID string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Provider == provider && u.ProviderID == providerID })
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	if r.createErr != nil {
		return r.createErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email taken")
		}
	}

	user.ID = uuid.New()
	user.CreatedAt = r.now()
	r.users[user.ID] = copyUser(user)

	return nil
}

// put stores a user as-is, bypassing Create.
func (r *fakeUserRepo) put(user *entity.User) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = copyUser(user)

	return user
}

func (r *fakeUserRepo) update(id uuid.UUID, fn func(*entity.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	fn(user)

	return nil
}

func (r *fakeUserRepo) SetVerificationToken(_ context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	if r.setTokenErr != nil {
		return r.setTokenErr
	}

	return r.update(id, func(u *entity.User) {
		u.VerificationToken = token
		u.TokenExpiresAt = &expiresAt
	})
}

func (r *fakeUserRepo) MarkEmailVerified(_ context.Context, id uuid.UUID) error {
	if r.markErr != nil {
		return r.markErr
	}

	return r.update(id, func(u *entity.User) {
		u.EmailVerified = true
		u.VerificationToken = ""
		u.TokenExpiresAt = nil
	})
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	if r.lastLoginErr != nil {
		return r.lastLoginErr
	}

	return r.update(id, func(u *entity.User) { u.LastLogin = &at })
}

func (r *fakeUserRepo) UpdateOAuthLogin(_ context.Context, id uuid.UUID, avatarURL string, at time.Time) error {
	if r.oauthLoginErr != nil {
		return r.oauthLoginErr
	}

	return r.update(id, func(u *entity.User) {
		u.AvatarURL = avatarURL
		u.LastLogin = &at
	})
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.users, id)

	return nil
}

func (r *fakeUserRepo) get(id uuid.UUID) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil
	}

	return copyUser(user)
}

// fakeRefreshTokenRepo keeps rows in insertion order so "newest first" is the reverse.
type fakeRefreshTokenRepo struct {
	mu    sync.Mutex
	rows  []*entity.RefreshToken
	now   func() time.Time
	seq   int
	calls map[string]int

	createErr error
}

func newFakeRefreshTokenRepo(now func() time.Time) *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{now: now, calls: make(map[string]int)}
}

func (r *fakeRefreshTokenRepo) record(name string) {
	r.calls[name]++
}

func (r *fakeRefreshTokenRepo) callCount(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.calls[name]
}

func (r *fakeRefreshTokenRepo) CreateRefreshToken(_ context.Context, token *entity.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("CreateRefreshToken")

	if r.createErr != nil {
		return r.createErr
	}
	for _, row := range r.rows {
		if row.Token == token.Token {
			return domainerrors.ErrRefreshTokenInvalid.WrapMessage("duplicate token")
		}
	}

	r.seq++
	token.ID = uuid.New()
	token.CreatedAt = r.now().Add(time.Duration(r.seq) * time.Microsecond)
	copied := *token
	r.rows = append(r.rows, &copied)

	return nil
}

func (r *fakeRefreshTokenRepo) FindRefreshTokenForUser(_ context.Context, userID uuid.UUID, token string) (*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.UserID == userID && row.Token == token {
			copied := *row

			return &copied, nil
		}
	}

	return nil, repository.ErrRefreshTokenNotFound
}

func (r *fakeRefreshTokenRepo) active(userID uuid.UUID) []*entity.RefreshToken {
	now := r.now()
	var out []*entity.RefreshToken
	for i := len(r.rows) - 1; i >= 0; i-- {
		row := r.rows[i]
		if row.UserID == userID && !row.ExpiresAt.Before(now) {
			copied := *row
			out = append(out, &copied)
		}
	}

	return out
}

func (r *fakeRefreshTokenRepo) FindActiveRefreshTokensByUserID(_ context.Context, userID uuid.UUID) ([]*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.active(userID), nil
}

func (r *fakeRefreshTokenRepo) CountActiveSessionsByUserID(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.active(userID)), nil
}

func (r *fakeRefreshTokenRepo) deleteWhere(match func(*entity.RefreshToken) bool) int {
	before := len(r.rows)
	r.rows = slices.DeleteFunc(r.rows, match)

	return before - len(r.rows)
}

func (r *fakeRefreshTokenRepo) DeleteRefreshTokenByToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("DeleteRefreshTokenByToken")

	r.deleteWhere(func(row *entity.RefreshToken) bool { return row.Token == token })

	return nil
}

func (r *fakeRefreshTokenRepo) DeleteUserRefreshToken(_ context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleteWhere(func(row *entity.RefreshToken) bool { return row.UserID == userID && row.ID == id }) == 0 {
		return repository.ErrRefreshTokenNotFound
	}

	return nil
}

func (r *fakeRefreshTokenRepo) DeleteRefreshTokensByIDs(_ context.Context, ids []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deleteWhere(func(row *entity.RefreshToken) bool { return slices.Contains(ids, row.ID) })

	return nil
}

func (r *fakeRefreshTokenRepo) DeleteRefreshTokensByUserID(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deleteWhere(func(row *entity.RefreshToken) bool { return row.UserID == userID })

	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpiredRefreshTokensByUserID(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("DeleteExpiredRefreshTokensByUserID")

	now := r.now()
	r.deleteWhere(func(row *entity.RefreshToken) bool { return row.UserID == userID && row.ExpiresAt.Before(now) })

	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpiredRefreshTokens(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	return int64(r.deleteWhere(func(row *entity.RefreshToken) bool { return row.ExpiresAt.Before(now) })), nil
}

func (r *fakeRefreshTokenRepo) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rows)
}

func (r *fakeRefreshTokenRepo) hasToken(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.ContainsFunc(r.rows, func(row *entity.RefreshToken) bool { return row.Token == token })
}

type fakeRepoFactory struct {
	userRepo    repository.UserRepository
	refreshRepo repository.RefreshTokenRepository
}

func (f *fakeRepoFactory) UserRepo() repository.UserRepository {
	return f.userRepo
}

func (f *fakeRepoFactory) RefreshTokenRepo() repository.RefreshTokenRepository {
	return f.refreshRepo
}

type fakeTxManager struct {
	factory  repository.RepositoryFactory
	executed int
	err      error
}

func (tm *fakeTxManager) Execute(_ context.Context, fn func(txRepoFactory repository.RepositoryFactory) error) error {
	tm.executed++
	if tm.err != nil {
		return tm.err
	}

	return fn(tm.factory)
}

type sentEmail struct {
	To    string
	Name  string
	Token string
}

type fakeEmailSender struct {
	mu           sync.Mutex
	verification []sentEmail
	welcome      []sentEmail
	err          error
}

func (s *fakeEmailSender) SendVerificationEmail(_ context.Context, to, name, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.verification = append(s.verification, sentEmail{To: to, Name: name, Token: token})

	return nil
}

func (s *fakeEmailSender) SendWelcomeEmail(_ context.Context, to, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.welcome = append(s.welcome, sentEmail{To: to, Name: name})

	return nil
}

func (s *fakeEmailSender) lastVerificationToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.verification) == 0 {
		return ""
	}

	return s.verification[len(s.verification)-1].Token
}

type fakeOAuthProvider struct {
	provider    entity.ProviderType
	configured  bool
	user        *service.OAuthUser
	exchangeErr error
	userErr     error

	lastRedirectURI string
}

func (p *fakeOAuthProvider) GetProvider() entity.ProviderType {
	return p.provider
}

func (p *fakeOAuthProvider) Configured() bool {
	return p.configured
}

func (p *fakeOAuthProvider) BuildAuthorizationURL(redirectURI string) string {
	p.lastRedirectURI = redirectURI

	return "https://provider.test/authorize?redirect_uri=" + redirectURI
}

func (p *fakeOAuthProvider) ExchangeCodeForToken(_ context.Context, code, redirectURI string) (string, error) {
	p.lastRedirectURI = redirectURI
	if p.exchangeErr != nil {
		return "", p.exchangeErr
	}

	return "provider-token-" + code, nil
}

func (p *fakeOAuthProvider) GetUserInfo(_ context.Context, _ string) (*service.OAuthUser, error) {
	if p.userErr != nil {
		return nil, p.userErr
	}
	if p.user == nil {
		return nil, nil
	}
	copied := *p.user

	return &copied, nil
}
