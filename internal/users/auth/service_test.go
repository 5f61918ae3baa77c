// Copyright (c) 2026 Mintara. All rights reserved.

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintara/mintara/internal/platform/apperr"
	"github.com/mintara/mintara/internal/platform/sec"
	"github.com/mintara/mintara/internal/users/auth"
)

// # Test Doubles

type fakeUserRepo struct {
	users          map[string]*auth.User
	walletTaken    bool
	passwordByID   map[string]string
	verifiedByID   map[string]bool
	walletByUserID map[string]auth.LinkedWallet
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:          map[string]*auth.User{},
		passwordByID:   map[string]string{},
		verifiedByID:   map[string]bool{},
		walletByUserID: map[string]auth.LinkedWallet{},
	}
}

func (repo *fakeUserRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := repo.users[id]; ok {
		clone := *user
		if wallet, linked := repo.walletByUserID[id]; linked {
			clone.Wallet = &wallet
		}
		return &clone, nil
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range repo.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepo) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, user := range repo.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepo) Create(_ context.Context, user *auth.User) error {
	repo.users[user.ID] = user
	return nil
}

func (repo *fakeUserRepo) Update(_ context.Context, user *auth.User) error {
	repo.users[user.ID] = user
	return nil
}

func (repo *fakeUserRepo) UpdatePassword(_ context.Context, userID, newHash string) error {
	repo.passwordByID[userID] = newHash
	return nil
}

func (repo *fakeUserRepo) SoftDelete(_ context.Context, id string) error {
	delete(repo.users, id)
	return nil
}

func (repo *fakeUserRepo) MarkVerified(_ context.Context, userID string) error {
	repo.verifiedByID[userID] = true
	return nil
}

func (repo *fakeUserRepo) LinkWallet(_ context.Context, userID string, wallet auth.LinkedWallet) error {
	if repo.walletTaken {
		return apperr.Conflict("This wallet is already linked to another account")
	}
	repo.walletByUserID[userID] = wallet
	return nil
}

func (repo *fakeUserRepo) WalletAccount(_ context.Context, userID string) (string, error) {
	return repo.walletByUserID[userID].AccountID, nil
}

type fakeSessionRepo struct {
	sessions map[string]*auth.Session
	revoked  []string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*auth.Session{}}
}

func (repo *fakeSessionRepo) Create(_ context.Context, session *auth.Session) error {
	repo.sessions[session.TokenHash] = session
	return nil
}

func (repo *fakeSessionRepo) FindByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	if session, ok := repo.sessions[tokenHash]; ok {
		return session, nil
	}
	return nil, apperr.NotFound("Session")
}

func (repo *fakeSessionRepo) Revoke(_ context.Context, sessionID string) error {
	repo.revoked = append(repo.revoked, sessionID)
	return nil
}

func (repo *fakeSessionRepo) RevokeAll(_ context.Context, userID string) error {
	repo.revoked = append(repo.revoked, "all:"+userID)
	return nil
}

func (repo *fakeSessionRepo) RevokeOthers(_ context.Context, userID, currentSessionID string) error {
	repo.revoked = append(repo.revoked, "others:"+userID+":"+currentSessionID)
	return nil
}

func (repo *fakeSessionRepo) DeleteExpired(_ context.Context) error { return nil }

type fakeTokenStore struct {
	values map[string]string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{values: map[string]string{}}
}

func (store *fakeTokenStore) Set(_ context.Context, token, userID string, _ time.Duration) error {
	store.values[token] = userID
	return nil
}

func (store *fakeTokenStore) Get(_ context.Context, token string) (string, error) {
	if userID, ok := store.values[token]; ok {
		return userID, nil
	}
	return "", apperr.NotFound("Token")
}

func (store *fakeTokenStore) Delete(_ context.Context, token string) error {
	delete(store.values, token)
	return nil
}

type fakeTokenProvider struct{}

func (fakeTokenProvider) GenerateAccessToken(userID, _, _ string, _ time.Duration) (string, error) {
	return "signed-jwt-for-" + userID, nil
}

// # Harness

type harness struct {
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	service  *auth.Service
}

func newHarness() *harness {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	service := auth.NewService(users, sessions, newFakeTokenStore(), newFakeTokenStore(), fakeTokenProvider{})
	return &harness{users: users, sessions: sessions, service: service}
}

func (h *harness) seedUser(t *testing.T, id, username, email, password string) *auth.User {
	t.Helper()
	hash, err := sec.HashPassword(password)
	require.NoError(t, err)
	user := &auth.User{ID: id, Username: username, Email: email, PasswordHash: hash}
	h.users.users[id] = user
	return user
}

// # Tests

/*
TestRegister verifies enrollment of a new member and rejection of duplicate
identities with a client-safe Conflict.
*/
func TestRegister(t *testing.T) {
	t.Run("creates member with hashed password", func(t *testing.T) {
		h := newHarness()

		user, err := h.service.Register(context.Background(), auth.RegisterInput{
			Username:    "hana",
			Email:       "hana@example.com",
			Password:    "correct horse battery",
			DisplayName: "Hana",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.NotEqual(t, "correct horse battery", user.PasswordHash)
		assert.True(t, sec.CheckPasswordHash("correct horse battery", user.PasswordHash))
		assert.False(t, user.IsVerified)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		h := newHarness()
		h.seedUser(t, "user-1", "hana", "hana@example.com", "pw")

		_, err := h.service.Register(context.Background(), auth.RegisterInput{
			Username: "other", Email: "hana@example.com", Password: "pw",
		})

		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		h := newHarness()
		h.seedUser(t, "user-1", "hana", "hana@example.com", "pw")

		_, err := h.service.Register(context.Background(), auth.RegisterInput{
			Username: "hana", Email: "fresh@example.com", Password: "pw",
		})

		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	})
}

/*
TestLogin verifies credential checks and session issuance. Unknown identities
and wrong passwords must both yield the same generic Unauthorized message.
*/
func TestLogin(t *testing.T) {
	t.Run("issues access and refresh tokens", func(t *testing.T) {
		h := newHarness()
		h.seedUser(t, "user-1", "hana", "hana@example.com", "secret-pw")

		session, err := h.service.Login(context.Background(), auth.LoginInput{
			Login: "hana@example.com", Password: "secret-pw",
		})

		require.NoError(t, err)
		assert.Equal(t, "signed-jwt-for-user-1", session.AccessToken)
		assert.NotEmpty(t, session.RefreshToken)
		assert.Len(t, h.sessions.sessions, 1)
	})

	t.Run("accepts username as login", func(t *testing.T) {
		h := newHarness()
		h.seedUser(t, "user-1", "hana", "hana@example.com", "secret-pw")

		_, err := h.service.Login(context.Background(), auth.LoginInput{
			Login: "hana", Password: "secret-pw",
		})

		require.NoError(t, err)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		h := newHarness()
		h.seedUser(t, "user-1", "hana", "hana@example.com", "secret-pw")

		_, err := h.service.Login(context.Background(), auth.LoginInput{
			Login: "hana", Password: "guess",
		})

		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})

	t.Run("unknown identity is unauthorized", func(t *testing.T) {
		h := newHarness()

		_, err := h.service.Login(context.Background(), auth.LoginInput{
			Login: "nobody", Password: "guess",
		})

		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})
}

/*
TestLinkWallet verifies ledger-account linkage: format validation, the
one-wallet-one-account rule, and the refreshed profile carrying the wallet.
*/
func TestLinkWallet(t *testing.T) {
	t.Run("links and returns refreshed profile", func(t *testing.T) {
		h := newHarness()
		h.seedUser(t, "user-1", "hana", "hana@example.com", "pw")

		user, err := h.service.LinkWallet(context.Background(), "user-1", "0.0.12345", "302a300506...")

		require.NoError(t, err)
		require.NotNil(t, user.Wallet)
		assert.Equal(t, "0.0.12345", user.Wallet.AccountID)
		assert.False(t, user.Wallet.LinkedAt.IsZero())
	})

	t.Run("rejects malformed account IDs", func(t *testing.T) {
		h := newHarness()
		h.seedUser(t, "user-1", "hana", "hana@example.com", "pw")

		for _, accountID := range []string{"", "12345", "0.0.", "1.2.3", "0.0.12x"} {
			_, err := h.service.LinkWallet(context.Background(), "user-1", accountID, "key")
			require.Error(t, err, "account ID %q", accountID)
			assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
		}
	})

	t.Run("rejects empty public key", func(t *testing.T) {
		h := newHarness()
		h.seedUser(t, "user-1", "hana", "hana@example.com", "pw")

		_, err := h.service.LinkWallet(context.Background(), "user-1", "0.0.12345", "")

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("wallet held by another account conflicts", func(t *testing.T) {
		h := newHarness()
		h.seedUser(t, "user-1", "hana", "hana@example.com", "pw")
		h.users.walletTaken = true

		_, err := h.service.LinkWallet(context.Background(), "user-1", "0.0.12345", "key")

		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	})
}

/*
TestWalletAccount verifies wallet resolution, including the anonymous-caller
short circuit used by public catalogue reads.
*/
func TestWalletAccount(t *testing.T) {
	h := newHarness()
	h.seedUser(t, "user-1", "hana", "hana@example.com", "pw")
	_, err := h.service.LinkWallet(context.Background(), "user-1", "0.0.777", "key")
	require.NoError(t, err)

	account, err := h.service.WalletAccount(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "0.0.777", account)

	account, err = h.service.WalletAccount(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, account)

	account, err = h.service.WalletAccount(context.Background(), "user-unlinked")
	require.NoError(t, err)
	assert.Empty(t, account)
}

/*
TestRefreshSession verifies refresh-token rotation: the old session is revoked
and a fresh pair is issued.
*/
func TestRefreshSession(t *testing.T) {
	h := newHarness()
	h.seedUser(t, "user-1", "hana", "hana@example.com", "pw")

	login, err := h.service.Login(context.Background(), auth.LoginInput{Login: "hana", Password: "pw"})
	require.NoError(t, err)

	rotated, err := h.service.RefreshSession(context.Background(), login.RefreshToken, "ua", "127.0.0.1")

	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)
	assert.Len(t, h.sessions.revoked, 1)

	_, err = h.service.RefreshSession(context.Background(), "never-issued", "ua", "127.0.0.1")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}
