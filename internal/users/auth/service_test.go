// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package auth_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apchapcomputing/newsletter2paper/internal/platform/apperr"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/sec"
	"github.com/apchapcomputing/newsletter2paper/internal/users/auth"
)

// # Test Doubles

// memoryUserRepository keeps accounts in a map keyed by normalized email.
type memoryUserRepository struct {
	byID    map[string]*auth.User
	byEmail map[string]*auth.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{
		byID:    make(map[string]*auth.User),
		byEmail: make(map[string]*auth.User),
	}
}

func (repository *memoryUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, ok := repository.byID[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (repository *memoryUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	user, ok := repository.byEmail[email]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (repository *memoryUserRepository) Create(_ context.Context, user *auth.User) error {
	if _, exists := repository.byEmail[user.Email]; exists {
		return apperr.Conflict("Email is already registered")
	}
	clone := *user
	repository.byID[user.ID] = &clone
	repository.byEmail[user.Email] = &clone
	return nil
}

func (repository *memoryUserRepository) UpdatePassword(_ context.Context, userID, newHash string) error {
	user, ok := repository.byID[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.PasswordHash = newHash
	return nil
}

func (repository *memoryUserRepository) MarkVerified(_ context.Context, userID string) error {
	user, ok := repository.byID[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.IsVerified = true
	return nil
}

// memorySessionRepository tracks refresh sessions by their token hash.
type memorySessionRepository struct {
	sessions map[string]*auth.Session // keyed by session ID
	revoked  []string
}

func newMemorySessionRepository() *memorySessionRepository {
	return &memorySessionRepository{sessions: make(map[string]*auth.Session)}
}

func (repository *memorySessionRepository) Create(_ context.Context, session *auth.Session) error {
	clone := *session
	repository.sessions[session.ID] = &clone
	return nil
}

func (repository *memorySessionRepository) FindByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	for _, session := range repository.sessions {
		if session.TokenHash == tokenHash && !session.IsRevoked && session.ExpiresAt.After(time.Now()) {
			clone := *session
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Session")
}

func (repository *memorySessionRepository) Revoke(_ context.Context, sessionID string) error {
	session, ok := repository.sessions[sessionID]
	if !ok {
		return apperr.NotFound("Session")
	}
	session.IsRevoked = true
	repository.revoked = append(repository.revoked, sessionID)
	return nil
}

func (repository *memorySessionRepository) RevokeAll(_ context.Context, userID string) error {
	for _, session := range repository.sessions {
		if session.UserID == userID {
			session.IsRevoked = true
		}
	}
	return nil
}

func (repository *memorySessionRepository) DeleteExpired(_ context.Context) error { return nil }

func (repository *memorySessionRepository) active() []*auth.Session {
	var result []*auth.Session
	for _, session := range repository.sessions {
		if !session.IsRevoked {
			result = append(result, session)
		}
	}
	return result
}

// memoryMagicTokenRepository stores magic-link tokens in memory.
type memoryMagicTokenRepository struct {
	tokens map[string]string // token -> email
}

func newMemoryMagicTokenRepository() *memoryMagicTokenRepository {
	return &memoryMagicTokenRepository{tokens: make(map[string]string)}
}

func (repository *memoryMagicTokenRepository) Set(_ context.Context, token, email string, _ time.Duration) error {
	repository.tokens[token] = email
	return nil
}

func (repository *memoryMagicTokenRepository) Get(_ context.Context, token string) (string, error) {
	email, ok := repository.tokens[token]
	if !ok {
		return "", apperr.NotFound("Token")
	}
	return email, nil
}

func (repository *memoryMagicTokenRepository) Delete(_ context.Context, token string) error {
	delete(repository.tokens, token)
	return nil
}

// memoryGuestRepository tracks live guest session tokens.
type memoryGuestRepository struct {
	tokens  map[string]bool
	deleted []string
}

func newMemoryGuestRepository() *memoryGuestRepository {
	return &memoryGuestRepository{tokens: make(map[string]bool)}
}

func (repository *memoryGuestRepository) Issue(_ context.Context, token string) error {
	repository.tokens[token] = true
	return nil
}

func (repository *memoryGuestRepository) Delete(_ context.Context, token string) error {
	delete(repository.tokens, token)
	repository.deleted = append(repository.deleted, token)
	return nil
}

// fakeTokenProvider issues deterministic access tokens.
type fakeTokenProvider struct {
	issued int
}

func (provider *fakeTokenProvider) GenerateAccessToken(userID, _ string, _ time.Duration) (string, error) {
	provider.issued++
	return fmt.Sprintf("access-token-%s-%d", userID, provider.issued), nil
}

// fakeDraftMigrator records guest migrations and can be told to fail.
type fakeDraftMigrator struct {
	guestKeys    []string
	userIDs      []string
	targetEmails []string
	err          error
}

func (migrator *fakeDraftMigrator) MigrateGuest(_ context.Context, guestKey, userID, targetEmail string) error {
	if migrator.err != nil {
		return migrator.err
	}
	migrator.guestKeys = append(migrator.guestKeys, guestKey)
	migrator.userIDs = append(migrator.userIDs, userID)
	migrator.targetEmails = append(migrator.targetEmails, targetEmail)
	return nil
}

// authFixture bundles the service with every double so tests can inspect state.
type authFixture struct {
	service  *auth.Service
	users    *memoryUserRepository
	sessions *memorySessionRepository
	magic    *memoryMagicTokenRepository
	guests   *memoryGuestRepository
	migrator *fakeDraftMigrator
}

func newAuthFixture() *authFixture {
	fixture := &authFixture{
		users:    newMemoryUserRepository(),
		sessions: newMemorySessionRepository(),
		magic:    newMemoryMagicTokenRepository(),
		guests:   newMemoryGuestRepository(),
		migrator: &fakeDraftMigrator{},
	}
	fixture.service = auth.NewService(
		fixture.users,
		fixture.sessions,
		fixture.magic,
		fixture.guests,
		&fakeTokenProvider{},
		fixture.migrator,
		"https://newsletter2paper.app/auth/verify",
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return fixture
}

// register enrolls a user through the real flow so password hashes are genuine.
func (fixture *authFixture) register(t *testing.T, email, password string) *auth.User {
	t.Helper()
	user, err := fixture.service.Register(context.Background(), auth.RegisterInput{
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

// # Registration

/*
TestService_Register covers enrollment, email normalization, and the
duplicate-account guard.
*/
func TestService_Register(t *testing.T) {
	t.Run("creates_account_with_hashed_password", func(t *testing.T) {
		fixture := newAuthFixture()

		user, err := fixture.service.Register(context.Background(), auth.RegisterInput{
			Email:       "  Reader@Example.COM ",
			Password:    "correct horse battery",
			DisplayName: "Reader",
		})

		require.NoError(t, err)
		assert.Equal(t, "reader@example.com", user.Email)
		assert.NotEmpty(t, user.ID)
		assert.NotEqual(t, "correct horse battery", user.PasswordHash)
		assert.True(t, sec.CheckPasswordHash("correct horse battery", user.PasswordHash))
		assert.False(t, user.IsVerified)
	})

	t.Run("duplicate_email_is_conflict", func(t *testing.T) {
		fixture := newAuthFixture()
		fixture.register(t, "reader@example.com", "first password")

		_, err := fixture.service.Register(context.Background(), auth.RegisterInput{
			Email:    "READER@example.com",
			Password: "second password",
		})

		var appError *apperr.AppError
		require.ErrorAs(t, err, &appError)
		assert.Equal(t, "CONFLICT", appError.Code)
	})
}

// # Login

/*
TestService_Login covers credential checks, the anti-enumeration message,
and guest draft adoption on sign-in.
*/
func TestService_Login(t *testing.T) {
	t.Run("valid_credentials_establish_session", func(t *testing.T) {
		fixture := newAuthFixture()
		user := fixture.register(t, "reader@example.com", "correct horse battery")

		session, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:     "Reader@Example.com",
			Password:  "correct horse battery",
			UserAgent: "go-test",
			IPAddress: "203.0.113.7",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, session.AccessToken)
		assert.NotEmpty(t, session.RefreshToken)
		assert.Equal(t, user.ID, session.User.ID)

		require.Len(t, fixture.sessions.active(), 1)
		stored := fixture.sessions.active()[0]
		assert.Equal(t, sec.HashToken(session.RefreshToken), stored.TokenHash)
		assert.Equal(t, "go-test", stored.UserAgent)
		assert.Equal(t, "203.0.113.7", stored.IPAddress)
	})

	t.Run("wrong_password_is_unauthorized", func(t *testing.T) {
		fixture := newAuthFixture()
		fixture.register(t, "reader@example.com", "correct horse battery")

		_, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "reader@example.com",
			Password: "wrong password",
		})

		var appError *apperr.AppError
		require.ErrorAs(t, err, &appError)
		assert.Equal(t, "UNAUTHORIZED", appError.Code)
		assert.Equal(t, "Invalid login credentials", appError.Message)
	})

	t.Run("unknown_email_uses_same_message", func(t *testing.T) {
		fixture := newAuthFixture()

		_, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "nobody@example.com",
			Password: "anything at all",
		})

		var appError *apperr.AppError
		require.ErrorAs(t, err, &appError)
		assert.Equal(t, "Invalid login credentials", appError.Message)
	})

	t.Run("passwordless_account_cannot_use_password_login", func(t *testing.T) {
		fixture := newAuthFixture()

		// Magic-link sign-ins create accounts with an empty hash.
		link, err := fixture.service.RequestMagicLink(context.Background(), "reader@example.com")
		require.NoError(t, err)
		_, err = fixture.service.VerifyMagicLink(context.Background(), tokenFromLink(t, link), "", "", "")
		require.NoError(t, err)

		_, err = fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "reader@example.com",
			Password: "",
		})

		var appError *apperr.AppError
		require.ErrorAs(t, err, &appError)
		assert.Equal(t, "UNAUTHORIZED", appError.Code)
	})

	t.Run("adopts_guest_draft_and_retires_guest_session", func(t *testing.T) {
		fixture := newAuthFixture()
		user := fixture.register(t, "reader@example.com", "correct horse battery")

		guestToken, err := fixture.service.IssueGuestSession(context.Background())
		require.NoError(t, err)

		_, err = fixture.service.Login(context.Background(), auth.LoginInput{
			Email:           "reader@example.com",
			Password:        "correct horse battery",
			GuestSessionKey: guestToken,
		})

		require.NoError(t, err)
		assert.Equal(t, []string{guestToken}, fixture.migrator.guestKeys)
		assert.Equal(t, []string{user.ID}, fixture.migrator.userIDs)
		assert.Equal(t, []string{"reader@example.com"}, fixture.migrator.targetEmails)
		assert.Equal(t, []string{guestToken}, fixture.guests.deleted)
	})

	t.Run("migration_failure_does_not_break_sign_in", func(t *testing.T) {
		fixture := newAuthFixture()
		fixture.register(t, "reader@example.com", "correct horse battery")
		fixture.migrator.err = errors.New("redis down")

		guestToken, err := fixture.service.IssueGuestSession(context.Background())
		require.NoError(t, err)

		session, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:           "reader@example.com",
			Password:        "correct horse battery",
			GuestSessionKey: guestToken,
		})

		require.NoError(t, err)
		assert.NotEmpty(t, session.AccessToken)

		// The guest session survives so the visitor can retry after sign-in.
		assert.Empty(t, fixture.guests.deleted)
		assert.True(t, fixture.guests.tokens[guestToken])
	})
}

// # Magic Links

// tokenFromLink extracts the single-use token from a generated sign-in URL.
func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	token := parsed.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

/*
TestService_MagicLink covers the passwordless flow end to end: link
issuance, single-use verification, and implicit account creation.
*/
func TestService_MagicLink(t *testing.T) {
	t.Run("request_stores_token_and_builds_link", func(t *testing.T) {
		fixture := newAuthFixture()

		link, err := fixture.service.RequestMagicLink(context.Background(), "Reader@Example.com")

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(link, "https://newsletter2paper.app/auth/verify?token="))

		token := tokenFromLink(t, link)
		assert.Equal(t, "reader@example.com", fixture.magic.tokens[token])
	})

	t.Run("verify_creates_passwordless_verified_account", func(t *testing.T) {
		fixture := newAuthFixture()
		link, err := fixture.service.RequestMagicLink(context.Background(), "reader@example.com")
		require.NoError(t, err)

		session, err := fixture.service.VerifyMagicLink(context.Background(), tokenFromLink(t, link), "go-test", "203.0.113.7", "")

		require.NoError(t, err)
		assert.Equal(t, "reader@example.com", session.User.Email)
		assert.Empty(t, session.User.PasswordHash)
		assert.True(t, session.User.IsVerified)
		assert.NotEmpty(t, session.AccessToken)
	})

	t.Run("verify_marks_existing_account_verified", func(t *testing.T) {
		fixture := newAuthFixture()
		user := fixture.register(t, "reader@example.com", "correct horse battery")
		require.False(t, user.IsVerified)

		link, err := fixture.service.RequestMagicLink(context.Background(), "reader@example.com")
		require.NoError(t, err)

		session, err := fixture.service.VerifyMagicLink(context.Background(), tokenFromLink(t, link), "", "", "")

		require.NoError(t, err)
		assert.Equal(t, user.ID, session.User.ID)
		assert.True(t, session.User.IsVerified)

		stored, err := fixture.users.FindByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsVerified)
	})

	t.Run("token_is_single_use", func(t *testing.T) {
		fixture := newAuthFixture()
		link, err := fixture.service.RequestMagicLink(context.Background(), "reader@example.com")
		require.NoError(t, err)
		token := tokenFromLink(t, link)

		_, err = fixture.service.VerifyMagicLink(context.Background(), token, "", "", "")
		require.NoError(t, err)

		_, err = fixture.service.VerifyMagicLink(context.Background(), token, "", "", "")
		var appError *apperr.AppError
		require.ErrorAs(t, err, &appError)
		assert.Equal(t, "UNAUTHORIZED", appError.Code)
	})

	t.Run("invalid_token_is_unauthorized", func(t *testing.T) {
		fixture := newAuthFixture()

		_, err := fixture.service.VerifyMagicLink(context.Background(), "never-issued", "", "", "")

		var appError *apperr.AppError
		require.ErrorAs(t, err, &appError)
		assert.Equal(t, "UNAUTHORIZED", appError.Code)
	})

	t.Run("verify_carries_guest_draft", func(t *testing.T) {
		fixture := newAuthFixture()
		guestToken, err := fixture.service.IssueGuestSession(context.Background())
		require.NoError(t, err)

		link, err := fixture.service.RequestMagicLink(context.Background(), "reader@example.com")
		require.NoError(t, err)

		session, err := fixture.service.VerifyMagicLink(context.Background(), tokenFromLink(t, link), "", "", guestToken)

		require.NoError(t, err)
		assert.Equal(t, []string{guestToken}, fixture.migrator.guestKeys)
		assert.Equal(t, []string{session.User.ID}, fixture.migrator.userIDs)
		assert.Equal(t, []string{guestToken}, fixture.guests.deleted)
	})
}

// # Session Lifecycle

/*
TestService_RefreshSession verifies refresh token rotation: the presented
token is retired and a brand new pair is issued.
*/
func TestService_RefreshSession(t *testing.T) {
	t.Run("rotates_refresh_token", func(t *testing.T) {
		fixture := newAuthFixture()
		fixture.register(t, "reader@example.com", "correct horse battery")

		first, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "reader@example.com",
			Password: "correct horse battery",
		})
		require.NoError(t, err)

		second, err := fixture.service.RefreshSession(context.Background(), first.RefreshToken, "go-test", "203.0.113.7")

		require.NoError(t, err)
		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
		assert.Len(t, fixture.sessions.revoked, 1)
		require.Len(t, fixture.sessions.active(), 1)
		assert.Equal(t, sec.HashToken(second.RefreshToken), fixture.sessions.active()[0].TokenHash)
	})

	t.Run("rotated_token_cannot_be_replayed", func(t *testing.T) {
		fixture := newAuthFixture()
		fixture.register(t, "reader@example.com", "correct horse battery")

		first, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "reader@example.com",
			Password: "correct horse battery",
		})
		require.NoError(t, err)

		_, err = fixture.service.RefreshSession(context.Background(), first.RefreshToken, "", "")
		require.NoError(t, err)

		_, err = fixture.service.RefreshSession(context.Background(), first.RefreshToken, "", "")
		var appError *apperr.AppError
		require.ErrorAs(t, err, &appError)
		assert.Equal(t, "UNAUTHORIZED", appError.Code)
	})

	t.Run("unknown_token_is_unauthorized", func(t *testing.T) {
		fixture := newAuthFixture()

		_, err := fixture.service.RefreshSession(context.Background(), "never-issued", "", "")

		var appError *apperr.AppError
		require.ErrorAs(t, err, &appError)
		assert.Equal(t, "UNAUTHORIZED", appError.Code)
	})
}

/*
TestService_Logout checks session revocation and that logging out twice is
a harmless no-op.
*/
func TestService_Logout(t *testing.T) {
	fixture := newAuthFixture()
	fixture.register(t, "reader@example.com", "correct horse battery")

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "reader@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	require.NoError(t, fixture.service.Logout(context.Background(), session.RefreshToken))
	assert.Empty(t, fixture.sessions.active())

	// Second logout finds no session and still succeeds.
	require.NoError(t, fixture.service.Logout(context.Background(), session.RefreshToken))
}

/*
TestService_CurrentUser resolves the account behind an access token's
subject claim.
*/
func TestService_CurrentUser(t *testing.T) {
	fixture := newAuthFixture()
	user := fixture.register(t, "reader@example.com", "correct horse battery")

	found, err := fixture.service.CurrentUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)

	_, err = fixture.service.CurrentUser(context.Background(), "0192a7b4-ffff-7000-8000-000000000000")
	assert.Error(t, err)
}
