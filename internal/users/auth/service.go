// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/apchapcomputing/newsletter2paper/internal/platform/apperr"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/sec"
	"github.com/apchapcomputing/newsletter2paper/pkg/uuidv7"
)

// # Contracts & Types

// TokenProvider defines the contract for generating security tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT string for the given user.
	//
	// # Parameters
	//   - userID: The ID of the account.
	//   - email: The email of the account.
	//   - timeToLive: The duration before the token expires.
	//
	// # Returns
	//   - A signed JWT string, or an err if signing fails.
	GenerateAccessToken(userID, email string, timeToLive time.Duration) (string, error)
}

// DraftMigrator carries a guest session's working state into a freshly
// signed-in account. It is satisfied by the draft service.
type DraftMigrator interface {
	MigrateGuest(context context.Context, guestKey, userID, targetEmail string) error
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, sign-in,
// or session logic must be reviewed before merging.
type Service struct {
	userRepository       UserRepository
	sessionRepository    SessionRepository
	magicTokenRepository MagicTokenRepository
	guestRepository      GuestSessionRepository
	tokenProvider        TokenProvider
	draftMigrator        DraftMigrator
	magicLinkReturnURL   string
	logger               *slog.Logger
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	magicRepo MagicTokenRepository,
	guestRepo GuestSessionRepository,
	tokenProv TokenProvider,
	migrator DraftMigrator,
	magicLinkReturnURL string,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:       userRepo,
		sessionRepository:    sessionRepo,
		magicTokenRepository: magicRepo,
		guestRepository:      guestRepo,
		tokenProvider:        tokenProv,
		draftMigrator:        migrator,
		magicLinkReturnURL:   magicLinkReturnURL,
		logger:               logger,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

/*
Register validates, hashes, and persists a brand new user account.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - err: Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err := service.userRepository.FindByEmail(context, normalizeEmail(input.Email))
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuidv7.New(),
		Email:        normalizeEmail(input.Email),
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		IsVerified:   false,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string

	// GuestSessionKey, when present, carries the anonymous session whose
	// draft should be adopted into the account after sign-in.
	GuestSessionKey string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  *User
}

/*
Login validates user credentials and issues security tokens.

Description: Verifies identity, performs constant-time password comparison,
establishes a rotated session, and adopts any guest draft the request
carried.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - err: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	user, err := service.userRepository.FindByEmail(context, normalizeEmail(input.Email))

	// If (err != nil) the user does not exist. Generic message to prevent enumeration.
	if err != nil {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Magic-link-only accounts have no password to check against.
	if user.PasswordHash == "" || !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	session, err := service.establishSession(context, user, input.UserAgent, input.IPAddress)
	if err != nil {
		return nil, err
	}

	service.adoptGuestDraft(context, input.GuestSessionKey, user)
	return session, nil
}

// # Magic Link Flow

/*
RequestMagicLink starts a passwordless sign-in.

Description: Generates a single-use token bound to the email and stores it
in Redis. The returned link would be emailed in production; it is also
returned to the caller for development flows.

NOTE: The handler never reveals whether the email has an account, so this
flow doubles as sign-up for new addresses.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: The complete sign-in link
  - err: Token generation or storage failures
*/
func (service *Service) RequestMagicLink(context context.Context, email string) (string, error) {
	token, err := sec.GenerateSecureToken(MagicLinkTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_magic_token_failed: %w", err)
	}

	if err := service.magicTokenRepository.Set(context, token, normalizeEmail(email), MagicLinkTokenTTL); err != nil {
		return "", fmt.Errorf("auth_service_magic_token_store_failed: %w", err)
	}

	link := fmt.Sprintf("%s?token=%s", service.magicLinkReturnURL, url.QueryEscape(token))

	// TODO: hand the link to the mail delivery worker once it lands.
	service.logger.InfoContext(context, "magic_link_issued",
		slog.String("email", normalizeEmail(email)),
	)
	return link, nil
}

/*
VerifyMagicLink completes a passwordless sign-in.

Description: Resolves the single-use token to its email, finds or creates
the account, marks it verified, establishes a session, and adopts any guest
draft the request carried.

Parameters:
  - context: context.Context
  - token: string
  - userAgent: string
  - ipAddress: string
  - guestSessionKey: string

Returns:
  - *LoginSession: Transport-ready session identifiers
  - err: Unauthorized (bad token) or storage failures
*/
func (service *Service) VerifyMagicLink(context context.Context, token, userAgent, ipAddress, guestSessionKey string) (*LoginSession, error) {
	email, err := service.magicTokenRepository.Get(context, token)
	if err != nil {
		return nil, apperr.Unauthorized("Sign-in link is invalid or expired")
	}

	// Single use: burn the token before doing anything else with it.
	_ = service.magicTokenRepository.Delete(context, token)

	user, err := service.findOrCreateByEmail(context, email)
	if err != nil {
		return nil, err
	}

	// Completing the link proves mailbox ownership.
	if !user.IsVerified {
		if err := service.userRepository.MarkVerified(context, user.ID); err == nil {
			user.IsVerified = true
		}
	}

	session, err := service.establishSession(context, user, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	service.adoptGuestDraft(context, guestSessionKey, user)
	return session, nil
}

// findOrCreateByEmail resolves the account for a verified email, creating
// a password-less one on first sign-in.
func (service *Service) findOrCreateByEmail(context context.Context, email string) (*User, error) {
	user, err := service.userRepository.FindByEmail(context, email)
	if err == nil {
		return user, nil
	}

	user = &User{
		ID:    uuidv7.New(),
		Email: email,
	}
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_magic_create_failed: %w", err)
	}

	service.logger.InfoContext(context, "account_created_via_magic_link",
		slog.String("user_id", user.ID),
	)
	return user, nil
}

// # Guest Sessions

/*
IssueGuestSession creates an anonymous session token so a visitor can build
a draft before deciding to sign in.

Returns:
  - string: The opaque guest token, sent back in the X-Guest-Session header
  - err: Storage failures
*/
func (service *Service) IssueGuestSession(context context.Context) (string, error) {
	token := uuidv7.New()
	if err := service.guestRepository.Issue(context, token); err != nil {
		return "", fmt.Errorf("auth_service_guest_session_failed: %w", err)
	}
	return token, nil
}

// adoptGuestDraft hands the guest's working state to the fresh account.
// Failures are logged, not surfaced: a sign-in must never break because an
// optional migration did.
func (service *Service) adoptGuestDraft(context context.Context, guestKey string, user *User) {
	if guestKey == "" || service.draftMigrator == nil {
		return
	}

	if err := service.draftMigrator.MigrateGuest(context, guestKey, user.ID, user.Email); err != nil {
		service.logger.WarnContext(context, "guest_draft_migration_failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	_ = service.guestRepository.Delete(context, guestKey)
}

// # Session Management

// establishSession issues the access/refresh token pair and persists the
// tracking session.
func (service *Service) establishSession(context context.Context, user *User, userAgent, ipAddress string) (*LoginSession, error) {
	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Email, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	expiresAt := time.Now().Add(RefreshTokenTTL)
	session := &Session{
		ID:        uuidv7.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(refreshToken),
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: expiresAt,
		IsRevoked: false,
	}

	if err := service.sessionRepository.Create(context, session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: expiresAt,
		User:                  user,
	}, nil
}

/*
RefreshSession implements the Refresh Token Rotation mechanism.

Description: Verifies the existing refresh token, revokes it to prevent
reuse (replay attack mitigation), and issues a fresh pair of rotated tokens.

Parameters:
  - context: context.Context
  - refreshToken: string
  - userAgent: string
  - ipAddress: string

Returns:
  - *LoginSession: New session credentials
  - err: Unauthorized or storage failures
*/
func (service *Service) RefreshSession(context context.Context, refreshToken, userAgent, ipAddress string) (*LoginSession, error) {
	tokenHash := sec.HashToken(refreshToken)
	session, err := service.sessionRepository.FindByTokenHash(context, tokenHash)

	// If (err != nil) the token is either expired, already revoked, or completely invalid.
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// Rotation: Revoke the old session to prevent replay attacks
	if err := service.sessionRepository.Revoke(context, session.ID); err != nil {
		return nil, fmt.Errorf("auth_service_refresh_revoke_failed: %w", err)
	}

	user, err := service.userRepository.FindByID(context, session.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("User not found or suspended")
	}

	return service.establishSession(context, user, userAgent, ipAddress)
}

/*
Logout permanently revokes the user's active session.

Description: Ensures that a tracked refresh token can never be used again.
Already-gone sessions make logout a successful no-op.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - err: Revocation failures
*/
func (service *Service) Logout(context context.Context, refreshToken string) error {
	tokenHash := sec.HashToken(refreshToken)

	session, err := service.sessionRepository.FindByTokenHash(context, tokenHash)
	if err != nil {
		return nil
	}

	if err := service.sessionRepository.Revoke(context, session.ID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

/*
CurrentUser returns the account behind an authenticated request.
*/
func (service *Service) CurrentUser(context context.Context, userID string) (*User, error) {
	return service.userRepository.FindByID(context, userID)
}

// normalizeEmail lowers and trims an address so lookups are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
