// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

/*
Package auth provides the HTTP delivery layer for user identity management.

# Architecture

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: Standard RESTful JSON interface.
  - Security: Handles JWT orchestration and refresh token cookie injection.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/
package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/apchapcomputing/newsletter2paper/internal/platform/apperr"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/config"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/constants"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/ctxutil"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/middleware"
	requestutil "github.com/apchapcomputing/newsletter2paper/internal/platform/request"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/respond"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
type Handler struct {
	authService *Service
	environment *config.Config
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service, cfg *config.Config) *Handler {
	return &Handler{authService: service, environment: cfg}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register          : Creates a new account.
//   - POST /login             : Authenticates with password and returns a JWT.
//   - POST /magic-link        : Emails a passwordless sign-in link.
//   - POST /magic-link/verify : Completes a passwordless sign-in.
//   - POST /guest             : Issues an anonymous session token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/magic-link", handler.requestMagicLink)
	router.Post("/magic-link/verify", handler.verifyMagicLink)
	router.Post("/guest", handler.issueGuestSession)
	router.Post("/logout", handler.logout)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/session", handler.currentSession)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type magicLinkRequest struct {
	Email string `json:"email"`
}

type verifyMagicLinkRequest struct {
	Token string `json:"token"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Request:
  - Body: registerRequest (Email, Password, DisplayName)

Response:
  - 201: User: Created user profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials, generates JWT access tokens, injects a
secure refresh token cookie, and adopts any guest draft the request
carried in its X-Guest-Session header.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: Session: Access token and User profile
  - 401: ErrUnauthorized: Invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:           input.Email,
		Password:        input.Password,
		UserAgent:       request.UserAgent(),
		IPAddress:       getClientIP(request),
		GuestSessionKey: ctxutil.GetGuestSession(request.Context()),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, session)
	respond.OK(writer, map[string]any{
		FieldAccessToken: session.AccessToken,
		FieldUser:        session.User,
	})
}

/*
RequestMagicLink starts a passwordless sign-in.

POST /api/v1/auth/magic-link

Description: Issues a single-use emailed link. The response is the same
whether or not the address has an account, preventing enumeration. In
development the link itself is returned for convenience.

Request:
  - Body: magicLinkRequest (Email)

Response:
  - 200: Success: Generic confirmation message
*/
func (handler *Handler) requestMagicLink(writer http.ResponseWriter, request *http.Request) {
	var input magicLinkRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	link, err := handler.authService.RequestMagicLink(request.Context(), input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	payload := map[string]string{
		FieldMessage: "If this email is valid, a sign-in link has been sent.",
	}
	if handler.environment.IsDevelopment() {
		payload[FieldMagicLink] = link
	}
	respond.OK(writer, payload)
}

/*
VerifyMagicLink completes a passwordless sign-in.

POST /api/v1/auth/magic-link/verify

Request:
  - Body: verifyMagicLinkRequest (Token)

Response:
  - 200: Session: Access token and User profile
  - 401: ErrUnauthorized: Invalid or expired link
*/
func (handler *Handler) verifyMagicLink(writer http.ResponseWriter, request *http.Request) {
	var input verifyMagicLinkRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Token == "" {
		respond.Error(writer, request, validate.RequiredError(FieldToken, "is required"))
		return
	}

	session, err := handler.authService.VerifyMagicLink(
		request.Context(),
		input.Token,
		request.UserAgent(),
		getClientIP(request),
		ctxutil.GetGuestSession(request.Context()),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, session)
	respond.OK(writer, map[string]any{
		FieldAccessToken: session.AccessToken,
		FieldUser:        session.User,
	})
}

/*
IssueGuestSession creates an anonymous session token.

POST /api/v1/auth/guest

Description: The returned token goes into the X-Guest-Session header of
subsequent draft requests, keying the visitor's working state.

Response:
  - 201: GuestSession: The opaque token
*/
func (handler *Handler) issueGuestSession(writer http.ResponseWriter, request *http.Request) {
	token, err := handler.authService.IssueGuestSession(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]string{
		FieldGuestSession: token,
	})
}

/*
Refresh issues a new access token using a valid refresh token.

POST /api/v1/auth/refresh

Response:
  - 200: RefreshResponse: New access token credentials
  - 401: ErrUnauthorized: Missing or invalid refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(writer, request, apperr.Unauthorized("Missing refresh token in cookies"))
		return
	}

	session, err := handler.authService.RefreshSession(
		request.Context(),
		cookie.Value,
		request.UserAgent(),
		getClientIP(request),
	)

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, session)
	respond.OK(writer, map[string]any{
		FieldAccessToken: session.AccessToken,
		FieldTokenType:   "Bearer",
		FieldExpiresIn:   AccessTokenTTL / time.Second,
	})
}

/*
Logout terminates the current user session.

POST /api/v1/auth/logout

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)

	if err == nil && cookie != nil && cookie.Value != "" {
		_ = handler.authService.Logout(request.Context(), cookie.Value)
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	respond.NoContent(writer)
}

/*
CurrentSession returns the account behind the presented access token.

GET /api/v1/auth/session

Response:
  - 200: User: The authenticated profile
  - 401: ErrUnauthorized: Missing or invalid token
*/
func (handler *Handler) currentSession(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.CurrentUser(request.Context(), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// setRefreshCookie injects the rotated refresh token as a scoped, secure
// HTTP-only cookie.
func (handler *Handler) setRefreshCookie(writer http.ResponseWriter, session *LoginSession) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    session.RefreshToken,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  session.RefreshTokenExpiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// getClientIP tries to extract the real IP address of a user over proxy environments.
func getClientIP(request *http.Request) string {

	ip := request.Header.Get(constants.HeaderXRealIP)
	if ip == "" {
		ip = request.Header.Get(constants.HeaderXForwardedFor)
	}

	if ip == "" {
		ip = request.RemoteAddr
	}
	return ip
}
