// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package middleware

import (
	"net/http"
	"strings"

	"github.com/apchapcomputing/newsletter2paper/internal/platform/apperr"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/constants"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/ctxutil"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/respond"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from [sec.TokenService],
// allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, parse and verify the JWT via [TokenVerifier].
//  4. Inject [*sec.AuthClaims] into the request context for downstream use.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			tokenStr := parts[1]
			claims, err := verifier.VerifyToken(tokenStr)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// GuestSession propagates the opaque guest-session identifier, if present,
// from the X-Guest-Session header into the request context.
//
// # Flow
//
// The token is NOT validated here; it is an opaque key into Redis and the
// draft layer treats an unknown token the same as an empty draft. Validation
// on every request would put Redis on the hot path for no gain.
//
// Must be registered AFTER [Authenticate]: an authenticated request ignores
// any guest header except during sign-in, where the auth handler reads it
// directly to run guest-issue adoption.
func GuestSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			token := strings.TrimSpace(request.Header.Get(constants.HeaderGuestSession))
			if token == "" {
				next.ServeHTTP(writer, request)
				return
			}

			ctx := ctxutil.WithGuestSession(request.Context(), token)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetAuthUser(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireSession blocks requests that carry neither a JWT nor a guest session.
//
// The draft endpoints accept both identities; everything else is rejected
// before reaching the handler.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		if ctxutil.GetAuthUser(ctx) == nil && ctxutil.GetGuestSession(ctx) == "" {
			respond.Error(writer, request, apperr.Unauthorized("A guest session or authentication is required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
