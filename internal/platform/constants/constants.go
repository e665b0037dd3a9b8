// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuers and cookie configuration.
  - Draft Sync: Debounce quiet period and render defaults.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "newsletter2paper-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	// PDF generation proxying is slow, so this is generous.
	DefaultWriteTimeout = 120 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	// It must exceed the render backend timeout so the proxy path can complete.
	GlobalRequestTimeout = 110 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication & Sessions

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "newsletter2paper.app"

	// RefreshTokenCookieName is the name of the cookie that stores the refresh token.
	RefreshTokenCookieName = "refresh_token"

	// RefreshTokenCookiePath is the scoped path for the refresh token cookie.
	RefreshTokenCookiePath = "/api/v1/auth"

	// HeaderGuestSession carries the opaque guest-session identifier issued
	// to unauthenticated visitors.
	HeaderGuestSession = "X-Guest-Session"
)

// # Draft Synchronization

const (
	// DraftDebounceQuietPeriod is the trailing-edge debounce window: a draft
	// edit schedules a sync this long after the last edit.
	DraftDebounceQuietPeriod = 1 * time.Second

	// DraftTTL is how long an untouched guest draft survives in Redis.
	DraftTTL = 30 * 24 * time.Hour

	// GuestSessionTTL is how long a guest session token remains valid.
	GuestSessionTTL = 30 * 24 * time.Hour
)

// # Render Backend Defaults

const (
	// DefaultDaysBack bounds how far back articles are fetched per publication.
	DefaultDaysBack = 7

	// DefaultMaxArticlesPerPublication caps the article count per publication.
	DefaultMaxArticlesPerPublication = 5

	// RenderRequestTimeout is the client timeout for a single render call.
	RenderRequestTimeout = 100 * time.Second
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaPress = "press"
	SchemaUsers = "users"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixMagicToken   = "auth:magic_token:"
	RedisPrefixGuestSession = "auth:guest_session:"
	RedisPrefixDraft        = "draft:issue:"
	RedisPrefixSelection    = "draft:selection:"
)
