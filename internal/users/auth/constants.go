// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package auth

import "time"

// # Authentication Constraints

const (
	// AccessTokenTTL is the duration a JWT access token remains valid.
	// We keep it short (15m) to minimize the impact of a leaked token.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the duration a session/refresh token remains valid.
	// Long-lived (30 days) to provide a good user experience.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random secure token.
	RefreshTokenLength = 32

	// MagicLinkTokenTTL is the duration a magic sign-in link remains valid.
	// Short-lived (15 minutes): the link lands in the user's inbox and is
	// expected to be clicked right away.
	MagicLinkTokenTTL = 15 * time.Minute

	// MagicLinkTokenLength is the byte length of the random magic-link token.
	MagicLinkTokenLength = 32
)
