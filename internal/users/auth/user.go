// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session) and the sign-in flows:
password credentials, emailed magic links, and anonymous guest sessions
that can later be adopted into an account.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no
external dependencies and encapsulate all business rules related to user
identity.
*/
package auth

import "time"

// # Domain Entities

// User represents a registered Newsletter2Paper account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Empty for magic-link-only accounts. Omitted from JSON for security.
	DisplayName  string    `json:"display_name,omitempty"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session represents an active refresh-token session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"` // Hashed value of the refresh token. Omitted for security.
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldDisplayName  = "display_name"
	FieldToken        = "token"
	FieldAccessToken  = "access_token"
	FieldTokenType    = "token_type"
	FieldExpiresIn    = "expires_in"
	FieldUser         = "user"
	FieldMessage      = "message"
	FieldMagicLink    = "magic_link"
	FieldGuestSession = "guest_session"
)
