// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package schema

// SessionTable represents the 'users.session' table
type SessionTable struct {
	Table     string
	ID        string
	UserID    string
	TokenHash string
	UserAgent string
	IPAddress string
	ExpiresAt string
	IsRevoked string
	CreatedAt string
}

// Session is the schema definition for users.session
var Session = SessionTable{
	Table:     "users.session",
	ID:        "id",
	UserID:    "userid",
	TokenHash: "tokenhash",
	UserAgent: "useragent",
	IPAddress: "ipaddress",
	ExpiresAt: "expiresat",
	IsRevoked: "isrevoked",
	CreatedAt: "createdat",
}
