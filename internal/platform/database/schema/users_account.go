// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package schema

// AccountTable represents the 'users.account' table
type AccountTable struct {
	Table        string
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	IsVerified   string
	CreatedAt    string
	UpdatedAt    string
	DeletedAt    string
}

// Account is the schema definition for users.account.
// PasswordHash is empty for accounts created through magic-link sign-in.
var Account = AccountTable{
	Table:        "users.account",
	ID:           "id",
	Email:        "email",
	PasswordHash: "passwordhash",
	DisplayName:  "displayname",
	IsVerified:   "isverified",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
	DeletedAt:    "deletedat",
}

func (t AccountTable) Columns() []string {
	return []string{t.ID, t.Email, t.PasswordHash, t.DisplayName, t.IsVerified, t.CreatedAt, t.UpdatedAt}
}
