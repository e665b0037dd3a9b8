// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

// Package schema centralizes table and column identifiers for every query in
// the storage layer, so a rename happens in exactly one place.
package schema

// IssueTable represents the 'press.issue' table
type IssueTable struct {
	Table        string
	ID           string
	Title        string
	Format       string
	Frequency    string
	Status       string
	TargetEmail  string
	RemoveImages string
	CreatedAt    string
	UpdatedAt    string
}

// Issue is the schema definition for press.issue
var Issue = IssueTable{
	Table:        "press.issue",
	ID:           "id",
	Title:        "title",
	Format:       "format",
	Frequency:    "frequency",
	Status:       "status",
	TargetEmail:  "targetemail",
	RemoveImages: "removeimages",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
}

func (t IssueTable) Columns() []string {
	return []string{t.ID, t.Title, t.Format, t.Frequency, t.Status, t.TargetEmail, t.RemoveImages, t.CreatedAt, t.UpdatedAt}
}
