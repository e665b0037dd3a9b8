// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

/*
Package issue implements the durable side of the configuration workflow.

An Issue is one printable newsletter digest: its layout, delivery cadence,
target mailbox, and the ordered set of publications it draws articles from.
Issues begin life as anonymous guest records and are adopted into a user
account at sign-in.

Core Responsibility:

  - Persistence: create-or-update upsert with stale-identifier recovery.
  - Ownership: idempotent user association, guest-to-user adoption.
  - Selection: wholesale transactional replacement of the publication set.
*/
package issue

import (
	"time"

	"github.com/apchapcomputing/newsletter2paper/internal/core/publication"
)

// # Domain Enums

// Format selects the print layout of a generated issue.
type Format string

const (
	// FormatNewspaper renders a dense multi-column broadsheet layout.
	FormatNewspaper Format = "newspaper"

	// FormatEssay renders one article per page in a long-form layout.
	FormatEssay Format = "essay"
)

// IsValid reports whether f is a recognised [Format] value.
func (f Format) IsValid() bool {
	switch f {
	case FormatNewspaper, FormatEssay:
		return true
	}
	return false
}

// Frequency is the delivery cadence of an issue.
type Frequency string

const (
	// FrequencyOnce marks a one-off issue, the default for guest drafts.
	FrequencyOnce Frequency = "once"

	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// IsValid reports whether f is a recognised [Frequency] value.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Status tracks whether an issue is still anonymous.
type Status string

const (
	// StatusGuest marks an issue created before sign-in. It has no owner row.
	StatusGuest Status = "guest"

	// StatusDraft marks an issue owned by an account.
	StatusDraft Status = "draft"
)

// IsValid reports whether s is a recognised [Status] value.
func (s Status) IsValid() bool {
	switch s {
	case StatusGuest, StatusDraft:
		return true
	}
	return false
}

// # Core Entities

// Issue is the durable record of one configured newsletter digest.
type Issue struct {
	ID           string    `json:"id"`
	Title        *string   `json:"title,omitempty"`
	Format       Format    `json:"format"`
	Frequency    Frequency `json:"frequency"`
	Status       Status    `json:"status"`
	TargetEmail  *string   `json:"target_email,omitempty"`
	RemoveImages bool      `json:"remove_images"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LinkedPublication is a publication attached to an issue, carrying the
// selection position and the per-issue image override.
type LinkedPublication struct {
	publication.Publication

	Position     int  `json:"position"`
	RemoveImages bool `json:"remove_images"`
}

// # Save Workflow Types

// SelectionEntry is one row of the selection carried into a save. The Ref
// may still be provisional; saving resolves it to a durable row.
type SelectionEntry struct {
	Ref          publication.Ref `json:"ref"`
	Title        string          `json:"title"`
	URL          string          `json:"url"`
	Publisher    string          `json:"publisher,omitempty"`
	RemoveImages bool            `json:"remove_images"`
}

// SaveInput is the full payload of one synchronization pass.
type SaveInput struct {
	// IssueID is the identifier the caller currently holds. Empty means no
	// record exists yet; a stale value triggers the create fallback.
	IssueID string `json:"issue_id,omitempty"`

	// UserID is set only for authenticated callers and controls both the
	// initial status and the ownership association.
	UserID string `json:"-"`

	Title        *string          `json:"title,omitempty"`
	Format       Format           `json:"format"`
	Frequency    Frequency        `json:"frequency"`
	TargetEmail  *string          `json:"target_email,omitempty"`
	RemoveImages bool             `json:"remove_images"`
	Selection    []SelectionEntry `json:"selection"`
}

// UpdateInput is a partial edit to an existing issue. Nil pointers and
// empty enum values leave the stored value alone.
type UpdateInput struct {
	Title        *string   `json:"title,omitempty"`
	Format       Format    `json:"format,omitempty"`
	Frequency    Frequency `json:"frequency,omitempty"`
	TargetEmail  *string   `json:"target_email,omitempty"`
	RemoveImages *bool     `json:"remove_images,omitempty"`
}

// SaveResult reports the durable identifiers assigned during a save so the
// caller can remap the provisional ones it still holds.
type SaveResult struct {
	Issue *Issue `json:"issue"`

	// Remapped maps each resolved entry's original ref key to its durable
	// replacement. Entries that were already durable are absent.
	Remapped map[string]publication.Ref `json:"remapped,omitempty"`
}
