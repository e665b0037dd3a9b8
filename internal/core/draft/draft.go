// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

/*
Package draft holds the working state of an issue being configured.

Every session, guest or signed-in, edits a draft: the issue fields plus an
ordered publication selection. Edits land in Redis immediately and are
synchronized to the durable issue record through a debounced autosaver, so
rapid editing produces one save instead of many.

Core Responsibility:

  - Working state: one Redis document pair per session key.
  - Selection: ordered, deduplicated publication refs with in-place remap.
  - Synchronization: trailing-edge debounce plus per-session coalescing.
*/
package draft

import (
	"github.com/apchapcomputing/newsletter2paper/internal/core/issue"
)

// Draft is the editable issue configuration before (and between) saves.
type Draft struct {
	Title        *string         `json:"title,omitempty"`
	OutputMode   issue.Format    `json:"output_mode"`
	Frequency    issue.Frequency `json:"frequency"`
	RemoveImages bool            `json:"remove_images"`

	// TargetEmail is empty for guest drafts. Migration fills it from the
	// account so later synchronizations keep the adopted delivery target.
	TargetEmail *string `json:"target_email,omitempty"`

	// IssueID is the durable record this draft syncs into. Empty until the
	// first successful save; may go stale if the record is deleted
	// elsewhere, which the save path recovers from.
	IssueID string `json:"issue_id,omitempty"`
}

// DefaultDraft returns the state of a brand-new session.
func DefaultDraft() Draft {
	return Draft{
		OutputMode: issue.FormatNewspaper,
		Frequency:  issue.FrequencyOnce,
	}
}

// State is the full per-session working set: the draft fields and the
// ordered selection, persisted together.
type State struct {
	Draft     Draft   `json:"draft"`
	Selection []Entry `json:"selection"`
}

// DefaultState returns an empty working set with draft defaults applied.
func DefaultState() *State {
	return &State{
		Draft:     DefaultDraft(),
		Selection: []Entry{},
	}
}

// Session identifies who is editing: the storage key plus, for signed-in
// callers, the account the sync should attach ownership to.
type Session struct {
	// Key addresses the Redis documents. It is the user ID for
	// authenticated sessions and the opaque guest token otherwise.
	Key string

	// UserID is empty for guest sessions.
	UserID string
}
