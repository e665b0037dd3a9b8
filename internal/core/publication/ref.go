// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package publication

import (
	"regexp"
	"strings"
)

// uuidShape matches a canonical UUID string (any version).
var uuidShape = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Ref is a tagged publication identifier: exactly one of Provisional or
// Durable is set.
//
// # Invariant
//
// A zero Ref is invalid and never stored in a selection. Equality of refs is
// equality of [Ref.Key], which is what the selection set deduplicates on.
type Ref struct {
	// Provisional is the client-derived handle used before the store has
	// assigned an identifier.
	Provisional string `json:"provisional,omitempty"`

	// Durable is the UUID assigned by the store via find-or-create.
	Durable string `json:"durable,omitempty"`
}

// NewProvisional returns a Ref keyed by a client-derived handle.
func NewProvisional(handle string) Ref {
	return Ref{Provisional: handle}
}

// NewDurable returns a Ref keyed by a store-assigned UUID.
func NewDurable(id string) Ref {
	return Ref{Durable: id}
}

// ParseRef classifies a raw identifier string: UUID-shaped values become
// durable refs, anything else is treated as a provisional handle.
//
// Used at the HTTP boundary where path parameters arrive untyped.
func ParseRef(raw string) Ref {
	raw = strings.TrimSpace(raw)
	if uuidShape.MatchString(strings.ToLower(raw)) {
		return NewDurable(strings.ToLower(raw))
	}
	return NewProvisional(raw)
}

// IsDurable reports whether the ref carries a store-assigned UUID.
func (r Ref) IsDurable() bool { return r.Durable != "" }

// IsZero reports whether the ref carries no identifier at all.
func (r Ref) IsZero() bool { return r.Durable == "" && r.Provisional == "" }

// Key returns a stable map/set key. Provisional and durable namespaces never
// collide, so a remap from one to the other is always a key change.
func (r Ref) Key() string {
	if r.Durable != "" {
		return "d:" + r.Durable
	}
	return "p:" + r.Provisional
}

// String implements fmt.Stringer for logs.
func (r Ref) String() string { return r.Key() }
