// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package draft

import (
	"sync"

	"github.com/apchapcomputing/newsletter2paper/internal/core/publication"
)

// # Selection Set

// Entry is one publication in the selection, carrying enough metadata to
// create the durable row at sync time if the ref is still provisional.
type Entry struct {
	Ref          publication.Ref `json:"ref"`
	Title        string          `json:"title"`
	URL          string          `json:"url"`
	Publisher    string          `json:"publisher,omitempty"`
	RemoveImages bool            `json:"remove_images"`
}

/*
SelectionSet is an ordered, deduplicated collection of publication entries.

# Invariants

  - No two entries share a ref key.
  - Insertion order is preserved across every mutation; it is the order the
    printed issue lays publications out in.

All methods are safe for concurrent use.
*/
type SelectionSet struct {
	mu      sync.Mutex
	entries []Entry
}

// NewSelectionSet builds a set from stored entries, dropping any duplicate
// or zero-ref rows a corrupted document might carry.
func NewSelectionSet(entries []Entry) *SelectionSet {
	set := &SelectionSet{entries: make([]Entry, 0, len(entries))}
	for _, entry := range entries {
		set.Add(entry)
	}
	return set
}

// Add appends an entry unless its ref key is already present. Adding an
// existing key is a no-op that keeps the original position and attributes.
//
// Returns whether the entry was actually added.
func (set *SelectionSet) Add(entry Entry) bool {
	if entry.Ref.IsZero() {
		return false
	}

	set.mu.Lock()
	defer set.mu.Unlock()

	if set.indexOf(entry.Ref.Key()) >= 0 {
		return false
	}
	set.entries = append(set.entries, entry)
	return true
}

// Remove deletes the entry with the given ref key, preserving the order of
// the rest. Removing an absent key is a no-op.
func (set *SelectionSet) Remove(ref publication.Ref) bool {
	set.mu.Lock()
	defer set.mu.Unlock()

	index := set.indexOf(ref.Key())
	if index < 0 {
		return false
	}
	set.entries = append(set.entries[:index], set.entries[index+1:]...)
	return true
}

// Remap replaces an entry's identifier in place, keeping its position and
// attributes. This is how a provisional ref becomes durable after a save.
//
// When old is absent the set is unchanged. When the target key already
// exists elsewhere, the old entry is dropped instead, so the no-duplicates
// invariant holds.
func (set *SelectionSet) Remap(old, replacement publication.Ref) {
	set.mu.Lock()
	defer set.mu.Unlock()

	index := set.indexOf(old.Key())
	if index < 0 {
		return
	}

	if existing := set.indexOf(replacement.Key()); existing >= 0 && existing != index {
		set.entries = append(set.entries[:index], set.entries[index+1:]...)
		return
	}

	set.entries[index].Ref = replacement
}

// Clear empties the set.
func (set *SelectionSet) Clear() {
	set.mu.Lock()
	defer set.mu.Unlock()
	set.entries = set.entries[:0]
}

// Items returns a copy of the entries in order.
func (set *SelectionSet) Items() []Entry {
	set.mu.Lock()
	defer set.mu.Unlock()

	items := make([]Entry, len(set.entries))
	copy(items, set.entries)
	return items
}

// Len returns the number of entries.
func (set *SelectionSet) Len() int {
	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.entries)
}

// indexOf finds the position of a ref key. Callers hold the lock.
func (set *SelectionSet) indexOf(key string) int {
	for index, entry := range set.entries {
		if entry.Ref.Key() == key {
			return index
		}
	}
	return -1
}
