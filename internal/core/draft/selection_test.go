// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package draft_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apchapcomputing/newsletter2paper/internal/core/draft"
	"github.com/apchapcomputing/newsletter2paper/internal/core/publication"
)

func entry(ref publication.Ref) draft.Entry {
	return draft.Entry{Ref: ref, Title: ref.Key(), URL: "https://example.substack.com"}
}

/*
TestSelectionSet_Add_Deduplicates checks that a ref key is held at most once
and that re-adding keeps the original position.
*/
func TestSelectionSet_Add_Deduplicates(t *testing.T) {
	set := draft.NewSelectionSet(nil)

	assert.True(t, set.Add(entry(publication.NewProvisional("acx"))))
	assert.True(t, set.Add(entry(publication.NewProvisional("noahpinion"))))
	assert.False(t, set.Add(entry(publication.NewProvisional("acx"))), "duplicate key must be rejected")

	items := set.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p:acx", items[0].Ref.Key())
	assert.Equal(t, "p:noahpinion", items[1].Ref.Key())
}

/*
TestSelectionSet_Add_RejectsZeroRef ensures an empty identifier never enters
the selection.
*/
func TestSelectionSet_Add_RejectsZeroRef(t *testing.T) {
	set := draft.NewSelectionSet(nil)
	assert.False(t, set.Add(draft.Entry{Title: "no identifier"}))
	assert.Zero(t, set.Len())
}

/*
TestSelectionSet_Remove preserves the order of the remaining entries and
treats absent keys as a no-op.
*/
func TestSelectionSet_Remove(t *testing.T) {
	set := draft.NewSelectionSet([]draft.Entry{
		entry(publication.NewProvisional("a")),
		entry(publication.NewProvisional("b")),
		entry(publication.NewProvisional("c")),
	})

	assert.True(t, set.Remove(publication.NewProvisional("b")))
	assert.False(t, set.Remove(publication.NewProvisional("missing")))

	items := set.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p:a", items[0].Ref.Key())
	assert.Equal(t, "p:c", items[1].Ref.Key())
}

/*
TestSelectionSet_Remap covers the identifier upgrade after a save: position
and attributes survive, absent sources are ignored, and a remap onto an
already-present key drops the stale entry instead of duplicating it.
*/
func TestSelectionSet_Remap(t *testing.T) {
	durable := publication.NewDurable("0192a7b4-0000-7000-8000-000000000001")

	t.Run("in_place_upgrade", func(t *testing.T) {
		set := draft.NewSelectionSet([]draft.Entry{
			{Ref: publication.NewProvisional("first"), Title: "First"},
			{Ref: publication.NewProvisional("acx"), Title: "Astral Codex Ten", RemoveImages: true},
		})

		set.Remap(publication.NewProvisional("acx"), durable)

		items := set.Items()
		require.Len(t, items, 2)
		assert.Equal(t, durable.Key(), items[1].Ref.Key(), "position must be preserved")
		assert.Equal(t, "Astral Codex Ten", items[1].Title)
		assert.True(t, items[1].RemoveImages, "attributes must survive the remap")
	})

	t.Run("absent_old_is_noop", func(t *testing.T) {
		set := draft.NewSelectionSet([]draft.Entry{entry(publication.NewProvisional("acx"))})

		set.Remap(publication.NewProvisional("missing"), durable)

		require.Len(t, set.Items(), 1)
		assert.Equal(t, "p:acx", set.Items()[0].Ref.Key())
	})

	t.Run("existing_target_drops_stale_entry", func(t *testing.T) {
		set := draft.NewSelectionSet([]draft.Entry{
			entry(durable),
			entry(publication.NewProvisional("acx")),
		})

		set.Remap(publication.NewProvisional("acx"), durable)

		items := set.Items()
		require.Len(t, items, 1)
		assert.Equal(t, durable.Key(), items[0].Ref.Key())
	})
}

/*
TestNewSelectionSet_DropsCorruptRows checks that a stored document with
duplicates or zero refs is repaired on load.
*/
func TestNewSelectionSet_DropsCorruptRows(t *testing.T) {
	set := draft.NewSelectionSet([]draft.Entry{
		entry(publication.NewProvisional("acx")),
		{Title: "zero ref"},
		entry(publication.NewProvisional("acx")),
		entry(publication.NewProvisional("noahpinion")),
	})

	items := set.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p:acx", items[0].Ref.Key())
	assert.Equal(t, "p:noahpinion", items[1].Ref.Key())
}
