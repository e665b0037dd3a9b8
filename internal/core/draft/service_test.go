// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package draft_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apchapcomputing/newsletter2paper/internal/core/draft"
	"github.com/apchapcomputing/newsletter2paper/internal/core/issue"
	"github.com/apchapcomputing/newsletter2paper/internal/core/publication"
	"github.com/apchapcomputing/newsletter2paper/pkg/pointer"
)

const (
	testIssueID  = "0192a7b4-aaaa-7000-8000-000000000001"
	testPubID    = "0192a7b4-bbbb-7000-8000-000000000002"
	testUserID   = "0192a7b4-cccc-7000-8000-000000000003"
	testGuestKey = "3f8a0c1e-guest-session-token"
)

// # Test Doubles

// memoryStore is an in-memory draft.Repository.
type memoryStore struct {
	mu     sync.Mutex
	states map[string]*draft.State
}

func newMemoryStore() *memoryStore {
	return &memoryStore{states: make(map[string]*draft.State)}
}

func (m *memoryStore) Load(_ context.Context, key string) (*draft.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.states[key]; ok {
		clone := *state
		clone.Selection = append([]draft.Entry(nil), state.Selection...)
		return &clone, nil
	}
	return draft.DefaultState(), nil
}

func (m *memoryStore) Save(_ context.Context, key string, state *draft.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *state
	clone.Selection = append([]draft.Entry(nil), state.Selection...)
	m.states[key] = &clone
	return nil
}

func (m *memoryStore) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, key)
	return nil
}

func (m *memoryStore) get(key string) (*draft.State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[key]
	return state, ok
}

// fakeSyncer records save inputs and hands back a durable issue ID plus
// remaps for every provisional selection entry.
type fakeSyncer struct {
	mu       sync.Mutex
	saves    []issue.SaveInput
	adopted  []string
	saveErr  error
	adoptErr error
}

func (f *fakeSyncer) Save(_ context.Context, input issue.SaveInput) (*issue.SaveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saves = append(f.saves, input)

	remapped := make(map[string]publication.Ref)
	for _, entry := range input.Selection {
		if !entry.Ref.IsDurable() {
			remapped[entry.Ref.Key()] = publication.NewDurable(testPubID)
		}
	}
	return &issue.SaveResult{
		Issue:    &issue.Issue{ID: testIssueID},
		Remapped: remapped,
	}, nil
}

func (f *fakeSyncer) AdoptGuestIssue(_ context.Context, issueID, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adoptErr != nil {
		return f.adoptErr
	}
	f.adopted = append(f.adopted, issueID)
	return nil
}

func (f *fakeSyncer) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func newDraftService(t *testing.T, store draft.Repository, syncer draft.Syncer) *draft.Service {
	t.Helper()
	service := draft.NewService(context.Background(), store, syncer, testLogger())
	t.Cleanup(service.Close)
	return service
}

// # Tests

/*
TestService_Get_ReturnsDefaults checks that a fresh session sees the default
draft instead of an error.
*/
func TestService_Get_ReturnsDefaults(t *testing.T) {
	service := newDraftService(t, newMemoryStore(), &fakeSyncer{})

	state, err := service.Get(context.Background(), draft.Session{Key: testGuestKey})

	require.NoError(t, err)
	assert.Nil(t, state.Draft.Title)
	assert.Equal(t, issue.FormatNewspaper, state.Draft.OutputMode)
	assert.Equal(t, issue.FrequencyOnce, state.Draft.Frequency)
	assert.Empty(t, state.Selection)
}

/*
TestService_UpdateDraft_PersistsPatch verifies partial edits land in the
store and untouched fields keep their values.
*/
func TestService_UpdateDraft_PersistsPatch(t *testing.T) {
	store := newMemoryStore()
	service := newDraftService(t, store, &fakeSyncer{})
	session := draft.Session{Key: testGuestKey}

	_, err := service.UpdateDraft(context.Background(), session, draft.Patch{
		Title: pointer.To("Sunday Paper"),
	})
	require.NoError(t, err)

	essay := issue.FormatEssay
	state, err := service.UpdateDraft(context.Background(), session, draft.Patch{OutputMode: &essay})
	require.NoError(t, err)

	require.NotNil(t, state.Draft.Title)
	assert.Equal(t, "Sunday Paper", *state.Draft.Title)
	assert.Equal(t, issue.FormatEssay, state.Draft.OutputMode)

	stored, ok := store.get(testGuestKey)
	require.True(t, ok)
	assert.Equal(t, issue.FormatEssay, stored.Draft.OutputMode)
}

/*
TestService_UpdateDraft_RejectsUnknownEnums checks enum validation on the
patch fields.
*/
func TestService_UpdateDraft_RejectsUnknownEnums(t *testing.T) {
	service := newDraftService(t, newMemoryStore(), &fakeSyncer{})
	bad := issue.Format("tabloid")

	_, err := service.UpdateDraft(context.Background(), draft.Session{Key: testGuestKey}, draft.Patch{
		OutputMode: &bad,
	})

	require.Error(t, err)
}

/*
TestService_AddPublication_IsIdempotent checks that re-adding a selected
publication changes nothing and triggers no extra sync.
*/
func TestService_AddPublication_IsIdempotent(t *testing.T) {
	store := newMemoryStore()
	service := newDraftService(t, store, &fakeSyncer{})
	session := draft.Session{Key: testGuestKey}
	entry := draft.Entry{
		Ref:   publication.NewProvisional("acx"),
		Title: "Astral Codex Ten",
		URL:   "https://acx.substack.com",
	}

	first, err := service.AddPublication(context.Background(), session, entry)
	require.NoError(t, err)
	require.Len(t, first.Selection, 1)

	second, err := service.AddPublication(context.Background(), session, entry)
	require.NoError(t, err)
	assert.Len(t, second.Selection, 1)
}

/*
TestService_AddPublication_RequiresURLForProvisional ensures a provisional
entry without a resolvable URL is rejected; a durable one does not need it.
*/
func TestService_AddPublication_RequiresURLForProvisional(t *testing.T) {
	service := newDraftService(t, newMemoryStore(), &fakeSyncer{})
	session := draft.Session{Key: testGuestKey}

	_, err := service.AddPublication(context.Background(), session, draft.Entry{
		Ref: publication.NewProvisional("acx"),
	})
	require.Error(t, err)

	_, err = service.AddPublication(context.Background(), session, draft.Entry{
		Ref: publication.NewDurable(testPubID),
	})
	require.NoError(t, err)
}

/*
TestService_Flush_FoldsAssignedIdentifiers checks the identifier round-trip:
after a flush the draft holds the issue ID and provisional refs have been
upgraded in place.
*/
func TestService_Flush_FoldsAssignedIdentifiers(t *testing.T) {
	store := newMemoryStore()
	syncer := &fakeSyncer{}
	service := newDraftService(t, store, syncer)
	session := draft.Session{Key: testUserID, UserID: testUserID}

	_, err := service.AddPublication(context.Background(), session, draft.Entry{
		Ref:   publication.NewProvisional("acx"),
		Title: "Astral Codex Ten",
		URL:   "https://acx.substack.com",
	})
	require.NoError(t, err)

	result, err := service.Flush(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, testIssueID, result.Issue.ID)

	stored, ok := store.get(testUserID)
	require.True(t, ok)
	assert.Equal(t, testIssueID, stored.Draft.IssueID)
	require.Len(t, stored.Selection, 1)
	assert.Equal(t, "d:"+testPubID, stored.Selection[0].Ref.Key())
	assert.Equal(t, "Astral Codex Ten", stored.Selection[0].Title, "attributes must survive the remap")
}

/*
TestService_Flush_SurfacesSyncErrors distinguishes the explicit save path
from autosave: the caller sees the failure.
*/
func TestService_Flush_SurfacesSyncErrors(t *testing.T) {
	syncer := &fakeSyncer{saveErr: errors.New("database down")}
	service := newDraftService(t, newMemoryStore(), syncer)

	_, err := service.Flush(context.Background(), draft.Session{Key: testGuestKey})

	require.Error(t, err)
}

/*
TestService_MigrateGuest covers sign-in adoption: the guest issue is
adopted, the draft moves under the user key, and the guest documents go
away.
*/
func TestService_MigrateGuest(t *testing.T) {
	t.Run("carries_draft_and_adopts_issue", func(t *testing.T) {
		store := newMemoryStore()
		syncer := &fakeSyncer{}
		service := newDraftService(t, store, syncer)

		require.NoError(t, store.Save(context.Background(), testGuestKey, &draft.State{
			Draft: draft.Draft{
				Title:      pointer.To("Sunday Paper"),
				OutputMode: issue.FormatNewspaper,
				Frequency:  issue.FrequencyOnce,
				IssueID:    testIssueID,
			},
			Selection: []draft.Entry{{Ref: publication.NewDurable(testPubID)}},
		}))

		err := service.MigrateGuest(context.Background(), testGuestKey, testUserID, "reader@example.com")
		require.NoError(t, err)

		assert.Equal(t, []string{testIssueID}, syncer.adopted)

		_, guestRemains := store.get(testGuestKey)
		assert.False(t, guestRemains, "guest documents must be cleared")

		migrated, ok := store.get(testUserID)
		require.True(t, ok)
		assert.Equal(t, testIssueID, migrated.Draft.IssueID)
		require.NotNil(t, migrated.Draft.Title)
		assert.Equal(t, "Sunday Paper", *migrated.Draft.Title)

		// Adoption rewrote the durable record; the carried draft must hold
		// the same values or the next sync would revert them.
		assert.Equal(t, issue.FrequencyWeekly, migrated.Draft.Frequency)
		require.NotNil(t, migrated.Draft.TargetEmail)
		assert.Equal(t, "reader@example.com", *migrated.Draft.TargetEmail)
	})

	t.Run("sync_after_migration_keeps_adopted_values", func(t *testing.T) {
		store := newMemoryStore()
		syncer := &fakeSyncer{}
		service := newDraftService(t, store, syncer)

		require.NoError(t, store.Save(context.Background(), testGuestKey, &draft.State{
			Draft: draft.Draft{
				Frequency: issue.FrequencyOnce,
				IssueID:   testIssueID,
			},
			Selection: []draft.Entry{{Ref: publication.NewDurable(testPubID)}},
		}))

		require.NoError(t, service.MigrateGuest(context.Background(), testGuestKey, testUserID, "reader@example.com"))

		userSession := draft.Session{Key: testUserID, UserID: testUserID}
		_, err := service.Flush(context.Background(), userSession)
		require.NoError(t, err)

		require.Equal(t, 1, syncer.saveCount())
		synced := syncer.saves[0]
		assert.Equal(t, issue.FrequencyWeekly, synced.Frequency)
		require.NotNil(t, synced.TargetEmail)
		assert.Equal(t, "reader@example.com", *synced.TargetEmail)
	})

	t.Run("empty_guest_draft_is_noop", func(t *testing.T) {
		store := newMemoryStore()
		syncer := &fakeSyncer{}
		service := newDraftService(t, store, syncer)

		err := service.MigrateGuest(context.Background(), testGuestKey, testUserID, "reader@example.com")
		require.NoError(t, err)

		assert.Empty(t, syncer.adopted)
		_, ok := store.get(testUserID)
		assert.False(t, ok, "nothing should be written under the user key")
	})

	t.Run("adoption_failure_aborts_migration", func(t *testing.T) {
		store := newMemoryStore()
		syncer := &fakeSyncer{adoptErr: errors.New("database down")}
		service := newDraftService(t, store, syncer)

		require.NoError(t, store.Save(context.Background(), testGuestKey, &draft.State{
			Draft: draft.Draft{IssueID: testIssueID},
		}))

		err := service.MigrateGuest(context.Background(), testGuestKey, testUserID, "reader@example.com")
		require.Error(t, err)

		_, guestRemains := store.get(testGuestKey)
		assert.True(t, guestRemains, "guest state must survive a failed adoption")
	})
}

/*
TestService_Clear_DropsStateAndPendingSync verifies a cleared session never
syncs afterwards.
*/
func TestService_Clear_DropsStateAndPendingSync(t *testing.T) {
	store := newMemoryStore()
	syncer := &fakeSyncer{}
	service := newDraftService(t, store, syncer)
	session := draft.Session{Key: testGuestKey}

	_, err := service.AddPublication(context.Background(), session, draft.Entry{
		Ref: publication.NewProvisional("acx"),
		URL: "https://acx.substack.com",
	})
	require.NoError(t, err)

	require.NoError(t, service.Clear(context.Background(), session))

	_, ok := store.get(testGuestKey)
	assert.False(t, ok)
	assert.Zero(t, syncer.saveCount())
}
