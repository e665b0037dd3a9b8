// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package draft

import (
	"context"
	"log/slog"

	"github.com/apchapcomputing/newsletter2paper/internal/core/issue"
	"github.com/apchapcomputing/newsletter2paper/internal/core/publication"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/constants"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/validate"
)

// # Service Layer

// Syncer persists a draft into its durable issue record and adopts guest
// records at sign-in. It is satisfied by the issue service.
type Syncer interface {
	Save(context context.Context, input issue.SaveInput) (*issue.SaveResult, error)
	AdoptGuestIssue(context context.Context, issueID, userID, targetEmail string) error
}

// Patch is a partial edit to the draft fields. Nil pointers leave the
// current value alone.
type Patch struct {
	Title        *string          `json:"title,omitempty"`
	OutputMode   *issue.Format    `json:"output_mode,omitempty"`
	Frequency    *issue.Frequency `json:"frequency,omitempty"`
	RemoveImages *bool            `json:"remove_images,omitempty"`
}

// Service applies edits to per-session working state and keeps it
// synchronized with the durable store through the autosaver.
type Service struct {
	store  Repository
	syncer Syncer
	saver  *Autosaver
	logger *slog.Logger
}

// NewService creates a draft service with its own autosaver. The base
// context bounds background flushes and should be the process context.
func NewService(base context.Context, store Repository, syncer Syncer, logger *slog.Logger) *Service {
	service := &Service{
		store:  store,
		syncer: syncer,
		logger: logger,
	}
	service.saver = NewAutosaver(base, constants.DraftDebounceQuietPeriod, service.autoFlush, logger)
	return service
}

// Close drains the autosaver: pending sessions are flushed and in-flight
// flushes finish before it returns. Call during shutdown, before the
// stores close.
func (service *Service) Close() {
	service.saver.Close()
}

/*
Get returns the session's working state, defaults included.
*/
func (service *Service) Get(context context.Context, session Session) (*State, error) {
	return service.store.Load(context, session.Key)
}

/*
UpdateDraft applies a partial edit to the draft fields, persists the
working state, and schedules a debounced synchronization.

Parameters:
  - context: Request context for cancellation
  - session: The editing session
  - patch: Fields to change; nil fields are untouched

Returns:
  - *State: The updated working state
  - error: Validation or backend errors as AppError
*/
func (service *Service) UpdateDraft(context context.Context, session Session, patch Patch) (*State, error) {
	v := &validate.Validator{}
	if patch.OutputMode != nil {
		v.Custom("output_mode", !patch.OutputMode.IsValid(), "Must be one of: newspaper, essay")
	}
	if patch.Frequency != nil {
		v.Custom("frequency", !patch.Frequency.IsValid(), "Must be one of: once, daily, weekly, monthly")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	state, err := service.store.Load(context, session.Key)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		state.Draft.Title = patch.Title
	}
	if patch.OutputMode != nil {
		state.Draft.OutputMode = *patch.OutputMode
	}
	if patch.Frequency != nil {
		state.Draft.Frequency = *patch.Frequency
	}
	if patch.RemoveImages != nil {
		state.Draft.RemoveImages = *patch.RemoveImages
	}

	if err := service.store.Save(context, session.Key, state); err != nil {
		return nil, err
	}

	service.saver.Schedule(session)
	return state, nil
}

/*
AddPublication appends a publication to the selection. Adding a ref that is
already selected is a no-op that keeps its position.
*/
func (service *Service) AddPublication(context context.Context, session Session, entry Entry) (*State, error) {
	v := &validate.Validator{}
	v.Custom("ref", entry.Ref.IsZero(), "A publication identifier is required")
	if !entry.Ref.IsDurable() {
		v.URL("url", entry.URL)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	state, err := service.store.Load(context, session.Key)
	if err != nil {
		return nil, err
	}

	selection := NewSelectionSet(state.Selection)
	if !selection.Add(entry) {
		// Already selected, nothing changed, nothing to sync.
		return state, nil
	}
	state.Selection = selection.Items()

	if err := service.store.Save(context, session.Key, state); err != nil {
		return nil, err
	}

	service.saver.Schedule(session)
	return state, nil
}

/*
RemovePublication drops a publication from the selection. The next
synchronization propagates the removal by omission.
*/
func (service *Service) RemovePublication(context context.Context, session Session, ref publication.Ref) (*State, error) {
	state, err := service.store.Load(context, session.Key)
	if err != nil {
		return nil, err
	}

	selection := NewSelectionSet(state.Selection)
	if !selection.Remove(ref) {
		return state, nil
	}
	state.Selection = selection.Items()

	if err := service.store.Save(context, session.Key, state); err != nil {
		return nil, err
	}

	service.saver.Schedule(session)
	return state, nil
}

/*
Flush synchronizes immediately, bypassing the debounce timer. Unlike the
autosave path, errors surface to the caller.

Returns:
  - *issue.SaveResult: The durable issue plus any identifier remaps
  - error: Validation or database errors as AppError
*/
func (service *Service) Flush(context context.Context, session Session) (*issue.SaveResult, error) {
	service.saver.Cancel(session.Key)
	return service.sync(context, session)
}

/*
Clear resets the session's working state and drops any pending flush.
*/
func (service *Service) Clear(context context.Context, session Session) error {
	service.saver.Cancel(session.Key)
	return service.store.Clear(context, session.Key)
}

/*
MigrateGuest carries a guest session's working state into a signed-in
account: the guest issue is adopted, the draft moves under the user's key,
and the guest documents are cleared.

Re-running the migration, or running it for a guest session that never
edited anything, is a safe no-op.

Parameters:
  - context: Request context for cancellation
  - guestKey: The anonymous session key
  - userID: The account taking over the draft
  - targetEmail: The account email, becoming the delivery target

Returns:
  - error: Backend errors; an empty guest draft is not one
*/
func (service *Service) MigrateGuest(context context.Context, guestKey, userID, targetEmail string) error {
	state, err := service.store.Load(context, guestKey)
	if err != nil {
		return err
	}

	if state.Draft.IssueID != "" {
		if err := service.syncer.AdoptGuestIssue(context, state.Draft.IssueID, userID, targetEmail); err != nil {
			return err
		}

		// Adoption rewrote the durable record to a weekly cadence with the
		// account as delivery target. Fold the same values into the carried
		// draft so the scheduled synchronization does not undo them.
		if state.Draft.Frequency == issue.FrequencyOnce {
			state.Draft.Frequency = issue.FrequencyWeekly
		}
	}
	state.Draft.TargetEmail = &targetEmail

	// Nothing worth carrying over: just drop the guest documents.
	if state.Draft.IssueID == "" && len(state.Selection) == 0 && state.Draft.Title == nil {
		return service.store.Clear(context, guestKey)
	}

	// Last write wins: the migrated draft replaces whatever the account key
	// held, matching the single-working-draft model.
	if err := service.store.Save(context, userID, state); err != nil {
		return err
	}
	if err := service.store.Clear(context, guestKey); err != nil {
		return err
	}

	service.logger.InfoContext(context, "guest_draft_migrated",
		slog.String("user_id", userID),
		slog.String("issue_id", state.Draft.IssueID),
	)

	// The next synchronization runs as the user, attaching ownership.
	service.saver.Schedule(Session{Key: userID, UserID: userID})
	return nil
}

// autoFlush adapts sync for the autosaver, which only cares about the error.
func (service *Service) autoFlush(context context.Context, session Session) error {
	_, err := service.sync(context, session)
	return err
}

// sync runs one synchronization pass: save the draft into its durable
// record, then fold the assigned identifiers back into working state.
func (service *Service) sync(context context.Context, session Session) (*issue.SaveResult, error) {
	state, err := service.store.Load(context, session.Key)
	if err != nil {
		return nil, err
	}

	input := issue.SaveInput{
		IssueID:      state.Draft.IssueID,
		UserID:       session.UserID,
		Title:        state.Draft.Title,
		Format:       state.Draft.OutputMode,
		Frequency:    state.Draft.Frequency,
		TargetEmail:  state.Draft.TargetEmail,
		RemoveImages: state.Draft.RemoveImages,
		Selection:    make([]issue.SelectionEntry, 0, len(state.Selection)),
	}
	for _, entry := range state.Selection {
		input.Selection = append(input.Selection, issue.SelectionEntry{
			Ref:          entry.Ref,
			Title:        entry.Title,
			URL:          entry.URL,
			Publisher:    entry.Publisher,
			RemoveImages: entry.RemoveImages,
		})
	}

	result, err := service.syncer.Save(context, input)
	if err != nil {
		return nil, err
	}

	// Fold assigned identifiers back: the issue ID for the next save, and
	// durable refs for entries that were provisional going in.
	state.Draft.IssueID = result.Issue.ID
	if len(result.Remapped) > 0 {
		selection := NewSelectionSet(state.Selection)
		for _, entry := range state.Selection {
			if durable, ok := result.Remapped[entry.Ref.Key()]; ok {
				selection.Remap(entry.Ref, durable)
			}
		}
		state.Selection = selection.Items()
	}

	if err := service.store.Save(context, session.Key, state); err != nil {
		return nil, err
	}

	service.logger.DebugContext(context, "draft_synchronized",
		slog.String("session_key", session.Key),
		slog.String("issue_id", result.Issue.ID),
	)
	return result, nil
}
