// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package issue

import (
	"context"
	"log/slog"

	"github.com/apchapcomputing/newsletter2paper/internal/core/publication"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/dberr"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/validate"
	"github.com/apchapcomputing/newsletter2paper/pkg/pagination"
)

// # Service Layer

// PublicationResolver resolves selection entries to durable publication
// rows. It is satisfied by the publication service.
type PublicationResolver interface {
	FindOrCreate(context context.Context, pub publication.Publication) (*publication.Publication, error)
}

// Service coordinates the synchronization workflow between a caller's
// working state and the durable issue record.
type Service struct {
	repo     Repository
	resolver PublicationResolver
	logger   *slog.Logger
}

// NewService creates a new issue service.
func NewService(repo Repository, resolver PublicationResolver, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		logger:   logger,
	}
}

/*
Save runs one full synchronization pass, strictly ordered:

 1. Upsert the issue record. A held identifier drives an update; a missing
    or stale identifier drives a create. Stale recovery is silent.
 2. For authenticated callers, ensure the ownership association exists.
 3. Resolve every provisional selection entry to a durable publication.
 4. Replace the issue's publication set wholesale, preserving order.

Parameters:
  - context: Request context for cancellation
  - input: The complete draft state to persist

Returns:
  - *SaveResult: The stored issue plus provisional-to-durable ref remaps
  - error: Validation or database errors as AppError
*/
func (service *Service) Save(context context.Context, input SaveInput) (*SaveResult, error) {
	if err := validateSaveInput(&input); err != nil {
		return nil, err
	}

	stored, err := service.upsertIssue(context, &input)
	if err != nil {
		return nil, err
	}

	if input.UserID != "" {
		if err := service.repo.EnsureOwnership(context, input.UserID, stored.ID); err != nil {
			return nil, err
		}
	}

	links, remapped, err := service.resolveSelection(context, input.Selection)
	if err != nil {
		return nil, err
	}

	if err := service.repo.ReplacePublications(context, stored.ID, links); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "issue_saved",
		slog.String("issue_id", stored.ID),
		slog.Int("publication_count", len(links)),
		slog.Bool("authenticated", input.UserID != ""),
	)

	return &SaveResult{Issue: stored, Remapped: remapped}, nil
}

// upsertIssue creates or updates the issue record, recovering from stale
// identifiers by falling back to create.
func (service *Service) upsertIssue(context context.Context, input *SaveInput) (*Issue, error) {
	record := &Issue{
		ID:           input.IssueID,
		Title:        input.Title,
		Format:       input.Format,
		Frequency:    input.Frequency,
		TargetEmail:  input.TargetEmail,
		RemoveImages: input.RemoveImages,
	}

	if input.IssueID != "" {
		stored, err := service.repo.Update(context, record)
		if err == nil {
			return stored, nil
		}
		if !dberr.IsNotFound(err) {
			return nil, err
		}

		// The held identifier points at a record that no longer exists.
		// Drop it and create fresh rather than surfacing an error.
		service.logger.WarnContext(context, "issue_stale_reference_recovered",
			slog.String("stale_issue_id", input.IssueID),
		)
		record.ID = ""
	}

	record.Status = StatusGuest
	if input.UserID != "" {
		record.Status = StatusDraft
	}

	stored, err := service.repo.Create(context, record)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "issue_created",
		slog.String("issue_id", stored.ID),
		slog.String("status", string(stored.Status)),
	)
	return stored, nil
}

// resolveSelection turns selection entries into ordered storage links,
// creating durable publication rows for provisional entries as needed.
func (service *Service) resolveSelection(context context.Context, entries []SelectionEntry) ([]PublicationLink, map[string]publication.Ref, error) {
	links := make([]PublicationLink, 0, len(entries))
	remapped := make(map[string]publication.Ref)

	for position, entry := range entries {
		ref := entry.Ref

		if !ref.IsDurable() {
			resolved, err := service.resolver.FindOrCreate(context, publication.Publication{
				Handle:    ref.Provisional,
				Title:     entry.Title,
				URL:       entry.URL,
				Publisher: entry.Publisher,
			})
			if err != nil {
				return nil, nil, err
			}

			durable := publication.NewDurable(resolved.ID)
			remapped[ref.Key()] = durable
			ref = durable
		}

		links = append(links, PublicationLink{
			PublicationID: ref.Durable,
			Position:      position,
			RemoveImages:  entry.RemoveImages,
		})
	}

	return links, remapped, nil
}

/*
AdoptGuestIssue migrates a guest issue into the signing-in user's account.

The promotion itself is guarded on guest status at the storage layer, so
calling this twice, or for an issue that was already adopted, is a safe
no-op. The ownership association is ensured on every successful promotion.

Parameters:
  - context: Request context for cancellation
  - issueID: The guest issue held by the pre-sign-in draft
  - userID: The account taking ownership
  - targetEmail: The account email, written as the delivery target

Returns:
  - error: Database errors; a missing or already-adopted issue is not one
*/
func (service *Service) AdoptGuestIssue(context context.Context, issueID, userID, targetEmail string) error {
	if issueID == "" || userID == "" {
		return nil
	}

	adopted, err := service.repo.AdoptGuest(context, issueID, targetEmail)
	if err != nil {
		return err
	}
	if !adopted {
		return nil
	}

	if err := service.repo.EnsureOwnership(context, userID, issueID); err != nil {
		return err
	}

	service.logger.InfoContext(context, "guest_issue_adopted",
		slog.String("issue_id", issueID),
		slog.String("user_id", userID),
	)
	return nil
}

/*
Get returns an issue by identifier.
*/
func (service *Service) Get(context context.Context, id string) (*Issue, error) {
	v := &validate.Validator{}
	v.UUID("id", id)
	if err := v.Err(); err != nil {
		return nil, err
	}

	return service.repo.Get(context, id)
}

/*
Update applies a partial edit to an existing issue. Fields the patch does
not carry keep their stored values.
*/
func (service *Service) Update(context context.Context, id string, patch UpdateInput) (*Issue, error) {
	stored, err := service.Get(context, id)
	if err != nil {
		return nil, err
	}

	v := &validate.Validator{}
	if patch.Format != "" {
		v.Custom("format", !patch.Format.IsValid(), "Must be one of: newspaper, essay")
	}
	if patch.Frequency != "" {
		v.Custom("frequency", !patch.Frequency.IsValid(), "Must be one of: once, daily, weekly, monthly")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		stored.Title = patch.Title
	}
	if patch.Format != "" {
		stored.Format = patch.Format
	}
	if patch.Frequency != "" {
		stored.Frequency = patch.Frequency
	}
	if patch.TargetEmail != nil {
		stored.TargetEmail = patch.TargetEmail
	}
	if patch.RemoveImages != nil {
		stored.RemoveImages = *patch.RemoveImages
	}

	return service.repo.Update(context, stored)
}

/*
Delete removes an issue and its associations.
*/
func (service *Service) Delete(context context.Context, id string) error {
	v := &validate.Validator{}
	v.UUID("id", id)
	if err := v.Err(); err != nil {
		return err
	}

	return service.repo.Delete(context, id)
}

/*
ListForUser returns a page of the user's issues.
*/
func (service *Service) ListForUser(context context.Context, userID string, params pagination.Params) ([]*Issue, int, error) {
	return service.repo.ListForUser(context, userID, params)
}

/*
ListPublications returns an issue's publication set in selection order.
*/
func (service *Service) ListPublications(context context.Context, issueID string) ([]*LinkedPublication, error) {
	v := &validate.Validator{}
	v.UUID("issue_id", issueID)
	if err := v.Err(); err != nil {
		return nil, err
	}

	return service.repo.ListPublications(context, issueID)
}

// validateSaveInput normalises defaults and rejects malformed input before
// any storage work happens.
func validateSaveInput(input *SaveInput) error {
	if input.Format == "" {
		input.Format = FormatNewspaper
	}
	if input.Frequency == "" {
		input.Frequency = FrequencyOnce
	}

	v := &validate.Validator{}
	v.Custom("format", !input.Format.IsValid(), "Must be one of: newspaper, essay")
	v.Custom("frequency", !input.Frequency.IsValid(), "Must be one of: once, daily, weekly, monthly")
	if input.IssueID != "" {
		v.UUID("issue_id", input.IssueID)
	}
	if input.TargetEmail != nil && *input.TargetEmail != "" {
		v.Email("target_email", *input.TargetEmail)
	}
	for _, entry := range input.Selection {
		v.Custom("selection", !entry.Ref.IsDurable() && entry.URL == "", "Provisional entries require a url")
	}
	return v.Err()
}
