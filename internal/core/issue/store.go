// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package issue

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/apchapcomputing/newsletter2paper/pkg/pagination"
)

// # Storage Contracts

// PgxPool is the minimal pool surface the repository needs. It is satisfied
// by *pgxpool.Pool in production and by pgxmock.PgxPoolIface in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PublicationLink is one ordered row of an issue's publication set as the
// storage layer writes it.
type PublicationLink struct {
	PublicationID string
	Position      int
	RemoveImages  bool
}

// Repository defines the persistence operations for issues.
type Repository interface {
	/*
		Create inserts a new issue and assigns its identifier.

		Parameters:
		  - context: Request context for cancellation
		  - issue: Issue to persist; ID and timestamps are assigned here

		Returns:
		  - *Issue: The stored issue with identifier and timestamps set
		  - error: Database errors wrapped as AppError
	*/
	Create(context context.Context, issue *Issue) (*Issue, error)

	/*
		Get returns the issue with the given identifier.

		Returns:
		  - error: NotFound when no such row exists
	*/
	Get(context context.Context, id string) (*Issue, error)

	/*
		Update rewrites the mutable fields of an existing issue.

		Returns:
		  - error: NotFound when the identifier matches no row, which the
		    service treats as a stale reference and recovers from
	*/
	Update(context context.Context, issue *Issue) (*Issue, error)

	/*
		Delete removes an issue. Associated rows go with it via cascading
		foreign keys.
	*/
	Delete(context context.Context, id string) error

	/*
		EnsureOwnership records that a user owns an issue. Re-invocation is a
		no-op (ON CONFLICT DO NOTHING).
	*/
	EnsureOwnership(context context.Context, userID, issueID string) error

	/*
		AdoptGuest promotes a guest issue into an owned draft: status becomes
		draft, a once frequency becomes weekly, and the target email is set.
		The update is guarded on guest status so a second invocation, or one
		against an already-owned issue, changes nothing.

		Returns:
		  - bool: Whether a row was actually promoted
		  - error: Database errors; a missing row is not an error
	*/
	AdoptGuest(context context.Context, issueID, targetEmail string) (bool, error)

	/*
		ListForUser returns a page of issues owned by a user, newest first.
	*/
	ListForUser(context context.Context, userID string, params pagination.Params) ([]*Issue, int, error)

	/*
		ReplacePublications swaps an issue's entire publication set in one
		transaction: delete everything, insert the given rows in order.
		An empty slice clears the set.
	*/
	ReplacePublications(context context.Context, issueID string, links []PublicationLink) error

	/*
		ListPublications returns an issue's publications in selection order.
	*/
	ListPublications(context context.Context, issueID string) ([]*LinkedPublication, error)
}
