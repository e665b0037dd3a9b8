// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package issue

import (
	"context"
	"fmt"
	"time"

	"github.com/apchapcomputing/newsletter2paper/internal/platform/database/schema"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/dberr"
	"github.com/apchapcomputing/newsletter2paper/pkg/pagination"
	"github.com/apchapcomputing/newsletter2paper/pkg/uuidv7"
)

// PostgresRepository implements the Repository interface over a PgxPool.
type PostgresRepository struct {
	db PgxPool
}

// NewPostgresRepository creates a new PostgreSQL implementation of the Repository.
func NewPostgresRepository(db PgxPool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// issueColumns is the canonical scan order shared by every issue query.
func issueColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s",
		schema.Issue.ID, schema.Issue.Title, schema.Issue.Format, schema.Issue.Frequency,
		schema.Issue.Status, schema.Issue.TargetEmail, schema.Issue.RemoveImages,
		schema.Issue.CreatedAt, schema.Issue.UpdatedAt,
	)
}

func scanIssue(row interface{ Scan(dest ...any) error }) (*Issue, error) {
	stored := &Issue{}
	err := row.Scan(
		&stored.ID,
		&stored.Title,
		&stored.Format,
		&stored.Frequency,
		&stored.Status,
		&stored.TargetEmail,
		&stored.RemoveImages,
		&stored.CreatedAt,
		&stored.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

/*
Create inserts a new issue with a fresh UUIDv7 identifier.
*/
func (repository *PostgresRepository) Create(context context.Context, issue *Issue) (*Issue, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING %s
	`,
		schema.Issue.Table,
		schema.Issue.ID, schema.Issue.Title, schema.Issue.Format, schema.Issue.Frequency,
		schema.Issue.Status, schema.Issue.TargetEmail, schema.Issue.RemoveImages,
		schema.Issue.CreatedAt, schema.Issue.UpdatedAt,
		issueColumns(),
	)

	row := repository.db.QueryRow(context, query,
		uuidv7.New(),
		issue.Title,
		issue.Format,
		issue.Frequency,
		issue.Status,
		issue.TargetEmail,
		issue.RemoveImages,
		time.Now(),
	)

	stored, err := scanIssue(row)
	if err != nil {
		return nil, dberr.Wrap(err, "issue_create")
	}
	return stored, nil
}

/*
Get returns the issue with the given identifier.
*/
func (repository *PostgresRepository) Get(context context.Context, id string) (*Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		issueColumns(), schema.Issue.Table, schema.Issue.ID,
	)

	stored, err := scanIssue(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "issue_get")
	}
	return stored, nil
}

/*
Update rewrites the mutable fields of an issue.

The RETURNING clause doubles as the existence check: zero matched rows scan
as pgx.ErrNoRows, which surfaces to the service as NotFound and drives the
stale-reference fallback.
*/
func (repository *PostgresRepository) Update(context context.Context, issue *Issue) (*Issue, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = now()
		WHERE %s = $1
		RETURNING %s
	`,
		schema.Issue.Table,
		schema.Issue.Title, schema.Issue.Format, schema.Issue.Frequency,
		schema.Issue.TargetEmail, schema.Issue.RemoveImages, schema.Issue.UpdatedAt,
		schema.Issue.ID,
		issueColumns(),
	)

	row := repository.db.QueryRow(context, query,
		issue.ID,
		issue.Title,
		issue.Format,
		issue.Frequency,
		issue.TargetEmail,
		issue.RemoveImages,
	)

	stored, err := scanIssue(row)
	if err != nil {
		return nil, dberr.Wrap(err, "issue_update")
	}
	return stored, nil
}

/*
Delete removes an issue. Junction rows cascade at the schema level.
*/
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Issue.Table, schema.Issue.ID)

	tag, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "issue_delete")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

/*
EnsureOwnership records user ownership, tolerating repeats.
*/
func (repository *PostgresRepository) EnsureOwnership(context context.Context, userID, issueID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`,
		schema.UserIssue.Table,
		schema.UserIssue.UserID, schema.UserIssue.IssueID, schema.UserIssue.CreatedAt,
	)

	_, err := repository.db.Exec(context, query, userID, issueID, time.Now())
	if err != nil {
		return dberr.Wrap(err, "issue_ensure_ownership")
	}
	return nil
}

/*
AdoptGuest promotes a guest issue to an owned draft.

The guest-status guard in the WHERE clause makes the promotion idempotent:
a second call, or a call against an issue that was never a guest record,
matches zero rows and reports adopted=false without error.
*/
func (repository *PostgresRepository) AdoptGuest(context context.Context, issueID, targetEmail string) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2,
		    %s = CASE WHEN %s = $3 THEN $4 ELSE %s END,
		    %s = $5,
		    %s = now()
		WHERE %s = $1 AND %s = $6
	`,
		schema.Issue.Table,
		schema.Issue.Status,
		schema.Issue.Frequency, schema.Issue.Frequency, schema.Issue.Frequency,
		schema.Issue.TargetEmail,
		schema.Issue.UpdatedAt,
		schema.Issue.ID, schema.Issue.Status,
	)

	tag, err := repository.db.Exec(context, query,
		issueID,
		StatusDraft,
		FrequencyOnce,
		FrequencyWeekly,
		targetEmail,
		StatusGuest,
	)
	if err != nil {
		return false, dberr.Wrap(err, "issue_adopt_guest")
	}
	return tag.RowsAffected() > 0, nil
}

/*
ListForUser returns a page of a user's issues, newest first, with the total
count from a window function.
*/
func (repository *PostgresRepository) ListForUser(context context.Context, userID string, params pagination.Params) ([]*Issue, int, error) {
	query := fmt.Sprintf(`
		SELECT i.%s, i.%s, i.%s, i.%s, i.%s, i.%s, i.%s, i.%s, i.%s, COUNT(*) OVER() AS total
		FROM %s i
		JOIN %s ui ON ui.%s = i.%s
		WHERE ui.%s = $1
		ORDER BY i.%s DESC
		LIMIT $2 OFFSET $3
	`,
		schema.Issue.ID, schema.Issue.Title, schema.Issue.Format, schema.Issue.Frequency,
		schema.Issue.Status, schema.Issue.TargetEmail, schema.Issue.RemoveImages,
		schema.Issue.CreatedAt, schema.Issue.UpdatedAt,
		schema.Issue.Table,
		schema.UserIssue.Table, schema.UserIssue.IssueID, schema.Issue.ID,
		schema.UserIssue.UserID,
		schema.Issue.CreatedAt,
	)

	rows, err := repository.db.Query(context, query, userID, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "issue_list_for_user")
	}
	defer rows.Close()

	issues := make([]*Issue, 0)
	total := 0

	for rows.Next() {
		stored := &Issue{}
		if err := rows.Scan(
			&stored.ID, &stored.Title, &stored.Format, &stored.Frequency,
			&stored.Status, &stored.TargetEmail, &stored.RemoveImages,
			&stored.CreatedAt, &stored.UpdatedAt, &total,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "issue_scan")
		}
		issues = append(issues, stored)
	}

	return issues, total, nil
}

/*
ReplacePublications swaps the issue's publication set atomically.

Delete-then-insert inside one transaction implements deletion-by-omission:
whatever the caller does not resend is gone when the transaction commits.
*/
func (repository *PostgresRepository) ReplacePublications(context context.Context, issueID string, links []PublicationLink) error {
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "issue_replace_begin")
	}
	defer transaction.Rollback(context)

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.IssuePublication.Table, schema.IssuePublication.IssueID,
	)
	if _, err := transaction.Exec(context, deleteQuery, issueID); err != nil {
		return dberr.Wrap(err, "issue_replace_delete")
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5)
	`,
		schema.IssuePublication.Table,
		schema.IssuePublication.IssueID, schema.IssuePublication.PublicationID,
		schema.IssuePublication.Position, schema.IssuePublication.RemoveImages,
		schema.IssuePublication.CreatedAt,
	)

	now := time.Now()
	for _, link := range links {
		if _, err := transaction.Exec(context, insertQuery,
			issueID, link.PublicationID, link.Position, link.RemoveImages, now,
		); err != nil {
			return dberr.Wrap(err, "issue_replace_insert")
		}
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "issue_replace_commit")
	}
	return nil
}

/*
ListPublications returns the issue's publications in selection order.
*/
func (repository *PostgresRepository) ListPublications(context context.Context, issueID string) ([]*LinkedPublication, error) {
	query := fmt.Sprintf(`
		SELECT p.%s, p.%s, p.%s, p.%s, p.%s, p.%s, p.%s, p.%s, p.%s, ip.%s, ip.%s
		FROM %s ip
		JOIN %s p ON p.%s = ip.%s
		WHERE ip.%s = $1
		ORDER BY ip.%s ASC
	`,
		schema.Publication.ID, schema.Publication.Handle, schema.Publication.Title, schema.Publication.URL,
		schema.Publication.FeedURL, schema.Publication.Publisher, schema.Publication.SubscriberCount,
		schema.Publication.CreatedAt, schema.Publication.UpdatedAt,
		schema.IssuePublication.Position, schema.IssuePublication.RemoveImages,
		schema.IssuePublication.Table,
		schema.Publication.Table, schema.Publication.ID, schema.IssuePublication.PublicationID,
		schema.IssuePublication.IssueID,
		schema.IssuePublication.Position,
	)

	rows, err := repository.db.Query(context, query, issueID)
	if err != nil {
		return nil, dberr.Wrap(err, "issue_list_publications")
	}
	defer rows.Close()

	linked := make([]*LinkedPublication, 0)
	for rows.Next() {
		entry := &LinkedPublication{}
		if err := rows.Scan(
			&entry.ID, &entry.Handle, &entry.Title, &entry.URL,
			&entry.FeedURL, &entry.Publisher, &entry.SubscriberCount,
			&entry.CreatedAt, &entry.UpdatedAt,
			&entry.Position, &entry.RemoveImages,
		); err != nil {
			return nil, dberr.Wrap(err, "issue_publication_scan")
		}
		linked = append(linked, entry)
	}

	return linked, nil
}
