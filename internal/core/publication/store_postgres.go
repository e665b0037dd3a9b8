// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package publication

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apchapcomputing/newsletter2paper/internal/platform/database/schema"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/dberr"
	"github.com/apchapcomputing/newsletter2paper/pkg/pagination"
	"github.com/apchapcomputing/newsletter2paper/pkg/uuidv7"
)

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of the Repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

/*
FindOrCreate inserts the publication keyed by canonical URL, or returns the
existing row on conflict.

Description: The upsert touches only updatedat on conflict, so concurrent
find-or-create calls for the same URL converge on one durable row without
clobbering metadata written by an earlier caller.
*/
func (repository *PostgresRepository) FindOrCreate(context context.Context, pub *Publication) (*Publication, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s
		RETURNING %s, %s, %s, %s, %s, %s, %s, %s, %s
	`,
		schema.Publication.Table,
		schema.Publication.ID, schema.Publication.Handle, schema.Publication.Title, schema.Publication.URL,
		schema.Publication.FeedURL, schema.Publication.Publisher, schema.Publication.SubscriberCount,
		schema.Publication.CreatedAt, schema.Publication.UpdatedAt,
		schema.Publication.URL, schema.Publication.UpdatedAt, schema.Publication.UpdatedAt,
		schema.Publication.ID, schema.Publication.Handle, schema.Publication.Title, schema.Publication.URL,
		schema.Publication.FeedURL, schema.Publication.Publisher, schema.Publication.SubscriberCount,
		schema.Publication.CreatedAt, schema.Publication.UpdatedAt,
	)

	now := time.Now()
	resolved := &Publication{}

	err := repository.db.QueryRow(context, query,
		uuidv7.New(),
		pub.Handle,
		pub.Title,
		pub.URL,
		pub.FeedURL,
		pub.Publisher,
		pub.SubscriberCount,
		now,
	).Scan(
		&resolved.ID,
		&resolved.Handle,
		&resolved.Title,
		&resolved.URL,
		&resolved.FeedURL,
		&resolved.Publisher,
		&resolved.SubscriberCount,
		&resolved.CreatedAt,
		&resolved.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "publication_find_or_create")
	}

	return resolved, nil
}

/*
GetByID retrieves a publication by its durable identifier.
*/
func (repository *PostgresRepository) GetByID(context context.Context, id string) (*Publication, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.Publication.ID, schema.Publication.Handle, schema.Publication.Title, schema.Publication.URL,
		schema.Publication.FeedURL, schema.Publication.Publisher, schema.Publication.SubscriberCount,
		schema.Publication.CreatedAt, schema.Publication.UpdatedAt,
		schema.Publication.Table, schema.Publication.ID,
	)

	return repository.scanOne(context, query, id)
}

/*
GetByURL retrieves a publication by its canonical URL.
*/
func (repository *PostgresRepository) GetByURL(context context.Context, url string) (*Publication, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.Publication.ID, schema.Publication.Handle, schema.Publication.Title, schema.Publication.URL,
		schema.Publication.FeedURL, schema.Publication.Publisher, schema.Publication.SubscriberCount,
		schema.Publication.CreatedAt, schema.Publication.UpdatedAt,
		schema.Publication.Table, schema.Publication.URL,
	)

	return repository.scanOne(context, query, url)
}

/*
List returns a page of publications ordered by creation time (newest IDs
last thanks to UUIDv7 ordering) plus the total row count via a window
function, avoiding a second COUNT query.
*/
func (repository *PostgresRepository) List(context context.Context, params pagination.Params) ([]*Publication, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, COUNT(*) OVER() AS total
		FROM %s
		ORDER BY %s ASC
		LIMIT $1 OFFSET $2
	`,
		schema.Publication.ID, schema.Publication.Handle, schema.Publication.Title, schema.Publication.URL,
		schema.Publication.FeedURL, schema.Publication.Publisher, schema.Publication.SubscriberCount,
		schema.Publication.CreatedAt, schema.Publication.UpdatedAt,
		schema.Publication.Table, schema.Publication.ID,
	)

	rows, err := repository.db.Query(context, query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "publication_list")
	}
	defer rows.Close()

	publications := make([]*Publication, 0)
	total := 0

	for rows.Next() {
		pub := &Publication{}
		if err := rows.Scan(
			&pub.ID, &pub.Handle, &pub.Title, &pub.URL,
			&pub.FeedURL, &pub.Publisher, &pub.SubscriberCount,
			&pub.CreatedAt, &pub.UpdatedAt, &total,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "publication_scan")
		}
		publications = append(publications, pub)
	}

	return publications, total, nil
}

// scanOne executes a single-row publication query.
func (repository *PostgresRepository) scanOne(context context.Context, query string, arg any) (*Publication, error) {
	pub := &Publication{}
	err := repository.db.QueryRow(context, query, arg).Scan(
		&pub.ID,
		&pub.Handle,
		&pub.Title,
		&pub.URL,
		&pub.FeedURL,
		&pub.Publisher,
		&pub.SubscriberCount,
		&pub.CreatedAt,
		&pub.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "publication_get")
	}
	return pub, nil
}
