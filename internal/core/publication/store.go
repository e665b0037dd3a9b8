// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package publication

import (
	"context"

	"github.com/apchapcomputing/newsletter2paper/pkg/pagination"
)

// Repository defines the data access contract for publications.
type Repository interface {

	/*
		FindOrCreate resolves a publication to its durable record by canonical
		URL, inserting it when absent. It never creates a second record for
		the same URL.

		Parameters:
		  - context: context.Context
		  - pub: *Publication (ID ignored; URL is the natural key)

		Returns:
		  - *Publication: Hydrated entity with the durable ID
		  - error: Persistence failures
	*/
	FindOrCreate(context context.Context, pub *Publication) (*Publication, error)

	/*
		GetByID returns the publication with the given durable ID.

		Returns:
		  - *Publication: Hydrated entity
		  - error: apperr.NotFound or database errors
	*/
	GetByID(context context.Context, id string) (*Publication, error)

	/*
		GetByURL returns the publication with the given canonical URL.

		Returns:
		  - *Publication: Hydrated entity
		  - error: apperr.NotFound or database errors
	*/
	GetByURL(context context.Context, url string) (*Publication, error)

	/*
		List returns a page of publications ordered by creation time,
		plus the total count for pagination metadata.
	*/
	List(context context.Context, params pagination.Params) ([]*Publication, int, error)
}

// FeedResolver resolves a publication webpage URL to its feed URL.
//
// Implemented by the substack package; injected so the resolution transport
// can be faked in tests.
type FeedResolver interface {
	ResolveFeedURL(context context.Context, siteURL string) (string, error)
}

// SearchClient queries the third-party publication discovery API.
type SearchClient interface {
	Search(context context.Context, term string) ([]SearchResult, error)
}
