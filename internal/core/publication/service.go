// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package publication

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/apchapcomputing/newsletter2paper/internal/platform/validate"
	"github.com/apchapcomputing/newsletter2paper/pkg/csvutil"
	"github.com/apchapcomputing/newsletter2paper/pkg/handle"
	"github.com/apchapcomputing/newsletter2paper/pkg/pagination"
)

// Service implements publication use cases: discovery, URL paste, bulk
// import, and durable resolution.
type Service struct {
	repo     Repository
	resolver FeedResolver
	search   SearchClient
	logger   *slog.Logger
}

// NewService constructs a new publication [Service] with its dependencies.
func NewService(repo Repository, resolver FeedResolver, search SearchClient, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		search:   search,
		logger:   logger,
	}
}

// # Durable Resolution

/*
FindOrCreate resolves a publication to its durable record by URL.

Description: The single entry point through which a provisional publication
gains a durable identifier. Missing handles and feed URLs are filled in
before persistence so the stored record is always complete.

Parameters:
  - context: context.Context
  - pub: Publication (provisional; URL required)

Returns:
  - *Publication: Entity with store-assigned ID
  - error: Validation or persistence failures
*/
func (service *Service) FindOrCreate(context context.Context, pub Publication) (*Publication, error) {

	// URL is the natural key; nothing proceeds without it.
	v := &validate.Validator{}
	if err := v.Required("url", pub.URL).URL("url", pub.URL).Err(); err != nil {
		return nil, err
	}

	pub.URL = CanonicalURL(pub.URL)

	if pub.Handle == "" {
		pub.Handle = handle.FromURL(pub.URL)
	}
	if pub.Title == "" {
		pub.Title = pub.Handle
	}
	if pub.FeedURL == "" {
		pub.FeedURL = service.resolveFeed(context, pub.URL)
	}

	return service.repo.FindOrCreate(context, &pub)
}

// # URL Paste Flow

/*
ResolveFromURL builds a provisional publication from a pasted URL.

Description: Synchronous derivation (handle, placeholder title) plus a
best-effort feed resolution. No database write happens here; the caller
adds the result to the selection and the next save makes it durable.

Parameters:
  - context: context.Context
  - rawURL: string

Returns:
  - *Publication: Provisional entity (no ID)
  - error: Validation failures only
*/
func (service *Service) ResolveFromURL(context context.Context, rawURL string) (*Publication, error) {
	v := &validate.Validator{}
	if err := v.Required("url", rawURL).URL("url", rawURL).Err(); err != nil {
		return nil, err
	}

	canonical := CanonicalURL(rawURL)
	derived := handle.FromURL(canonical)

	return &Publication{
		Handle:  derived,
		Title:   derived,
		URL:     canonical,
		FeedURL: service.resolveFeed(context, canonical),
	}, nil
}

// # Discovery

/*
Search queries the third-party discovery API by free-text term.

Parameters:
  - context: context.Context
  - term: string

Returns:
  - []SearchResult: Normalized hits (users and publications)
  - error: Validation or upstream failures
*/
func (service *Service) Search(context context.Context, term string) ([]SearchResult, error) {
	v := &validate.Validator{}
	if err := v.Required("q", term).MaxLen("q", term, 200).Err(); err != nil {
		return nil, err
	}

	return service.search.Search(context, strings.TrimSpace(term))
}

// # Bulk Import

/*
ImportCSV parses an uploaded CSV and resolves each row into a durable
publication via find-or-create.

Description: Rows that fail resolution are skipped and logged rather than
aborting the whole import; the caller receives every publication that
resolved successfully.

Parameters:
  - context: context.Context
  - r: io.Reader (CSV payload: title,url[,publisher])

Returns:
  - []*Publication: Durable entities in file order
  - error: Unreadable payloads only
*/
func (service *Service) ImportCSV(context context.Context, r io.Reader) ([]*Publication, error) {
	rows, err := csvutil.ParsePublications(r)
	if err != nil {
		return nil, validate.RequiredError("file", "Could not parse CSV payload")
	}

	imported := make([]*Publication, 0, len(rows))
	for _, row := range rows {
		pub, err := service.FindOrCreate(context, Publication{
			Title:     row.Title,
			URL:       row.URL,
			Publisher: row.Publisher,
		})
		if err != nil {
			service.logger.WarnContext(context, "publication_import_row_skipped",
				slog.String("url", row.URL),
				slog.Any("error", err),
			)
			continue
		}
		imported = append(imported, pub)
	}

	return imported, nil
}

// # Reads

// Get returns the publication with the given durable ID.
func (service *Service) Get(context context.Context, id string) (*Publication, error) {
	v := &validate.Validator{}
	if err := v.UUID("id", id).Err(); err != nil {
		return nil, err
	}
	return service.repo.GetByID(context, id)
}

// List returns a page of publications plus total count.
func (service *Service) List(context context.Context, params pagination.Params) ([]*Publication, int, error) {
	return service.repo.List(context, params)
}

// # Internals

// resolveFeed asks the resolver for the feed URL, falling back to the
// conventional `<url>/feed` guess when resolution fails.
//
// The fallback is intended degraded-mode behavior: Substack serves RSS at
// /feed, and a wrong guess surfaces later as an empty article fetch rather
// than a broken save.
func (service *Service) resolveFeed(context context.Context, siteURL string) string {
	feedURL, err := service.resolver.ResolveFeedURL(context, siteURL)
	if err != nil || feedURL == "" {
		service.logger.WarnContext(context, "feed_resolution_fallback",
			slog.String("url", siteURL),
			slog.Any("error", err),
		)
		return strings.TrimSuffix(siteURL, "/") + "/feed"
	}
	return feedURL
}

// CanonicalURL normalizes a publication URL for use as a natural key:
// lowercased scheme/host, no query, no fragment, no trailing slash.
func CanonicalURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.TrimSpace(rawURL)
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")

	return parsed.String()
}
