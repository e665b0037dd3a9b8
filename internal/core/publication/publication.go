// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

/*
Package publication implements the syndication-source domain.

A Publication is a newsletter a user can place into an issue: a canonical
URL (the natural key), a feed URL, and display metadata. Publications enter
the system from three boundaries (Substack search, URL paste, and CSV
import) and every boundary funnels through the same normalized type.

# Identifier Duality

Client operations must be synchronous and offline-capable, so a publication
is first keyed by a provisional handle derived from its URL. Only a
find-or-create round-trip against PostgreSQL assigns the durable UUID. The
[Ref] type makes that duality explicit instead of relying on string-shape
conventions.
*/
package publication

import "time"

// Publication represents a syndication source with a canonical URL and feed URL.
type Publication struct {
	ID              string    `json:"id,omitempty"`
	Handle          string    `json:"handle"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	FeedURL         string    `json:"feed_url,omitempty"`
	Publisher       string    `json:"publisher,omitempty"`
	SubscriberCount *int      `json:"subscriber_count,omitempty"`
	CreatedAt       time.Time `json:"-"`
	UpdatedAt       time.Time `json:"-"`
}

// Ref returns the identifier for this publication: durable when the store
// has assigned an ID, otherwise provisional by handle.
func (p *Publication) Ref() Ref {
	if p.ID != "" {
		return NewDurable(p.ID)
	}
	return NewProvisional(p.Handle)
}

// SearchResultType discriminates the two result shapes returned by the
// discovery API.
type SearchResultType string

const (
	ResultUser        SearchResultType = "user"
	ResultPublication SearchResultType = "publication"
)

// SearchResult is one normalized hit from the publication search API.
//
// External payloads use drifting field names (name/title, handle/subdomain);
// the search client adapts them into this one shape at the ingestion boundary.
type SearchResult struct {
	Type            SearchResultType `json:"type"`
	Handle          string           `json:"handle"`
	Title           string           `json:"title"`
	Publisher       string           `json:"publisher,omitempty"`
	URL             string           `json:"url"`
	SubscriberCount *int             `json:"subscriber_count,omitempty"`
}

// Publication converts a search hit into a provisional [Publication],
// ready for selection before any server round-trip.
func (r SearchResult) Publication() Publication {
	return Publication{
		Handle:          r.Handle,
		Title:           r.Title,
		URL:             r.URL,
		Publisher:       r.Publisher,
		SubscriberCount: r.SubscriberCount,
	}
}
