// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package schema

// PublicationTable represents the 'press.publication' table
type PublicationTable struct {
	Table           string
	ID              string
	Handle          string
	Title           string
	URL             string
	FeedURL         string
	Publisher       string
	SubscriberCount string
	CreatedAt       string
	UpdatedAt       string
}

// Publication is the schema definition for press.publication.
// URL is the natural key: find-or-create conflicts on it.
var Publication = PublicationTable{
	Table:           "press.publication",
	ID:              "id",
	Handle:          "handle",
	Title:           "title",
	URL:             "url",
	FeedURL:         "feedurl",
	Publisher:       "publisher",
	SubscriberCount: "subscribercount",
	CreatedAt:       "createdat",
	UpdatedAt:       "updatedat",
}

func (t PublicationTable) Columns() []string {
	return []string{t.ID, t.Handle, t.Title, t.URL, t.FeedURL, t.Publisher, t.SubscriberCount, t.CreatedAt, t.UpdatedAt}
}
