// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package schema

// IssuePublicationTable represents the 'press.issuepublication' table
type IssuePublicationTable struct {
	Table         string
	IssueID       string
	PublicationID string
	Position      string
	RemoveImages  string
	CreatedAt     string
}

// IssuePublication is the schema definition for press.issuepublication.
// Position preserves the user-visible selection order; the whole set is
// replaced on every save (deletion-by-omission).
var IssuePublication = IssuePublicationTable{
	Table:         "press.issuepublication",
	IssueID:       "issueid",
	PublicationID: "publicationid",
	Position:      "position",
	RemoveImages:  "removeimages",
	CreatedAt:     "createdat",
}
