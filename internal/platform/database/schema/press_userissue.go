// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package schema

// UserIssueTable represents the 'press.userissue' table
type UserIssueTable struct {
	Table     string
	UserID    string
	IssueID   string
	CreatedAt string
}

// UserIssue is the schema definition for press.userissue.
// The schema allows many users per issue; the workflow only ever writes one.
var UserIssue = UserIssueTable{
	Table:     "press.userissue",
	UserID:    "userid",
	IssueID:   "issueid",
	CreatedAt: "createdat",
}
