// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package csvutil_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apchapcomputing/newsletter2paper/pkg/csvutil"
)

/*
TestParsePublications covers the import format: header detection, lenient
field counts, and the bare-URL-list shape.
*/
func TestParsePublications(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []csvutil.Row
	}{
		{
			name:    "header_row_is_skipped",
			payload: "title,url,publisher\nAstral Codex Ten,https://acx.substack.com,Scott Alexander",
			want: []csvutil.Row{
				{Title: "Astral Codex Ten", URL: "https://acx.substack.com", Publisher: "Scott Alexander"},
			},
		},
		{
			name:    "no_header_first_row_is_data",
			payload: "Astral Codex Ten,https://acx.substack.com",
			want: []csvutil.Row{
				{Title: "Astral Codex Ten", URL: "https://acx.substack.com"},
			},
		},
		{
			name:    "rows_without_url_are_dropped",
			payload: "title,url\nJust A Title,\nNoahpinion,https://www.noahpinion.blog",
			want: []csvutil.Row{
				{Title: "Noahpinion", URL: "https://www.noahpinion.blog"},
			},
		},
		{
			name:    "bare_url_list",
			payload: "https://acx.substack.com\nhttps://www.noahpinion.blog",
			want: []csvutil.Row{
				{URL: "https://acx.substack.com"},
				{URL: "https://www.noahpinion.blog"},
			},
		},
		{
			name:    "missing_publisher_column_tolerated",
			payload: "title,url,publisher\nA,https://a.substack.com\nB,https://b.substack.com,Barbara",
			want: []csvutil.Row{
				{Title: "A", URL: "https://a.substack.com"},
				{Title: "B", URL: "https://b.substack.com", Publisher: "Barbara"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := csvutil.ParsePublications(strings.NewReader(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

/*
TestParsePublications_EmptyInput yields no rows and no error.
*/
func TestParsePublications_EmptyInput(t *testing.T) {
	rows, err := csvutil.ParsePublications(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
