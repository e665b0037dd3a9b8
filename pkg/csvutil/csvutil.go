// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

// Package csvutil parses publication import files.
//
// # Format
//
// One publication per row: `title,url[,publisher]`. A header row is detected
// by a "url" column label and skipped. Blank lines and rows without a URL are
// ignored rather than failing the whole import.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Row is one parsed publication entry from an import file.
type Row struct {
	Title     string
	URL       string
	Publisher string
}

// ParsePublications reads CSV rows from r into publication entries.
//
// The reader is lenient about field counts so exports from spreadsheet tools
// with trailing commas still import cleanly.
func ParsePublications(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []Row
	for lineNo := 1; ; lineNo++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvutil: line %d: %w", lineNo, err)
		}

		if len(record) == 0 {
			continue
		}

		// Header detection: a row whose second column is literally "url".
		if lineNo == 1 && isHeader(record) {
			continue
		}

		row := fromRecord(record)
		if row.URL == "" {
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// isHeader reports whether the record looks like a column-label row.
func isHeader(record []string) bool {
	for _, field := range record {
		if strings.EqualFold(strings.TrimSpace(field), "url") {
			return true
		}
	}
	return false
}

// fromRecord maps a raw CSV record onto a [Row], tolerating missing columns.
func fromRecord(record []string) Row {
	get := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	row := Row{
		Title:     get(0),
		URL:       get(1),
		Publisher: get(2),
	}

	// Single-column files are treated as a bare URL list.
	if row.URL == "" && strings.Contains(row.Title, "://") {
		row.URL = row.Title
		row.Title = ""
	}

	return row
}
