// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

// Package handle derives provisional publication handles from URLs and titles.
//
// # Usage
//
// Before a publication has a durable identifier, the UI keys it by a handle
// derived from its Substack subdomain (e.g. "astralcodexten"). This package
// owns that derivation so selection, search, and URL-paste produce identical
// handles for the same publication.
package handle

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const substackSuffix = ".substack.com"

var (
	// nonAlphanumeric matches any sequence of non-alphanumeric, non-hyphen characters.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	// multiHyphen collapses multiple consecutive hyphens into one.
	multiHyphen = regexp.MustCompile(`-{2,}`)
)

// FromURL derives a handle from a publication's canonical URL.
//
// # Rules
//
//   - Substack-hosted: the subdomain is the handle ("https://foo.substack.com" → "foo").
//   - Custom domain: the full host minus a leading "www." is normalized
//     ("https://www.noahpinion.blog" → "noahpinion-blog").
//   - Unparseable input falls through to [Normalize] on the raw string.
func FromURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return Normalize(rawURL)
	}

	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")

	if sub, ok := strings.CutSuffix(host, substackSuffix); ok {
		return Normalize(sub)
	}

	return Normalize(host)
}

// Normalize converts an arbitrary Unicode string into a handle-safe ASCII string.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFD (decomposes accented chars: é → e + combining acute).
// 2. Removes combining marks (accents).
// 3. Converts to lowercase.
// 4. Replaces non-alphanumeric characters with hyphens.
// 5. Collapses multiple hyphens and trims leading/trailing hyphens.
func Normalize(s string) string {
	// 1. Normalize and remove accents
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	result, _, _ := transform.String(t, s)

	// 2. Lowercase
	result = strings.ToLower(result)

	// 3. Replace whitespace and special chars with hyphens
	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, result)

	// 4. Clean up hyphenation
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	return result
}
