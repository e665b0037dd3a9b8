// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package substack

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// feedTimeout bounds one resolution call. Resolution sits on the add-a-
// publication path, which degrades gracefully when it fails.
const feedTimeout = 10 * time.Second

// FeedResolver asks the resolver endpoint for a site's feed URL. It
// satisfies the publication domain's FeedResolver interface.
//
// Errors here are plain errors, not AppErrors: the caller treats any
// failure as "unresolvable" and falls back to the conventional feed path.
type FeedResolver struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewFeedResolver creates a resolver for the given endpoint.
func NewFeedResolver(baseURL string, logger *slog.Logger) *FeedResolver {
	return &FeedResolver{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: feedTimeout},
		logger:  logger,
	}
}

type feedResponse struct {
	FeedURL string `json:"feed_url"`
}

/*
ResolveFeedURL returns the feed URL for a newsletter site.

Returns:
  - string: The resolved feed URL
  - error: Any failure; the caller decides how to degrade
*/
func (resolver *FeedResolver) ResolveFeedURL(context context.Context, siteURL string) (string, error) {
	endpoint := fmt.Sprintf("%s?url=%s", resolver.baseURL, url.QueryEscape(siteURL))

	request, err := http.NewRequestWithContext(context, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	response, err := resolver.http.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	if response.StatusCode >= 300 {
		return "", fmt.Errorf("substack: feed resolver returned status %d", response.StatusCode)
	}

	var parsed feedResponse
	if err := json.NewDecoder(response.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.FeedURL == "" {
		return "", fmt.Errorf("substack: no feed found for %s", siteURL)
	}

	resolver.logger.DebugContext(context, "feed_resolved",
		slog.String("site_url", siteURL),
		slog.String("feed_url", parsed.FeedURL),
	)
	return parsed.FeedURL, nil
}
