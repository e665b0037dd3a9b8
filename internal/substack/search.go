// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

/*
Package substack implements clients for the Substack discovery surface:
publication search and feed resolution.

The upstream payloads are loosely shaped; both clients normalize them at
the boundary so the rest of the system only ever sees one result type.
*/
package substack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/apchapcomputing/newsletter2paper/internal/core/publication"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/apperr"
)

// searchTimeout bounds one discovery call. Search backs an interactive
// typeahead, so slow answers are worthless.
const searchTimeout = 10 * time.Second

// SearchClient queries the publication search endpoint. It satisfies the
// publication domain's SearchClient interface.
type SearchClient struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewSearchClient creates a search client for the given endpoint.
func NewSearchClient(baseURL string, logger *slog.Logger) *SearchClient {
	return &SearchClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: searchTimeout},
		logger:  logger,
	}
}

// rawHit mirrors the upstream result shape, which drifts between field
// names depending on the result type.
type rawHit struct {
	Type            string `json:"type"`
	Name            string `json:"name"`
	Title           string `json:"title"`
	Handle          string `json:"handle"`
	Subdomain       string `json:"subdomain"`
	CustomDomain    string `json:"custom_domain"`
	AuthorName      string `json:"author_name"`
	SubscriberCount *int   `json:"subscriber_count"`
}

type searchResponse struct {
	Results []rawHit `json:"results"`
}

/*
Search queries the discovery endpoint and normalizes the hits.

Parameters:
  - context: Request context for cancellation
  - term: Free-text search term

Returns:
  - []publication.SearchResult: Normalized hits, possibly empty
  - error: Upstream failures as AppError
*/
func (client *SearchClient) Search(context context.Context, term string) ([]publication.SearchResult, error) {
	endpoint := fmt.Sprintf("%s?query=%s", client.baseURL, url.QueryEscape(term))

	request, err := http.NewRequestWithContext(context, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	response, err := client.http.Do(request)
	if err != nil {
		return nil, apperr.Upstream(0, "The publication search service is unreachable", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, apperr.Upstream(response.StatusCode, "The publication search response could not be read", err)
	}
	if response.StatusCode >= 300 {
		return nil, apperr.Upstream(response.StatusCode, "Publication search failed", nil)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Some deployments return a bare array instead of a wrapper object.
		if arrayErr := json.Unmarshal(body, &parsed.Results); arrayErr != nil {
			return nil, apperr.Upstream(response.StatusCode, "The publication search returned a malformed response", err)
		}
	}

	results := make([]publication.SearchResult, 0, len(parsed.Results))
	for _, hit := range parsed.Results {
		results = append(results, normalize(hit))
	}

	client.logger.DebugContext(context, "publication_search_completed",
		slog.String("term", term),
		slog.Int("result_count", len(results)),
	)
	return results, nil
}

// normalize maps one raw hit into the single result shape, preferring the
// most specific of the drifting field names.
func normalize(hit rawHit) publication.SearchResult {
	resultType := publication.ResultPublication
	if hit.Type == "user" {
		resultType = publication.ResultUser
	}

	handle := firstNonEmpty(hit.Handle, hit.Subdomain)
	title := firstNonEmpty(hit.Title, hit.Name)

	siteURL := ""
	switch {
	case hit.CustomDomain != "":
		siteURL = "https://" + hit.CustomDomain
	case hit.Subdomain != "":
		siteURL = fmt.Sprintf("https://%s.substack.com", hit.Subdomain)
	case handle != "":
		siteURL = fmt.Sprintf("https://%s.substack.com", handle)
	}

	return publication.SearchResult{
		Type:            resultType,
		Handle:          handle,
		Title:           title,
		Publisher:       hit.AuthorName,
		URL:             siteURL,
		SubscriberCount: hit.SubscriberCount,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
