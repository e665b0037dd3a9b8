// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

/*
Package render proxies PDF generation to the rendering backend.

The backend is a separate service that fetches articles from publication
feeds and typesets them into a printable PDF. This package owns the HTTP
client for it and the single-flight trigger that keeps one generation per
issue in flight at a time.
*/
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/apchapcomputing/newsletter2paper/internal/platform/apperr"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/constants"
)

// # Backend Wire Types

// GenerateOptions tunes one PDF generation run. Zero values fall back to
// the documented defaults.
type GenerateOptions struct {
	LayoutType                string `json:"layout_type,omitempty"`
	DaysBack                  int    `json:"days_back,omitempty"`
	MaxArticlesPerPublication int    `json:"max_articles_per_publication,omitempty"`
	KeepHTML                  bool   `json:"keep_html,omitempty"`
	RemoveImages              bool   `json:"remove_images,omitempty"`
	Verbose                   bool   `json:"verbose,omitempty"`
}

// GenerateResult is the backend's success payload. PDFURL is opaque to
// this service; it is handed to the caller for download.
type GenerateResult struct {
	PDFURL        string          `json:"pdf_url"`
	IssueInfo     json.RawMessage `json:"issue_info,omitempty"`
	ArticlesCount int             `json:"articles_count"`
}

// FetchResult is the backend's payload for an articles-only fetch.
type FetchResult struct {
	ArticlesCount int             `json:"articles_count"`
	Articles      json.RawMessage `json:"articles,omitempty"`
}

// errorBody is the backend's failure payload.
type errorBody struct {
	Detail string `json:"detail"`
}

// Client talks to the rendering backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a backend client. The timeout covers full PDF
// generation, which routinely takes tens of seconds.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: constants.RenderRequestTimeout},
		logger:  logger,
	}
}

/*
Generate asks the backend to produce a PDF for an issue.

Parameters:
  - context: Request context; cancellation aborts the upstream call
  - issueID: Durable issue identifier
  - options: Layout and fetch tuning

Returns:
  - *GenerateResult: The PDF location and run statistics
  - error: Upstream failures as AppError, status and detail preserved
*/
func (client *Client) Generate(context context.Context, issueID string, options GenerateOptions) (*GenerateResult, error) {
	endpoint := fmt.Sprintf("%s/pdf/generate/%s?%s",
		client.baseURL, url.PathEscape(issueID), options.query().Encode())

	result := &GenerateResult{}
	if err := client.post(context, endpoint, result); err != nil {
		return nil, err
	}

	client.logger.InfoContext(context, "pdf_generated",
		slog.String("issue_id", issueID),
		slog.Int("articles_count", result.ArticlesCount),
	)
	return result, nil
}

/*
FetchArticles asks the backend to fetch articles without typesetting, used
for previews.
*/
func (client *Client) FetchArticles(context context.Context, issueID string, options GenerateOptions) (*FetchResult, error) {
	values := url.Values{}
	values.Set("days_back", strconv.Itoa(options.daysBack()))
	values.Set("max_articles_per_publication", strconv.Itoa(options.maxArticles()))

	endpoint := fmt.Sprintf("%s/articles/fetch/%s?%s",
		client.baseURL, url.PathEscape(issueID), values.Encode())

	result := &FetchResult{}
	if err := client.post(context, endpoint, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Ping probes the backend's health endpoint, for readiness checks.
func (client *Client) Ping(context context.Context) error {
	request, err := http.NewRequestWithContext(context, http.MethodGet, client.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	response, err := client.http.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode >= 300 {
		return fmt.Errorf("rendering service returned status %d", response.StatusCode)
	}
	return nil
}

// post executes one backend call and decodes the response into target.
// Failure statuses are forwarded with the backend's human-readable detail.
func (client *Client) post(context context.Context, endpoint string, target any) error {
	request, err := http.NewRequestWithContext(context, http.MethodPost, endpoint, nil)
	if err != nil {
		return apperr.Internal(err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := client.http.Do(request)
	if err != nil {
		return apperr.Upstream(0, "The rendering service is unreachable", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return apperr.Upstream(response.StatusCode, "The rendering service response could not be read", err)
	}

	if response.StatusCode >= 300 {
		detail := upstreamDetail(body)
		return apperr.Upstream(response.StatusCode, detail, nil)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return apperr.Upstream(response.StatusCode, "The rendering service returned a malformed response", err)
	}
	return nil
}

// upstreamDetail extracts the backend's detail message, falling back to a
// generic one when the body is not the expected JSON shape.
func upstreamDetail(body []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return "PDF generation failed"
}

// query renders the options as backend query parameters.
func (options GenerateOptions) query() url.Values {
	values := url.Values{}
	if options.LayoutType != "" {
		values.Set("layout_type", options.LayoutType)
	}
	values.Set("days_back", strconv.Itoa(options.daysBack()))
	values.Set("max_articles_per_publication", strconv.Itoa(options.maxArticles()))
	values.Set("keep_html", strconv.FormatBool(options.KeepHTML))
	values.Set("remove_images", strconv.FormatBool(options.RemoveImages))
	values.Set("verbose", strconv.FormatBool(options.Verbose))
	return values
}

func (options GenerateOptions) daysBack() int {
	if options.DaysBack > 0 {
		return options.DaysBack
	}
	return constants.DefaultDaysBack
}

func (options GenerateOptions) maxArticles() int {
	if options.MaxArticlesPerPublication > 0 {
		return options.MaxArticlesPerPublication
	}
	return constants.DefaultMaxArticlesPerPublication
}
