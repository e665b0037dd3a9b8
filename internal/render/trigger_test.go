// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package render_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apchapcomputing/newsletter2paper/internal/platform/apperr"
	"github.com/apchapcomputing/newsletter2paper/internal/render"
)

const savedIssueID = "0192a7b4-aaaa-7000-8000-000000000001"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// blockingGenerator counts invocations and optionally holds each call open
// until released, so concurrent triggers can pile up on one flight.
type blockingGenerator struct {
	calls   atomic.Int64
	release chan struct{}
}

func (g *blockingGenerator) Generate(_ context.Context, _ string, _ render.GenerateOptions) (*render.GenerateResult, error) {
	g.calls.Add(1)
	if g.release != nil {
		<-g.release
	}
	return &render.GenerateResult{PDFURL: "https://files.example.com/issue.pdf", ArticlesCount: 12}, nil
}

/*
TestTrigger_RefusesUnsavedIssue checks that a provisional or empty
identifier is refused before the backend is ever contacted.
*/
func TestTrigger_RefusesUnsavedIssue(t *testing.T) {
	tests := []struct {
		name    string
		issueID string
	}{
		{"empty", ""},
		{"provisional_handle", "acx"},
		{"truncated_uuid", "0192a7b4-aaaa-7000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := &blockingGenerator{}
			trigger := render.NewTrigger(generator, testLogger())

			_, err := trigger.Generate(context.Background(), tt.issueID, render.GenerateOptions{})

			require.Error(t, err)
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "VALIDATION_ERROR", ae.Code)
			assert.Zero(t, generator.calls.Load(), "refusal must precede any backend call")
		})
	}
}

/*
TestTrigger_CoalescesConcurrentRequests checks that concurrent triggers
for one issue share a single backend invocation and all receive its result.
*/
func TestTrigger_CoalescesConcurrentRequests(t *testing.T) {
	generator := &blockingGenerator{release: make(chan struct{})}
	trigger := render.NewTrigger(generator, testLogger())

	const callers = 5
	results := make([]*render.GenerateResult, callers)
	errs := make([]error, callers)

	var started, done sync.WaitGroup
	for i := 0; i < callers; i++ {
		started.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], errs[i] = trigger.Generate(context.Background(), savedIssueID, render.GenerateOptions{})
		}(i)
	}

	started.Wait()
	// Give every goroutine time to join the in-flight call, then let it finish.
	time.Sleep(50 * time.Millisecond)
	close(generator.release)
	done.Wait()

	assert.Equal(t, int64(1), generator.calls.Load(), "concurrent triggers must share one backend call")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, "https://files.example.com/issue.pdf", results[i].PDFURL)
	}
}

/*
TestClient_Generate_MapsUpstreamFailure checks that a backend failure
surfaces with its status and human-readable detail preserved.
*/
func TestClient_Generate_MapsUpstreamFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"detail": "feed fetch timed out"}`))
	}))
	defer backend.Close()

	client := render.NewClient(backend.URL, testLogger())

	_, err := client.Generate(context.Background(), savedIssueID, render.GenerateOptions{})

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "feed fetch timed out", ae.Message)
}

/*
TestClient_Generate_SendsTuningParameters checks the query-string contract
with the backend, including the documented defaults.
*/
func TestClient_Generate_SendsTuningParameters(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pdf_url": "https://files.example.com/issue.pdf", "articles_count": 3}`))
	}))
	defer backend.Close()

	client := render.NewClient(backend.URL, testLogger())

	result, err := client.Generate(context.Background(), savedIssueID, render.GenerateOptions{
		LayoutType:   "essay",
		DaysBack:     14,
		RemoveImages: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "/pdf/generate/"+savedIssueID, gotPath)
	assert.Equal(t, []string{"essay"}, gotQuery["layout_type"])
	assert.Equal(t, []string{"14"}, gotQuery["days_back"])
	assert.Equal(t, []string{"5"}, gotQuery["max_articles_per_publication"], "unset tuning falls back to the default")
	assert.Equal(t, []string{"true"}, gotQuery["remove_images"])
	assert.Equal(t, 3, result.ArticlesCount)
}
