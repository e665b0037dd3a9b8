// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package render

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/apchapcomputing/newsletter2paper/internal/platform/apperr"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/validate"
)

// Generator is the backend surface the trigger needs. It is satisfied by
// *Client.
type Generator interface {
	Generate(context context.Context, issueID string, options GenerateOptions) (*GenerateResult, error)
}

/*
Trigger gates PDF generation.

# Behaviour

  - A request without a durable issue identifier is refused before any
    network traffic: there is nothing saved to render yet.
  - Concurrent triggers for the same issue share one backend invocation
    through a singleflight group; every caller gets the shared outcome.
  - Failures are returned as-is. There is no automatic retry; generation is
    expensive and the caller decides whether to try again.
*/
type Trigger struct {
	generator Generator
	group     singleflight.Group
	logger    *slog.Logger
}

// NewTrigger creates a trigger over the given backend.
func NewTrigger(generator Generator, logger *slog.Logger) *Trigger {
	return &Trigger{
		generator: generator,
		logger:    logger,
	}
}

/*
Generate produces a PDF for a saved issue.

Parameters:
  - context: Request context for cancellation
  - issueID: Durable issue identifier; anything else is refused
  - options: Layout and fetch tuning

Returns:
  - *GenerateResult: The opaque PDF location and run statistics
  - error: Refusal or upstream failures as AppError
*/
func (trigger *Trigger) Generate(context context.Context, issueID string, options GenerateOptions) (*GenerateResult, error) {
	if !validate.IsUUID(issueID) {
		return nil, apperr.ValidationError("The issue must be saved before a PDF can be generated")
	}

	result, err, shared := trigger.group.Do(issueID, func() (any, error) {
		return trigger.generator.Generate(context, issueID, options)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		trigger.logger.DebugContext(context, "pdf_generation_coalesced",
			slog.String("issue_id", issueID),
		)
	}
	return result.(*GenerateResult), nil
}
