// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/remote-debug/remote-debug/cli/rdl/cmd/actions"
	"github.com/remote-debug/remote-debug/cli/rdl/internal"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/input"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/output"
)

// UxMiddleware prints the result of an action, or its error, once the action completes.
type UxMiddleware struct {
	options *Options
	console input.Console
}

func NewUxMiddleware(options *Options, console input.Console) Middleware {
	return &UxMiddleware{
		options: options,
		console: console,
	}
}

func (m *UxMiddleware) Run(ctx context.Context, next NextFn) (*actions.ActionResult, error) {
	actionResult, err := next(ctx)

	// Stop the spinner always to un-hide cursor
	m.console.StopSpinner(ctx, "", err != nil)

	// Structured output is the only thing written to stdout.
	if m.options.OutputFormat == output.JsonFormat {
		return actionResult, err
	}

	if err != nil {
		var reportedErr *internal.ReportedError
		var suggestionErr *internal.ErrorWithSuggestion

		if !errors.As(err, &reportedErr) {
			m.console.Message(ctx, output.WithErrorFormat("\nERROR: %s", err.Error()))
		}

		if errors.As(err, &suggestionErr) {
			m.console.Message(ctx, fmt.Sprintf("%s %s", output.WithHighLightFormat("Suggestion:"), suggestionErr.Suggestion))
		}

		return actionResult, err
	}

	if actionResult != nil && actionResult.Message != nil {
		m.console.MessageUx(ctx, actionResult.Message.Header, input.ResultSuccess)
		if actionResult.Message.FollowUp != "" {
			m.console.Message(ctx, actionResult.Message.FollowUp)
		}
	}

	return actionResult, err
}
