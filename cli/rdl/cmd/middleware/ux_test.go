// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package middleware

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/remote-debug/remote-debug/cli/rdl/cmd/actions"
	"github.com/remote-debug/remote-debug/cli/rdl/internal"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/output"
	"github.com/remote-debug/remote-debug/cli/rdl/test/mocks/mockinput"
	"github.com/stretchr/testify/require"
)

func runUx(t *testing.T, options *Options, result *actions.ActionResult, err error) (*mockinput.MockConsole, error) {
	console := mockinput.NewMockConsole()
	m := NewUxMiddleware(options, console)

	_, runErr := m.Run(context.Background(), func(ctx context.Context) (*actions.ActionResult, error) {
		return result, err
	})

	return console, runErr
}

func Test_UxMiddleware(t *testing.T) {
	t.Run("result", func(t *testing.T) {
		console, err := runUx(t, &Options{Name: "rdl config set"}, &actions.ActionResult{
			Message: &actions.ResultMessage{Header: "Saved 'ssh.user'"},
		}, nil)

		require.NoError(t, err)
		require.Equal(t, []string{"Saved 'ssh.user'"}, console.Output())
	})

	t.Run("error", func(t *testing.T) {
		console, err := runUx(t, &Options{Name: "rdl launch"}, nil, errors.New("ssh is not installed"))

		require.Error(t, err)
		require.Len(t, console.Output(), 1)
		require.Contains(t, console.Output()[0], "ERROR: ssh is not installed")

		ops := console.SpinnerOps()
		require.Len(t, ops, 1)
		require.True(t, ops[0].Failed)
	})

	t.Run("suggestion", func(t *testing.T) {
		console, err := runUx(t, &Options{Name: "rdl launch"}, nil, &internal.ErrorWithSuggestion{
			Err:        errors.New("unsupported launch service 'rsh'"),
			Suggestion: "Run 'rdl config unset launch.service'.",
		})

		require.Error(t, err)
		require.Len(t, console.Output(), 2)
		require.True(t, strings.HasSuffix(console.Output()[1], "Run 'rdl config unset launch.service'."))
	})

	t.Run("reported error is not printed again", func(t *testing.T) {
		console, err := runUx(t, &Options{Name: "rdl launch"}, nil, &internal.ReportedError{
			Err: errors.New("host unreachable"),
		})

		require.Error(t, err)
		require.Empty(t, console.Output())
	})

	t.Run("json output is left alone", func(t *testing.T) {
		console, err := runUx(t, &Options{Name: "rdl launch", OutputFormat: output.JsonFormat}, nil,
			errors.New("host unreachable"))

		require.Error(t, err)
		require.Empty(t, console.Output())
	})
}

func Test_CommandEventName(t *testing.T) {
	require.Equal(t, "cmd.launch", commandEventName("rdl launch"))
	require.Equal(t, "cmd.config.set", commandEventName("rdl config set"))
	require.Equal(t, "cmd.rdl", commandEventName("rdl"))
}
