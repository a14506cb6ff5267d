// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package internal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorWithSuggestion(t *testing.T) {
	baseErr := errors.New("could not find file '/src/app/.vs/RemoteDebug.xml'")
	suggestion := "Create .vs/RemoteDebug.xml in the solution directory."

	errWithSuggestion := &ErrorWithSuggestion{
		Err:        baseErr,
		Suggestion: suggestion,
	}

	require.Equal(t, baseErr.Error(), errWithSuggestion.Error())
	require.Equal(t, baseErr, errWithSuggestion.Unwrap())
	require.ErrorIs(t, errWithSuggestion, baseErr)
}

func TestReportedError(t *testing.T) {
	baseErr := errors.New("host unreachable")
	err := fmt.Errorf("launching: %w", &ReportedError{Err: baseErr})

	var reported *ReportedError
	require.ErrorAs(t, err, &reported)
	require.Equal(t, "host unreachable", reported.Error())
	require.ErrorIs(t, err, baseErr)
}
