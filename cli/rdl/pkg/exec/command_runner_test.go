// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package exec

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
}

func TestRunCommand(t *testing.T) {
	skipOnWindows(t)

	runner := NewCommandRunner(nil)
	res, err := runner.Run(context.Background(), NewRunArgs("sh", "-c", "echo hello; echo oops 1>&2"))
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "hello\n", res.Stdout)
	require.Equal(t, "oops\n", res.Stderr)
}

func TestRunCommandStdIn(t *testing.T) {
	skipOnWindows(t)

	runner := NewCommandRunner(nil)
	res, err := runner.Run(context.Background(), NewRunArgs("cat").WithStdIn(strings.NewReader("piped")))
	require.NoError(t, err)
	require.Equal(t, "piped", res.Stdout)
}

func TestRunCommandExitError(t *testing.T) {
	skipOnWindows(t)

	var copied bytes.Buffer
	runner := NewCommandRunner(nil)
	args := NewRunArgs("sh", "-c", "echo denied 1>&2; exit 3")
	args.Stderr = &copied

	res, err := runner.Run(context.Background(), args)
	require.Equal(t, 3, res.ExitCode)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 3, exitErr.ExitCode)
	require.Equal(t, "sh", exitErr.Cmd)
	require.Equal(t, "denied\n", exitErr.StderrOutput())
	require.Contains(t, exitErr.Error(), "exit code: 3")
	require.Equal(t, "denied\n", copied.String())
}

func TestRunCommandInteractive(t *testing.T) {
	skipOnWindows(t)

	var stdout bytes.Buffer
	runner := NewCommandRunner(&RunnerOptions{Stdout: &stdout})
	res, err := runner.Run(context.Background(), NewRunArgs("echo", "hi").WithInteractive(true))
	require.NoError(t, err)
	require.Empty(t, res.Stdout)
	require.Equal(t, "hi\n", stdout.String())
}

func TestKillCommand(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	s := time.Now()
	_, err := NewCommandRunner(nil).Run(ctx, NewRunArgs("sleep", "10"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(s), 5*time.Second)
}

func TestRunCommandRequiresCmd(t *testing.T) {
	_, err := NewCommandRunner(nil).Run(context.Background(), RunArgs{})
	require.Error(t, err)
}

func TestRedactSensitiveData(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"SshPassword", "ssh -o Password=hunter2 box1", "ssh -o Password=<redacted> box1"},
		{"Password", "login --password hunter2", "login --password <redacted>"},
		{"TraceParent", "env TRACEPARENT=00-abc-def-01 dlv", "env TRACEPARENT=<redacted> dlv"},
		{"Nothing", "dlv exec /srv/app", "dlv exec /srv/app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, redactSensitiveData(tt.input))
		})
	}

	require.Equal(t,
		[]string{"user@<redacted>", "dlv"},
		redactSensitiveArgs([]string{"user@secret-host", "dlv"}, []string{"secret-host"}))
}

func TestTestExitError(t *testing.T) {
	err := NewTestExitError("ssh", 255, "connection refused")
	require.Equal(t, "exit code: 255, stdout: , stderr: connection refused", err.Error())
}
