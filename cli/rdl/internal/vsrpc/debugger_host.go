// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vsrpc

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/benbjohnson/clock"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/input"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/remotedebug"
)

// DebuggerHost is the debugger of the IDE, marshaled by the client. It is the debug launch service for launches
// started from the IDE and shows message boxes in the IDE.
type DebuggerHost struct {
	marshaledObject
}

// LaunchDebugTargetsAsync is the client implementation of:
// ValueTask<LaunchResult> LaunchDebugTargetsAsync(LaunchRequest, CancellationToken);
func (h *DebuggerHost) LaunchDebugTargetsAsync(
	ctx context.Context, request remotedebug.LaunchRequest,
) (*remotedebug.LaunchResult, error) {
	var result remotedebug.LaunchResult
	if err := h.call(ctx, "LaunchDebugTargetsAsync", []any{request}, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ShowMessageBoxAsync is the client implementation of:
// ValueTask ShowMessageBoxAsync(string, string, MessageSeverity, CancellationToken);
//
// The call returns once the user dismissed the message box.
func (h *DebuggerHost) ShowMessageBoxAsync(
	ctx context.Context, title string, message string, severity input.MessageSeverity,
) error {
	return h.call(ctx, "ShowMessageBoxAsync", []any{title, message, severity.String()}, nil)
}

// launchHost runs a launch for an IDE request: the solution comes from the request, and the debugger host both
// launches the target and reports failures.
type launchHost struct {
	debugger     *DebuggerHost
	solutionPath string
	// progress receives a line for each milestone of the launch. Lines for every state change are only written when
	// verbose is set.
	progress io.Writer
	verbose  bool
}

func (h *launchHost) SolutionPath(ctx context.Context) (string, error) {
	return h.solutionPath, nil
}

func (h *launchHost) LaunchDebugTargets(
	ctx context.Context, request remotedebug.LaunchRequest,
) (*remotedebug.LaunchResult, error) {
	fmt.Fprintf(h.progress, "Launching '%s' on '%s'\n", request.ExecutablePath, request.RemoteMachine)
	return h.debugger.LaunchDebugTargetsAsync(ctx, request)
}

func (h *launchHost) ShowMessageBox(ctx context.Context, options input.MessageBoxOptions) error {
	return h.debugger.ShowMessageBoxAsync(ctx, options.Title, options.Message, options.Severity)
}

func (h *launchHost) OnTransition(ctx context.Context, from remotedebug.State, to remotedebug.State) {
	if h.verbose {
		fmt.Fprintf(h.progress, "%s -> %s\n", from, to)
	}
}

// progressWriter returns a writer that sends each line written to it to observer, as an Important message stamped
// with the current time of clk.
func progressWriter(ctx context.Context, observer IObserver[ProgressMessage], clk clock.Clock) *lineWriter {
	if observer == nil {
		return &lineWriter{next: io.Discard}
	}

	return &lineWriter{
		next: &messageWriter{
			ctx:      ctx,
			observer: observer,
			clock:    clk,
			messageTemplate: ProgressMessage{
				Severity: Info,
				Kind:     Important,
			},
		},
	}
}

// logWriter writes each write to the standard logger, after prefix.
type logWriter struct {
	prefix string
}

func (w *logWriter) Write(p []byte) (int, error) {
	log.Printf("%s%s", w.prefix, p)
	return len(p), nil
}
