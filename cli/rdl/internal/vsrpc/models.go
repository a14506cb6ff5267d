// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vsrpc

import (
	"time"

	"github.com/remote-debug/remote-debug/cli/rdl/pkg/remotedebug"
)

type ProgressMessage struct {
	Message  string
	Severity MessageSeverity
	Time     time.Time
	Kind     MessageKind
}

// WithMessage returns a new ProgressMessage with the given message and timestamp.
func (m ProgressMessage) WithMessage(message string, now time.Time) ProgressMessage {
	m.Message = message
	m.Time = now
	return m
}

type MessageSeverity int

const (
	Info MessageSeverity = iota
	Warning
	Error
)

type MessageKind int

const (
	Logging MessageKind = iota
	Important
)

type InitializeServerOptions struct {
	// When true, every state change of a launch is reported to the progress observer, not only its start and end.
	Verbose *bool `json:",omitempty"`
}

// RequestContext provides the context for a request to the server.
// It identifies the active session and the solution being operated on.
type RequestContext struct {
	// The active session.
	Session Session

	// The path of the open solution file, or of the open folder. When empty, the root path the session was initialized
	// with is used.
	SolutionPath string
}

// Session represents an active connection to the server.  It is returned by InitializeAsync and holds an opaque
// connection id that the server can use to identify the client across multiple RPC calls (since our service is exposed
// over multiple endpoints a single client may have multiple connections to the server, and we want a way to correlate them
// so we can cache state across connections).
type Session struct {
	Id string
}

// LaunchConfigInfo is the launch configuration of a solution, as read from its RemoteDebug.xml.
type LaunchConfigInfo struct {
	MachineName string
	Path        string
	ConfigPath  string
}

// LaunchOutcome is the result of running the launch command.
type LaunchOutcome struct {
	// State is the terminal state of the launch: Done, ConfigFailed or DispatchFailed.
	State        string
	Success      bool
	ProcessInfo  *remotedebug.ProcessInfo `json:",omitempty"`
	ErrorKind    string                   `json:",omitempty"`
	ErrorMessage string                   `json:",omitempty"`
}

func newLaunchOutcome(outcome *remotedebug.Outcome) *LaunchOutcome {
	res := &LaunchOutcome{
		State:   outcome.State.String(),
		Success: outcome.Err == nil,
	}

	if outcome.Result != nil {
		res.ProcessInfo = outcome.Result.ProcessInfo
	}

	if outcome.Err != nil {
		res.ErrorKind = remotedebug.KindOf(outcome.Err).String()
		res.ErrorMessage = outcome.Err.Error()
	}

	return res
}
