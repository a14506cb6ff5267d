// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package remotedebug

import (
	"encoding/json"
	"fmt"

	"github.com/remote-debug/remote-debug/cli/rdl/pkg/debugengine"
)

// LaunchOperation is the kind of launch the debug launch service performs.
type LaunchOperation int

const (
	// CreateProcess starts a new process under the debugger.
	CreateProcess LaunchOperation = iota + 1
)

func (o LaunchOperation) String() string {
	switch o {
	case CreateProcess:
		return "CreateProcess"
	default:
		return fmt.Sprintf("LaunchOperation(%d)", int(o))
	}
}

// MarshalJSON implements json.Marshaler.
func (o LaunchOperation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *LaunchOperation) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	switch name {
	case "CreateProcess":
		*o = CreateProcess
		return nil
	default:
		return fmt.Errorf("unknown launch operation '%s'", name)
	}
}

// LaunchRequest is a single debug target handed to a LaunchService. DebugEngines is only valid for the duration of
// the LaunchService call and must not be retained.
type LaunchRequest struct {
	ExecutablePath   string
	RemoteMachine    string
	Operation        LaunchOperation
	DebugEngines     debugengine.List
	DebugEngineCount int
}

// NewLaunchRequest builds the request for cfg. The result depends only on its inputs.
func NewLaunchRequest(cfg *LaunchConfig, engines debugengine.List) LaunchRequest {
	return LaunchRequest{
		ExecutablePath:   cfg.ExecutablePath(),
		RemoteMachine:    cfg.MachineName(),
		Operation:        CreateProcess,
		DebugEngines:     engines,
		DebugEngineCount: engines.Count(),
	}
}

// ProcessInfo identifies a process created by a LaunchService. Its contents are opaque to the dispatcher.
type ProcessInfo struct {
	ProcessId    uint32 `json:",omitempty"`
	CreationTime int64  `json:",omitempty"`
	// Details carries service specific information, such as the address a headless debugger listens on.
	Details string `json:",omitempty"`
}

// LaunchResult is the result reported by a LaunchService.
type LaunchResult struct {
	Success      bool
	ProcessInfo  *ProcessInfo `json:",omitempty"`
	ErrorMessage string       `json:",omitempty"`
}
