// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package events provides the names of the spans emitted by rdl.
package events

// Command event names follow the convention cmd.<command invocation path with spaces replaced by .>.
//
// Examples:
//   - cmd.launch
//   - cmd.config.set
const CommandEventPrefix = "cmd."

// Prefix for vsrpc events.
const VsRpcEventPrefix = "vsrpc."

// InvokeEvent tracks a single invocation of the remote debug launch command.
const InvokeEvent = "remotedebug.invoke"

// ConfigLoadEvent tracks reading and parsing the configuration file.
const ConfigLoadEvent = "remotedebug.config.load"

// DispatchEvent tracks the call to the debug launch service.
const DispatchEvent = "remotedebug.dispatch"
