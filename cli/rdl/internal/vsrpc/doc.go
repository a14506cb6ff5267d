// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package vsrpc provides the RPC server that the IDE extension uses to run the remote debug launch command through
// rdl.
//
// The RPC server is implemented using JSON-RPC 2.0 over WebSockets, in the dialect understood by StreamJsonRpc. The
// IDE passes marshaled objects (an IObserver<ProgressMessage> and the debugger host) as arguments; calls on those are
// sent back to the IDE over the same connection.
package vsrpc
