// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package fields provides the attribute keys set on spans emitted by rdl.
package fields

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

var (
	// The name of the remote machine. Always hashed, see [StringHashed].
	RemoteMachine = attribute.Key("remotedebug.machine")
	// The state the launch command finished in.
	CommandState = attribute.Key("remotedebug.state")
	// The kind of error that ended the launch command.
	ErrorKind = attribute.Key("remotedebug.error.kind")
	// The launch service that handled the request.
	LaunchService = attribute.Key("remotedebug.service")
)

// RPC fields
var (
	RpcMethod        = attribute.Key("rpc.method")
	JsonRpcId        = attribute.Key("rpc.jsonrpc.request_id")
	JsonRpcErrorCode = attribute.Key("rpc.jsonrpc.error_code")
)

// StringHashed returns an attribute whose value is the case insensitive hash of v.
func StringHashed(k attribute.Key, v string) attribute.KeyValue {
	return k.String(CaseInsensitiveHash(v))
}

// CaseInsensitiveHash returns the hex-encoded Sha256 hash of the lower case form of value.
func CaseInsensitiveHash(value string) string {
	sha := sha256.Sum256([]byte(strings.ToLower(value)))
	return hex.EncodeToString(sha[:])
}
