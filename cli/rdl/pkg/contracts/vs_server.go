// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.
package contracts

// VsServerResult is written to stdout by `rdl vs-server` once the server is listening. The IDE extension reads it to
// find the port to connect to.
type VsServerResult struct {
	Port int `json:"port"`
	Pid  int `json:"pid"`
	// CertificateBytes is the base64 encoded DER certificate of the server, when TLS is used.
	CertificateBytes *string `json:"certificateBytes,omitempty"`
	VersionResult
}

// LaunchResult is the output of `rdl launch --output json`.
type LaunchResult struct {
	State       string `json:"state"`
	MachineName string `json:"machineName,omitempty"`
	Path        string `json:"path,omitempty"`
	ProcessId   uint32 `json:"processId,omitempty"`
	Details     string `json:"details,omitempty"`
	Error       string `json:"error,omitempty"`
	ErrorKind   string `json:"errorKind,omitempty"`
}
