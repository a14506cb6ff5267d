// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.
package contracts

// VersionResult is the contract for the output of `rdl version`
type VersionResult struct {
	Rdl struct {
		Version string `json:"version"`
		Commit  string `json:"commit"`
	} `json:"rdl"`
}
