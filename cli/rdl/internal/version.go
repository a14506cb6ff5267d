// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package internal

import (
	"regexp"

	"github.com/blang/semver/v4"
)

// Version is set at build time with -ldflags "-X", in the form "<semver> (commit <sha>)".
var Version = "0.0.0-dev.0 (commit 0000000000000000000000000000000000000000)"

type VersionSpec struct {
	Version semver.Version
	Commit  string
}

var versionRegex = regexp.MustCompile(`^(\S+) \(commit ([0-9a-f]+)\)$`)

// VersionInfo parses Version. When Version is not in the expected form, the zero version and an empty commit are
// returned.
func VersionInfo() VersionSpec {
	match := versionRegex.FindStringSubmatch(Version)
	if match == nil {
		return VersionSpec{}
	}

	ver, err := semver.Parse(match[1])
	if err != nil {
		return VersionSpec{}
	}

	return VersionSpec{
		Version: ver,
		Commit:  match[2],
	}
}

// GetVersionNumber returns the semantic version of the build, or "unknown".
func GetVersionNumber() string {
	spec := VersionInfo()
	if spec.Commit == "" {
		return "unknown"
	}

	return spec.Version.String()
}
