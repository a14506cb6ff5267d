// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package tools

import (
	"context"
	"errors"
	"fmt"
	osexec "os/exec"
	"regexp"
	"strconv"

	"github.com/blang/semver/v4"
	"go.uber.org/multierr"
)

type ExternalTool interface {
	CheckInstalled(ctx context.Context) error
	InstallUrl() string
	Name() string
}

type ErrSemver struct {
	ToolName    string
	VersionInfo VersionInfo
}

type VersionInfo struct {
	MinimumVersion semver.Version
	UpdateCommand  string
}

func (err *ErrSemver) Error() string {
	return fmt.Sprintf("need at least version %s or later of %s installed. %s",
		err.VersionInfo.MinimumVersion.String(), err.ToolName, err.VersionInfo.UpdateCommand)
}

// ErrToolNotFound is returned by ToolInPath when the program is not on the PATH.
var ErrToolNotFound = errors.New("tool not found on PATH")

// ToolInPath checks to see if a program can be found on the PATH, as exec.LookPath does.
func ToolInPath(name string) error {
	_, err := osexec.LookPath(name)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, osexec.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrToolNotFound, name)
	default:
		return fmt.Errorf("failed searching for `%s` on PATH: %w", name, err)
	}
}

var (
	majorMinorPatchRegex = regexp.MustCompile(`\d+\.\d+\.\d+`)
	majorMinorRegex      = regexp.MustCompile(`(\d+)\.(\d+)`)
	majorRegex           = regexp.MustCompile(`\d+`)
)

// ExtractVersion extracts a major.minor.patch version number from a typical CLI version flag output.
//
// minor and patch version numbers are both optional, treated as 0 if not found.
func ExtractVersion(cliOutput string) (semver.Version, error) {
	ver, err := semver.Parse(majorMinorPatchRegex.FindString(cliOutput))
	if err == nil {
		return ver, nil
	}

	majorMinor := majorMinorRegex.FindStringSubmatch(cliOutput)
	if len(majorMinor) >= 3 {
		return semver.Version{
			Major: parseUint(majorMinor[1]),
			Minor: parseUint(majorMinor[2]),
		}, nil
	}

	major := majorRegex.FindString(cliOutput)
	if major != "" {
		return semver.Version{Major: parseUint(major)}, nil
	}

	return semver.Version{}, fmt.Errorf("no valid version number found in %s", cliOutput)
}

func parseUint(s string) uint64 {
	res, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		panic(err)
	}
	return res
}

// EnsureInstalled checks every tool and returns an error naming each one that is missing or too old, with the url to
// install it from.
func EnsureInstalled(ctx context.Context, tools ...ExternalTool) error {
	var errs error
	for _, tool := range tools {
		if err := tool.CheckInstalled(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w (see %s)", tool.Name(), err, tool.InstallUrl()))
		}
	}

	return errs
}
