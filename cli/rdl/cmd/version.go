// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/remote-debug/remote-debug/cli/rdl/cmd/actions"
	"github.com/remote-debug/remote-debug/cli/rdl/internal"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/contracts"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/output"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of Remote Debug Launch.",
		Args:  cobra.NoArgs,
	}
}

type versionAction struct {
	formatter output.Formatter
	writer    io.Writer
}

func newVersionAction(formatter output.Formatter, writer io.Writer) actions.Action {
	return &versionAction{
		formatter: formatter,
		writer:    writer,
	}
}

func (v *versionAction) Run(ctx context.Context) (*actions.ActionResult, error) {
	switch v.formatter.Kind() {
	case output.JsonFormat:
		var result contracts.VersionResult
		versionSpec := internal.VersionInfo()

		result.Rdl.Commit = versionSpec.Commit
		result.Rdl.Version = versionSpec.Version.String()

		if err := v.formatter.Format(result, v.writer); err != nil {
			return nil, err
		}
	default:
		fmt.Fprintf(v.writer, "rdl version %s\n", internal.Version)
	}

	return nil, nil
}
