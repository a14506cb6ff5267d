// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package main

import (
	"context"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/remote-debug/remote-debug/cli/rdl/cmd"
	"github.com/remote-debug/remote-debug/cli/rdl/internal/tracing"
)

func main() {
	// A parent process, such as the IDE, may pass its trace context in the environment.
	ctx := tracing.ContextFromEnv(context.Background())

	restoreColorMode := colorable.EnableColorsStdout(nil)

	cmdErr := cmd.Execute(ctx, os.Args[1:])

	restoreColorMode()

	if cmdErr != nil {
		os.Exit(1)
	}
}
