// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"io"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/remote-debug/remote-debug/cli/rdl/internal"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/config"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/debugengine"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/exec"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/input"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/ioc"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/output"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/remotedebug"
	"github.com/spf13/cobra"
)

// Registers common rdl dependencies
func registerCommonDependencies(container *ioc.NestedContainer) {
	ioc.RegisterInstance(container, container)

	container.RegisterSingleton(output.GetFormatter)

	container.RegisterSingleton(func(cmd *cobra.Command) io.Writer {
		return cmd.OutOrStdout()
	})

	container.RegisterSingleton(func(
		rootOptions *internal.GlobalCommandOptions,
		formatter output.Formatter,
		cmd *cobra.Command) input.Console {
		writer := cmd.OutOrStdout()
		// When using JSON formatting, we want to ensure we always write messages from the console to stderr.
		if formatter != nil && formatter.Kind() == output.JsonFormat {
			writer = cmd.ErrOrStderr()
		}

		if os.Getenv("NO_COLOR") != "" {
			writer = colorable.NewNonColorable(writer)
		}

		isTerminal := cmd.OutOrStdout() == os.Stdout &&
			cmd.InOrStdin() == os.Stdin && isatty.IsTerminal(os.Stdin.Fd()) &&
			isatty.IsTerminal(os.Stdout.Fd())

		return input.NewConsole(rootOptions.NoPrompt, isTerminal, input.ConsoleHandles{
			Stdin:  cmd.InOrStdin(),
			Stdout: writer,
			Stderr: cmd.ErrOrStderr(),
		})
	})

	container.RegisterSingleton(func(rootOptions *internal.GlobalCommandOptions, console input.Console) exec.CommandRunner {
		return exec.NewCommandRunner(&exec.RunnerOptions{
			Stdin:        console.Handles().Stdin,
			Stdout:       console.Handles().Stdout,
			Stderr:       console.Handles().Stderr,
			DebugLogging: rootOptions.EnableDebugLogging,
		})
	})

	// User configuration
	container.RegisterSingleton(config.NewManager)
	container.RegisterSingleton(config.NewFileConfigManager)
	container.RegisterSingleton(config.NewUserConfigManager)

	container.RegisterSingleton(func() clock.Clock {
		return clock.New()
	})

	// Remote debug launch
	container.RegisterSingleton(debugengine.NewAllocator)
	container.RegisterSingleton(func(engines debugengine.Allocator) *remotedebug.LaunchCommand {
		return remotedebug.NewLaunchCommand(engines)
	})
	container.RegisterSingleton(func(command *remotedebug.LaunchCommand) (*remotedebug.Registry, error) {
		registry := remotedebug.NewRegistry()
		if err := remotedebug.RegisterLaunchCommand(registry, command); err != nil {
			return nil, err
		}

		return registry, nil
	})
	container.RegisterSingleton(newLaunchServiceFactory)
}
