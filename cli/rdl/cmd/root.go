// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/remote-debug/remote-debug/cli/rdl/cmd/actions"
	"github.com/remote-debug/remote-debug/cli/rdl/cmd/middleware"
	"github.com/remote-debug/remote-debug/cli/rdl/internal"
	"github.com/remote-debug/remote-debug/cli/rdl/internal/tracing"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/ioc"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/osutil"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/output"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/remotedebug"
	"github.com/spf13/cobra"
)

// DebugEnvVar, when true as per [strconv.ParseBool], has the same effect as --debug.
const DebugEnvVar = "RDL_DEBUG"

// NewRootCmd creates the `rdl` command tree. The returned func releases what the commands opened (the trace log file)
// and must be called once the command completes.
func NewRootCmd(rootContainer *ioc.NestedContainer) (*cobra.Command, func(), error) {
	prevDir := ""
	opts := &internal.GlobalCommandOptions{}
	cleanup := func() {}

	rootCmd := &cobra.Command{
		Use:   "rdl",
		Short: "Remote Debug Launch (rdl) - launch a process on a remote machine under the debugger",
		Long: heredoc.Docf(`
			Remote Debug Launch (rdl) - launch a process on a remote machine under the debugger

			The remote machine and the executable are read from %s in the solution directory:

				<RemoteDebug>
				  <MachineName>box1</MachineName>
				  <Path>/srv/app/server</Path>
				</RemoteDebug>

			Then, from the solution directory:

				$ rdl launch
			`, remotedebug.ConfigDirectoryName+"/"+remotedebug.ConfigFileName),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Cwd != "" {
				current, err := os.Getwd()

				if err != nil {
					return err
				}

				prevDir = current

				if err := os.Chdir(opts.Cwd); err != nil {
					return fmt.Errorf("failed to change directory to %s: %w", opts.Cwd, err)
				}
			}

			if debug, has := osutil.GetenvBool(DebugEnvVar); has && debug {
				opts.EnableDebugLogging = true
			}

			log.SetFlags(log.LstdFlags | log.Lshortfile)

			if !opts.EnableDebugLogging {
				log.SetOutput(io.Discard)
			}

			if opts.TraceLogFile != "" || opts.TraceLogUrl != "" {
				shutdown, err := startTracing(cmd.Context(), opts)
				if err != nil {
					return err
				}
				cleanup = shutdown
			}

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			// This is just for cleanliness and making writing tests simpler since
			// we can just remove the entire project folder afterwards.
			// In practical execution, this wouldn't affect much, since the CLI is exiting.
			if prevDir != "" {
				return os.Chdir(prevDir)
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root := actions.NewActionDescriptor("rdl", &actions.ActionDescriptorOptions{
		Command: rootCmd,
	})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&opts.Cwd, "cwd", "C", "", "Sets the current working directory.")
	rootCmd.PersistentFlags().BoolVar(&opts.EnableDebugLogging, "debug", false, "Enables debugging and diagnostics logging.")
	rootCmd.PersistentFlags().BoolVar(
		&opts.NoPrompt,
		"no-prompt",
		false,
		"Accepts the default value instead of prompting, or it fails if there is no default.")
	rootCmd.PersistentFlags().StringVar(&opts.TraceLogFile, "trace-log-file", "", "Writes a trace of the command to a file.")
	rootCmd.PersistentFlags().StringVar(
		&opts.TraceLogUrl, "trace-log-url", "", "Sends a trace of the command to an OTLP/HTTP endpoint.")
	_ = rootCmd.PersistentFlags().MarkHidden("trace-log-file")
	_ = rootCmd.PersistentFlags().MarkHidden("trace-log-url")

	root.Add("launch", &actions.ActionDescriptorOptions{
		Command:        newLaunchCmd(),
		FlagsResolver:  newLaunchFlags,
		ActionResolver: newLaunchAction,
		OutputFormats:  []output.Format{output.JsonFormat, output.NoneFormat},
		DefaultFormat:  output.NoneFormat,
	})

	root.Add("vs-server", &actions.ActionDescriptorOptions{
		Command:        newVsServerCmd(),
		FlagsResolver:  newVsServerFlags,
		ActionResolver: newVsServerAction,
	})

	configActions(root)

	root.Add("version", &actions.ActionDescriptorOptions{
		Command:        newVersionCmd(),
		ActionResolver: newVersionAction,
		OutputFormats:  []output.Format{output.JsonFormat, output.NoneFormat},
		DefaultFormat:  output.NoneFormat,
		DisableTracing: true,
	})

	root.
		UseMiddleware("ux", middleware.NewUxMiddleware).
		UseMiddlewareWhen("tracing", middleware.NewTracingMiddleware, func(descriptor *actions.ActionDescriptor) bool {
			return !descriptor.Options.DisableTracing
		})

	ioc.RegisterInstance(rootContainer, opts)
	registerCommonDependencies(rootContainer)

	cmd, err := NewCobraBuilder(rootContainer).BuildCommand(root)
	if err != nil {
		return nil, nil, err
	}

	return cmd, func() { cleanup() }, nil
}

// startTracing exports the spans of the command to the trace log file, or to the trace log url.
func startTracing(ctx context.Context, opts *internal.GlobalCommandOptions) (func(), error) {
	if opts.TraceLogUrl != "" {
		shutdown, err := tracing.InitOtlp(ctx, opts.TraceLogUrl, internal.GetVersionNumber())
		if err != nil {
			return nil, err
		}

		return func() {
			if err := shutdown(context.Background()); err != nil {
				log.Printf("failed shutting down tracing: %v", err)
			}
		}, nil
	}

	f, err := os.OpenFile(opts.TraceLogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, osutil.PermissionFile)
	if err != nil {
		return nil, fmt.Errorf("opening trace log file: %w", err)
	}

	shutdown, err := tracing.Init(f, internal.GetVersionNumber())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("failed shutting down tracing: %v", err)
		}
		_ = f.Close()
	}, nil
}

// Execute runs the command given by args.
func Execute(ctx context.Context, args []string) error {
	rootCmd, cleanup, err := NewRootCmd(ioc.NewNestedContainer(nil))
	if err != nil {
		return err
	}
	defer cleanup()

	rootCmd.SetArgs(args)
	err = rootCmd.ExecuteContext(ctx)

	// Errors of actions were already shown. What remains are usage errors, and errors of structured output commands.
	var reportedErr *internal.ReportedError
	if err != nil && !errors.As(err, &reportedErr) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), output.WithErrorFormat("ERROR: %s", err.Error()))
	}

	return err
}
