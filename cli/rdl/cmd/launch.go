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
	"github.com/remote-debug/remote-debug/cli/rdl/internal"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/config"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/contracts"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/debugengine"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/exec"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/input"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/output"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/remotedebug"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/tools"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/tools/ssh"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type launchFlags struct {
	global   *internal.GlobalCommandOptions
	solution string
	service  string
	engine   string
	sshUser  string
	sshPort  int
	dlvPort  int
}

func (f *launchFlags) Bind(local *pflag.FlagSet, global *internal.GlobalCommandOptions) {
	f.global = global
	local.StringVar(
		&f.solution,
		"solution",
		"",
		"Path of the solution file, or of the solution folder. Defaults to the current directory.")
	local.StringVar(
		&f.service,
		"service",
		"",
		fmt.Sprintf("The launch service to use. Overrides '%s'.", config.LaunchServiceKey))
	local.StringVar(
		&f.engine,
		"engine",
		"",
		fmt.Sprintf(
			"The debug engine to target: %s, %s, %s or an engine id. Overrides '%s'.",
			debugengine.ManagedAndNativeName,
			debugengine.NativeOnlyName,
			debugengine.ManagedOnlyName,
			config.LaunchEngineKey))
	local.StringVar(&f.sshUser, "ssh-user", "", fmt.Sprintf("The remote user name. Overrides '%s'.", config.SshUserKey))
	local.IntVar(&f.sshPort, "ssh-port", 0, fmt.Sprintf("The ssh port. Overrides '%s'.", config.SshPortKey))
	local.IntVar(
		&f.dlvPort,
		"dlv-port",
		0,
		fmt.Sprintf("The port the remote debugger listens on. Overrides '%s'.", config.DlvPortKey))
}

func newLaunchFlags(cmd *cobra.Command, global *internal.GlobalCommandOptions) *launchFlags {
	flags := &launchFlags{}
	flags.Bind(cmd.Flags(), global)

	return flags
}

func newLaunchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Launch the configured executable on the remote machine under the debugger.",
		Long: heredoc.Docf(`
			Launch the configured executable on the remote machine under the debugger.

			The remote machine and the executable are read from %s in the solution directory. A failure is
			shown in a message box titled '%s'.
			`,
			output.WithBackticks(remotedebug.ConfigDirectoryName+"/"+remotedebug.ConfigFileName),
			remotedebug.ReportTitle),
		Args: cobra.NoArgs,
	}
}

// launchServiceFactory creates the launch service selected by settings.
type launchServiceFactory func(ctx context.Context, settings config.LaunchSettings) (remotedebug.LaunchService, error)

func newLaunchServiceFactory(commandRunner exec.CommandRunner) launchServiceFactory {
	return func(ctx context.Context, settings config.LaunchSettings) (remotedebug.LaunchService, error) {
		switch settings.Service {
		case config.LaunchServiceSsh:
			cli := ssh.NewSshCli(commandRunner, ssh.Options{
				User:    settings.SshUser,
				Port:    settings.SshPort,
				DlvPort: settings.DlvPort,
			})

			if err := tools.EnsureInstalled(ctx, cli); err != nil {
				return nil, err
			}

			return cli, nil
		default:
			return nil, config.ValidateLaunchService(settings.Service)
		}
	}
}

// cliHost runs the launch command from the command line. Message boxes are shown by the console.
type cliHost struct {
	solutionPath string
	// newService creates the launch service. It runs once the configuration has loaded, so its failures are
	// reported like any other launch failure.
	newService   func(ctx context.Context) (remotedebug.LaunchService, error)
	console      input.Console
}

func (h *cliHost) SolutionPath(ctx context.Context) (string, error) {
	if h.solutionPath != "" {
		return h.solutionPath, nil
	}

	return os.Getwd()
}

func (h *cliHost) LaunchDebugTargets(
	ctx context.Context,
	request remotedebug.LaunchRequest,
) (*remotedebug.LaunchResult, error) {
	h.console.ShowSpinner(ctx, fmt.Sprintf("Launching '%s' on '%s'", request.ExecutablePath, request.RemoteMachine))

	service, err := h.newService(ctx)
	if err != nil {
		h.console.StopSpinner(ctx, "", true)
		return nil, err
	}

	res, err := service.LaunchDebugTargets(ctx, request)
	h.console.StopSpinner(ctx, "", err != nil || res == nil || !res.Success)

	return res, err
}

func (h *cliHost) ShowMessageBox(ctx context.Context, options input.MessageBoxOptions) error {
	return h.console.ShowMessageBox(ctx, options)
}

type launchAction struct {
	flags             *launchFlags
	engines           debugengine.Allocator
	userConfigManager config.UserConfigManager
	newService        launchServiceFactory
	console           input.Console
	formatter         output.Formatter
	writer            io.Writer
}

func newLaunchAction(
	flags *launchFlags,
	engines debugengine.Allocator,
	userConfigManager config.UserConfigManager,
	newService launchServiceFactory,
	console input.Console,
	formatter output.Formatter,
	writer io.Writer,
) actions.Action {
	return &launchAction{
		flags:             flags,
		engines:           engines,
		userConfigManager: userConfigManager,
		newService:        newService,
		console:           console,
		formatter:         formatter,
		writer:            writer,
	}
}

func (a *launchAction) Run(ctx context.Context) (*actions.ActionResult, error) {
	settings, err := a.launchSettings()
	if err != nil {
		return nil, err
	}

	host := &cliHost{
		solutionPath: a.flags.solution,
		newService: func(ctx context.Context) (remotedebug.LaunchService, error) {
			service, err := a.newService(ctx, settings)
			if err != nil {
				return nil, fmt.Errorf("preparing launch service '%s': %w", settings.Service, err)
			}

			return service, nil
		},
		console: a.console,
	}

	outcome := remotedebug.NewLaunchCommand(a.engines, remotedebug.WithEngine(settings.Engine)).Invoke(ctx, host)

	if a.formatter.Kind() == output.JsonFormat {
		if err := a.formatter.Format(launchResult(outcome), a.writer); err != nil {
			return nil, fmt.Errorf("failed formatting launch result: %w", err)
		}
	}

	if outcome.Err != nil {
		// The failure was shown in a message box by the launch command.
		var reported error = &internal.ReportedError{Err: outcome.Err}
		if errors.Is(outcome.Err, remotedebug.ErrConfigNotFound) {
			reported = &internal.ErrorWithSuggestion{
				Err: reported,
				Suggestion: fmt.Sprintf(
					"Create %s in the solution directory.",
					remotedebug.ConfigDirectoryName+"/"+remotedebug.ConfigFileName),
			}
		}

		return nil, reported
	}

	followUp := ""
	if info := outcome.Result.ProcessInfo; info != nil {
		followUp = fmt.Sprintf("Process id: %d", info.ProcessId)
		if info.Details != "" {
			followUp = fmt.Sprintf("%s. Connect the debugger to %s", followUp, output.WithHighLightFormat(info.Details))
		}
	}

	return &actions.ActionResult{
		Message: &actions.ResultMessage{
			Header: fmt.Sprintf(
				"Launched '%s' on '%s'", outcome.Config.ExecutablePath(), outcome.Config.MachineName()),
			FollowUp: followUp,
		},
	}, nil
}

// launchSettings are the user settings, overridden by the flags that were set.
func (a *launchAction) launchSettings() (config.LaunchSettings, error) {
	userConfig, err := a.userConfigManager.Load()
	if err != nil {
		log.Printf("failed loading user config, using defaults: %v", err)
		userConfig = config.NewEmptyConfig()
	}

	settings, err := config.GetLaunchSettings(userConfig)
	if err != nil {
		suggestion := fmt.Sprintf(
			"Run 'rdl config unset %s' or 'rdl config unset %s' to use the defaults.",
			config.LaunchServiceKey,
			config.LaunchEngineKey)

		return config.LaunchSettings{}, &internal.ErrorWithSuggestion{
			Err:        err,
			Suggestion: suggestion,
		}
	}

	if a.flags.service != "" {
		if err := config.ValidateLaunchService(a.flags.service); err != nil {
			return config.LaunchSettings{}, err
		}
		settings.Service = a.flags.service
	}
	if a.flags.engine != "" {
		engine, err := debugengine.Parse(a.flags.engine)
		if err != nil {
			return config.LaunchSettings{}, err
		}
		settings.Engine = engine
	}
	if a.flags.sshUser != "" {
		settings.SshUser = a.flags.sshUser
	}
	if a.flags.sshPort != 0 {
		settings.SshPort = a.flags.sshPort
	}
	if a.flags.dlvPort != 0 {
		settings.DlvPort = a.flags.dlvPort
	}

	return settings, nil
}

func launchResult(outcome *remotedebug.Outcome) contracts.LaunchResult {
	res := contracts.LaunchResult{
		State: outcome.State.String(),
	}

	if outcome.Config != nil {
		res.MachineName = outcome.Config.MachineName()
		res.Path = outcome.Config.ExecutablePath()
	}

	if outcome.Result != nil && outcome.Result.ProcessInfo != nil {
		res.ProcessId = outcome.Result.ProcessInfo.ProcessId
		res.Details = outcome.Result.ProcessInfo.Details
	}

	if outcome.Err != nil {
		res.Error = outcome.Err.Error()
		res.ErrorKind = remotedebug.KindOf(outcome.Err).String()
	}

	return res
}
