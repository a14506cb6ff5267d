// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package ssh launches debug targets on a remote machine by starting a headless Delve server over ssh.
package ssh

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/remote-debug/remote-debug/cli/rdl/internal/tracing"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/exec"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/remotedebug"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/tools"
)

// DefaultDlvPort is the port the headless debugger listens on when none is configured.
const DefaultDlvPort = 2345

// startupSeconds is how long the remote shell waits before checking that the debugger is still running.
const startupSeconds = 1

type Options struct {
	// User is the remote user name. When empty, ssh picks the user from its own configuration.
	User string
	// Port is the ssh port. Zero uses the ssh default.
	Port int
	// DlvPort is the port the headless debugger listens on. Zero uses DefaultDlvPort.
	DlvPort int
}

type SshCli interface {
	tools.ExternalTool
	remotedebug.LaunchService
}

type sshCli struct {
	commandRunner exec.CommandRunner
	options       Options
}

func NewSshCli(commandRunner exec.CommandRunner, options Options) SshCli {
	if options.DlvPort == 0 {
		options.DlvPort = DefaultDlvPort
	}

	return &sshCli{
		commandRunner: commandRunner,
		options:       options,
	}
}

func (cli *sshCli) Name() string {
	return "OpenSSH"
}

func (cli *sshCli) InstallUrl() string {
	return "https://www.openssh.com/portable.html"
}

func (cli *sshCli) versionInfo() tools.VersionInfo {
	return tools.VersionInfo{
		// OpenSSH 7.6, October 2017
		MinimumVersion: semver.Version{
			Major: 7,
			Minor: 6,
			Patch: 0},
		UpdateCommand: "Visit https://www.openssh.com/portable.html to upgrade",
	}
}

var sshVersionRegex = regexp.MustCompile(`OpenSSH_(?:for_Windows_)?(\d+)\.(\d+)`)

func (cli *sshCli) CheckInstalled(ctx context.Context) error {
	if err := tools.ToolInPath("ssh"); err != nil {
		return err
	}

	// ssh -V writes its version to stderr.
	res, err := cli.commandRunner.Run(ctx, exec.NewRunArgs("ssh", "-V"))
	if err != nil {
		return fmt.Errorf("checking %s version: %w", cli.Name(), err)
	}
	versionText := res.Stderr + res.Stdout
	log.Printf("ssh version: %s", strings.TrimSpace(versionText))

	match := sshVersionRegex.FindStringSubmatch(versionText)
	if match == nil {
		return fmt.Errorf("no OpenSSH version found in '%s'", strings.TrimSpace(versionText))
	}

	version, err := tools.ExtractVersion(match[1] + "." + match[2])
	if err != nil {
		return fmt.Errorf("converting to semver version fails: %w", err)
	}

	updateDetail := cli.versionInfo()
	if version.LT(updateDetail.MinimumVersion) {
		return &tools.ErrSemver{ToolName: cli.Name(), VersionInfo: updateDetail}
	}

	return nil
}

// LaunchDebugTargets starts request.ExecutablePath under a headless Delve server on request.RemoteMachine and
// returns once the server has been started. The Delve server outlives the ssh session; a debugger client connects
// to the address in the returned ProcessInfo.Details.
//
// A failure of ssh itself, such as an unreachable host, is reported as an unsuccessful LaunchResult whose message is
// the stderr output of ssh. So is a remote machine without dlv, a path that is not an executable file, and a debugger
// that exits right after starting.
func (cli *sshCli) LaunchDebugTargets(
	ctx context.Context,
	request remotedebug.LaunchRequest,
) (*remotedebug.LaunchResult, error) {
	if request.Operation != remotedebug.CreateProcess {
		return nil, fmt.Errorf("unsupported launch operation '%s'", request.Operation)
	}

	if request.DebugEngineCount < 1 {
		return nil, errors.New("no debug engine was requested")
	}

	log.Printf("ssh launch: engines %v", request.DebugEngines.IDs())

	cmdArgs, err := cli.sshArgs(request)
	if err != nil {
		return nil, err
	}

	args := exec.NewRunArgs("ssh", cmdArgs...).
		WithEnv(tracing.Environ(ctx))

	res, err := cli.commandRunner.Run(ctx, args)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &remotedebug.LaunchResult{
				Success:      false,
				ErrorMessage: failureMessage(exitErr, request.RemoteMachine),
			}, nil
		}

		return nil, fmt.Errorf("running ssh: %w", err)
	}

	pid, err := parsePid(res.Stdout)
	if err != nil {
		return &remotedebug.LaunchResult{
			Success:      false,
			ErrorMessage: err.Error(),
		}, nil
	}

	return &remotedebug.LaunchResult{
		Success: true,
		ProcessInfo: &remotedebug.ProcessInfo{
			ProcessId: pid,
			Details:   fmt.Sprintf("%s:%d", request.RemoteMachine, cli.options.DlvPort),
		},
	}, nil
}

func (cli *sshCli) sshArgs(request remotedebug.LaunchRequest) ([]string, error) {
	// ssh reads a destination that starts with '-' as an option.
	if request.RemoteMachine == "" || strings.HasPrefix(request.RemoteMachine, "-") {
		return nil, fmt.Errorf("invalid remote machine name '%s'", request.RemoteMachine)
	}

	if strings.HasPrefix(cli.options.User, "-") {
		return nil, fmt.Errorf("invalid remote user name '%s'", cli.options.User)
	}

	args := []string{"-o", "BatchMode=yes"}
	if cli.options.Port != 0 {
		args = append(args, "-p", strconv.Itoa(cli.options.Port))
	}

	target := request.RemoteMachine
	if cli.options.User != "" {
		target = cli.options.User + "@" + target
	}

	return append(args, target, "--", cli.remoteCommand(request.ExecutablePath)), nil
}

// remoteCommand is run by the remote shell. It checks that dlv and the executable are there, starts the debugger
// detached from the session and prints its pid once the debugger has survived its startup. Every failure exits
// non-zero with a message on stderr; the output of a debugger that exited early is part of that message.
func (cli *sshCli) remoteCommand(executablePath string) string {
	path := shellQuote(executablePath)

	return strings.Join([]string{
		fmt.Sprintf(
			"command -v dlv >/dev/null 2>&1 || { echo %s >&2; exit 127; }",
			shellQuote("dlv is not installed on the remote machine")),
		fmt.Sprintf(
			"[ -f %s ] && [ -x %s ] || { echo %s >&2; exit 126; }",
			path,
			path,
			shellQuote(fmt.Sprintf("'%s' is not an executable file", executablePath))),
		"log=$(mktemp) || exit 1",
		fmt.Sprintf(
			"nohup dlv exec --headless --listen=:%d --api-version=2 --accept-multiclient --continue %s"+
				` >"$log" 2>&1 </dev/null &`,
			cli.options.DlvPort,
			path),
		"pid=$!",
		fmt.Sprintf("sleep %d", startupSeconds),
		fmt.Sprintf(
			`kill -0 "$pid" 2>/dev/null || { cat "$log" >&2; echo %s >&2; rm -f "$log"; exit 1; }`,
			shellQuote(fmt.Sprintf("dlv exited while starting '%s'", executablePath))),
		`echo "$pid"`,
	}, "\n")
}

// shellQuote quotes s for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func parsePid(stdout string) (uint32, error) {
	text := strings.TrimSpace(stdout)
	pid, err := strconv.ParseUint(text, 10, 32)
	if err != nil || pid == 0 {
		return 0, fmt.Errorf("the remote debugger did not report a process id (output: '%s')", text)
	}

	return uint32(pid), nil
}

// failureMessage is the text shown to the user when ssh fails: its stderr, as written.
func failureMessage(exitErr *exec.ExitError, machine string) string {
	if stderr := exitErr.StderrOutput(); strings.TrimSpace(stderr) != "" {
		return stderr
	}

	return fmt.Sprintf("ssh to '%s' failed with exit code %d", machine, exitErr.ExitCode)
}
