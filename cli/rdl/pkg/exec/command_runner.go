// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// CommandRunner exposes the contract for executing console/shell commands for the specified runArgs
type CommandRunner interface {
	Run(ctx context.Context, args RunArgs) (RunResult, error)
}

type RunnerOptions struct {
	// Stdin is the input stream. If nil, os.Stdin is used.
	Stdin io.Reader
	// Stdout is the output stream. If nil, os.Stdout is used.
	Stdout io.Writer
	// Stderr is the error stream. If nil, os.Stderr is used.
	Stderr io.Writer
	// Whether debug logging is enabled. False by default.
	DebugLogging bool
}

// NewCommandRunner creates the default CommandRunner. Passing nil uses the default RunnerOptions.
//
// The streams in opt are attached to interactive commands.
func NewCommandRunner(opt *RunnerOptions) CommandRunner {
	if opt == nil {
		opt = &RunnerOptions{}
	}

	runner := &commandRunner{
		stdin:        opt.Stdin,
		stdout:       opt.Stdout,
		stderr:       opt.Stderr,
		debugLogging: opt.DebugLogging,
	}

	if runner.stdin == nil {
		runner.stdin = os.Stdin
	}

	if runner.stdout == nil {
		runner.stdout = os.Stdout
	}

	if runner.stderr == nil {
		runner.stderr = os.Stderr
	}

	return runner
}

// commandRunner runs commands as child processes of the current process.
type commandRunner struct {
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer
	debugLogging bool
}

// Run runs the command specified in 'args'.
//
// Returns a RunResult that is the result of the command.
//   - If interactive is true, standard output/error is not captured in the returned result and is instead written
//     to the streams the runner was created with.
//   - If the command exits unsuccessfully, *ExitError is returned. Other possible errors would likely be I/O errors or
//     context cancellation.
func (r *commandRunner) Run(ctx context.Context, args RunArgs) (RunResult, error) {
	if args.Cmd == "" {
		return RunResult{}, errors.New("command must be provided")
	}

	cmd := exec.CommandContext(ctx, args.Cmd, args.Args...)
	cmd.Dir = args.Cwd
	cmd.Env = appendEnv(args.Env)

	var stdout, stderr bytes.Buffer

	if args.Interactive {
		cmd.Stdin = r.stdin
		cmd.Stdout = r.stdout
		cmd.Stderr = r.stderr
	} else {
		if args.StdIn != nil {
			cmd.Stdin = args.StdIn
		} else {
			cmd.Stdin = new(bytes.Buffer)
		}
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if args.Stderr != nil {
			cmd.Stderr = io.MultiWriter(args.Stderr, &stderr)
		}
	}

	logTitle := strings.Builder{}
	logBody := strings.Builder{}
	defer func() {
		logTitle.WriteString(logBody.String())
		log.Print(logTitle.String())
	}()

	fmt.Fprintf(&logTitle, "Run exec: '%s %s' ",
		args.Cmd,
		redactSensitiveData(strings.Join(redactSensitiveArgs(args.Args, args.SensitiveData), " ")))

	debugLogEnabled := r.debugLogging || args.Debug

	if debugLogEnabled && len(args.Env) > 0 {
		logBody.WriteString("Additional env:\n")
		for _, kv := range args.Env {
			fmt.Fprintf(&logBody, "   %s\n", kv)
		}
	}

	if err := cmd.Start(); err != nil {
		return RunResult{}, err
	}

	err := cmd.Wait()

	result := RunResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if debugLogEnabled && !args.Interactive {
		if out := strings.TrimSuffix(redactSensitiveData(result.Stdout), "\n"); len(out) > 0 {
			fmt.Fprintf(&logBody,
				"-------------------------------------stdout-------------------------------------------\n%s\n", out)
		}
		if out := strings.TrimSuffix(redactSensitiveData(result.Stderr), "\n"); len(out) > 0 {
			fmt.Fprintf(&logBody,
				"-------------------------------------stderr-------------------------------------------\n%s\n", out)
		}
	}
	fmt.Fprintf(&logTitle, ", exit code: %d\n", result.ExitCode)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		err = NewExitError(exitErr, args.Cmd, result.Stdout, result.Stderr, !args.Interactive)
	}

	return result, err
}

func appendEnv(env []string) []string {
	if len(env) > 0 {
		return append(os.Environ(), env...)
	}

	return nil
}

type redactData struct {
	matchString   *regexp.Regexp
	replaceString string
}

const cRedacted = "<redacted>"

var regexpRedactRules = []redactData{
	{
		regexp.MustCompile(`-o Password=\S+`),
		"-o Password=" + cRedacted,
	},
	{
		regexp.MustCompile(`--password \S+`),
		"--password " + cRedacted,
	},
	{
		regexp.MustCompile(`(?i)(TRACEPARENT|TRACESTATE)=\S+`),
		"$1=" + cRedacted,
	},
}

func redactSensitiveArgs(args []string, sensitiveDataMatch []string) []string {
	if len(sensitiveDataMatch) == 0 {
		return args
	}
	redactedArgs := make([]string, len(args))
	for i, arg := range args {
		redacted := arg
		for _, sensitiveData := range sensitiveDataMatch {
			redacted = strings.ReplaceAll(redacted, sensitiveData, cRedacted)
		}
		redactedArgs[i] = redacted
	}
	return redactedArgs
}

func redactSensitiveData(msg string) string {
	for _, rule := range regexpRedactRules {
		msg = rule.matchString.ReplaceAllString(msg, rule.replaceString)
	}
	return msg
}
