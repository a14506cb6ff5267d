// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package remotedebug

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/remote-debug/remote-debug/cli/rdl/internal/tracing"
	"github.com/remote-debug/remote-debug/cli/rdl/internal/tracing/events"
	"github.com/remote-debug/remote-debug/cli/rdl/internal/tracing/fields"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/debugengine"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/input"
)

// CommandSet is the command group of the launch command in the host command registry.
var CommandSet = uuid.MustParse("2081eaf5-db71-42d9-82ce-6a11fed73e88")

// CommandId is the id of the launch command within CommandSet.
const CommandId = 0x0100

// LaunchCommandRef identifies the launch command in the host command registry.
var LaunchCommandRef = CommandRef{Group: CommandSet, Id: CommandId}

// ReportTitle is the title of every failure report shown by the launch command.
const ReportTitle = "Remote Debug Launch"

// Reporter shows a failure to the user. Implementations block until the user dismisses the message.
type Reporter interface {
	ShowMessageBox(ctx context.Context, options input.MessageBoxOptions) error
}

// Host is the environment the launch command runs in: the IDE, or the command line.
type Host interface {
	LaunchService
	Reporter
	// SolutionPath returns the path of the open solution file, or of the open folder.
	SolutionPath(ctx context.Context) (string, error)
}

// StateObserver may be implemented by a Host to observe the state changes of the invocations it runs.
type StateObserver interface {
	OnTransition(ctx context.Context, from State, to State)
}

// State is a state of a single invocation of the launch command. An invocation moves forward only:
//
//	Idle -> ConfigLoading -> ConfigReady -> Dispatching -> Done
//	                      -> ConfigFailed               -> DispatchFailed
type State int

const (
	Idle State = iota
	ConfigLoading
	ConfigReady
	ConfigFailed
	Dispatching
	Done
	DispatchFailed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case ConfigLoading:
		return "ConfigLoading"
	case ConfigReady:
		return "ConfigReady"
	case ConfigFailed:
		return "ConfigFailed"
	case Dispatching:
		return "Dispatching"
	case Done:
		return "Done"
	case DispatchFailed:
		return "DispatchFailed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == ConfigFailed || s == Done || s == DispatchFailed
}

var transitions = map[State][]State{
	Idle:          {ConfigLoading},
	ConfigLoading: {ConfigReady, ConfigFailed},
	ConfigReady:   {Dispatching},
	Dispatching:   {Done, DispatchFailed},
}

func canTransition(from State, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// Outcome is the result of one invocation of the launch command.
type Outcome struct {
	// State is the terminal state the invocation finished in.
	State State
	// Config is set once the configuration was loaded.
	Config *LaunchConfig
	// Result is the result reported by the launch service, when it returned one.
	Result *LaunchResult
	// Err is set when State is ConfigFailed or DispatchFailed.
	Err error
}

// LaunchCommand is the remote debug launch command: it loads the configuration of the open solution and dispatches a
// single launch. It holds no per-invocation state, so one instance serves every invocation.
type LaunchCommand struct {
	engines debugengine.Allocator
	options []DispatcherOption
}

func NewLaunchCommand(engines debugengine.Allocator, options ...DispatcherOption) *LaunchCommand {
	return &LaunchCommand{
		engines: engines,
		options: options,
	}
}

// invocation tracks the state of a single call to Invoke.
type invocation struct {
	ctx      context.Context
	state    State
	observer StateObserver
}

func (i *invocation) moveTo(to State) {
	if !canTransition(i.state, to) {
		panic(fmt.Sprintf("remotedebug: invalid transition from %s to %s", i.state, to))
	}

	log.Printf("remote debug launch: %s -> %s", i.state, to)

	from := i.state
	i.state = to

	if i.observer != nil {
		i.observer.OnTransition(i.ctx, from, to)
	}
}

// Invoke runs the command for the solution open in host. Configuration is loaded completely before anything is
// dispatched. Every failure is reported once through host, with the title [ReportTitle] and critical severity, and
// is also returned in the Outcome.
func (c *LaunchCommand) Invoke(ctx context.Context, host Host) *Outcome {
	ctx, span := tracing.Start(ctx, events.InvokeEvent)

	inv := &invocation{ctx: ctx, state: Idle}
	if observer, ok := host.(StateObserver); ok {
		inv.observer = observer
	}
	outcome := c.run(ctx, inv, host)

	span.SetAttributes(fields.CommandState.String(outcome.State.String()))
	if outcome.Err != nil {
		span.SetAttributes(fields.ErrorKind.String(KindOf(outcome.Err).String()))
	}
	span.EndWithStatus(outcome.Err)

	if outcome.Err != nil {
		report(ctx, host, outcome.Err)
	}

	return outcome
}

func (c *LaunchCommand) run(ctx context.Context, inv *invocation, host Host) *Outcome {
	inv.moveTo(ConfigLoading)

	cfg, err := c.loadConfig(ctx, host)
	if err != nil {
		inv.moveTo(ConfigFailed)
		return &Outcome{State: inv.state, Err: err}
	}

	inv.moveTo(ConfigReady)
	inv.moveTo(Dispatching)

	result, err := NewDispatcher(host, c.engines, c.options...).Dispatch(ctx, cfg)
	if err != nil {
		inv.moveTo(DispatchFailed)
		return &Outcome{State: inv.state, Config: cfg, Result: result, Err: err}
	}

	inv.moveTo(Done)
	return &Outcome{State: inv.state, Config: cfg, Result: result}
}

func (c *LaunchCommand) loadConfig(ctx context.Context, host Host) (cfg *LaunchConfig, err error) {
	ctx, span := tracing.Start(ctx, events.ConfigLoadEvent)
	defer func() { span.EndWithStatus(err) }()

	solutionPath, err := host.SolutionPath(ctx)
	if err != nil {
		return nil, &Error{Kind: ConfigNotFound, Err: err}
	}

	solutionDir, err := SolutionDirectory(solutionPath)
	if err != nil {
		return nil, &Error{Kind: ConfigNotFound, Err: err}
	}

	return LoadConfig(solutionDir)
}

func report(ctx context.Context, reporter Reporter, err error) {
	if reportErr := reporter.ShowMessageBox(ctx, input.MessageBoxOptions{
		Title:    ReportTitle,
		Message:  err.Error(),
		Severity: input.SeverityCritical,
	}); reportErr != nil {
		log.Printf("failed to report launch failure: %v", reportErr)
	}
}
