// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package remotedebug

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/remote-debug/remote-debug/cli/rdl/internal/tracing"
	"github.com/remote-debug/remote-debug/cli/rdl/internal/tracing/events"
	"github.com/remote-debug/remote-debug/cli/rdl/internal/tracing/fields"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/debugengine"
)

// LaunchService starts debug targets. It is implemented outside of this package: by the IDE host, or by a tool that
// starts a headless debugger on the remote machine.
type LaunchService interface {
	LaunchDebugTargets(ctx context.Context, request LaunchRequest) (*LaunchResult, error)
}

// Dispatcher turns a LaunchConfig into exactly one call to a LaunchService.
type Dispatcher struct {
	service  LaunchService
	engines  debugengine.Allocator
	engineId uuid.UUID
}

type DispatcherOption func(*Dispatcher)

// WithEngine overrides the debug engine targeted by the launch. The default is [debugengine.ManagedAndNative].
func WithEngine(id uuid.UUID) DispatcherOption {
	return func(d *Dispatcher) {
		d.engineId = id
	}
}

func NewDispatcher(service LaunchService, engines debugengine.Allocator, options ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		service:  service,
		engines:  engines,
		engineId: debugengine.ManagedAndNative,
	}

	for _, opt := range options {
		opt(d)
	}

	return d
}

// Dispatch launches the executable described by cfg on its remote machine. The service is called once; a failure is
// not retried. Any error returned is of kind LaunchFailed and carries the service's message unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, cfg *LaunchConfig) (result *LaunchResult, err error) {
	ctx, span := tracing.Start(ctx, events.DispatchEvent)
	span.SetAttributes(fields.StringHashed(fields.RemoteMachine, cfg.MachineName()))
	defer func() { span.EndWithStatus(err) }()

	engines, release := d.engines.Acquire(d.engineId)
	defer release()

	request := NewLaunchRequest(cfg, engines)

	log.Printf("launching '%s' on '%s' (engine %s)", request.ExecutablePath, request.RemoteMachine, d.engineId)

	res, err := d.service.LaunchDebugTargets(ctx, request)
	if err != nil {
		return nil, &Error{Kind: LaunchFailed, Err: err}
	}

	if res == nil {
		return nil, &Error{Kind: LaunchFailed, Err: errors.New("the debug launch service returned no result")}
	}

	if !res.Success {
		message := res.ErrorMessage
		if message == "" {
			message = "the debug launch service reported a failure"
		}
		return res, &Error{Kind: LaunchFailed, Err: errors.New(message)}
	}

	return res, nil
}
