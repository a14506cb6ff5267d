// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package middleware

import (
	"context"
	"fmt"
	"log"

	"github.com/remote-debug/remote-debug/cli/rdl/cmd/actions"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/ioc"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/output"
)

// Defines a middleware component
type Middleware interface {
	Run(ctx context.Context, nextFn NextFn) (*actions.ActionResult, error)
}

// Middleware Run options
type Options struct {
	// Name is the command path, ex) 'rdl config set'. It does not contain user input.
	Name    string
	Aliases []string
	// OutputFormat is the format selected with --output.
	OutputFormat output.Format
}

// Executes the next middleware in the command chain
type NextFn func(ctx context.Context) (*actions.ActionResult, error)

// MiddlewareRunner resolves middleware components from a container and runs them around an action, in the order they
// were registered.
type MiddlewareRunner struct {
	chain     []string
	container *ioc.NestedContainer
}

func NewMiddlewareRunner(container *ioc.NestedContainer) *MiddlewareRunner {
	return &MiddlewareRunner{
		chain:     []string{},
		container: container,
	}
}

// Executes the middleware chain for the specified action
func (r *MiddlewareRunner) RunAction(
	ctx context.Context,
	runOptions *Options,
	action actions.Action,
) (*actions.ActionResult, error) {
	// Middleware components may take the options as a dependency.
	ioc.RegisterInstance(r.container, runOptions)

	chainLength := len(r.chain)
	index := 0

	var nextFn NextFn

	// This recursive function executes the middleware chain in the order that
	// the middlewares were registered. nextFn is passed into the middleware run
	// allowing the middleware to choose to execute logic before and/or after
	// the action. After we have executed all of the middlewares the action is run
	// and the chain is unwrapped back out through the call stack.
	nextFn = func(ctx context.Context) (*actions.ActionResult, error) {
		if index < chainLength {
			middlewareName := r.chain[index]
			index++

			var middleware Middleware
			if err := r.container.ResolveNamed(middlewareName, &middleware); err != nil {
				log.Printf("failed resolving middleware '%s' : %s\n", middlewareName, err.Error())
			}

			// It is an expected scenario that the middleware cannot be resolved
			// due to missing dependency or other configuration.
			// In this case simply continue the chain with `nextFn`
			if middleware == nil {
				return nextFn(ctx)
			}

			log.Printf("running middleware '%s'\n", middlewareName)
			return middleware.Run(ctx, nextFn)
		}

		return action.Run(ctx)
	}

	result, err := nextFn(ctx)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Registers middleware components that will be run for all actions
func (r *MiddlewareRunner) Use(name string, resolveFn any) error {
	if err := r.container.RegisterNamedTransient(name, resolveFn); err != nil {
		return fmt.Errorf("registering middleware '%s': %w", name, err)
	}

	r.chain = append(r.chain, name)

	return nil
}
