// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package remotedebug

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// CommandRef identifies a command in a host command registry: a command group and an id within it.
type CommandRef struct {
	Group uuid.UUID
	Id    int
}

func (r CommandRef) String() string {
	return fmt.Sprintf("%s:0x%04x", r.Group, r.Id)
}

// UnmarshalJSON implements json.Unmarshaler. A CommandRef is read from an object with Group and Id, or from a string
// in the form accepted by ParseCommandRef.
func (r *CommandRef) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		ref, err := ParseCommandRef(s)
		if err != nil {
			return err
		}

		*r = ref
		return nil
	}

	type commandRef CommandRef
	var ref commandRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return err
	}

	*r = CommandRef(ref)
	return nil
}

// ParseCommandRef parses the form produced by CommandRef.String. The id may be decimal or hex with a 0x prefix.
func ParseCommandRef(s string) (CommandRef, error) {
	group, id, ok := strings.Cut(s, ":")
	if !ok {
		return CommandRef{}, fmt.Errorf("invalid command reference '%s': expected <group>:<id>", s)
	}

	groupId, err := uuid.Parse(group)
	if err != nil {
		return CommandRef{}, fmt.Errorf("invalid command group '%s': %w", group, err)
	}

	n, err := strconv.ParseInt(id, 0, 32)
	if err != nil {
		return CommandRef{}, fmt.Errorf("invalid command id '%s': %w", id, err)
	}

	return CommandRef{Group: groupId, Id: int(n)}, nil
}

// CommandHandler runs a registered command in host.
type CommandHandler func(ctx context.Context, host Host) *Outcome

// Registry is a host command registry. Commands are registered once, when the host loads, and looked up whenever the
// user runs one.
type Registry struct {
	mu       sync.RWMutex
	handlers map[CommandRef]CommandHandler
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: map[CommandRef]CommandHandler{},
	}
}

// Register adds handler under ref. Registering the same ref twice is an error.
func (r *Registry) Register(ref CommandRef, handler CommandHandler) error {
	if handler == nil {
		return fmt.Errorf("command %s: handler is nil", ref)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, has := r.handlers[ref]; has {
		return fmt.Errorf("command %s is already registered", ref)
	}

	r.handlers[ref] = handler
	return nil
}

// Lookup returns the handler registered under ref.
func (r *Registry) Lookup(ref CommandRef) (CommandHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, has := r.handlers[ref]
	return handler, has
}

// Commands returns every registered ref, ordered by group and id.
func (r *Registry) Commands() []CommandRef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	refs := make([]CommandRef, 0, len(r.handlers))
	for ref := range r.handlers {
		refs = append(refs, ref)
	}

	slices.SortFunc(refs, func(a, b CommandRef) int {
		if c := strings.Compare(a.Group.String(), b.Group.String()); c != 0 {
			return c
		}
		return a.Id - b.Id
	})

	return refs
}

// RegisterLaunchCommand registers command under LaunchCommandRef.
func RegisterLaunchCommand(registry *Registry, command *LaunchCommand) error {
	return registry.Register(LaunchCommandRef, command.Invoke)
}
