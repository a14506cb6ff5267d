// Package ioc wraps golobby/container with nested scopes: a child container resolves its own registrations first and
// falls back to its parent. The root container holds process wide services, and a child is created for each vs-server
// session.
package ioc

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/golobby/container/v3"
)

var (
	// golobby does not export typed errors, but every message it produces starts with `container:`
	containerErrorRegex = regexp.MustCompile("container:")

	ErrResolveInstance = errors.New("failed resolving instance from container")
)

// NestedContainer is an IoC container that can have a parent.
type NestedContainer struct {
	inner  container.Container
	parent *NestedContainer
}

// NewNestedContainer creates a container that inherits the resolvers of parent. parent may be nil.
func NewNestedContainer(parent *NestedContainer) *NestedContainer {
	current := container.New()
	if parent != nil {
		for key, value := range parent.inner {
			current[key] = value
		}
	}

	return &NestedContainer{
		inner:  current,
		parent: parent,
	}
}

// RegisterSingleton registers a lazy resolver whose instance is created once.
// Panics if the resolver is not valid
func (c *NestedContainer) RegisterSingleton(resolveFn any) {
	container.MustSingletonLazy(c.inner, resolveFn)
}

// RegisterSingletonAndInvoke registers a resolver whose instance is created immediately.
// Returns an error if the resolver is not valid
func (c *NestedContainer) RegisterSingletonAndInvoke(resolveFn any) error {
	return c.inner.Singleton(resolveFn)
}

// RegisterNamedSingleton registers a named lazy resolver whose instance is created once.
// Returns an error if the resolver is not valid
func (c *NestedContainer) RegisterNamedSingleton(name string, resolveFn any) error {
	return c.inner.NamedSingletonLazy(name, resolveFn)
}

// RegisterTransient registers a resolver that creates an instance on every resolution.
func (c *NestedContainer) RegisterTransient(resolveFn any) error {
	return c.inner.TransientLazy(resolveFn)
}

// RegisterNamedTransient registers a named resolver that creates an instance on every resolution.
func (c *NestedContainer) RegisterNamedTransient(name string, resolveFn any) error {
	return c.inner.NamedTransientLazy(name, resolveFn)
}

// Resolve fills instance, walking up to the parent containers when c cannot.
func (c *NestedContainer) Resolve(instance any) error {
	current := c
	for {
		err := current.inner.Resolve(instance)
		if err == nil {
			return nil
		}

		if current.parent == nil {
			return inspectResolveError(err)
		}
		current = current.parent
	}
}

// ResolveNamed fills instance from the resolver registered under name.
func (c *NestedContainer) ResolveNamed(name string, instance any) error {
	current := c
	for {
		err := current.inner.NamedResolve(instance, name)
		if err == nil {
			return nil
		}

		if current.parent == nil {
			return inspectResolveError(err)
		}
		current = current.parent
	}
}

// Invoke calls resolver with its arguments resolved from the container.
func (c *NestedContainer) Invoke(resolver any) error {
	return c.inner.Call(resolver)
}

// RegisterInstance registers an already constructed instance.
// Panics if the registration fails
func RegisterInstance[F any](c *NestedContainer, instance F) {
	container.MustSingletonLazy(c.inner, func() F {
		return instance
	})
}

// RegisterNamedInstance registers an already constructed instance under name.
func RegisterNamedInstance[F any](c *NestedContainer, name string, instance F) {
	container.MustNamedSingletonLazy(c.inner, name, func() F {
		return instance
	})
}

// inspectResolveError tells a missing registration, which wraps ErrResolveInstance, apart from an error returned by a
// resolver, which is returned as-is.
func inspectResolveError(err error) error {
	if containerErrorRegex.MatchString(err.Error()) {
		return fmt.Errorf("%w: %s", ErrResolveInstance, err.Error())
	}

	return err
}
