// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package remotedebug

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure of the launch command. Every kind is terminal for the current invocation.
type ErrorKind int

const (
	ConfigNotFound ErrorKind = iota + 1
	ConfigMalformed
	LaunchFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigNotFound:
		return "ConfigNotFound"
	case ConfigMalformed:
		return "ConfigMalformed"
	case LaunchFailed:
		return "LaunchFailed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

var (
	// ErrConfigNotFound matches, with [errors.Is], any error returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("remote debug configuration not found")
	// ErrConfigMalformed matches, with [errors.Is], any error returned when the configuration file cannot be parsed.
	ErrConfigMalformed = errors.New("remote debug configuration is malformed")
	// ErrLaunchFailed matches, with [errors.Is], any error returned when the debug launch service fails.
	ErrLaunchFailed = errors.New("remote debug launch failed")
)

// Error is the error type returned by the config loader and the dispatcher. Its message is the message of the
// underlying error, unchanged, so it can be shown to the user as-is.
type Error struct {
	Kind ErrorKind
	Err  error
}

// Error returns the error message
func (e *Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error for the kind of e.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfigNotFound:
		return e.Kind == ConfigNotFound
	case ErrConfigMalformed:
		return e.Kind == ConfigMalformed
	case ErrLaunchFailed:
		return e.Kind == LaunchFailed
	default:
		return false
	}
}

// KindOf returns the kind of the first *Error in err's chain, or zero if there is none.
func KindOf(err error) ErrorKind {
	var rdErr *Error
	if errors.As(err, &rdErr) {
		return rdErr.Kind
	}

	return 0
}

func newError(kind ErrorKind, format string, a ...any) *Error {
	return &Error{
		Kind: kind,
		Err:  fmt.Errorf(format, a...),
	}
}
