package mockexec

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/remote-debug/remote-debug/cli/rdl/pkg/exec"
)

type CommandWhenPredicate func(args exec.RunArgs, command string) bool

// MockCommandRunner is a CommandRunner that answers with the response of the first registered expression whose
// predicate matches. A command without a match panics.
type MockCommandRunner struct {
	mu          sync.Mutex
	expressions []*CommandExpression
	calls       []exec.RunArgs
}

func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{}
}

func (m *MockCommandRunner) Run(ctx context.Context, args exec.RunArgs) (exec.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, args)
	command := fmt.Sprintf("%s %s", args.Cmd, strings.Join(args.Args, " "))

	for _, expr := range m.expressions {
		if expr.predicateFn(args, command) {
			if expr.RespondFn != nil {
				return expr.RespondFn(args)
			}
			return expr.Response, expr.Error
		}
	}

	panic(fmt.Sprintf("No mock found for command: '%s'", command))
}

// Calls returns the arguments of every command run so far.
func (m *MockCommandRunner) Calls() []exec.RunArgs {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]exec.RunArgs(nil), m.calls...)
}

func (m *MockCommandRunner) When(predicate CommandWhenPredicate) *CommandExpression {
	expr := CommandExpression{
		runner:      m,
		predicateFn: predicate,
	}

	m.mu.Lock()
	m.expressions = append(m.expressions, &expr)
	m.mu.Unlock()

	return &expr
}

type CommandExpression struct {
	Response    exec.RunResult
	Error       error
	RespondFn   func(args exec.RunArgs) (exec.RunResult, error)
	runner      *MockCommandRunner
	predicateFn CommandWhenPredicate
}

func (e *CommandExpression) Respond(response exec.RunResult) *MockCommandRunner {
	e.Response = response
	return e.runner
}

func (e *CommandExpression) RespondFunc(fn func(args exec.RunArgs) (exec.RunResult, error)) *MockCommandRunner {
	e.RespondFn = fn
	return e.runner
}

func (e *CommandExpression) SetError(err error) *MockCommandRunner {
	e.Error = err
	return e.runner
}
