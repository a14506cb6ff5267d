package mockinput

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/remote-debug/remote-debug/cli/rdl/pkg/input"
)

type SpinnerOpType string

const SpinnerOpShow SpinnerOpType = "show"
const SpinnerOpStop SpinnerOpType = "stop"

type SpinnerOp struct {
	Op      SpinnerOpType
	Message string
	Failed  bool
}

// A mock implementation of the input.Console interface
type MockConsole struct {
	mu           sync.Mutex
	log          []string
	spinnerOps   []SpinnerOp
	messageBoxes []input.MessageBoxOptions
	boxErr       error
}

func NewMockConsole() *MockConsole {
	return &MockConsole{}
}

// Output returns every message printed to the console.
func (c *MockConsole) Output() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.log...)
}

func (c *MockConsole) SpinnerOps() []SpinnerOp {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]SpinnerOp(nil), c.spinnerOps...)
}

// MessageBoxes returns every message box shown so far.
func (c *MockConsole) MessageBoxes() []input.MessageBoxOptions {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]input.MessageBoxOptions(nil), c.messageBoxes...)
}

// FailMessageBoxes makes ShowMessageBox return err.
func (c *MockConsole) FailMessageBoxes(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.boxErr = err
}

func (c *MockConsole) Handles() input.ConsoleHandles {
	return input.ConsoleHandles{
		Stdout: io.Discard,
		Stderr: io.Discard,
		Stdin:  bytes.NewBufferString(""),
	}
}

// Prints a message to the console
func (c *MockConsole) Message(ctx context.Context, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log = append(c.log, message)
}

func (c *MockConsole) MessageUx(ctx context.Context, message string, format input.MessageUxType) {
	c.Message(ctx, message)
}

func (c *MockConsole) ShowSpinner(ctx context.Context, title string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.spinnerOps = append(c.spinnerOps, SpinnerOp{
		Op:      SpinnerOpShow,
		Message: title,
	})
}

func (c *MockConsole) StopSpinner(ctx context.Context, lastMessage string, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.spinnerOps = append(c.spinnerOps, SpinnerOp{
		Op:      SpinnerOpStop,
		Message: lastMessage,
		Failed:  failed,
	})
}

func (c *MockConsole) ShowMessageBox(ctx context.Context, options input.MessageBoxOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messageBoxes = append(c.messageBoxes, options)
	return c.boxErr
}

func (c *MockConsole) IsInteractive() bool {
	return false
}
