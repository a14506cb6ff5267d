// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package input

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/output"
	"github.com/theckman/yacspin"
)

// MessageSeverity is the severity of a message box.
type MessageSeverity int

const (
	SeverityInfo MessageSeverity = iota
	SeverityWarning
	SeverityCritical
)

func (s MessageSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("MessageSeverity(%d)", int(s))
	}
}

// MessageBoxOptions describes a modal message shown to the user.
type MessageBoxOptions struct {
	Title    string
	Message  string
	Severity MessageSeverity
}

type MessageUxType int

const (
	ResultSuccess MessageUxType = iota
	ResultWarning
	ResultError
)

// ConsoleHandles are the standard streams used by a Console.
type ConsoleHandles struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

type Console interface {
	// Message prints a line to the console.
	Message(ctx context.Context, message string)
	// MessageUx prints a line formatted for the given result type.
	MessageUx(ctx context.Context, message string, format MessageUxType)
	// ShowSpinner starts a spinner with the given title. Only one spinner runs at a time.
	ShowSpinner(ctx context.Context, title string)
	// StopSpinner stops the running spinner, if any.
	StopSpinner(ctx context.Context, lastMessage string, failed bool)
	// ShowMessageBox shows a modal message and blocks until the user dismisses it. When prompting is disabled the
	// message is printed and the call returns immediately.
	ShowMessageBox(ctx context.Context, options MessageBoxOptions) error
	// IsInteractive returns true when the console can prompt the user.
	IsInteractive() bool
	Handles() ConsoleHandles
}

type AskerConsole struct {
	asker      Asker
	handles    ConsoleHandles
	noPrompt   bool
	isTerminal bool

	spinnerMu sync.Mutex
	spinner   *yacspin.Spinner
}

func (c *AskerConsole) Message(ctx context.Context, message string) {
	fmt.Fprintln(c.handles.Stdout, message)
}

func (c *AskerConsole) MessageUx(ctx context.Context, message string, format MessageUxType) {
	switch format {
	case ResultSuccess:
		message = output.WithSuccessFormat("SUCCESS: %s", message)
	case ResultWarning:
		message = output.WithWarningFormat("WARNING: %s", message)
	case ResultError:
		message = output.WithErrorFormat("ERROR: %s", message)
	}

	c.Message(ctx, message)
}

func (c *AskerConsole) ShowSpinner(ctx context.Context, title string) {
	c.spinnerMu.Lock()
	defer c.spinnerMu.Unlock()

	if !c.isTerminal {
		fmt.Fprintf(c.handles.Stdout, "%s\n", title)
		return
	}

	if c.spinner != nil {
		c.spinner.Message(title)
		return
	}

	spinner, err := yacspin.New(yacspin.Config{
		Writer:            c.handles.Stdout,
		Frequency:         200 * time.Millisecond,
		CharSet:           yacspin.CharSets[33],
		Suffix:            " ",
		Message:           title,
		StopCharacter:     "(✓) Done:",
		StopColors:        []string{"fgGreen"},
		StopFailCharacter: "(x) Failed:",
		StopFailColors:    []string{"fgRed"},
	})
	if err != nil {
		log.Printf("failed to create spinner: %v", err)
		fmt.Fprintf(c.handles.Stdout, "%s\n", title)
		return
	}

	if err := spinner.Start(); err != nil {
		log.Printf("failed to start spinner: %v", err)
		return
	}

	c.spinner = spinner
}

func (c *AskerConsole) StopSpinner(ctx context.Context, lastMessage string, failed bool) {
	c.spinnerMu.Lock()
	defer c.spinnerMu.Unlock()

	if c.spinner == nil {
		if lastMessage != "" {
			fmt.Fprintf(c.handles.Stdout, "%s\n", lastMessage)
		}
		return
	}

	if lastMessage != "" {
		c.spinner.StopMessage(lastMessage)
		c.spinner.StopFailMessage(lastMessage)
	}

	var err error
	if failed {
		err = c.spinner.StopFail()
	} else {
		err = c.spinner.Stop()
	}
	if err != nil {
		log.Printf("failed to stop spinner: %v", err)
	}

	c.spinner = nil
}

func (c *AskerConsole) ShowMessageBox(ctx context.Context, options MessageBoxOptions) error {
	var title string
	switch options.Severity {
	case SeverityCritical:
		title = output.WithErrorFormat("(x) %s", options.Title)
	case SeverityWarning:
		title = output.WithWarningFormat("(!) %s", options.Title)
	default:
		title = output.WithHighLightFormat("(i) %s", options.Title)
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(output.WithBold("%s", title))
	sb.WriteString("\n")
	for _, line := range strings.Split(options.Message, "\n") {
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	fmt.Fprint(c.handles.Stderr, sb.String())

	if c.noPrompt {
		return nil
	}

	var ignored string
	if err := c.asker(&survey.Input{
		Message: "Press enter to dismiss.",
	}, &ignored); err != nil {
		return fmt.Errorf("waiting for dismissal: %w", err)
	}

	return nil
}

func (c *AskerConsole) IsInteractive() bool {
	return !c.noPrompt
}

func (c *AskerConsole) Handles() ConsoleHandles {
	return c.handles
}

// NewConsole creates a console that writes to the given handles. When noPrompt is true, message boxes do not wait
// for the user to dismiss them.
func NewConsole(noPrompt bool, isTerminal bool, handles ConsoleHandles) Console {
	return &AskerConsole{
		asker:      NewAsker(noPrompt, isTerminal, handles.Stdout, handles.Stdin),
		handles:    handles,
		noPrompt:   noPrompt,
		isTerminal: isTerminal,
	}
}
