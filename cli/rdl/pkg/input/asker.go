// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package input

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

type Asker func(p survey.Prompt, response interface{}) error

func NewAsker(noPrompt bool, isTerminal bool, w io.Writer, r io.Reader) Asker {
	if noPrompt {
		return askOneNoPrompt
	}

	return func(p survey.Prompt, response interface{}) error {
		return askOnePrompt(p, response, isTerminal, w, r)
	}
}

func askOneNoPrompt(p survey.Prompt, response interface{}) error {
	switch v := p.(type) {
	case *survey.Input:
		*(response.(*string)) = v.Default
	case *survey.Confirm:
		*(response.(*bool)) = v.Default
	default:
		panic(fmt.Sprintf("don't know how to prompt for type %T", p))
	}

	return nil
}

func askOnePrompt(p survey.Prompt, response interface{}, isTerminal bool, stdout io.Writer, stdin io.Reader) error {
	if isTerminal {
		return survey.AskOne(p, response, survey.WithIcons(func(icons *survey.IconSet) {
			icons.Question.Format = "blue+b"
			icons.Help.Format = "black+h"
			icons.Help.Text = "Hint:"
		}))
	}

	switch v := p.(type) {
	case *survey.Input:
		fmt.Fprintf(stdout, "%s ", v.Message)
		result, err := readStringNoBuffer(stdin, '\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading response: %w", err)
		}
		result = strings.TrimSpace(result)
		if result == "" {
			result = v.Default
		}
		*(response.(*string)) = result
		return nil
	case *survey.Confirm:
		fmt.Fprintf(stdout, "%s (y/N) ", v.Message)
		result, err := readStringNoBuffer(stdin, '\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading response: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(result)) {
		case "y", "yes":
			*(response.(*bool)) = true
		case "n", "no":
			*(response.(*bool)) = false
		default:
			*(response.(*bool)) = v.Default
		}
		return nil
	default:
		panic(fmt.Sprintf("don't know how to prompt for type %T", p))
	}
}

// readStringNoBuffer is like (*bufio.Reader).ReadString(byte) except that it does not buffer input from the input
// stream. It reads a byte at a time until a delimiter is found or EOF is encountered, so no extra characters are
// consumed.
func readStringNoBuffer(r io.Reader, delim byte) (string, error) {
	strBuf := bytes.Buffer{}
	readBuf := make([]byte, 1)
	for {
		bytesRead, err := r.Read(readBuf)
		if bytesRead > 0 {
			// discard err, per documentation, WriteByte always succeeds.
			_ = strBuf.WriteByte(readBuf[0])
		}

		if err != nil {
			return strBuf.String(), err
		}

		if readBuf[0] == delim {
			return strBuf.String(), nil
		}
	}
}
