// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type Format string

const (
	JsonFormat Format = "json"
	NoneFormat Format = "none"
)

type Formatter interface {
	Kind() Format
	Format(obj interface{}, writer io.Writer) error
}

func NewFormatter(format string) (Formatter, error) {
	switch Format(strings.ToLower(format)) {
	case JsonFormat:
		return &JsonFormatter{}, nil
	case NoneFormat, "":
		return &NoneFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format %v", format)
	}
}

type JsonFormatter struct {
}

func (f *JsonFormatter) Kind() Format {
	return JsonFormat
}

func (f *JsonFormatter) Format(obj interface{}, writer io.Writer) error {
	b, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return err
	}

	_, err = writer.Write(append(b, '\n'))
	return err
}

// NoneFormatter is used by commands that write human readable text directly to the console.
type NoneFormatter struct {
}

func (f *NoneFormatter) Kind() Format {
	return NoneFormat
}

func (f *NoneFormatter) Format(obj interface{}, writer io.Writer) error {
	return fmt.Errorf("output format 'none' does not support structured output")
}

var _ Formatter = (*JsonFormatter)(nil)
var _ Formatter = (*NoneFormatter)(nil)
