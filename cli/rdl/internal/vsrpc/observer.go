// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vsrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.lsp.dev/jsonrpc2"
)

// IObserver is the Go side of a .NET IObserver<T> passed to an RPC.
type IObserver[T any] interface {
	OnNext(ctx context.Context, value T) error
	OnCompleted(ctx context.Context) error
}

// connectionObserver is implemented by arguments that call back into the client. unmarshalArgs attaches the connection
// the request arrived on.
type connectionObserver interface {
	attachConnection(c jsonrpc2.Conn)
}

// marshaledObject is an object the client marshaled by reference. On the wire it is
//
//	{ "__jsonrpc_marshaled": 1, "handle": <n> }
//
// and calls on it are sent to the client as "$/invokeProxy/<n>/<method>".
type marshaledObject struct {
	c      jsonrpc2.Conn
	handle int64
}

func (m *marshaledObject) attachConnection(c jsonrpc2.Conn) {
	m.c = c
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *marshaledObject) UnmarshalJSON(data []byte) error {
	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	if marshaled, has := wire["__jsonrpc_marshaled"]; !has {
		return errors.New("expected __jsonrpc_marshaled")
	} else if v, ok := marshaled.(float64); !ok || v != 1 {
		return errors.New("expected __jsonrpc_marshaled=1")
	}

	handle, has := wire["handle"]
	if !has {
		return errors.New("expected handle")
	}

	v, ok := handle.(float64)
	if !ok {
		return errors.New("expected handle to be a number")
	}

	m.handle = int64(v)
	return nil
}

func (m *marshaledObject) method(name string) string {
	return fmt.Sprintf("$/invokeProxy/%d/%s", m.handle, name)
}

func (m *marshaledObject) notify(ctx context.Context, name string, params any) error {
	if m.c == nil {
		return errors.New("marshaled object is not attached to a connection")
	}

	return m.c.Notify(ctx, m.method(name), params)
}

func (m *marshaledObject) call(ctx context.Context, name string, params any, result any) error {
	if m.c == nil {
		return errors.New("marshaled object is not attached to a connection")
	}

	_, err := m.c.Call(ctx, m.method(name), params, result)
	return err
}

// Observer is an IObserver[T] marshaled by the client.
type Observer[T any] struct {
	marshaledObject
}

func (o *Observer[T]) OnNext(ctx context.Context, value T) error {
	return o.notify(ctx, "onNext", []any{value})
}

func (o *Observer[T]) OnCompleted(ctx context.Context) error {
	return o.notify(ctx, "onCompleted", []any{})
}
