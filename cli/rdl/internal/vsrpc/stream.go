// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vsrpc

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.lsp.dev/jsonrpc2"
)

// wsStream is a jsonrpc2.Stream that carries one JSON-RPC message per WebSocket text message.
type wsStream struct {
	c *websocket.Conn
	// writeMu serializes writes, a websocket.Conn supports a single concurrent writer.
	writeMu sync.Mutex
}

func newWebSocketStream(c *websocket.Conn) jsonrpc2.Stream {
	return &wsStream{c: c}
}

// Read implements jsonrpc2.Stream.
func (s *wsStream) Read(ctx context.Context) (jsonrpc2.Message, int64, error) {
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	default:
	}

	_, data, err := s.c.ReadMessage()
	if err != nil {
		return nil, 0, err
	}

	msg, err := jsonrpc2.DecodeMessage(data)
	return msg, int64(len(data)), err
}

// Write implements jsonrpc2.Stream. ctx is not observed: replies to canceled requests are written with their
// canceled context.
func (s *wsStream) Write(ctx context.Context, msg jsonrpc2.Message) (int64, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.c.WriteMessage(websocket.TextMessage, data); err != nil {
		return 0, err
	}

	return int64(len(data)), nil
}

// Close implements jsonrpc2.Stream.
func (s *wsStream) Close() error {
	return s.c.Close()
}
