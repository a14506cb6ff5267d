// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vsrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/remote-debug/remote-debug/cli/rdl/internal/tracing"
	"github.com/remote-debug/remote-debug/cli/rdl/internal/tracing/events"
	"github.com/remote-debug/remote-debug/cli/rdl/internal/tracing/fields"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/ioc"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/osutil"
	"go.lsp.dev/jsonrpc2"
)

// DebugEndpointsEnvVar, when true as per [strconv.ParseBool], exposes '/TestDebugService/v1.0'.
const DebugEndpointsEnvVar = "RDL_DEBUG_SERVER_DEBUG_ENDPOINTS"

type Server struct {
	// sessions is a map of session IDs to server sessions.
	sessions map[string]*serverSession
	// sessionsMu protects access to sessions.
	sessionsMu sync.Mutex
	// rootContainer contains all the core registrations for the rdl components.
	// It is not expected to be modified throughout the lifetime of the server.
	rootContainer *ioc.NestedContainer
	// httpServer is set while Serve is running.
	httpServer   *http.Server
	httpServerMu sync.Mutex
}

func NewServer(rootContainer *ioc.NestedContainer) *Server {
	return &Server{
		sessions:      make(map[string]*serverSession),
		rootContainer: rootContainer,
	}
}

// upgrader is the websocket.Upgrader used by the server to upgrade each request to a websocket connection.
var upgrader = websocket.Upgrader{}

// Handler returns the http.Handler that serves every endpoint of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/ServerService/v1.0", newServerService(s))
	mux.Handle("/RemoteDebugService/v1.0", newRemoteDebugService(s))

	// Special test endpoints used to debug our RPC behavior around cancellation and observers, from tests (with
	// t.Setenv) or from a client under development.
	if on, has := osutil.GetenvBool(DebugEndpointsEnvVar); has && on {
		mux.Handle("/TestDebugService/v1.0", newDebugService(s))
	}

	return mux
}

// Serve calls http.Serve with the given listener and a handler that serves the VS RPC protocol. It returns nil once
// the server is stopped by StopAsync.
func (s *Server) Serve(l net.Listener) error {
	server := &http.Server{
		ReadHeaderTimeout: 1 * time.Second,
		Handler:           s.Handler(),
	}

	s.httpServerMu.Lock()
	s.httpServer = server
	s.httpServerMu.Unlock()

	err := server.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Stop closes the listener and every open connection.
func (s *Server) Stop() error {
	s.httpServerMu.Lock()
	defer s.httpServerMu.Unlock()

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Close()
}

// serveRpc upgrades the HTTP connection to a WebSocket connection and then serves a set of named method using JSON-RPC 2.0.
func serveRpc(w http.ResponseWriter, r *http.Request, handlers map[string]Handler) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}
	defer c.Close()

	rpcServer := jsonrpc2.NewConn(newWebSocketStream(c))
	cancelers := make(map[jsonrpc2.ID]context.CancelFunc)
	cancelersMu := sync.Mutex{}

	rpcServer.Go(r.Context(), func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		log.Printf("handling rpc %s", req.Method())

		// Observe cancellation messages from the client to us. The protocol is a message sent to the `$/cancelRequest`
		// method with an `id` parameter that is the ID of the request to cancel. For each inflight RPC we track the
		// corresponding cancel function in `cancelers` and use it to cancel the request when we observe it. When an RPC
		// completes, we remove the cancel function from the map and invoke it, as the context package recommends.
		//
		// Inside the handler itself, we observe the error returned by the actual RPC function and if it matches the
		// value of ctx.Err() we know that the function observed an responded to cancellation. We then return an RPC error
		// with a special code that StreamJsonRpc understands as a cancellation error.
		if req.Method() == "$/cancelRequest" {
			var cancelArgs struct {
				Id *int32 `json:"id"`
			}
			if err := json.Unmarshal(req.Params(), &cancelArgs); err != nil {
				return reply(ctx, nil, jsonrpc2.ErrInvalidParams)
			}
			if cancelArgs.Id == nil {
				return reply(ctx, nil, jsonrpc2.ErrInvalidParams)
			}

			id := jsonrpc2.NewNumberID(*cancelArgs.Id)

			cancelersMu.Lock()
			cancel, has := cancelers[id]
			cancelersMu.Unlock()
			if has {
				cancel()
				// The cancel function is removed once the handler returns.
			}
			return reply(ctx, nil, nil)
		}

		handler, ok := handlers[req.Method()]
		if !ok {
			return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
		}

		// Handlers may call back into the client (observers, the debugger host), so they run off the read loop.
		go func() {
			var respErr error
			childCtx, span := tracing.Start(ctx, events.VsRpcEventPrefix+req.Method())
			span.SetAttributes(fields.RpcMethod.String(req.Method()))
			defer func() {
				var rpcErr *jsonrpc2.Error
				if errors.As(respErr, &rpcErr) {
					span.SetAttributes(fields.JsonRpcErrorCode.Int(int(rpcErr.Code)))
				}
				span.EndWithStatus(respErr)
			}()

			// Wrap the reply function to capture the response error returned by the handler before replying.
			origReply := reply
			reply := func(ctx context.Context, result interface{}, err error) error {
				if err != nil {
					respErr = err
				}
				return origReply(ctx, result, err)
			}

			start := time.Now()

			// If this is a call, create a new context and cancel function to track the request and allow it to be
			// canceled.
			call, isCall := req.(*jsonrpc2.Call)
			if isCall {
				span.SetAttributes(fields.JsonRpcId.String(fmt.Sprint(call.ID())))
				callCtx, cancel := context.WithCancel(childCtx)
				childCtx = callCtx
				cancelersMu.Lock()
				cancelers[call.ID()] = cancel
				cancelersMu.Unlock()
			}

			replyErr := handler(childCtx, rpcServer, reply, req)

			if isCall {
				cancelersMu.Lock()
				cancel, has := cancelers[call.ID()]
				delete(cancelers, call.ID())
				cancelersMu.Unlock()
				if has {
					cancel()
				}
			}

			if respErr != nil {
				log.Printf("handled rpc %s in %s with err: %v", req.Method(), time.Since(start), respErr)
			} else if replyErr != nil {
				log.Printf("failed to reply to rpc %s, err: %v", req.Method(), replyErr)
			} else {
				log.Printf("handled rpc %s in %s", req.Method(), time.Since(start))
			}
		}()

		return nil
	})

	<-rpcServer.Done()
}
