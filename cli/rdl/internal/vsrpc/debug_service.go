// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vsrpc

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/remote-debug/remote-debug/cli/rdl/pkg/input"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/remotedebug"
)

// debugService is the RPC server for the '/TestDebugService/v1.0' endpoint. It is only exposed when
// RDL_DEBUG_SERVER_DEBUG_ENDPOINTS is set to true as per [strconv.ParseBool]. It is also used by our
// unit tests.
type debugService struct {
	// When non-nil, TestCancelAsync will call `Done` on this wait group before waiting to observe
	// cancellation. This allows test code to orchestrate when it sends the cancellation message and to
	// know the RPC is ready to observe it.
	wg     *sync.WaitGroup
	server *Server
}

func newDebugService(server *Server) *debugService {
	return &debugService{
		server: server,
	}
}

// TestCancelAsync is the server implementation of:
// ValueTask<bool> TestCancelAsync(int, CancellationToken);
//
// It waits for the given timeoutMs, and then returns true. However, if the context is cancelled before the timeout,
// it returns false and ctx.Err() which should cause the client to throw a TaskCanceledException.
func (s *debugService) TestCancelAsync(ctx context.Context, timeoutMs int) (bool, error) {
	if s.wg != nil {
		s.wg.Done()
	}
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-time.After(time.Duration(timeoutMs) * time.Millisecond):
		return true, nil
	}
}

// TestIObserverAsync is the server implementation of:
// ValueTask TestIObserverAsync(int, IObserver<int>, CancellationToken);
//
// It emits a sequence of integers to the observer, from 0 to max, and then completes the observer, before returning.
func (s *debugService) TestIObserverAsync(ctx context.Context, max int, observer *Observer[int]) error {
	for i := 0; i < max; i++ {
		_ = observer.OnNext(ctx, i)
	}
	_ = observer.OnCompleted(ctx)
	return nil
}

// TestPanicAsync is the server implementation of:
// ValueTask TestPanicAsync(string, CancellationToken);
//
// It causes a go `panic` with a given message string message.
func (s *debugService) TestPanicAsync(ctx context.Context, message string) error {
	panic(message)
}

// TestMessageBoxAsync is the server implementation of:
// ValueTask TestMessageBoxAsync(Session, IDebuggerHost, string, CancellationToken);
//
// It shows message in the debugger host, the way a failed launch is reported.
func (s *debugService) TestMessageBoxAsync(
	ctx context.Context, sessionId Session, debugger *DebuggerHost, message string,
) error {
	if _, err := s.server.validateSession(ctx, sessionId); err != nil {
		return err
	}

	return debugger.ShowMessageBoxAsync(ctx, remotedebug.ReportTitle, message, input.SeverityCritical)
}

// ServeHTTP implements http.Handler.
func (s *debugService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serveRpc(w, r, map[string]Handler{
		"TestCancelAsync":     NewHandler(s.TestCancelAsync),
		"TestIObserverAsync":  NewHandler(s.TestIObserverAsync),
		"TestPanicAsync":      NewHandler(s.TestPanicAsync),
		"TestMessageBoxAsync": NewHandler(s.TestMessageBoxAsync),
	})
}
