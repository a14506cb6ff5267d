// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vsrpc

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/debugengine"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/ioc"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/osutil"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/remotedebug"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
)

const (
	debuggerHandle = 1
	observerHandle = 2
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// wireLaunchRequest is a LaunchRequest as the IDE receives it.
type wireLaunchRequest struct {
	ExecutablePath   string
	RemoteMachine    string
	Operation        string
	DebugEngines     []uuid.UUID
	DebugEngineCount int
}

type messageBox struct {
	Title    string
	Message  string
	Severity string
}

// fakeIde serves the debugger host and the progress observer marshaled by a test.
type fakeIde struct {
	mu        sync.Mutex
	launches  []wireLaunchRequest
	boxes     []messageBox
	progress  []ProgressMessage
	completed int

	launchResult remotedebug.LaunchResult
	launchErr    *jsonrpc2.Error
}

func (f *fakeIde) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params []json.RawMessage
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, jsonrpc2.ErrInvalidParams)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch req.Method() {
	case "$/invokeProxy/1/LaunchDebugTargetsAsync":
		var launch wireLaunchRequest
		if err := json.Unmarshal(params[0], &launch); err != nil {
			return reply(ctx, nil, jsonrpc2.ErrInvalidParams)
		}
		f.launches = append(f.launches, launch)

		if f.launchErr != nil {
			return reply(ctx, nil, f.launchErr)
		}
		return reply(ctx, f.launchResult, nil)
	case "$/invokeProxy/1/ShowMessageBoxAsync":
		var box messageBox
		for i, dst := range []*string{&box.Title, &box.Message, &box.Severity} {
			if err := json.Unmarshal(params[i], dst); err != nil {
				return reply(ctx, nil, jsonrpc2.ErrInvalidParams)
			}
		}
		f.boxes = append(f.boxes, box)
		return reply(ctx, nil, nil)
	case "$/invokeProxy/2/onNext":
		var msg ProgressMessage
		if err := json.Unmarshal(params[0], &msg); err != nil {
			return reply(ctx, nil, jsonrpc2.ErrInvalidParams)
		}
		f.progress = append(f.progress, msg)
		return reply(ctx, nil, nil)
	case "$/invokeProxy/2/onCompleted":
		f.completed++
		return reply(ctx, nil, nil)
	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

func marshaled(handle int) map[string]any {
	return map[string]any{
		"__jsonrpc_marshaled": 1,
		"handle":              handle,
	}
}

type testServer struct {
	server *Server
	http   *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	clk := clock.NewMock()
	clk.Set(testNow)

	registry := remotedebug.NewRegistry()
	require.NoError(t, remotedebug.RegisterLaunchCommand(
		registry, remotedebug.NewLaunchCommand(debugengine.NewAllocator())))

	rootContainer := ioc.NewNestedContainer(nil)
	ioc.RegisterInstance(rootContainer, registry)
	ioc.RegisterInstance[clock.Clock](rootContainer, clk)

	server := NewServer(rootContainer)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return &testServer{server: server, http: ts}
}

// dial connects to endpoint, serving requests from the server with handler.
func (s *testServer) dial(t *testing.T, endpoint string, handler jsonrpc2.Handler) jsonrpc2.Conn {
	url := "ws" + strings.TrimPrefix(s.http.URL, "http") + endpoint

	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	conn := jsonrpc2.NewConn(newWebSocketStream(c))
	conn.Go(context.Background(), handler)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func (s *testServer) initialize(t *testing.T, rootPath string) Session {
	conn := s.dial(t, "/ServerService/v1.0", jsonrpc2.MethodNotFoundHandler)

	var session Session
	_, err := conn.Call(context.Background(), "InitializeAsync", []any{rootPath, InitializeServerOptions{}}, &session)
	require.NoError(t, err)
	require.NotEmpty(t, session.Id)

	return session
}

// writeSolution creates a solution directory, with a configuration file when config is not empty.
func writeSolution(t *testing.T, config string) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "App.sln"), nil, osutil.PermissionFile))

	if config != "" {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".vs"), osutil.PermissionDirectory))
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, ".vs", "RemoteDebug.xml"), []byte(config), osutil.PermissionFile))
	}

	return dir
}

const validConfig = `<RemoteDebug><MachineName>build-box</MachineName><Path>/opt/app/server</Path></RemoteDebug>`

func TestLaunchAsync(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	dir := writeSolution(t, validConfig)
	session := ts.initialize(t, dir)

	ide := &fakeIde{
		launchResult: remotedebug.LaunchResult{
			Success:     true,
			ProcessInfo: &remotedebug.ProcessInfo{ProcessId: 4242},
		},
	}
	conn := ts.dial(t, "/RemoteDebugService/v1.0", ide.handle)

	var outcome LaunchOutcome
	_, err := conn.Call(context.Background(), "LaunchAsync", []any{
		RequestContext{Session: session, SolutionPath: filepath.Join(dir, "App.sln")},
		marshaled(debuggerHandle),
		marshaled(observerHandle),
	}, &outcome)
	require.NoError(t, err)

	require.True(t, outcome.Success)
	require.Equal(t, "Done", outcome.State)
	require.Empty(t, outcome.ErrorKind)
	require.NotNil(t, outcome.ProcessInfo)
	require.Equal(t, uint32(4242), outcome.ProcessInfo.ProcessId)

	ide.mu.Lock()
	defer ide.mu.Unlock()

	require.Len(t, ide.launches, 1)
	require.Equal(t, wireLaunchRequest{
		ExecutablePath:   "/opt/app/server",
		RemoteMachine:    "build-box",
		Operation:        "CreateProcess",
		DebugEngines:     []uuid.UUID{debugengine.ManagedAndNative},
		DebugEngineCount: 1,
	}, ide.launches[0])

	require.Empty(t, ide.boxes)

	require.Len(t, ide.progress, 2)
	require.Equal(t, "Launching '/opt/app/server' on 'build-box'", ide.progress[0].Message)
	require.Equal(t, "Launched '/opt/app/server' on 'build-box'", ide.progress[1].Message)
	for _, msg := range ide.progress {
		require.Equal(t, Important, msg.Kind)
		require.True(t, testNow.Equal(msg.Time))
	}
	require.Equal(t, 1, ide.completed)
}

func TestLaunchAsyncDefaultsToRootPath(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	dir := writeSolution(t, validConfig)
	session := ts.initialize(t, dir)

	ide := &fakeIde{launchResult: remotedebug.LaunchResult{Success: true}}
	conn := ts.dial(t, "/RemoteDebugService/v1.0", ide.handle)

	// Without an observer, progress is not reported.
	var outcome LaunchOutcome
	_, err := conn.Call(context.Background(), "LaunchAsync", []any{
		RequestContext{Session: session},
		marshaled(debuggerHandle),
		nil,
	}, &outcome)
	require.NoError(t, err)
	require.True(t, outcome.Success)

	ide.mu.Lock()
	defer ide.mu.Unlock()

	require.Len(t, ide.launches, 1)
	require.Empty(t, ide.progress)
	require.Zero(t, ide.completed)
}

func TestLaunchAsyncLaunchFailed(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	dir := writeSolution(t, validConfig)
	session := ts.initialize(t, dir)

	ide := &fakeIde{launchErr: jsonrpc2.NewError(jsonrpc2.InternalError, "host unreachable")}
	conn := ts.dial(t, "/RemoteDebugService/v1.0", ide.handle)

	var outcome LaunchOutcome
	_, err := conn.Call(context.Background(), "LaunchAsync", []any{
		RequestContext{Session: session, SolutionPath: dir},
		marshaled(debuggerHandle),
		marshaled(observerHandle),
	}, &outcome)
	require.NoError(t, err)

	require.False(t, outcome.Success)
	require.Equal(t, "DispatchFailed", outcome.State)
	require.Equal(t, "LaunchFailed", outcome.ErrorKind)
	require.Equal(t, "host unreachable", outcome.ErrorMessage)

	ide.mu.Lock()
	defer ide.mu.Unlock()

	// The launch is not retried.
	require.Len(t, ide.launches, 1)

	require.Equal(t, []messageBox{{
		Title:    "Remote Debug Launch",
		Message:  outcome.ErrorMessage,
		Severity: "critical",
	}}, ide.boxes)
	require.Equal(t, 1, ide.completed)
}

func TestLaunchAsyncConfigFailed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config string
		kind   string
	}{
		{name: "NotFound", config: "", kind: "ConfigNotFound"},
		{name: "Malformed", config: "<RemoteDebug><MachineName>box</MachineName>", kind: "ConfigMalformed"},
		{name: "MissingPath", config: "<RemoteDebug><MachineName>box</MachineName></RemoteDebug>", kind: "ConfigMalformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts := newTestServer(t)
			dir := writeSolution(t, tt.config)
			session := ts.initialize(t, dir)

			ide := &fakeIde{launchResult: remotedebug.LaunchResult{Success: true}}
			conn := ts.dial(t, "/RemoteDebugService/v1.0", ide.handle)

			var outcome LaunchOutcome
			_, err := conn.Call(context.Background(), "LaunchAsync", []any{
				RequestContext{Session: session},
				marshaled(debuggerHandle),
				marshaled(observerHandle),
			}, &outcome)
			require.NoError(t, err)

			require.False(t, outcome.Success)
			require.Equal(t, "ConfigFailed", outcome.State)
			require.Equal(t, tt.kind, outcome.ErrorKind)

			ide.mu.Lock()
			defer ide.mu.Unlock()

			require.Empty(t, ide.launches)
			require.Len(t, ide.boxes, 1)
			require.Equal(t, "Remote Debug Launch", ide.boxes[0].Title)
			require.Equal(t, outcome.ErrorMessage, ide.boxes[0].Message)
			require.Equal(t, "critical", ide.boxes[0].Severity)
		})
	}
}

func TestGetLaunchConfigAsync(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	t.Run("Ok", func(t *testing.T) {
		dir := writeSolution(t, validConfig)
		session := ts.initialize(t, dir)
		conn := ts.dial(t, "/RemoteDebugService/v1.0", jsonrpc2.MethodNotFoundHandler)

		var info LaunchConfigInfo
		_, err := conn.Call(context.Background(), "GetLaunchConfigAsync", []any{RequestContext{Session: session}}, &info)
		require.NoError(t, err)

		require.Equal(t, "build-box", info.MachineName)
		require.Equal(t, "/opt/app/server", info.Path)
		require.Equal(t, filepath.Join(dir, ".vs", "RemoteDebug.xml"), info.ConfigPath)
	})

	t.Run("NotFound", func(t *testing.T) {
		session := ts.initialize(t, writeSolution(t, ""))
		conn := ts.dial(t, "/RemoteDebugService/v1.0", jsonrpc2.MethodNotFoundHandler)

		var info LaunchConfigInfo
		_, err := conn.Call(context.Background(), "GetLaunchConfigAsync", []any{RequestContext{Session: session}}, &info)

		var rpcErr *jsonrpc2.Error
		require.ErrorAs(t, err, &rpcErr)
		require.Equal(t, configNotFoundErrorCode, rpcErr.Code)
	})

	t.Run("Malformed", func(t *testing.T) {
		session := ts.initialize(t, writeSolution(t, "<Other/>"))
		conn := ts.dial(t, "/RemoteDebugService/v1.0", jsonrpc2.MethodNotFoundHandler)

		var info LaunchConfigInfo
		_, err := conn.Call(context.Background(), "GetLaunchConfigAsync", []any{RequestContext{Session: session}}, &info)

		var rpcErr *jsonrpc2.Error
		require.ErrorAs(t, err, &rpcErr)
		require.Equal(t, configMalformedErrorCode, rpcErr.Code)
	})
}

func TestGetCommandsAsync(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	session := ts.initialize(t, t.TempDir())
	conn := ts.dial(t, "/RemoteDebugService/v1.0", jsonrpc2.MethodNotFoundHandler)

	var commands []remotedebug.CommandRef
	_, err := conn.Call(context.Background(), "GetCommandsAsync", []any{session}, &commands)
	require.NoError(t, err)
	require.Equal(t, []remotedebug.CommandRef{remotedebug.LaunchCommandRef}, commands)
}

func TestExecuteCommandAsyncErrors(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	session := ts.initialize(t, writeSolution(t, validConfig))

	ide := &fakeIde{launchResult: remotedebug.LaunchResult{Success: true}}
	conn := ts.dial(t, "/RemoteDebugService/v1.0", ide.handle)

	call := func(rc RequestContext, ref remotedebug.CommandRef, debugger any) error {
		var outcome LaunchOutcome
		_, err := conn.Call(context.Background(), "ExecuteCommandAsync", []any{
			rc, ref, debugger, marshaled(observerHandle),
		}, &outcome)
		return err
	}

	tests := []struct {
		name     string
		rc       RequestContext
		ref      remotedebug.CommandRef
		debugger any
	}{
		{
			name:     "UnknownSession",
			rc:       RequestContext{Session: Session{Id: "unknown"}},
			ref:      remotedebug.LaunchCommandRef,
			debugger: marshaled(debuggerHandle),
		},
		{
			name:     "UnknownCommand",
			rc:       RequestContext{Session: session},
			ref:      remotedebug.CommandRef{Group: remotedebug.CommandSet, Id: 0x0200},
			debugger: marshaled(debuggerHandle),
		},
		{
			name:     "NoDebugger",
			rc:       RequestContext{Session: session},
			ref:      remotedebug.LaunchCommandRef,
			debugger: nil,
		},
	}

	for _, tt := range tests {
		err := call(tt.rc, tt.ref, tt.debugger)

		var rpcErr *jsonrpc2.Error
		require.ErrorAs(t, err, &rpcErr, tt.name)
		require.Equal(t, jsonrpc2.InvalidParams, rpcErr.Code, tt.name)
	}

	ide.mu.Lock()
	defer ide.mu.Unlock()

	require.Empty(t, ide.launches)
	require.Empty(t, ide.boxes)
}

func TestExecuteCommandAsyncCommandRefString(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	session := ts.initialize(t, writeSolution(t, validConfig))

	ide := &fakeIde{launchResult: remotedebug.LaunchResult{Success: true}}
	conn := ts.dial(t, "/RemoteDebugService/v1.0", ide.handle)

	var outcome LaunchOutcome
	_, err := conn.Call(context.Background(), "ExecuteCommandAsync", []any{
		RequestContext{Session: session},
		remotedebug.LaunchCommandRef.String(),
		marshaled(debuggerHandle),
		nil,
	}, &outcome)
	require.NoError(t, err)
	require.True(t, outcome.Success)
	require.Equal(t, "Done", outcome.State)

	_, err = conn.Call(context.Background(), "ExecuteCommandAsync", []any{
		RequestContext{Session: session},
		"launch",
		marshaled(debuggerHandle),
		nil,
	}, &outcome)

	var rpcErr *jsonrpc2.Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, jsonrpc2.InvalidParams, rpcErr.Code)

	ide.mu.Lock()
	defer ide.mu.Unlock()

	require.Len(t, ide.launches, 1)
}
