// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vsrpc

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/remotedebug"
	"go.lsp.dev/jsonrpc2"
)

// Error codes returned for configuration errors, so the client can tell them apart without parsing messages.
const (
	configNotFoundErrorCode  jsonrpc2.Code = -32010
	configMalformedErrorCode jsonrpc2.Code = -32011
)

// remoteDebugService is the RPC server for the '/RemoteDebugService/v1.0' endpoint.
type remoteDebugService struct {
	server *Server
}

func newRemoteDebugService(server *Server) *remoteDebugService {
	return &remoteDebugService{
		server: server,
	}
}

// GetCommandsAsync is the server implementation of:
// ValueTask<IEnumerable<CommandRef>> GetCommandsAsync(Session, CancellationToken);
//
// It returns the commands the IDE should add to its command table.
func (s *remoteDebugService) GetCommandsAsync(ctx context.Context, sessionId Session) ([]remotedebug.CommandRef, error) {
	session, err := s.server.validateSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	var registry *remotedebug.Registry
	if err := session.newContainer(RequestContext{}).Resolve(&registry); err != nil {
		return nil, err
	}

	return registry.Commands(), nil
}

// GetLaunchConfigAsync is the server implementation of:
// ValueTask<LaunchConfigInfo> GetLaunchConfigAsync(RequestContext, CancellationToken);
func (s *remoteDebugService) GetLaunchConfigAsync(ctx context.Context, rc RequestContext) (*LaunchConfigInfo, error) {
	session, err := s.server.validateSession(ctx, rc.Session)
	if err != nil {
		return nil, err
	}

	solutionDir, err := remotedebug.SolutionDirectory(session.solutionPath(rc))
	if err != nil {
		return nil, jsonrpc2.NewError(configNotFoundErrorCode, err.Error())
	}

	cfg, err := remotedebug.LoadConfig(solutionDir)
	if err != nil {
		return nil, configError(err)
	}

	return &LaunchConfigInfo{
		MachineName: cfg.MachineName(),
		Path:        cfg.ExecutablePath(),
		ConfigPath:  remotedebug.ConfigPath(solutionDir),
	}, nil
}

// ExecuteCommandAsync is the server implementation of:
// ValueTask<LaunchOutcome> ExecuteCommandAsync(
//
//	RequestContext, CommandRef, IDebuggerHost, IObserver<ProgressMessage>, CancellationToken);
//
// It runs the command registered under ref, with the IDE as the host. ref is sent either as an object or as a
// "<group>:<id>" string. Failures of the command are reported to the
// user through the debugger host and are also returned in the outcome, they do not fail the RPC. Launches of a
// session run one at a time.
func (s *remoteDebugService) ExecuteCommandAsync(
	ctx context.Context,
	rc RequestContext,
	ref remotedebug.CommandRef,
	debugger *DebuggerHost,
	observer *Observer[ProgressMessage],
) (*LaunchOutcome, error) {
	session, err := s.server.validateSession(ctx, rc.Session)
	if err != nil {
		return nil, err
	}

	if debugger == nil {
		return nil, jsonrpc2.NewError(jsonrpc2.InvalidParams, "debugger host is required")
	}

	container := session.newContainer(rc)

	var registry *remotedebug.Registry
	if err := container.Resolve(&registry); err != nil {
		return nil, err
	}

	var clk clock.Clock
	if err := container.Resolve(&clk); err != nil {
		return nil, err
	}

	handler, has := registry.Lookup(ref)
	if !has {
		return nil, jsonrpc2.NewError(jsonrpc2.InvalidParams, fmt.Sprintf("unknown command %s", ref))
	}

	launch, release, err := session.acquireLaunch(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var progressObserver IObserver[ProgressMessage]
	if observer != nil {
		progressObserver = observer
	}

	progress := progressWriter(ctx, progressObserver, clk)
	defer func() {
		_ = progress.Flush(ctx)
		if observer != nil {
			_ = observer.OnCompleted(ctx)
		}
	}()

	host := &launchHost{
		debugger:     debugger,
		solutionPath: session.solutionPath(rc),
		progress:     io.MultiWriter(progress, &logWriter{prefix: fmt.Sprintf("[%s#%d] ", session.id, launch)}),
		verbose:      session.options.Verbose != nil && *session.options.Verbose,
	}

	log.Printf("running command %s for %s", ref, host.solutionPath)

	outcome := handler(ctx, host)
	if outcome == nil {
		return nil, fmt.Errorf("command %s returned no outcome", ref)
	}

	if outcome.Err == nil {
		fmt.Fprintf(host.progress, "Launched '%s' on '%s'\n", outcome.Config.ExecutablePath(), outcome.Config.MachineName())
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return newLaunchOutcome(outcome), nil
}

// LaunchAsync is the server implementation of:
// ValueTask<LaunchOutcome> LaunchAsync(RequestContext, IDebuggerHost, IObserver<ProgressMessage>, CancellationToken);
//
// It runs the remote debug launch command.
func (s *remoteDebugService) LaunchAsync(
	ctx context.Context, rc RequestContext, debugger *DebuggerHost, observer *Observer[ProgressMessage],
) (*LaunchOutcome, error) {
	return s.ExecuteCommandAsync(ctx, rc, remotedebug.LaunchCommandRef, debugger, observer)
}

// configError converts a configuration error to an RPC error with a code for its kind.
func configError(err error) error {
	switch remotedebug.KindOf(err) {
	case remotedebug.ConfigNotFound:
		return jsonrpc2.NewError(configNotFoundErrorCode, err.Error())
	case remotedebug.ConfigMalformed:
		return jsonrpc2.NewError(configMalformedErrorCode, err.Error())
	default:
		return err
	}
}

// ServeHTTP implements http.Handler.
func (s *remoteDebugService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serveRpc(w, r, map[string]Handler{
		"GetCommandsAsync":     NewHandler(s.GetCommandsAsync),
		"GetLaunchConfigAsync": NewHandler(s.GetLaunchConfigAsync),
		"ExecuteCommandAsync":  NewHandler(s.ExecuteCommandAsync),
		"LaunchAsync":          NewHandler(s.LaunchAsync),
	})
}
