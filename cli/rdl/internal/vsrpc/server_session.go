package vsrpc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/remote-debug/remote-debug/cli/rdl/pkg/ioc"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/atomic"
)

// serverSession represents a logical connection from a single client with a given solution.
// Since our RPCs are split over multiple HTTP endpoints, we need a way to correlate these multiple connections together.
// This is the purpose of the session.
// Sessions are assigned a unique ID when they are created and are stored in the sessions map.
type serverSession struct {
	id string
	// rootPath is the path to the root of the solution.
	rootPath string
	options  InitializeServerOptions
	// root container points to server.rootContainer
	rootContainer *ioc.NestedContainer
	// launching holds a token while a launch of this session runs. A session runs one launch at a time.
	launching chan struct{}
	// launches counts the launches started by the session.
	launches *atomic.Int64
}

// newSession creates a new session and returns the session ID and session. newSession is safe to call by multiple
// goroutines. A Session can be recovered from an id with [sessionFromId].
func (s *Server) newSession() (string, *serverSession, error) {
	b := make([]byte, 8)
	_, err := rand.Read(b)
	if err != nil {
		return "", nil, err
	}

	id := base64.StdEncoding.EncodeToString(b)
	session := &serverSession{
		id:            id,
		rootContainer: s.rootContainer,
		launching:     make(chan struct{}, 1),
		launches:      atomic.NewInt64(0),
	}

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	s.sessions[id] = session

	return id, session, nil
}

// sessionFromId fetches the session with the given ID, if it exists. sessionFromId is safe to call by multiple goroutines.
func (s *Server) sessionFromId(id string) (*serverSession, bool) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	session, ok := s.sessions[id]
	return session, ok
}

// validateSession ensures the session id is valid and returns the corresponding and serverSession object. If there
// is an error it will be of type *jsonrpc2.Error.
func (s *Server) validateSession(ctx context.Context, session Session) (*serverSession, error) {
	if session.Id == "" {
		return nil, jsonrpc2.NewError(jsonrpc2.InvalidParams, "session.Id is required")
	}

	serverSession, has := s.sessionFromId(session.Id)
	if !has {
		return nil, jsonrpc2.NewError(jsonrpc2.InvalidParams, "session.Id is invalid")
	}

	return serverSession, nil
}

// solutionPath returns the solution of rc, defaulting to the root path of the session.
func (s *serverSession) solutionPath(rc RequestContext) string {
	if rc.SolutionPath != "" {
		return rc.SolutionPath
	}

	return s.rootPath
}

// newContainer creates a container for a single request of the session.
func (s *serverSession) newContainer(rc RequestContext) *ioc.NestedContainer {
	c := ioc.NewNestedContainer(s.rootContainer)

	ioc.RegisterInstance(c, s)
	ioc.RegisterInstance(c, RequestContext{
		Session:      Session{Id: s.id},
		SolutionPath: s.solutionPath(rc),
	})

	return c
}

// acquireLaunch waits until no other launch of the session is running. It returns the number of the launch within
// the session, starting at 1, and a func that ends the launch.
func (s *serverSession) acquireLaunch(ctx context.Context) (int64, func(), error) {
	select {
	case s.launching <- struct{}{}:
		return s.launches.Inc(), func() { <-s.launching }, nil
	case <-ctx.Done():
		return 0, nil, fmt.Errorf("waiting for the running launch to finish: %w", ctx.Err())
	}
}
