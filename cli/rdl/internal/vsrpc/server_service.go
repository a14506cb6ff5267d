// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vsrpc

import (
	"context"
	"log"
	"net/http"
	"time"
)

// stopDelay is how long StopAsync waits before closing connections, so its reply can be written first.
const stopDelay = 100 * time.Millisecond

// serverService is the RPC server for the '/ServerService/v1.0' endpoint.
type serverService struct {
	server *Server
}

func newServerService(server *Server) *serverService {
	return &serverService{
		server: server,
	}
}

// InitializeAsync is the server implementation of:
// ValueTask<Session> InitializeAsync(string rootPath, InitializeServerOptions options, CancellationToken cancellationToken);
func (s *serverService) InitializeAsync(
	ctx context.Context, rootPath string, options InitializeServerOptions,
) (*Session, error) {
	id, session, err := s.server.newSession()
	if err != nil {
		return nil, err
	}

	session.rootPath = rootPath
	session.options = options

	log.Printf("initialized session %s for %s", id, rootPath)

	return &Session{
		Id: id,
	}, nil
}

// StopAsync is the server implementation of:
// ValueTask StopAsync(CancellationToken cancellationToken);
//
// The server stops once the reply has been sent.
func (s *serverService) StopAsync(ctx context.Context) error {
	time.AfterFunc(stopDelay, func() {
		if err := s.server.Stop(); err != nil {
			log.Printf("failed to stop server: %v", err)
		}
	})

	return nil
}

// ServeHTTP implements http.Handler.
func (s *serverService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serveRpc(w, r, map[string]Handler{
		"InitializeAsync": NewHandler(s.InitializeAsync),
		"StopAsync":       NewHandler(s.StopAsync),
	})
}
