// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package remotedebug

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/debugengine"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/input"
	"github.com/stretchr/testify/require"
)

// writeConfig writes contents as the configuration file of a new solution directory and returns the directory.
func writeConfig(t *testing.T, contents string) string {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ConfigDirectoryName), 0755))
	require.NoError(t, os.WriteFile(ConfigPath(dir), []byte(contents), 0600))
	return dir
}

// fakeService records every launch request it receives.
type fakeService struct {
	mu       sync.Mutex
	requests []LaunchRequest
	// engines holds the engine ids seen while each call was running.
	engines [][]uuid.UUID
	result  *LaunchResult
	err     error
}

func (s *fakeService) LaunchDebugTargets(ctx context.Context, request LaunchRequest) (*LaunchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, request)
	s.engines = append(s.engines, request.DebugEngines.IDs())

	return s.result, s.err
}

// fakeHost is a Host over a fakeService that records the message boxes it shows and the states it observes.
type fakeHost struct {
	*fakeService
	solutionPath string
	solutionErr  error
	boxes        []input.MessageBoxOptions
	transitions  []transition
}

func (h *fakeHost) SolutionPath(ctx context.Context) (string, error) {
	return h.solutionPath, h.solutionErr
}

func (h *fakeHost) ShowMessageBox(ctx context.Context, options input.MessageBoxOptions) error {
	h.boxes = append(h.boxes, options)
	return nil
}

func (h *fakeHost) OnTransition(ctx context.Context, from State, to State) {
	h.transitions = append(h.transitions, transition{from, to})
}

// countingAllocator wraps an allocator and counts acquisitions and releases.
type countingAllocator struct {
	inner    debugengine.Allocator
	acquired int
	released int
}

func (a *countingAllocator) Acquire(ids ...uuid.UUID) (debugengine.List, func()) {
	list, release := a.inner.Acquire(ids...)
	a.acquired++

	return list, func() {
		a.released++
		release()
	}
}

func writeSolution(t *testing.T, path string) {
	require.NoError(t, os.WriteFile(path, []byte("Microsoft Visual Studio Solution File\n"), 0600))
}
