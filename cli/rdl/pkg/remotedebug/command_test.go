// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package remotedebug

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/remote-debug/remote-debug/cli/rdl/pkg/debugengine"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/input"
	"github.com/stretchr/testify/require"
)

type transition struct {
	from State
	to   State
}

func TestInvokeSuccess(t *testing.T) {
	dir := writeConfig(t, `<RemoteDebug><MachineName>box1</MachineName><Path>C:\app\app.exe</Path></RemoteDebug>`)
	host := &fakeHost{
		fakeService:  &fakeService{result: &LaunchResult{Success: true}},
		solutionPath: filepath.Join(dir, "App.sln"),
	}
	writeSolution(t, host.solutionPath)

	engines := &countingAllocator{inner: debugengine.NewAllocator()}
	command := NewLaunchCommand(engines)

	outcome := command.Invoke(context.Background(), host)
	require.NoError(t, outcome.Err)
	require.Equal(t, Done, outcome.State)
	require.Equal(t, "box1", outcome.Config.MachineName())

	require.Len(t, host.requests, 1)
	require.Equal(t, "box1", host.requests[0].RemoteMachine)
	require.Equal(t, `C:\app\app.exe`, host.requests[0].ExecutablePath)
	require.Equal(t, CreateProcess, host.requests[0].Operation)
	require.Equal(t, 1, host.requests[0].DebugEngineCount)
	require.Empty(t, host.boxes)

	require.Equal(t, []transition{
		{Idle, ConfigLoading},
		{ConfigLoading, ConfigReady},
		{ConfigReady, Dispatching},
		{Dispatching, Done},
	}, host.transitions)

	require.Equal(t, 1, engines.released)
}

func TestInvokeLaunchFailed(t *testing.T) {
	dir := writeConfig(t, `<RemoteDebug><MachineName>box1</MachineName><Path>C:\app\app.exe</Path></RemoteDebug>`)
	host := &fakeHost{
		fakeService:  &fakeService{err: errors.New("host unreachable")},
		solutionPath: dir,
	}

	engines := &countingAllocator{inner: debugengine.NewAllocator()}
	command := NewLaunchCommand(engines)

	outcome := command.Invoke(context.Background(), host)
	require.Equal(t, DispatchFailed, outcome.State)
	require.ErrorIs(t, outcome.Err, ErrLaunchFailed)

	require.Equal(t, []input.MessageBoxOptions{
		{Title: "Remote Debug Launch", Message: "host unreachable", Severity: input.SeverityCritical},
	}, host.boxes)

	require.Len(t, host.requests, 1)
	require.Equal(t, 1, engines.acquired)
	require.Equal(t, 1, engines.released)
	require.Equal(t, transition{Dispatching, DispatchFailed}, host.transitions[len(host.transitions)-1])
}

func TestInvokeConfigFailures(t *testing.T) {
	tests := []struct {
		name     string
		host     func(t *testing.T) *fakeHost
		expected error
	}{
		{
			name: "NotFound",
			host: func(t *testing.T) *fakeHost {
				return &fakeHost{fakeService: &fakeService{}, solutionPath: t.TempDir()}
			},
			expected: ErrConfigNotFound,
		},
		{
			name: "NoSolution",
			host: func(t *testing.T) *fakeHost {
				return &fakeHost{fakeService: &fakeService{}}
			},
			expected: ErrConfigNotFound,
		},
		{
			name: "HostError",
			host: func(t *testing.T) *fakeHost {
				return &fakeHost{fakeService: &fakeService{}, solutionErr: errors.New("no solution is loaded")}
			},
			expected: ErrConfigNotFound,
		},
		{
			name: "Malformed",
			host: func(t *testing.T) *fakeHost {
				dir := writeConfig(t, "<RemoteDebug><MachineName>box1</MachineName>")
				return &fakeHost{fakeService: &fakeService{}, solutionPath: dir}
			},
			expected: ErrConfigMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := tt.host(t)
			engines := &countingAllocator{inner: debugengine.NewAllocator()}
			command := NewLaunchCommand(engines)

			outcome := command.Invoke(context.Background(), host)
			require.Equal(t, ConfigFailed, outcome.State)
			require.ErrorIs(t, outcome.Err, tt.expected)
			require.Nil(t, outcome.Config)

			// Nothing is dispatched and no engine buffer is taken.
			require.Empty(t, host.requests)
			require.Equal(t, 0, engines.acquired)

			require.Len(t, host.boxes, 1)
			require.Equal(t, ReportTitle, host.boxes[0].Title)
			require.Equal(t, input.SeverityCritical, host.boxes[0].Severity)
			require.Equal(t, outcome.Err.Error(), host.boxes[0].Message)

			require.Equal(t, []transition{{Idle, ConfigLoading}, {ConfigLoading, ConfigFailed}}, host.transitions)
		})
	}
}

func TestInvokeIsIndependentPerCall(t *testing.T) {
	dir := writeConfig(t, `<RemoteDebug><MachineName>box1</MachineName><Path>app</Path></RemoteDebug>`)
	service := &fakeService{err: errors.New("host unreachable")}
	host := &fakeHost{fakeService: service, solutionPath: dir}
	command := NewLaunchCommand(debugengine.NewAllocator())

	require.Equal(t, DispatchFailed, command.Invoke(context.Background(), host).State)

	service.err = nil
	service.result = &LaunchResult{Success: true}
	require.Equal(t, Done, command.Invoke(context.Background(), host).State)
	require.Len(t, service.requests, 2)
}

func TestStates(t *testing.T) {
	for _, s := range []State{ConfigFailed, Done, DispatchFailed} {
		require.True(t, s.Terminal(), s.String())
	}
	for _, s := range []State{Idle, ConfigLoading, ConfigReady, Dispatching} {
		require.False(t, s.Terminal(), s.String())
	}

	require.True(t, canTransition(Idle, ConfigLoading))
	require.False(t, canTransition(Idle, Dispatching))
	require.False(t, canTransition(ConfigFailed, Dispatching))
	require.False(t, canTransition(Done, Idle))

	inv := &invocation{state: Idle}
	require.Panics(t, func() { inv.moveTo(Dispatching) })
}

func TestInvokeNotifiesHostObserver(t *testing.T) {
	dir := writeConfig(t, `<RemoteDebug><MachineName>box1</MachineName><Path>app</Path></RemoteDebug>`)
	host := &fakeHost{fakeService: &fakeService{result: &LaunchResult{Success: true}}, solutionPath: dir}

	outcome := NewLaunchCommand(debugengine.NewAllocator()).Invoke(context.Background(), host)
	require.Equal(t, Done, outcome.State)
	require.Equal(t, []transition{
		{Idle, ConfigLoading},
		{ConfigLoading, ConfigReady},
		{ConfigReady, Dispatching},
		{Dispatching, Done},
	}, host.transitions)
}
