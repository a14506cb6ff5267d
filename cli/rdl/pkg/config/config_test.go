package config

import (
	"testing"

	"github.com/remote-debug/remote-debug/cli/rdl/pkg/debugengine"
	"github.com/stretchr/testify/require"
)

func Test_SetGetUnsetWithValue(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		value any
	}{
		{
			name:  "RootValue",
			path:  "a",
			value: "apple",
		},
		{
			name:  "NestedValue",
			path:  "ssh.user",
			value: "dev",
		},
		{
			name:  "NumberValue",
			path:  "dlv.port",
			value: float64(40000),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rdlConfig := NewConfig(nil)
			err := rdlConfig.Set(test.path, test.value)
			require.NoError(t, err)

			value, ok := rdlConfig.Get(test.path)
			require.True(t, ok)
			require.Equal(t, test.value, value)

			err = rdlConfig.Unset(test.path)
			require.NoError(t, err)

			value, ok = rdlConfig.Get(test.path)
			require.Nil(t, value)
			require.False(t, ok)
		})
	}
}

func Test_SetGetUnsetRootNodeWithChildren(t *testing.T) {
	rdlConfig := NewConfig(nil)
	require.NoError(t, rdlConfig.Set("ssh.user", "dev"))
	require.NoError(t, rdlConfig.Set("ssh.port", float64(2222)))
	require.NoError(t, rdlConfig.Set("launch.service", "ssh"))

	require.Equal(t, []string{"launch.service", "ssh.port", "ssh.user"}, rdlConfig.Paths())

	// Remove the whole ssh object
	require.NoError(t, rdlConfig.Unset("ssh"))

	user, ok := rdlConfig.Get("ssh.user")
	require.False(t, ok)
	require.Nil(t, user)

	service, ok := rdlConfig.GetString("launch.service")
	require.True(t, ok)
	require.Equal(t, "ssh", service)
}

func Test_SetThroughLeafFails(t *testing.T) {
	rdlConfig := NewConfig(nil)
	require.NoError(t, rdlConfig.Set("ssh", "not a node"))
	require.Error(t, rdlConfig.Set("ssh.user", "dev"))
	require.Error(t, rdlConfig.Unset("ssh.user"))

	_, ok := rdlConfig.Get("ssh.user")
	require.False(t, ok)
}

func Test_UnsetMissingPath(t *testing.T) {
	rdlConfig := NewConfig(nil)
	require.NoError(t, rdlConfig.Unset("missing.path"))
	require.True(t, rdlConfig.IsEmpty())
}

func Test_GetLaunchSettings(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		settings, err := GetLaunchSettings(NewEmptyConfig())
		require.NoError(t, err)
		require.Equal(t, LaunchSettings{Service: LaunchServiceSsh, Engine: debugengine.ManagedAndNative}, settings)
	})

	t.Run("FromJson", func(t *testing.T) {
		cfg, err := Parse([]byte(
			`{"launch":{"engine":"native"},"ssh":{"user":"dev","port":2222},"dlv":{"port":40000}}`))
		require.NoError(t, err)

		settings, err := GetLaunchSettings(cfg)
		require.NoError(t, err)
		require.Equal(t, LaunchSettings{
			Service: "ssh",
			Engine:  debugengine.NativeOnly,
			SshUser: "dev",
			SshPort: 2222,
			DlvPort: 40000,
		}, settings)
	})

	t.Run("UnsupportedService", func(t *testing.T) {
		cfg := NewEmptyConfig()
		require.NoError(t, cfg.Set(LaunchServiceKey, "telnet"))

		_, err := GetLaunchSettings(cfg)
		require.ErrorContains(t, err, "unsupported launch service 'telnet'")
	})

	t.Run("UnknownEngine", func(t *testing.T) {
		cfg := NewEmptyConfig()
		require.NoError(t, cfg.Set(LaunchEngineKey, "script"))

		_, err := GetLaunchSettings(cfg)
		require.ErrorContains(t, err, "unknown debug engine 'script'")
	})

	t.Run("WrongType", func(t *testing.T) {
		cfg := NewEmptyConfig()
		require.NoError(t, cfg.Set(SshPortKey, "not a number"))

		_, err := GetLaunchSettings(cfg)
		require.Error(t, err)
	})
}
