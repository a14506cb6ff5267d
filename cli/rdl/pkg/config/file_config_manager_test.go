package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/require"
)

func Test_FileConfigManager_SaveAndLoadConfig(t *testing.T) {
	var rdlConfig Config = NewConfig(
		map[string]any{
			"ssh": map[string]any{
				"user": "dev",
				"port": float64(2222),
			},
		},
	)

	configFilePath := filepath.Join(t.TempDir(), "config.json")
	configManager := NewFileConfigManager(NewManager())

	err := configManager.Save(rdlConfig, configFilePath)
	require.NoError(t, err)

	existingConfig, err := configManager.Load(configFilePath)
	require.NoError(t, err)
	require.NotNil(t, existingConfig)
	require.Equal(t, rdlConfig, existingConfig)
}

func Test_FileConfigManager_SaveTruncates(t *testing.T) {
	configFilePath := filepath.Join(t.TempDir(), "config.json")
	configManager := NewFileConfigManager(NewManager())

	long := NewConfig(map[string]any{"launch": map[string]any{"service": "ssh-with-a-long-name"}})
	require.NoError(t, configManager.Save(long, configFilePath))

	short := NewConfig(map[string]any{"a": "b"})
	require.NoError(t, configManager.Save(short, configFilePath))

	loaded, err := configManager.Load(configFilePath)
	require.NoError(t, err)
	require.Equal(t, short, loaded)
}

func Test_UserConfigManager(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "rdl")
	t.Setenv(ConfigDirEnvVar, configDir)

	userConfigManager := NewUserConfigManager(NewFileConfigManager(NewManager()))

	// Nothing saved yet
	cfg, err := userConfigManager.Load()
	require.NoError(t, err)
	require.True(t, cfg.IsEmpty())

	require.NoError(t, cfg.Set(DlvPortKey, float64(40000)))
	require.NoError(t, userConfigManager.Save(cfg))

	_, err = os.Stat(filepath.Join(configDir, "config.json"))
	require.NoError(t, err)

	cfg, err = userConfigManager.Load()
	require.NoError(t, err)
	port, ok := cfg.Get(DlvPortKey)
	require.True(t, ok)
	require.Equal(t, float64(40000), port)
}

func Test_LoadInvalidJson(t *testing.T) {
	configFilePath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configFilePath, []byte("{"), 0600))

	_, err := NewFileConfigManager(NewManager()).Load(configFilePath)
	require.Error(t, err)
}

func Test_FileConfigManager_WaitsForLock(t *testing.T) {
	configFilePath := filepath.Join(t.TempDir(), "config.json")
	configManager := NewFileConfigManager(NewManager())
	require.NoError(t, configManager.Save(NewConfig(map[string]any{"a": "b"}), configFilePath))

	// Another process is writing the file.
	other := flock.New(lockPath(configFilePath))
	require.NoError(t, other.Lock())

	loaded := make(chan Config)
	go func() {
		cfg, err := configManager.Load(configFilePath)
		if err != nil {
			cfg = nil
		}
		loaded <- cfg
	}()

	select {
	case <-loaded:
		require.Fail(t, "configuration was read while the file was locked")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, other.Unlock())
	require.Equal(t, NewConfig(map[string]any{"a": "b"}), <-loaded)
}
