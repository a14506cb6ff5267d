package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/osutil"
)

// FileConfigManager provides the ability to load, parse and save configuration files
type FileConfigManager interface {
	// Saves the configuration to the specified file path
	// Path is automatically created if it does not exist
	Save(config Config, filePath string) error

	// Loads configuration from the specified file path
	Load(filePath string) (Config, error)
}

// NewFileConfigManager creates a new FileConfigManager instance
func NewFileConfigManager(configManager Manager) FileConfigManager {
	return &fileConfigManager{
		manager: configManager,
	}
}

type fileConfigManager struct {
	manager Manager
}

func (m *fileConfigManager) Load(filePath string) (Config, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("failed opening rdl configuration file: %w", err)
	}

	fl := flock.New(lockPath(filePath))
	if err := fl.RLock(); err != nil {
		return nil, fmt.Errorf("locking file %s: %w", fl.Path(), err)
	}
	defer unlock(fl)

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed opening rdl configuration file: %w", err)
	}

	defer file.Close()

	return m.manager.Load(file)
}

func (m *fileConfigManager) Save(c Config, filePath string) error {
	folderPath := filepath.Dir(filePath)
	if err := os.MkdirAll(folderPath, osutil.PermissionDirectory); err != nil {
		return fmt.Errorf("failed creating config directory: %w", err)
	}

	fl := flock.New(lockPath(filePath))
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("locking file %s: %w", fl.Path(), err)
	}
	defer unlock(fl)

	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, osutil.PermissionFile)
	if err != nil {
		return fmt.Errorf("failed creating config file: %w", err)
	}
	defer file.Close()

	return m.manager.Save(c, file)
}

// lockPath is the file locked while the configuration file at filePath is read or written, so a concurrent rdl
// process never reads a partially written file.
func lockPath(filePath string) string {
	return filePath + ".lock"
}

func unlock(fl *flock.Flock) {
	if err := fl.Unlock(); err != nil {
		log.Printf("failed to release file lock: %v", err)
	}
}

// UserConfigManager loads and saves the configuration of the current user.
type UserConfigManager interface {
	Save(Config) error
	Load() (Config, error)
}

func NewUserConfigManager(configManager FileConfigManager) UserConfigManager {
	return &userConfigManager{
		configManager: configManager,
	}
}

type userConfigManager struct {
	configManager FileConfigManager
}

// Load returns the user configuration, or an empty configuration when none has been saved yet.
func (m *userConfigManager) Load() (Config, error) {
	configFilePath, err := GetUserConfigFilePath()
	if err != nil {
		return nil, err
	}

	cfg, err := m.configManager.Load(configFilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return NewEmptyConfig(), nil
	} else if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (m *userConfigManager) Save(c Config) error {
	configFilePath, err := GetUserConfigFilePath()
	if err != nil {
		return err
	}

	return m.configManager.Save(c, configFilePath)
}

// GetUserConfigFilePath returns the path of the user configuration file.
func GetUserConfigFilePath() (string, error) {
	configDir, err := GetUserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed getting user config directory: %w", err)
	}

	return filepath.Join(configDir, "config.json"), nil
}
