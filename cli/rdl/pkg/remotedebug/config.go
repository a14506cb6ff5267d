// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package remotedebug

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
)

// ConfigDirectoryName is the name of the hidden settings directory, in the root of the solution, that contains the
// configuration file.
const ConfigDirectoryName = ".vs"

// ConfigFileName is the name of the configuration file inside ConfigDirectoryName.
const ConfigFileName = "RemoteDebug.xml"

// utf8Bom is stripped from the start of the configuration file, editors on Windows commonly write it.
var utf8Bom = []byte{0xEF, 0xBB, 0xBF}

// LaunchConfig is the parsed configuration file: the machine to launch on and the executable to launch there. A
// LaunchConfig is immutable and always has a non-empty machine name and executable path.
type LaunchConfig struct {
	machineName    string
	executablePath string
}

// NewLaunchConfig creates a LaunchConfig. An error of kind ConfigMalformed is returned when either value is empty.
func NewLaunchConfig(machineName string, executablePath string) (*LaunchConfig, error) {
	if machineName == "" {
		return nil, newError(ConfigMalformed, "element 'MachineName' is empty")
	}

	if executablePath == "" {
		return nil, newError(ConfigMalformed, "element 'Path' is empty")
	}

	return &LaunchConfig{
		machineName:    machineName,
		executablePath: executablePath,
	}, nil
}

// MachineName is the name of the remote machine the process is launched on.
func (c *LaunchConfig) MachineName() string {
	return c.machineName
}

// ExecutablePath is the path of the executable on the remote machine.
func (c *LaunchConfig) ExecutablePath() string {
	return c.executablePath
}

// configDocument is the model type for the configuration file:
//
//	<RemoteDebug>
//	  <MachineName>...</MachineName>
//	  <Path>...</Path>
//	</RemoteDebug>
//
// Slices are used so a missing element can be told apart from an empty one. When an element is repeated, the first
// one wins.
type configDocument struct {
	XMLName     xml.Name `xml:"RemoteDebug"`
	MachineName []string `xml:"MachineName"`
	Path        []string `xml:"Path"`
}

// ConfigPath returns the path to the configuration file for the solution rooted at solutionDir.
func ConfigPath(solutionDir string) string {
	return filepath.Join(solutionDir, ConfigDirectoryName, ConfigFileName)
}

// SolutionDirectory returns the directory that holds the settings directory for solutionPath. solutionPath is what
// the host reports as the open solution: either a solution file, in which case its directory is used, or a folder,
// which is used as-is.
func SolutionDirectory(solutionPath string) (string, error) {
	if solutionPath == "" {
		return "", errors.New("no solution is open")
	}

	abs, err := filepath.Abs(solutionPath)
	if err != nil {
		return "", fmt.Errorf("resolving solution path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("reading solution path: %w", err)
	}

	if info.IsDir() {
		return abs, nil
	}

	return filepath.Dir(abs), nil
}

// LoadConfig reads and parses the configuration file for the solution rooted at solutionDir. The file is read on
// every call.
//
// If the file does not exist or cannot be read, the returned error matches [ErrConfigNotFound]. If the file is not
// valid XML, the root element is not RemoteDebug, or MachineName or Path is missing or empty, the returned error
// matches [ErrConfigMalformed].
func LoadConfig(solutionDir string) (*LaunchConfig, error) {
	path := ConfigPath(solutionDir)

	contents, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, newError(ConfigNotFound, "could not find file '%s'", path)
	} else if err != nil {
		return nil, newError(ConfigNotFound, "reading configuration file: %w", err)
	}

	log.Printf("loaded remote debug configuration from %s", path)

	return ParseConfig(contents)
}

// ParseConfig parses the contents of a configuration file. Element text is used exactly as written, without
// trimming.
func ParseConfig(contents []byte) (*LaunchConfig, error) {
	var doc configDocument
	if err := xml.Unmarshal(bytes.TrimPrefix(contents, utf8Bom), &doc); err != nil {
		return nil, newError(ConfigMalformed, "parsing configuration file: %w", err)
	}

	if len(doc.MachineName) == 0 {
		return nil, newError(ConfigMalformed, "element 'MachineName' is missing from 'RemoteDebug'")
	}

	if len(doc.Path) == 0 {
		return nil, newError(ConfigMalformed, "element 'Path' is missing from 'RemoteDebug'")
	}

	return NewLaunchConfig(doc.MachineName[0], doc.Path[0])
}
