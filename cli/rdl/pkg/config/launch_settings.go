// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/debugengine"
)

// Keys read by the launch command.
const (
	LaunchServiceKey = "launch.service"
	LaunchEngineKey  = "launch.engine"
	SshUserKey       = "ssh.user"
	SshPortKey       = "ssh.port"
	DlvPortKey       = "dlv.port"
)

// LaunchServiceSsh starts the debug target with a headless Delve server over ssh. It is the only launch service
// available outside of the IDE.
const LaunchServiceSsh = "ssh"

// LaunchSettings are the user settings used by `rdl launch`.
type LaunchSettings struct {
	Service string
	// Engine is the debug engine the launch targets.
	Engine  uuid.UUID
	SshUser string
	SshPort int
	DlvPort int
}

type launchSection struct {
	Service string `json:"service"`
	Engine  string `json:"engine"`
}

type sshSection struct {
	User string `json:"user"`
	Port int    `json:"port"`
}

type dlvSection struct {
	Port int `json:"port"`
}

// GetLaunchSettings reads the launch settings from c. Unset values are left at their zero value, except Service,
// which defaults to LaunchServiceSsh, and Engine, which defaults to debugengine.ManagedAndNative.
func GetLaunchSettings(c Config) (LaunchSettings, error) {
	var launch launchSection
	if _, err := c.GetSection("launch", &launch); err != nil {
		return LaunchSettings{}, fmt.Errorf("reading '%s': %w", LaunchServiceKey, err)
	}

	var ssh sshSection
	if _, err := c.GetSection("ssh", &ssh); err != nil {
		return LaunchSettings{}, fmt.Errorf("reading 'ssh': %w", err)
	}

	var dlv dlvSection
	if _, err := c.GetSection("dlv", &dlv); err != nil {
		return LaunchSettings{}, fmt.Errorf("reading 'dlv': %w", err)
	}

	settings := LaunchSettings{
		Service: launch.Service,
		SshUser: ssh.User,
		SshPort: ssh.Port,
		DlvPort: dlv.Port,
	}

	if settings.Service == "" {
		settings.Service = LaunchServiceSsh
	}

	if err := ValidateLaunchService(settings.Service); err != nil {
		return LaunchSettings{}, err
	}

	settings.Engine = debugengine.ManagedAndNative
	if launch.Engine != "" {
		engine, err := debugengine.Parse(launch.Engine)
		if err != nil {
			return LaunchSettings{}, fmt.Errorf("reading '%s': %w", LaunchEngineKey, err)
		}
		settings.Engine = engine
	}

	return settings, nil
}

// ValidateLaunchService returns an error when name is not a launch service usable from the command line.
func ValidateLaunchService(name string) error {
	supported := []string{LaunchServiceSsh}
	if !slices.Contains(supported, name) {
		return fmt.Errorf("unsupported launch service '%s', supported values: %s", name, strings.Join(supported, ", "))
	}

	return nil
}
