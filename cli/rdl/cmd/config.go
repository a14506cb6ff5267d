// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/remote-debug/remote-debug/cli/rdl/cmd/actions"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/config"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/debugengine"
	"github.com/remote-debug/remote-debug/cli/rdl/pkg/output"
	"github.com/spf13/cobra"
)

var configLong = heredoc.Doc(`
	Manage the user configuration of rdl.

	The configuration is stored in config.json in the ~/.rdl directory. The directory can be changed with the
	RDL_CONFIG_DIR environment variable.

	Keys read by 'rdl launch':

	  launch.service  The launch service. Only 'ssh' is available.
	  launch.engine   The debug engine: managedAndNative (default), native, managed, or an engine id.
	  ssh.user        The remote user name.
	  ssh.port        The ssh port.
	  dlv.port        The port the remote debugger listens on (default 2345).
	`)

// Setup config command category
func configActions(root *actions.ActionDescriptor) *actions.ActionDescriptor {
	group := root.Add("config", &actions.ActionDescriptorOptions{
		Command: &cobra.Command{
			Use:   "config",
			Short: "Manage rdl configuration.",
			Long:  configLong,
		},
	})

	group.Add("show", &actions.ActionDescriptorOptions{
		Command: &cobra.Command{
			Use:   "show",
			Short: "Show all the configuration values.",
			Args:  cobra.NoArgs,
		},
		ActionResolver: newConfigShowAction,
		OutputFormats:  []output.Format{output.JsonFormat},
		DefaultFormat:  output.JsonFormat,
	})

	group.Add("get", &actions.ActionDescriptorOptions{
		Command: &cobra.Command{
			Use:   "get <path>",
			Short: "Gets a configuration.",
			Args:  cobra.ExactArgs(1),
		},
		ActionResolver: newConfigGetAction,
		OutputFormats:  []output.Format{output.JsonFormat},
		DefaultFormat:  output.JsonFormat,
	})

	group.Add("set", &actions.ActionDescriptorOptions{
		Command: &cobra.Command{
			Use:   "set <path> <value>",
			Short: "Sets a configuration.",
			Long:  "Sets a configuration. Values that parse as JSON, such as numbers, are stored as such.",
			Args:  cobra.ExactArgs(2),
		},
		ActionResolver: newConfigSetAction,
	})

	group.Add("unset", &actions.ActionDescriptorOptions{
		Command: &cobra.Command{
			Use:   "unset <path>",
			Short: "Unsets a configuration.",
			Args:  cobra.ExactArgs(1),
		},
		ActionResolver: newConfigUnsetAction,
	})

	return group
}

// rdl config show

type configShowAction struct {
	configManager config.UserConfigManager
	formatter     output.Formatter
	writer        io.Writer
}

func newConfigShowAction(
	configManager config.UserConfigManager, formatter output.Formatter, writer io.Writer) actions.Action {
	return &configShowAction{
		configManager: configManager,
		formatter:     formatter,
		writer:        writer,
	}
}

func (a *configShowAction) Run(ctx context.Context) (*actions.ActionResult, error) {
	rdlConfig, err := a.configManager.Load()
	if err != nil {
		return nil, err
	}

	values := rdlConfig.Raw()

	if a.formatter.Kind() == output.JsonFormat {
		err := a.formatter.Format(values, a.writer)
		if err != nil {
			return nil, fmt.Errorf("failing formatting config values: %w", err)
		}
	}

	return nil, nil
}

// rdl config get <path>

type configGetAction struct {
	configManager config.UserConfigManager
	formatter     output.Formatter
	writer        io.Writer
	args          []string
}

func newConfigGetAction(
	configManager config.UserConfigManager,
	formatter output.Formatter,
	writer io.Writer,
	args []string,
) actions.Action {
	return &configGetAction{
		configManager: configManager,
		formatter:     formatter,
		writer:        writer,
		args:          args,
	}
}

func (a *configGetAction) Run(ctx context.Context) (*actions.ActionResult, error) {
	rdlConfig, err := a.configManager.Load()
	if err != nil {
		return nil, err
	}

	key := a.args[0]
	value, ok := rdlConfig.Get(key)
	if !ok {
		return nil, fmt.Errorf("no value stored at path '%s'", key)
	}

	if a.formatter.Kind() == output.JsonFormat {
		err := a.formatter.Format(value, a.writer)
		if err != nil {
			return nil, fmt.Errorf("failing formatting config values: %w", err)
		}
	}

	return nil, nil
}

// rdl config set <path> <value>

type configSetAction struct {
	configManager config.UserConfigManager
	args          []string
}

func newConfigSetAction(configManager config.UserConfigManager, args []string) actions.Action {
	return &configSetAction{
		configManager: configManager,
		args:          args,
	}
}

func (a *configSetAction) Run(ctx context.Context) (*actions.ActionResult, error) {
	rdlConfig, err := a.configManager.Load()
	if err != nil {
		return nil, err
	}

	path := a.args[0]
	value := configValue(a.args[1])

	switch path {
	case config.LaunchServiceKey:
		service, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("'%s' must be a string", path)
		}
		if err := config.ValidateLaunchService(service); err != nil {
			return nil, err
		}
	case config.LaunchEngineKey:
		engine, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("'%s' must be a string", path)
		}
		if _, err := debugengine.Parse(engine); err != nil {
			return nil, err
		}
	}

	err = rdlConfig.Set(path, value)
	if err != nil {
		return nil, fmt.Errorf("failed setting configuration value '%s' to '%s'. %w", path, a.args[1], err)
	}

	err = a.configManager.Save(rdlConfig)
	if err != nil {
		return nil, fmt.Errorf("failed saving configuration. %w", err)
	}

	return nil, nil
}

// configValue is the JSON value in raw, or raw as a string when it is not JSON.
func configValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}

	return value
}

// rdl config unset <path>

type configUnsetAction struct {
	configManager config.UserConfigManager
	args          []string
}

func newConfigUnsetAction(configManager config.UserConfigManager, args []string) actions.Action {
	return &configUnsetAction{
		configManager: configManager,
		args:          args,
	}
}

func (a *configUnsetAction) Run(ctx context.Context) (*actions.ActionResult, error) {
	rdlConfig, err := a.configManager.Load()
	if err != nil {
		return nil, err
	}

	path := a.args[0]

	err = rdlConfig.Unset(path)
	if err != nil {
		return nil, fmt.Errorf("failed removing configuration with path '%s'. %w", path, err)
	}

	err = a.configManager.Save(rdlConfig)
	if err != nil {
		return nil, fmt.Errorf("failed saving configuration. %w", err)
	}

	return nil, nil
}
