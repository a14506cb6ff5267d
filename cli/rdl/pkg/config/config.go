// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package config stores user wide settings of rdl, such as the launch service to use from the command line and the
// ports it connects to. Settings of a single solution live in the solution's RemoteDebug.xml instead.
package config

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Config is the rdl configuration of the current user.
// Configuration data is stored in the user's home directory @ ~/.rdl/config.json
type Config interface {
	Raw() map[string]any
	Get(path string) (any, bool)
	GetString(path string) (string, bool)
	GetSection(path string, section any) (bool, error)
	Set(path string, value any) error
	Unset(path string) error
	IsEmpty() bool
	// Paths returns the path of every leaf value, sorted.
	Paths() []string
}

// NewEmptyConfig creates a empty configuration object.
func NewEmptyConfig() Config {
	return NewConfig(nil)
}

// NewConfig creates a configuration object populated with data. A nil map creates an empty configuration.
func NewConfig(data map[string]any) Config {
	if data == nil {
		data = map[string]any{}
	}

	return &config{
		data: data,
	}
}

type config struct {
	data map[string]any
}

// Returns a value indicating whether the configuration is empty
func (c *config) IsEmpty() bool {
	return len(c.data) == 0
}

// Gets the raw values stored in the configuration as a Go map
func (c *config) Raw() map[string]any {
	return c.data
}

func (c *config) Paths() []string {
	all := paths(c.data)
	slices.Sort(all)
	return all
}

// paths recursively traverses a map and returns the paths to its leaf nodes.
func paths(start map[string]any) []string {
	var all []string
	for path, value := range start {
		if node, isNode := value.(map[string]any); isNode {
			for _, child := range paths(node) {
				all = append(all, fmt.Sprintf("%s.%s", path, child))
			}
		} else {
			all = append(all, path)
		}
	}
	return all
}

// Sets a value at the specified location
func (c *config) Set(path string, value any) error {
	currentNode := c.data
	parts := strings.Split(path, ".")
	for depth, part := range parts {
		if depth == len(parts)-1 {
			currentNode[part] = value
			return nil
		}

		var node map[string]any
		existing, ok := currentNode[part]
		if !ok || existing == nil {
			node = map[string]any{}
		} else {
			node, ok = existing.(map[string]any)
			if !ok {
				return fmt.Errorf("failed converting node at path '%s' to map", part)
			}
		}

		currentNode[part] = node
		currentNode = node
	}

	return nil
}

// Removes any values stored at the specified path
// When the path location is an object will remove the whole node
// When the path does not exist this is a no-op
func (c *config) Unset(path string) error {
	currentNode := c.data
	parts := strings.Split(path, ".")
	for depth, part := range parts {
		if depth == len(parts)-1 {
			delete(currentNode, part)
			return nil
		}

		value, ok := currentNode[part]
		if !ok || value == nil {
			return nil
		}

		node, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("failed converting node at path '%s' to map", part)
		}

		currentNode = node
	}

	return nil
}

// Gets the value stored at the specified location
// Returns the value if exists, otherwise returns nil & a value indicating if the value existing
func (c *config) Get(path string) (any, bool) {
	currentNode := c.data
	parts := strings.Split(path, ".")
	for depth, part := range parts {
		value, ok := currentNode[part]
		if !ok {
			return nil, false
		}

		if depth == len(parts)-1 {
			return value, true
		}

		node, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}

		currentNode = node
	}

	return nil, false
}

// Gets the value stored at the specified location as a string
func (c *config) GetString(path string) (string, bool) {
	value, ok := c.Get(path)
	if !ok {
		return "", false
	}

	str, ok := value.(string)
	return str, ok
}

// GetSection decodes the node at path into section, which is a pointer to a struct with json tags.
func (c *config) GetSection(path string, section any) (bool, error) {
	sectionConfig, ok := c.Get(path)
	if !ok {
		return false, nil
	}

	jsonBytes, err := json.Marshal(sectionConfig)
	if err != nil {
		return true, fmt.Errorf("marshalling section config: %w", err)
	}

	if err := json.Unmarshal(jsonBytes, section); err != nil {
		return true, fmt.Errorf("unmarshalling section config: %w", err)
	}

	return true, nil
}
