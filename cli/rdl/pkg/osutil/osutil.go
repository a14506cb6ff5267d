// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package osutil

import (
	"os"
	"strconv"
)

const (
	PermissionDirectory os.FileMode = 0755
	PermissionFile      os.FileMode = 0644

	PermissionDirectoryOwnerOnly os.FileMode = 0700
	PermissionFileOwnerOnly      os.FileMode = 0600

	PermissionMaskDirectoryExecute os.FileMode = 0100
)

// GetenvBool returns the boolean value of the environment variable named key, as parsed by [strconv.ParseBool].
// The second return value is false when the variable is unset or cannot be parsed.
func GetenvBool(key string) (bool, bool) {
	value, has := os.LookupEnv(key)
	if !has {
		return false, false
	}

	on, err := strconv.ParseBool(value)
	if err != nil {
		return false, false
	}

	return on, true
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
