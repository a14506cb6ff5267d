//go:build mage
// +build mage

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

type RDL mg.Namespace

func (r RDL) Build(ctx context.Context) error {
	cmdStr, cmd := runIn(
		".",
		"go",
		"build",
		"-ldflags",
		fmt.Sprintf("-X 'github.com/remote-debug/remote-debug/cli/rdl/internal.Version=%s'", version()),
		"-o",
		"./bin/rdl",
		"./cli/rdl",
	)
	fmt.Println(cmdStr)
	return cmd()
}

func (r RDL) Test(ctx context.Context) error {
	cmdStr, cmd := runIn(
		".",
		"go",
		"test",
		"./cli/rdl/...",
	)
	fmt.Println(cmdStr)
	return cmd()
}

// version is the value of internal.Version for a build: RDL_VERSION and RDL_COMMIT, or a dev version.
func version() string {
	ver := os.Getenv("RDL_VERSION")
	if ver == "" {
		ver = "0.0.0-dev.0"
	}

	commit := os.Getenv("RDL_COMMIT")
	if commit == "" {
		commit = "0000000000000000000000000000000000000000"
	}

	return fmt.Sprintf("%s (commit %s)", ver, commit)
}

func runIn(cwd string, cmd string, args ...string) (string, func() error) {
	c := exec.Command(cmd, args...)
	c.Dir = cwd
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.String(), func() error {
		return c.Run()
	}
}
