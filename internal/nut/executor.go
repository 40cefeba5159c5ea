// Package nut runs the Network UPS Tools command-line programs (upsc, upscmd,
// upsdrvctl) and returns their text output unchanged.
package nut

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// Executor runs an external program and returns its captured output streams.
// err is non-nil when the program could not be started or exited non-zero.
type Executor interface {
	RunCommand(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// Compile-time interface check.
var _ Executor = (*OSExecutor)(nil)

// DefaultWaitDelay bounds how long RunCommand waits for output pipes after the
// context is done and the process has been killed.
const DefaultWaitDelay = 2 * time.Second

// OSExecutor implements Executor with os/exec. Arguments are passed as a list,
// never through a shell.
type OSExecutor struct {
	// WaitDelay overrides DefaultWaitDelay when positive.
	WaitDelay time.Duration
}

// RunCommand starts name with args, waits for it to exit and returns what it
// wrote to stdout and stderr. Once ctx is done the process is killed, and a
// descendant still holding its pipes is abandoned after the wait delay.
func (e OSExecutor) RunCommand(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = DefaultWaitDelay
	if e.WaitDelay > 0 {
		cmd.WaitDelay = e.WaitDelay
	}

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
