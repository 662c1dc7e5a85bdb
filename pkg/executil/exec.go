// Package executil provides process execution utilities.
package executil

import (
	"context"
	"fmt"
	"os/exec"
)

// Executor runs external commands.
type Executor interface {
	// Run executes a command, waits for it, and returns its combined output.
	Run(ctx context.Context, cmd string, args ...string) ([]byte, error)
	// Start launches a command in the background and returns once it has
	// started. The process is not tied to ctx and is never waited on by the
	// caller.
	Start(ctx context.Context, cmd string, args ...string) error
}

// RealExecutor calls actual commands.
type RealExecutor struct{}

// Run executes a command and returns its combined output.
func (e *RealExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, cmd, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("exec %s: %w", cmd, err)
	}
	return out, nil
}

// Start launches a detached command with stdio discarded. The child is reaped
// in a background goroutine so it never lingers as a zombie.
func (e *RealExecutor) Start(_ context.Context, cmd string, args ...string) error {
	c := exec.Command(cmd, args...)
	if err := c.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd, err)
	}

	go func() { _ = c.Wait() }()

	return nil
}
