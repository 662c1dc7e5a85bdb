package executil

import (
	"context"
	"slices"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Cmd        string
	Args       []string
	Background bool
}

// RecordingExecutor captures commands for testing.
// Configure Outputs and Errors maps to control return values.
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand

	// Outputs maps command names to their output.
	// Key is the command name (e.g., "ssh").
	Outputs map[string][]byte

	// Errors maps command names to their error.
	Errors map[string]error

	// OnStart is called after a background command is recorded.
	OnStart func(cmd string, args []string)
}

// Run records the command and returns configured output/error.
func (e *RecordingExecutor) Run(_ context.Context, cmd string, args ...string) ([]byte, error) {
	return e.record(false, cmd, args...)
}

// Start records the command as a background launch and returns the configured error.
func (e *RecordingExecutor) Start(_ context.Context, cmd string, args ...string) error {
	_, err := e.record(true, cmd, args...)
	if err == nil && e.OnStart != nil {
		e.OnStart(cmd, args)
	}
	return err
}

func (e *RecordingExecutor) record(background bool, cmd string, args ...string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Commands = append(e.Commands, RecordedCommand{
		Cmd:        cmd,
		Args:       slices.Clone(args),
		Background: background,
	})

	var out []byte
	var err error

	if e.Outputs != nil {
		out = e.Outputs[cmd]
	}
	if e.Errors != nil {
		err = e.Errors[cmd]
	}

	return out, err
}

// Started returns the commands launched in the background.
func (e *RecordingExecutor) Started() []RecordedCommand {
	e.mu.Lock()
	defer e.mu.Unlock()

	var started []RecordedCommand
	for _, c := range e.Commands {
		if c.Background {
			started = append(started, c)
		}
	}
	return started
}

// Reset clears recorded commands.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
}
