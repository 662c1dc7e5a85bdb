package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/marquee/internal/tui"
)

type WatchCmd struct {
	flags *Flags
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags) *WatchCmd {
	return &WatchCmd{flags: flags}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "watch",
		Usage:       "Watch the display and queue live",
		UsageText:   "marquee watch",
		Description: "Opens a live view of the message on screen and the queue behind it. Press q to quit.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *WatchCmd) run(ctx context.Context, _ *cli.Command) error {
	model := tui.New(cmd.flags.Client(), tui.DefaultPollInterval)

	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run watch: %w", err)
	}
	return nil
}
