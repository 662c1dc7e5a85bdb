package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/marquee/internal/printer"
)

type RmCmd struct {
	flags *Flags
}

// NewRmCmd creates a new rm command
func NewRmCmd(flags *Flags) *RmCmd {
	return &RmCmd{flags: flags}
}

// Register adds the rm command to the application
func (cmd *RmCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "rm",
		Usage:     "Remove a message",
		UsageText: "marquee rm <id>",
		Description: `Removes a message from the queue by id.

Removing the message on screen clears the slot; the next queued message is
shown on the following tick. Unknown ids are ignored.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *RmCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return errors.New("expected exactly one message id")
	}

	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", c.Args().First(), err)
	}

	if err := cmd.flags.Client().Remove(ctx, id); err != nil {
		return fmt.Errorf("remove %d: %w", id, err)
	}

	printer.Ctx(ctx).Successf("Removed message %d", id)
	return nil
}
