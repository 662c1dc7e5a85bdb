package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/marquee/internal/core/display"
	"github.com/hay-kot/marquee/internal/printer"
)

type QueueCmd struct {
	flags *Flags
	json  bool
}

// NewQueueCmd creates a new queue command
func NewQueueCmd(flags *Flags) *QueueCmd {
	return &QueueCmd{flags: flags}
}

// Register adds the queue command to the application
func (cmd *QueueCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "queue",
		Aliases:     []string{"ls"},
		Usage:       "Show the current message and the queue",
		UsageText:   "marquee queue [--json]",
		Description: "Displays the message on screen, how long it has been showing, and the messages waiting behind it.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the raw snapshot as JSON",
				Destination: &cmd.json,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *QueueCmd) run(ctx context.Context, c *cli.Command) error {
	snap, err := cmd.flags.Client().Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("fetch queue: %w", err)
	}

	out := c.Root().Writer
	if cmd.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	if snap.Current == nil && len(snap.Items) == 0 {
		printer.Ctx(ctx).Infof("Nothing on the display")
		return nil
	}

	writeSnapshotTable(out, snap)
	return nil
}

func writeSnapshotTable(out io.Writer, snap display.Snapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATE\tCOLOR\tTEXT")

	if cur := snap.Current; cur != nil {
		elapsed := time.Duration(snap.ElapsedSeconds) * time.Second
		state := "showing " + elapsed.String()
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", cur.ID, state, colorCell(cur.Color), cur.Text)
	}

	for i, item := range snap.Items {
		state := "queued #" + strconv.Itoa(i+1)
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", item.ID, state, colorCell(item.Color), item.Text)
	}

	_ = w.Flush()
}

func colorCell(hex string) string {
	if hex == "" {
		return "default"
	}
	return hex
}
