package commands

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

//go:embed docs/api.md
var apiDoc string

const docWrapWidth = 80

type DocCmd struct {
	flags *Flags
	raw   bool
}

func NewDocCmd(flags *Flags) *DocCmd {
	return &DocCmd{flags: flags}
}

func (cmd *DocCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "doc",
		Usage: "Reference documentation",
		Description: `Access reference documentation for marquee.

Use 'marquee doc api' to see the HTTP API used by 'send', 'queue', and 'rm'.`,
		Commands: []*cli.Command{
			cmd.apiCmd(),
		},
	})
	return app
}

func (cmd *DocCmd) apiCmd() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Show the HTTP API reference",
		Description: `Outputs the HTTP API reference.

Rendered for the terminal when stdout is a TTY; use --raw for markdown.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "print markdown without rendering",
				Destination: &cmd.raw,
			},
		},
		Action: cmd.runAPI,
	}
}

func (cmd *DocCmd) runAPI(_ context.Context, c *cli.Command) error {
	w := c.Root().Writer
	if cmd.raw || !term.IsTerminal(int(os.Stdout.Fd())) {
		_, err := io.WriteString(w, apiDoc)
		return err
	}
	return renderMarkdown(w, apiDoc, docWrapWidth)
}

func renderMarkdown(w io.Writer, md string, width int) error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("tokyo-night"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	out, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}

	_, err = io.WriteString(w, out)
	return err
}
