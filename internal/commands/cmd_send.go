package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/marquee/internal/core/display"
	"github.com/hay-kot/marquee/internal/core/validate"
	"github.com/hay-kot/marquee/internal/device"
	"github.com/hay-kot/marquee/internal/printer"
)

type SendCmd struct {
	flags *Flags
	color string
}

// NewSendCmd creates a new send command
func NewSendCmd(flags *Flags) *SendCmd {
	return &SendCmd{flags: flags}
}

// Register adds the send command to the application
func (cmd *SendCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "send",
		Usage:     "Submit a message to the display",
		UsageText: "marquee send [options] [text...]",
		Description: `Submits a message to a running marquee server.

If nothing is on screen the message is shown immediately, otherwise it is
queued. With no text and an interactive terminal, a form is opened.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "color",
				Usage:       "text color as #rrggbb",
				Destination: &cmd.color,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *SendCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	text := strings.Join(c.Args().Slice(), " ")
	if text == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("no text given")
		}

		var err error
		text, err = cmd.form()
		if err != nil {
			return err
		}
	}

	receipt, err := cmd.flags.Client().Submit(ctx, text, cmd.color)
	if err != nil {
		if errors.Is(err, display.ErrInvalidInput) {
			return fmt.Errorf("server rejected message: %w", err)
		}
		return fmt.Errorf("submit: %w", err)
	}

	switch receipt.Outcome {
	case display.OutcomeSwitched:
		p.Successf("Showing message %d", receipt.ID)
	default:
		p.Successf("Queued message %d", receipt.ID)
	}
	return nil
}

// form prompts for the message text and, unless --color was given, a color.
func (cmd *SendCmd) form() (string, error) {
	var text string

	fields := []huh.Field{
		huh.NewInput().
			Title("Message").
			CharLimit(display.MaxTextLength).
			Validate(func(s string) error {
				_, err := validate.MessageText(s)
				return err
			}).
			Value(&text),
	}

	if cmd.color == "" {
		fields = append(fields, huh.NewInput().
			Title("Color").
			Description("#rrggbb, blank for the default").
			Validate(func(s string) error {
				if s == "" {
					return nil
				}
				if _, ok := device.ParseColor(s); !ok {
					return fmt.Errorf("%q is not a #rrggbb color", s)
				}
				return nil
			}).
			Value(&cmd.color))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return "", err
	}
	return text, nil
}
