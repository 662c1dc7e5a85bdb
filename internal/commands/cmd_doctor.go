package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/marquee/internal/commands/doctor"
	"github.com/hay-kot/marquee/internal/core/config"
	"github.com/hay-kot/marquee/internal/link"
	"github.com/hay-kot/marquee/internal/printer"
	"github.com/hay-kot/marquee/pkg/executil"
)

type DoctorCmd struct {
	flags  *Flags
	format string
}

func NewDoctorCmd(flags *Flags) *DoctorCmd {
	return &DoctorCmd{flags: flags}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Check configuration, the SSH link, and the display controller",
		UsageText:   "marquee doctor [options]",
		Description: "Validates the config, checks the forwarding command, and, when the link is up, reports the effect and palette the device adapter will use.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	checks := cmd.checks()
	results := doctor.RunAll(ctx, checks)

	if cmd.format == "json" {
		return cmd.outputJSON(c, results)
	}

	return cmd.outputText(ctx, results)
}

// checks builds the check list. A config that cannot be read only gets the
// config check; the others need its values.
func (cmd *DoctorCmd) checks() []doctor.Check {
	cfg, err := config.Read(cmd.flags.ConfigPath, os.LookupEnv)
	if err != nil {
		return []doctor.Check{doctor.NewConfigCheck(nil, err)}
	}

	checks := []doctor.Check{doctor.NewConfigCheck(cfg, nil)}

	argv, err := cfg.LinkCommand()
	if err != nil {
		log.Debug().Err(err).Msg("render link command")
		argv = nil
	}

	var (
		executor = &executil.RealExecutor{}
		client   = &http.Client{Timeout: cfg.Link.HTTPTimeout}
		sup      = link.New(link.Options{LocalPort: cfg.Link.LocalPort, Command: argv}, client,
			executor, log.With().Str("component", "doctor").Logger())
	)

	return append(checks,
		doctor.NewLinkCheck(argv, exec.LookPath, executor, sup),
		doctor.NewDeviceCheck(client, sup),
	)
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, results []doctor.Result) error {
	passed, warned, failed := doctor.Summary(results)

	out := struct {
		Healthy bool            `json:"healthy"`
		Summary summaryJSON     `json:"summary"`
		Checks  []doctor.Result `json:"checks"`
	}{
		Healthy: failed == 0,
		Summary: summaryJSON{Passed: passed, Warned: warned, Failed: failed},
		Checks:  results,
	}

	enc := json.NewEncoder(c.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

type summaryJSON struct {
	Passed int `json:"passed"`
	Warned int `json:"warned"`
	Failed int `json:"failed"`
}

func (cmd *DoctorCmd) outputText(ctx context.Context, results []doctor.Result) error {
	p := printer.Ctx(ctx)

	for _, result := range results {
		p.Section(result.Name)

		for _, item := range result.Items {
			switch item.Status {
			case doctor.StatusPass:
				p.CheckItem(item.Label, item.Detail)
			case doctor.StatusWarn:
				p.WarnItem(item.Label, item.Detail)
			case doctor.StatusFail:
				p.FailItem(item.Label, item.Detail)
			}
		}

		p.Printf("")
	}

	passed, warned, failed := doctor.Summary(results)
	p.Printf("Summary: %d passed, %d warnings, %d failed", passed, warned, failed)

	if failed > 0 {
		return cli.Exit("", 1)
	}

	return nil
}
