package doctor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/hay-kot/marquee/pkg/executil"
)

// Prober reports whether the forwarded port answers.
type Prober interface {
	Reachable(ctx context.Context) bool
	BaseURL() string
}

// LinkCheck verifies the forwarding command can run and whether the link is up.
type LinkCheck struct {
	argv     []string
	lookPath func(string) (string, error)
	exec     executil.Executor
	prober   Prober
}

// NewLinkCheck creates a new link check for the rendered command argv.
func NewLinkCheck(argv []string, lookPath func(string) (string, error), exec executil.Executor, prober Prober) *LinkCheck {
	return &LinkCheck{argv: argv, lookPath: lookPath, exec: exec, prober: prober}
}

func (c *LinkCheck) Name() string {
	return "Link"
}

func (c *LinkCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if len(c.argv) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "Command",
			Status: StatusFail,
			Detail: "link.command is empty",
		})
	} else if path, err := c.lookPath(c.argv[0]); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  c.argv[0],
			Status: StatusFail,
			Detail: "not found in PATH",
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  c.argv[0],
			Status: StatusPass,
			Detail: path,
		})
		result.Items = append(result.Items, CheckItem{
			Label:  "Command",
			Status: StatusPass,
			Detail: strings.Join(c.argv, " "),
		})
		if filepath.Base(c.argv[0]) == "ssh" {
			result.Items = append(result.Items, c.sshVersion(ctx))
		}
	}

	if c.prober.Reachable(ctx) {
		result.Items = append(result.Items, CheckItem{
			Label:  "Forward",
			Status: StatusPass,
			Detail: c.prober.BaseURL() + " is up",
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "Forward",
			Status: StatusWarn,
			Detail: c.prober.BaseURL() + " is down; serve will start it",
		})
	}

	return result
}

// sshVersion reports `ssh -V`, which prints to stderr and exits 0.
func (c *LinkCheck) sshVersion(ctx context.Context) CheckItem {
	out, err := c.exec.Run(ctx, c.argv[0], "-V")
	if err != nil {
		return CheckItem{Label: "Version", Status: StatusWarn, Detail: err.Error()}
	}

	version, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return CheckItem{Label: "Version", Status: StatusPass, Detail: version}
}
