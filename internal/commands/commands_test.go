package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/marquee/internal/core/display"
	"github.com/hay-kot/marquee/internal/ingress"
	"github.com/hay-kot/marquee/internal/printer"
	"github.com/hay-kot/marquee/internal/rotation"
)

type nopApplier struct{}

func (nopApplier) Apply(context.Context, string, string) error { return nil }

type harness struct {
	sched  *rotation.Scheduler
	flags  *Flags
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	sched := rotation.New(nopApplier{}, rotation.Options{Dwell: time.Minute}, zerolog.New(io.Discard))
	srv := httptest.NewServer(ingress.NewServer(sched, zerolog.New(io.Discard)).Handler())
	t.Cleanup(srv.Close)

	return &harness{
		sched:  sched,
		flags:  &Flags{Server: srv.URL},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()

	app := &cli.Command{Name: "marquee", Writer: h.stdout}
	app = NewSendCmd(h.flags).Register(app)
	app = NewQueueCmd(h.flags).Register(app)
	app = NewRmCmd(h.flags).Register(app)

	ctx := printer.NewContext(context.Background(), printer.New(h.stderr))
	return app.Run(ctx, append([]string{"marquee"}, args...))
}

func TestSendQueueRm(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "send", "--color", "#ff0000", "deploy", "finished"))
	assert.Contains(t, h.stderr.String(), "Queued message 1")

	require.NoError(t, h.run(t, "send", "lunch"))
	assert.Contains(t, h.stderr.String(), "Queued message 2")

	h.sched.Tick(context.Background())

	h.stdout.Reset()
	require.NoError(t, h.run(t, "queue", "--json"))

	var snap display.Snapshot
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &snap))
	require.NotNil(t, snap.Current)
	assert.Equal(t, "deploy finished", snap.Current.Text)
	assert.Equal(t, "#ff0000", snap.Current.Color)
	assert.Equal(t, []display.Item{{ID: 2, Text: "lunch"}}, snap.Items)

	h.stdout.Reset()
	require.NoError(t, h.run(t, "queue"))
	table := h.stdout.String()
	assert.Contains(t, table, "ID")
	assert.Contains(t, table, "showing")
	assert.Contains(t, table, "queued #1")
	assert.Contains(t, table, "default")

	require.NoError(t, h.run(t, "rm", "2"))
	assert.Contains(t, h.stderr.String(), "Removed message 2")
	assert.Empty(t, h.sched.Snapshot().Items)
}

func TestSend_InvalidText(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, "send", strings.Repeat("x", display.MaxTextLength+1))
	require.Error(t, err)
	assert.ErrorIs(t, err, display.ErrInvalidInput)
}

func TestQueue_Empty(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "queue"))
	assert.Empty(t, h.stdout.String())
	assert.Contains(t, h.stderr.String(), "Nothing on the display")
}

func TestRm_BadArgs(t *testing.T) {
	h := newHarness(t)

	assert.Error(t, h.run(t, "rm"))
	assert.Error(t, h.run(t, "rm", "abc"))
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/marquee/config.yaml", DefaultConfigPath())
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// closedPort returns a local port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestFlags_LoadConfig(t *testing.T) {
	t.Setenv("MARQUEE_SSH_USER", "pi")

	flags := &Flags{ConfigPath: writeConfigFile(t, "link:\n  ssh_host: gateway.example\n")}
	cfg, err := flags.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "gateway.example", cfg.Link.SSHHost)
	assert.Equal(t, "pi", cfg.Link.SSHUser)
	assert.Equal(t, 128, cfg.Device.Brightness)

	argv, err := cfg.LinkCommand()
	require.NoError(t, err)
	assert.Equal(t, "pi@gateway.example", argv[len(argv)-1])
}

func TestFlags_LoadConfigInvalid(t *testing.T) {
	t.Setenv("MARQUEE_SSH_HOST", "")

	flags := &Flags{ConfigPath: writeConfigFile(t, "device:\n  port: 0\n")}
	_, err := flags.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config: invalid config")
	assert.Contains(t, err.Error(), "link.ssh_host")
}

func TestDoctor_JSON(t *testing.T) {
	t.Setenv("MARQUEE_SSH_HOST", "")

	path := writeConfigFile(t, `
link:
  ssh_host: gateway.example
  ssh_user: pi
  local_port: `+strconv.Itoa(closedPort(t))+`
  http_timeout: 500ms
  command: ["marquee-no-such-forwarder", "{{ .Target }}"]
`)

	var out bytes.Buffer
	flags := &Flags{ConfigPath: path}
	app := &cli.Command{Name: "marquee", Writer: &out}
	app = NewDoctorCmd(flags).Register(app)

	require.NoError(t, app.Run(context.Background(), []string{"marquee", "doctor", "--format", "json"}))

	var report struct {
		Healthy bool `json:"healthy"`
		Checks  []struct {
			Name  string `json:"name"`
			Items []struct {
				Label  string `json:"label"`
				Status string `json:"status"`
			} `json:"items"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))

	assert.False(t, report.Healthy, "forwarder binary is missing")
	require.Len(t, report.Checks, 3)
	assert.Equal(t, "Configuration", report.Checks[0].Name)
	assert.Equal(t, "pass", report.Checks[0].Items[0].Status)

	assert.Equal(t, "Link", report.Checks[1].Name)
	assert.Equal(t, "marquee-no-such-forwarder", report.Checks[1].Items[0].Label)
	assert.Equal(t, "fail", report.Checks[1].Items[0].Status)

	assert.Equal(t, "Device", report.Checks[2].Name)
	assert.Equal(t, "warn", report.Checks[2].Items[0].Status)
}
