// Package config handles configuration loading and validation for marquee.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"

	"github.com/hay-kot/marquee/pkg/tmpl"
)

// Config holds the application configuration.
type Config struct {
	Listen   string         `yaml:"listen"`
	Link     LinkConfig     `yaml:"link"`
	Device   DeviceConfig   `yaml:"device"`
	Rotation RotationConfig `yaml:"rotation"`
}

// LinkConfig describes the SSH forward used to reach the device.
type LinkConfig struct {
	SSHHost   string `yaml:"ssh_host"`
	SSHUser   string `yaml:"ssh_user"`
	LocalPort int    `yaml:"local_port"`
	// Command is the forwarding process argv. Each element is a template
	// rendered with LinkTemplateData.
	Command           []string      `yaml:"command"`
	SettleTime        time.Duration `yaml:"settle_time"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	RecheckInterval   time.Duration `yaml:"recheck_interval"`
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
}

// DeviceConfig describes the display controller as seen from the SSH host.
type DeviceConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	TextParamKey string `yaml:"text_param_key"` // legacy /win?<key>=text, e.g. "TT"
	PresetID     *int   `yaml:"preset_id"`
	Brightness   int    `yaml:"brightness"`
}

// RotationConfig controls the message rotation timing.
type RotationConfig struct {
	Dwell        time.Duration `yaml:"dwell"`
	TickInterval time.Duration `yaml:"tick_interval"`
}

// LinkTemplateData defines available fields for link command templates.
type LinkTemplateData struct {
	LocalPort  int
	DeviceHost string
	DevicePort int
	SSHHost    string
	SSHUser    string
	Target     string // user@host, or host when no user is set
}

// Warning represents a non-fatal configuration issue.
type Warning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// DefaultLinkCommand is the ssh invocation used when link.command is unset.
var DefaultLinkCommand = []string{
	"ssh", "-NT",
	"-o", "ExitOnForwardFailure=yes",
	"-o", "ServerAliveInterval=10",
	"-o", "ServerAliveCountMax=3",
	"-L", "127.0.0.1:{{ .LocalPort }}:{{ .DeviceHost }}:{{ .DevicePort }}",
	"{{ .Target }}",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Listen: "0.0.0.0:8080",
		Link: LinkConfig{
			LocalPort:         18080,
			Command:           append([]string(nil), DefaultLinkCommand...),
			SettleTime:        400 * time.Millisecond,
			RetryInterval:     5 * time.Second,
			HeartbeatInterval: 10 * time.Second,
			RecheckInterval:   2 * time.Second,
			HTTPTimeout:       5 * time.Second,
		},
		Device: DeviceConfig{
			Host:       "127.0.0.1",
			Port:       80,
			Brightness: 128,
		},
		Rotation: RotationConfig{
			Dwell:        60 * time.Second,
			TickInterval: 900 * time.Millisecond,
		},
	}
}

// Load reads configuration from the given path, applies environment
// overrides from lookupEnv, and validates the result. If configPath is empty
// or doesn't exist, defaults are used as the base.
func Load(configPath string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg, err := Read(configPath, lookupEnv)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Read is Load without validation. doctor uses it to report every problem
// instead of stopping at the first invalid config.
func Read(configPath string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if lookupEnv != nil {
		if err := cfg.ApplyEnv(lookupEnv); err != nil {
			return nil, fmt.Errorf("apply environment: %w", err)
		}
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	d := DefaultConfig()

	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Link.LocalPort == 0 {
		c.Link.LocalPort = d.Link.LocalPort
	}
	if len(c.Link.Command) == 0 {
		c.Link.Command = d.Link.Command
	}
	if c.Link.SettleTime == 0 {
		c.Link.SettleTime = d.Link.SettleTime
	}
	if c.Link.RetryInterval == 0 {
		c.Link.RetryInterval = d.Link.RetryInterval
	}
	if c.Link.HeartbeatInterval == 0 {
		c.Link.HeartbeatInterval = d.Link.HeartbeatInterval
	}
	if c.Link.RecheckInterval == 0 {
		c.Link.RecheckInterval = d.Link.RecheckInterval
	}
	if c.Link.HTTPTimeout == 0 {
		c.Link.HTTPTimeout = d.Link.HTTPTimeout
	}
	if c.Device.Host == "" {
		c.Device.Host = d.Device.Host
	}
	if c.Device.Port == 0 {
		c.Device.Port = d.Device.Port
	}
	if c.Device.Brightness == 0 {
		c.Device.Brightness = d.Device.Brightness
	}
	if c.Rotation.Dwell == 0 {
		c.Rotation.Dwell = d.Rotation.Dwell
	}
	if c.Rotation.TickInterval == 0 {
		c.Rotation.TickInterval = d.Rotation.TickInterval
	}
}

// Environment variables that override file values.
const (
	EnvListen       = "MARQUEE_LISTEN"
	EnvSSHHost      = "MARQUEE_SSH_HOST"
	EnvSSHUser      = "MARQUEE_SSH_USER"
	EnvDeviceHost   = "MARQUEE_DEVICE_HOST"
	EnvDevicePort   = "MARQUEE_DEVICE_PORT"
	EnvLocalPort    = "MARQUEE_LOCAL_PORT"
	EnvTextParamKey = "MARQUEE_TEXT_PARAM_KEY"
	EnvTextPresetID = "MARQUEE_TEXT_PRESET_ID"
)

// ApplyEnv overrides configuration values from environment variables.
// Numeric variables that fail to parse are reported as errors.
func (c *Config) ApplyEnv(lookupEnv func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	var errs []error
	num := func(key string, set func(int)) {
		v, ok := lookupEnv(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a number", key, v))
			return
		}
		set(n)
	}

	str(EnvListen, &c.Listen)
	str(EnvSSHHost, &c.Link.SSHHost)
	str(EnvSSHUser, &c.Link.SSHUser)
	str(EnvDeviceHost, &c.Device.Host)
	str(EnvTextParamKey, &c.Device.TextParamKey)
	num(EnvDevicePort, func(n int) { c.Device.Port = n })
	num(EnvLocalPort, func(n int) { c.Link.LocalPort = n })
	num(EnvTextPresetID, func(n int) { c.Device.PresetID = &n })

	return errors.Join(errs...)
}

// Validate checks that the configuration is valid. Problems are reported as
// criterio.FieldErrors keyed by their YAML path.
func (c *Config) Validate() error {
	var errs criterio.FieldErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, criterio.FieldErrors{{Field: field, Err: fmt.Errorf(format, args...)}}...)
	}

	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		add("listen", "must be host:port: %v", err)
	}

	if c.Link.SSHHost == "" {
		add("link.ssh_host", "is required")
	}
	if !validPort(c.Link.LocalPort) {
		add("link.local_port", "must be between 1 and 65535, got %d", c.Link.LocalPort)
	}
	if len(c.Link.Command) == 0 {
		add("link.command", "cannot be empty")
	} else if _, err := c.LinkCommand(); err != nil {
		add("link.command", "template error: %v", err)
	}
	for _, d := range []struct {
		field string
		value time.Duration
	}{
		{"link.settle_time", c.Link.SettleTime},
		{"link.retry_interval", c.Link.RetryInterval},
		{"link.heartbeat_interval", c.Link.HeartbeatInterval},
		{"link.recheck_interval", c.Link.RecheckInterval},
		{"link.http_timeout", c.Link.HTTPTimeout},
		{"rotation.dwell", c.Rotation.Dwell},
		{"rotation.tick_interval", c.Rotation.TickInterval},
	} {
		if d.value < 0 {
			add(d.field, "cannot be negative")
		}
	}

	if c.Device.Host == "" {
		add("device.host", "is required")
	}
	if !validPort(c.Device.Port) {
		add("device.port", "must be between 1 and 65535, got %d", c.Device.Port)
	}
	if c.Device.Brightness < 1 || c.Device.Brightness > 255 {
		add("device.brightness", "must be between 1 and 255, got %d", c.Device.Brightness)
	}
	if c.Device.PresetID != nil && *c.Device.PresetID < 0 {
		add("device.preset_id", "cannot be negative")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []Warning {
	var warnings []Warning

	if c.Rotation.TickInterval >= c.Rotation.Dwell {
		warnings = append(warnings, Warning{
			Category: "Rotation",
			Item:     "tick_interval",
			Message:  fmt.Sprintf("tick interval %s is not shorter than dwell %s; messages will overstay", c.Rotation.TickInterval, c.Rotation.Dwell),
		})
	}

	if c.Link.SSHUser == "" {
		warnings = append(warnings, Warning{
			Category: "Link",
			Item:     "ssh_user",
			Message:  "no ssh_user set; the ssh client default user will be used",
		})
	}

	return warnings
}

// LinkTemplateData returns the data used to render link.command.
func (c *Config) LinkTemplateData() LinkTemplateData {
	target := c.Link.SSHHost
	if c.Link.SSHUser != "" {
		target = c.Link.SSHUser + "@" + c.Link.SSHHost
	}

	return LinkTemplateData{
		LocalPort:  c.Link.LocalPort,
		DeviceHost: c.Device.Host,
		DevicePort: c.Device.Port,
		SSHHost:    c.Link.SSHHost,
		SSHUser:    c.Link.SSHUser,
		Target:     target,
	}
}

// LinkCommand renders link.command into an argv.
func (c *Config) LinkCommand() ([]string, error) {
	return tmpl.RenderArgs(c.Link.Command, c.LinkTemplateData())
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
