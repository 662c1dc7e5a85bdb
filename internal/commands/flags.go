package commands

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hay-kot/marquee/internal/core/config"
	"github.com/hay-kot/marquee/internal/ingress"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string

	// Server is the base URL of a running `marquee serve`, used by the
	// client commands.
	Server string
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "marquee", "config.yaml")
}

// LoadConfig loads and validates the config. Only the commands that talk to
// the device need it; the client commands only need Server.
func (f *Flags) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.ConfigPath, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Client returns an ingress client for the configured server.
func (f *Flags) Client() *ingress.Client {
	return ingress.NewClient(f.Server, &http.Client{Timeout: 10 * time.Second})
}
