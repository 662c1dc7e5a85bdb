package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/marquee/internal/device"
	"github.com/hay-kot/marquee/internal/ingress"
	"github.com/hay-kot/marquee/internal/link"
	"github.com/hay-kot/marquee/internal/rotation"
	"github.com/hay-kot/marquee/pkg/executil"
)

const shutdownTimeout = 5 * time.Second

type ServeCmd struct {
	flags *Flags
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the display scheduler and HTTP ingress",
		UsageText: "marquee serve",
		Description: `Starts the link supervisor, the rotation loop, and the HTTP ingress.

The supervisor keeps the SSH forward to the display controller alive. The
rotation loop shows each queued message for the configured dwell time and
keeps the last one on screen when nothing else is waiting.

Stops cleanly on SIGINT or SIGTERM.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, _ *cli.Command) error {
	cfg, err := cmd.flags.LoadConfig()
	if err != nil {
		return err
	}

	for _, w := range cfg.Warnings() {
		log.Warn().Str("item", w.Item).Msg(w.Message)
	}

	argv, err := cfg.LinkCommand()
	if err != nil {
		return fmt.Errorf("render link command: %w", err)
	}

	var (
		client = &http.Client{Timeout: cfg.Link.HTTPTimeout}
		sup    = link.New(link.Options{
			LocalPort:         cfg.Link.LocalPort,
			Command:           argv,
			SettleTime:        cfg.Link.SettleTime,
			RetryInterval:     cfg.Link.RetryInterval,
			HeartbeatInterval: cfg.Link.HeartbeatInterval,
			RecheckInterval:   cfg.Link.RecheckInterval,
		}, client, &executil.RealExecutor{}, log.With().Str("component", "link").Logger())
		adapter = device.New(sup, client, device.Options{
			PresetID:     cfg.Device.PresetID,
			TextParamKey: cfg.Device.TextParamKey,
			Brightness:   cfg.Device.Brightness,
		}, log.With().Str("component", "device").Logger())
		sched = rotation.New(adapter, rotation.Options{
			Dwell:        cfg.Rotation.Dwell,
			TickInterval: cfg.Rotation.TickInterval,
		}, log.With().Str("component", "rotation").Logger())
		ingressLog = log.With().Str("component", "ingress").Logger()
	)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           ingress.NewServer(sched, ingressLog).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Go(func() { sup.Run(ctx) })
	wg.Go(func() { sched.Run(ctx) })

	serveErr := make(chan error, 1)
	go func() {
		ingressLog.Info().Str("addr", cfg.Listen).Msg("listening")
		serveErr <- srv.ListenAndServe()
	}()

	var listenErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			listenErr = fmt.Errorf("listen on %s: %w", cfg.Listen, err)
		}
	case <-ctx.Done():
		ingressLog.Info().Msg("shutting down")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		ingressLog.Warn().Err(err).Msg("shutdown")
	}

	wg.Wait()
	return listenErr
}
