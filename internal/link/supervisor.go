// Package link keeps the forwarded path to the display controller alive.
package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/marquee/pkg/executil"
)

// ErrLinkUnavailable is returned when the forwarding process cannot be launched.
var ErrLinkUnavailable = errors.New("link unavailable")

// Options configures a Supervisor.
type Options struct {
	// LocalPort is the local end of the forward.
	LocalPort int
	// Command is the rendered argv of the forwarding process.
	Command []string

	SettleTime        time.Duration // wait after launching before assuming the link is usable
	RetryInterval     time.Duration // wait after a failed Ensure
	HeartbeatInterval time.Duration // wait after a successful heartbeat
	RecheckInterval   time.Duration // wait after a failed heartbeat
}

// Supervisor establishes and health-checks the forward. It has two states,
// up and down, and re-probes on every call rather than tracking either.
type Supervisor struct {
	opts     Options
	client   *http.Client
	executor executil.Executor
	log      zerolog.Logger
	base     string

	mu    sync.Mutex
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a new Supervisor.
func New(opts Options, client *http.Client, exec executil.Executor, log zerolog.Logger) *Supervisor {
	return &Supervisor{
		opts:     opts,
		client:   client,
		executor: exec,
		log:      log,
		base:     "http://127.0.0.1:" + strconv.Itoa(opts.LocalPort),
		sleep:    sleepCtx,
	}
}

// BaseURL returns the local address that forwards to the device.
func (s *Supervisor) BaseURL() string {
	return s.base
}

// Reachable probes the local end of the forward. Any HTTP response counts
// as reachable.
func (s *Supervisor) Reachable(ctx context.Context) bool {
	return s.get(ctx, "/") == nil
}

// Heartbeat issues a request to the device's JSON API through the forward.
func (s *Supervisor) Heartbeat(ctx context.Context) error {
	return s.get(ctx, "/json")
}

// Ensure makes the link reachable. If the probe fails, a new forwarding
// process is launched and Ensure returns after the settle time, assuming the
// link is usable. Calls are serialized so concurrent callers never launch two
// processes.
func (s *Supervisor) Ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Reachable(ctx) {
		return nil
	}

	if len(s.opts.Command) == 0 {
		return fmt.Errorf("%w: no forwarding command configured", ErrLinkUnavailable)
	}

	s.log.Info().
		Strs("command", s.opts.Command).
		Int("local_port", s.opts.LocalPort).
		Msg("starting forwarding process")

	if err := s.executor.Start(ctx, s.opts.Command[0], s.opts.Command[1:]...); err != nil {
		return fmt.Errorf("%w: %w", ErrLinkUnavailable, err)
	}

	return s.sleep(ctx, s.opts.SettleTime)
}

// Run supervises the link until ctx is done.
func (s *Supervisor) Run(ctx context.Context) {
	s.log.Debug().Msg("link supervisor started")

	for {
		wait := s.cycle(ctx)
		if err := s.sleep(ctx, wait); err != nil {
			s.log.Debug().Msg("link supervisor stopped")
			return
		}
	}
}

// cycle runs one supervision step and returns how long to wait before the next.
func (s *Supervisor) cycle(ctx context.Context) time.Duration {
	if err := s.Ensure(ctx); err != nil {
		s.log.Error().Err(err).Msg("link error")
		return s.opts.RetryInterval
	}

	if err := s.Heartbeat(ctx); err != nil {
		s.log.Warn().Err(err).Msg("heartbeat failed")
		return s.opts.RecheckInterval
	}

	return s.opts.HeartbeatInterval
}

func (s *Supervisor) get(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+path, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
