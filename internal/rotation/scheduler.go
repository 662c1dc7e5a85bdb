// Package rotation schedules messages onto the display one at a time.
package rotation

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/marquee/internal/core/display"
	"github.com/hay-kot/marquee/internal/core/validate"
)

const (
	// DefaultDwell is how long a message stays before the next may replace it.
	DefaultDwell = 60 * time.Second
	// DefaultTickInterval is the rotation loop period.
	DefaultTickInterval = 900 * time.Millisecond
)

// Applier puts a message on the device.
type Applier interface {
	Apply(ctx context.Context, text, color string) error
}

// Options configures a Scheduler. Zero values take the defaults.
type Options struct {
	Dwell        time.Duration
	TickInterval time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Scheduler owns the pending queue and the current slot.
//
// The current slot and the queue are guarded separately. When both are
// needed the current lock is taken first. Device calls are made only after
// the locks are released.
type Scheduler struct {
	applier Applier
	log     zerolog.Logger
	dwell   time.Duration
	tick    time.Duration
	now     func() time.Time

	curMu   sync.Mutex
	current *display.Current
	nextID  uint64 // guarded by curMu so ids follow queue order

	queueMu sync.Mutex
	queue   []display.QueuedMessage
}

// New creates a new Scheduler.
func New(applier Applier, opts Options, log zerolog.Logger) *Scheduler {
	s := &Scheduler{
		applier: applier,
		log:     log,
		dwell:   opts.Dwell,
		tick:    opts.TickInterval,
		now:     opts.Now,
	}

	if s.dwell <= 0 {
		s.dwell = DefaultDwell
	}
	if s.tick <= 0 {
		s.tick = DefaultTickInterval
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// Submit validates text and either queues it or, when the current message
// has already used its dwell time, shows it immediately.
func (s *Scheduler) Submit(ctx context.Context, text, color string) (display.Receipt, error) {
	text, err := validate.MessageText(text)
	if err != nil {
		return display.Receipt{}, err
	}

	cur, receipt, depth := s.admit(text, color)
	if receipt.Outcome == display.OutcomeSwitched {
		s.log.Info().Uint64("id", cur.ID).Msg("dwell elapsed, switching immediately")
		s.applyBestEffort(ctx, cur)
		return receipt, nil
	}

	s.log.Debug().Uint64("id", receipt.ID).Int("depth", depth).Msg("message queued")
	return receipt, nil
}

// admit allocates an id and either installs the message as current, when the
// current message has shown for at least the dwell time, or appends it to the
// queue. The id is allocated and placed under curMu, so queue order always
// matches id order.
func (s *Scheduler) admit(text, color string) (display.Current, display.Receipt, int) {
	s.curMu.Lock()
	defer s.curMu.Unlock()

	s.nextID++
	now := s.now()
	msg := display.QueuedMessage{
		ID:         s.nextID,
		Text:       text,
		Color:      color,
		EnqueuedAt: now,
	}

	if s.current != nil && s.current.Elapsed(now) >= s.dwell {
		cur := msg.Promote(now)
		s.current = &cur
		return cur, display.Receipt{ID: msg.ID, Outcome: display.OutcomeSwitched}, 0
	}

	s.queueMu.Lock()
	s.queue = append(s.queue, msg)
	depth := len(s.queue)
	s.queueMu.Unlock()

	return display.Current{}, display.Receipt{ID: msg.ID, Outcome: display.OutcomeQueued}, depth
}

// Tick advances the rotation once: an empty slot is filled from the queue,
// then a slot past its dwell time is replaced by the queue head. With an
// empty queue the current message stays up.
func (s *Scheduler) Tick(ctx context.Context) {
	if cur, ok := s.fill(); ok {
		s.log.Debug().Uint64("id", cur.ID).Msg("showing next message")
		s.applyBestEffort(ctx, cur)
	}

	if cur, ok := s.advance(); ok {
		s.log.Debug().Uint64("id", cur.ID).Msg("dwell elapsed, advancing")
		s.applyBestEffort(ctx, cur)
	}
}

func (s *Scheduler) fill() (display.Current, bool) {
	s.curMu.Lock()
	defer s.curMu.Unlock()

	if s.current != nil {
		return display.Current{}, false
	}

	next, ok := s.pop()
	if !ok {
		return display.Current{}, false
	}

	cur := next.Promote(s.now())
	s.current = &cur
	return cur, true
}

func (s *Scheduler) advance() (display.Current, bool) {
	s.curMu.Lock()
	defer s.curMu.Unlock()

	if s.current == nil {
		return display.Current{}, false
	}

	now := s.now()
	if s.current.Elapsed(now) < s.dwell {
		return display.Current{}, false
	}

	next, ok := s.pop()
	if !ok {
		return display.Current{}, false
	}

	cur := next.Promote(now)
	s.current = &cur
	return cur, true
}

// pop removes the queue head. Callers hold curMu.
func (s *Scheduler) pop() (display.QueuedMessage, bool) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	if len(s.queue) == 0 {
		return display.QueuedMessage{}, false
	}

	head := s.queue[0]
	s.queue = slices.Delete(s.queue, 0, 1)
	return head, true
}

// Remove deletes the message with id from the queue and clears the current
// slot if it holds that message. The device is not blanked; the next tick
// shows the following message. Unknown ids are ignored.
func (s *Scheduler) Remove(id uint64) {
	s.queueMu.Lock()
	before := len(s.queue)
	s.queue = slices.DeleteFunc(s.queue, func(m display.QueuedMessage) bool { return m.ID == id })
	removed := before - len(s.queue)
	s.queueMu.Unlock()

	s.curMu.Lock()
	cleared := s.current != nil && s.current.ID == id
	if cleared {
		s.current = nil
	}
	s.curMu.Unlock()

	s.log.Info().
		Uint64("id", id).
		Int("queued_removed", removed).
		Bool("current_cleared", cleared).
		Msg("message removed")
}

// Snapshot returns the current message, how long it has shown, and the queue
// in order.
func (s *Scheduler) Snapshot() display.Snapshot {
	var snap display.Snapshot

	s.curMu.Lock()
	if s.current != nil {
		snap.Current = &display.Item{ID: s.current.ID, Text: s.current.Text, Color: s.current.Color}
		if elapsed := s.current.Elapsed(s.now()); elapsed > 0 {
			snap.ElapsedSeconds = uint64(elapsed / time.Second)
		}
	}
	s.curMu.Unlock()

	s.queueMu.Lock()
	snap.Items = make([]display.Item, 0, len(s.queue))
	for _, m := range s.queue {
		snap.Items = append(snap.Items, display.Item{ID: m.ID, Text: m.Text, Color: m.Color})
	}
	s.queueMu.Unlock()

	return snap
}

// Run ticks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Debug().Dur("interval", s.tick).Dur("dwell", s.dwell).Msg("rotation started")

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		s.Tick(ctx)

		select {
		case <-ctx.Done():
			s.log.Debug().Msg("rotation stopped")
			return
		case <-ticker.C:
		}
	}
}

// applyBestEffort pushes cur to the device. Device failures are logged and dropped;
// the next transition or supervisor cycle is the retry.
func (s *Scheduler) applyBestEffort(ctx context.Context, cur display.Current) {
	if err := s.applier.Apply(ctx, cur.Text, cur.Color); err != nil {
		s.log.Warn().Err(err).Uint64("id", cur.ID).Msg("apply failed, continuing")
	}
}
