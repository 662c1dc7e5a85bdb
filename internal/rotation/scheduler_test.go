package rotation

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/marquee/internal/core/display"
)

type applied struct {
	Text  string
	Color string
}

// recordingApplier records Apply calls.
type recordingApplier struct {
	mu    sync.Mutex
	calls []applied
	err   error
}

func (a *recordingApplier) Apply(_ context.Context, text, color string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, applied{Text: text, Color: color})
	return a.err
}

func (a *recordingApplier) Calls() []applied {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]applied(nil), a.calls...)
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestScheduler(t *testing.T) (*Scheduler, *recordingApplier, *fakeClock) {
	t.Helper()
	applier := &recordingApplier{}
	clock := newFakeClock()
	s := New(applier, Options{Now: clock.Now}, zerolog.New(io.Discard))
	return s, applier, clock
}

func ids(items []display.Item) []uint64 {
	out := make([]uint64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func submit(t *testing.T, s *Scheduler, text string) display.Receipt {
	t.Helper()
	r, err := s.Submit(context.Background(), text, "")
	require.NoError(t, err)
	return r
}

func TestNew_Defaults(t *testing.T) {
	s := New(&recordingApplier{}, Options{}, zerolog.New(io.Discard))
	assert.Equal(t, 60*time.Second, s.dwell)
	assert.Equal(t, 900*time.Millisecond, s.tick)
}

func TestSubmit_RejectsInvalidText(t *testing.T) {
	s, applier, _ := newTestScheduler(t)

	for _, text := range []string{"", "   ", strings.Repeat("x", display.MaxTextLength+1)} {
		_, err := s.Submit(context.Background(), text, "")
		require.ErrorIs(t, err, display.ErrInvalidInput)
	}

	snap := s.Snapshot()
	assert.Nil(t, snap.Current)
	assert.Empty(t, snap.Items)
	assert.Empty(t, applier.Calls())
}

func TestSubmit_TrimsText(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	submit(t, s, "  hi there  ")
	assert.Equal(t, "hi there", s.Snapshot().Items[0].Text)
}

func TestSubmit_IDsStrictlyIncrease(t *testing.T) {
	s, _, clock := newTestScheduler(t)

	var last uint64
	seen := map[uint64]bool{}
	for i := range 50 {
		// Mix queued and switched outcomes.
		if i%7 == 0 {
			s.Tick(context.Background())
			clock.Advance(61 * time.Second)
		}
		r := submit(t, s, "msg")
		assert.Greater(t, r.ID, last)
		assert.False(t, seen[r.ID])
		seen[r.ID] = true
		last = r.ID
	}
}

func TestSubmit_ConcurrentIDsUnique(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	var (
		mu   sync.Mutex
		seen = map[uint64]bool{}
		wg   sync.WaitGroup
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.Submit(context.Background(), "hello", "")
			if err != nil {
				return
			}
			mu.Lock()
			seen[r.ID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 20)
	assert.Len(t, s.Snapshot().Items, 20)
}

func TestSubmit_ConcurrentQueueOrderMatchesIDs(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 25 {
				_, _ = s.Submit(context.Background(), "hello", "")
			}
		})
	}
	wg.Wait()

	got := ids(s.Snapshot().Items)
	require.Len(t, got, 200)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1], got[i], "queue position %d", i)
	}
}

func TestSubmit_QueuesWhenEmpty(t *testing.T) {
	s, applier, _ := newTestScheduler(t)

	r := submit(t, s, "first")
	assert.Equal(t, display.OutcomeQueued, r.Outcome)
	assert.Empty(t, applier.Calls(), "nothing applied until the next tick")

	snap := s.Snapshot()
	assert.Nil(t, snap.Current)
	assert.Equal(t, []uint64{r.ID}, ids(snap.Items))
}

func TestSubmit_QueuesWhileDwellRunning(t *testing.T) {
	s, _, clock := newTestScheduler(t)

	a := submit(t, s, "a")
	s.Tick(context.Background())
	b := submit(t, s, "b")

	clock.Advance(59 * time.Second)
	c := submit(t, s, "c")

	assert.Equal(t, display.OutcomeQueued, b.Outcome)
	assert.Equal(t, display.OutcomeQueued, c.Outcome)

	snap := s.Snapshot()
	require.NotNil(t, snap.Current)
	assert.Equal(t, a.ID, snap.Current.ID)
	assert.Equal(t, []uint64{b.ID, c.ID}, ids(snap.Items))
}

func TestSubmit_SwitchesAfterDwell(t *testing.T) {
	s, applier, clock := newTestScheduler(t)

	submit(t, s, "old")
	s.Tick(context.Background())
	clock.Advance(60 * time.Second)

	r, err := s.Submit(context.Background(), "fresh", "#00ff00")
	require.NoError(t, err)
	assert.Equal(t, display.OutcomeSwitched, r.Outcome)

	snap := s.Snapshot()
	require.NotNil(t, snap.Current)
	assert.Equal(t, display.Item{ID: r.ID, Text: "fresh", Color: "#00ff00"}, *snap.Current)
	assert.Equal(t, uint64(0), snap.ElapsedSeconds)
	assert.Empty(t, snap.Items)

	calls := applier.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, applied{Text: "fresh", Color: "#00ff00"}, calls[1], "applied synchronously")
}

func TestTick_FillsEmptySlotOnce(t *testing.T) {
	s, applier, _ := newTestScheduler(t)

	a := submit(t, s, "a")
	b := submit(t, s, "b")

	s.Tick(context.Background())

	snap := s.Snapshot()
	require.NotNil(t, snap.Current)
	assert.Equal(t, a.ID, snap.Current.ID)
	assert.Equal(t, []uint64{b.ID}, ids(snap.Items))
	assert.Equal(t, []applied{{Text: "a"}}, applier.Calls())

	// A second tick inside the dwell window changes nothing.
	s.Tick(context.Background())
	assert.Len(t, applier.Calls(), 1)
}

func TestTick_NothingToDo(t *testing.T) {
	s, applier, _ := newTestScheduler(t)

	s.Tick(context.Background())
	assert.Nil(t, s.Snapshot().Current)
	assert.Empty(t, applier.Calls())
}

func TestTick_AdvancesAfterDwell(t *testing.T) {
	s, applier, clock := newTestScheduler(t)

	submit(t, s, "a")
	b := submit(t, s, "b")
	c := submit(t, s, "c")
	s.Tick(context.Background())

	clock.Advance(60 * time.Second)
	s.Tick(context.Background())

	snap := s.Snapshot()
	require.NotNil(t, snap.Current)
	assert.Equal(t, b.ID, snap.Current.ID)
	assert.Equal(t, uint64(0), snap.ElapsedSeconds, "elapsed resets on advance")
	assert.Equal(t, []uint64{c.ID}, ids(snap.Items))
	assert.Equal(t, []applied{{Text: "a"}, {Text: "b"}}, applier.Calls())
}

func TestTick_NeverGoesBlank(t *testing.T) {
	s, applier, clock := newTestScheduler(t)

	a := submit(t, s, "last one")
	s.Tick(context.Background())

	for range 10 {
		clock.Advance(45 * time.Second)
		s.Tick(context.Background())
	}

	snap := s.Snapshot()
	require.NotNil(t, snap.Current)
	assert.Equal(t, a.ID, snap.Current.ID)
	assert.Equal(t, uint64(450), snap.ElapsedSeconds)
	assert.Len(t, applier.Calls(), 1, "no re-apply while the queue is empty")
}

func TestTick_StartedAtNeverRewinds(t *testing.T) {
	s, _, clock := newTestScheduler(t)

	for range 5 {
		submit(t, s, "m")
	}

	var last time.Time
	for range 5 {
		s.Tick(context.Background())
		s.curMu.Lock()
		started := s.current.StartedAt
		s.curMu.Unlock()

		assert.False(t, started.Before(last))
		last = started
		clock.Advance(61 * time.Second)
	}
}

func TestTick_ApplyFailureIsAbsorbed(t *testing.T) {
	s, applier, _ := newTestScheduler(t)
	applier.err = errors.New("device offline")

	submit(t, s, "a")
	s.Tick(context.Background())

	require.NotNil(t, s.Snapshot().Current, "state advances even when the device call fails")
}

func TestRemove(t *testing.T) {
	t.Run("current clears slot only", func(t *testing.T) {
		s, applier, _ := newTestScheduler(t)
		a := submit(t, s, "a")
		b := submit(t, s, "b")
		c := submit(t, s, "c")
		s.Tick(context.Background())

		s.Remove(a.ID)

		snap := s.Snapshot()
		assert.Nil(t, snap.Current)
		assert.Equal(t, uint64(0), snap.ElapsedSeconds)
		assert.Equal(t, []uint64{b.ID, c.ID}, ids(snap.Items))
		assert.Len(t, applier.Calls(), 1, "display is not blanked")

		s.Tick(context.Background())
		require.NotNil(t, s.Snapshot().Current)
		assert.Equal(t, b.ID, s.Snapshot().Current.ID)
	})

	t.Run("queued item keeps order of the rest", func(t *testing.T) {
		s, _, _ := newTestScheduler(t)
		a := submit(t, s, "a")
		b := submit(t, s, "b")
		c := submit(t, s, "c")
		d := submit(t, s, "d")
		s.Tick(context.Background())

		s.Remove(c.ID)

		snap := s.Snapshot()
		require.NotNil(t, snap.Current)
		assert.Equal(t, a.ID, snap.Current.ID)
		assert.Equal(t, []uint64{b.ID, d.ID}, ids(snap.Items))
	})

	t.Run("unknown id changes nothing", func(t *testing.T) {
		s, _, _ := newTestScheduler(t)
		a := submit(t, s, "a")
		b := submit(t, s, "b")
		s.Tick(context.Background())

		before := s.Snapshot()
		s.Remove(999)
		s.Remove(999)

		after := s.Snapshot()
		assert.Equal(t, before, after)
		assert.Equal(t, a.ID, after.Current.ID)
		assert.Equal(t, []uint64{b.ID}, ids(after.Items))
	})
}

func TestSnapshot_RoundTrip(t *testing.T) {
	s, applier, clock := newTestScheduler(t)

	_, err := s.Submit(context.Background(), "Hello", "#ff00aa")
	require.NoError(t, err)
	s.Tick(context.Background())
	clock.Advance(900 * time.Millisecond)

	snap := s.Snapshot()
	require.NotNil(t, snap.Current)
	assert.Equal(t, "Hello", snap.Current.Text)
	assert.Equal(t, "#ff00aa", snap.Current.Color)
	assert.LessOrEqual(t, snap.ElapsedSeconds, uint64(1))
	assert.Empty(t, snap.Items)
	assert.NotNil(t, snap.Items, "items encode as [] rather than null")
	assert.Equal(t, []applied{{Text: "Hello", Color: "#ff00aa"}}, applier.Calls())
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	applier := &recordingApplier{}
	s := New(applier, Options{TickInterval: 5 * time.Millisecond}, zerolog.New(io.Discard))

	_, err := s.Submit(context.Background(), "looped", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(applier.Calls()) == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
