package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/marquee/internal/core/display"
	"github.com/hay-kot/marquee/internal/styles"
)

// DefaultPollInterval is how often the view refreshes the snapshot.
const DefaultPollInterval = time.Second

// Source provides rotation snapshots.
type Source interface {
	Snapshot(ctx context.Context) (display.Snapshot, error)
}

// Model is the Bubble Tea model for the live queue view.
type Model struct {
	source   Source
	interval time.Duration
	keys     keyMap
	spinner  spinner.Model

	snap     display.Snapshot
	loaded   bool
	err      error
	lastPoll time.Time
	width    int
	quitting bool
}

// New creates a Model polling source every interval.
func New(source Source, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.ColorBlue)),
	)

	return Model{
		source:   source,
		interval: interval,
		keys:     defaultKeys(),
		spinner:  s,
	}
}

// Init starts the spinner and the first fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadSnapshot(m.source, true))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, loadSnapshot(m.source, false)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case snapshotLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.snap = msg.snap
			m.loaded = true
			m.lastPoll = msg.at
		}
		if msg.polled {
			return m, schedulePoll(m.interval)
		}
		return m, nil

	case pollTickMsg:
		return m, loadSnapshot(m.source, true)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}
