package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/marquee/internal/core/display"
)

const snapshotTimeout = 5 * time.Second

// snapshotLoadedMsg is sent when a snapshot has been fetched.
type snapshotLoadedMsg struct {
	snap display.Snapshot
	err  error
	// polled is set for fetches started by the poll timer; only those
	// schedule the next tick so a manual refresh does not add a second chain.
	polled bool
	at     time.Time
}

// pollTickMsg is sent to trigger the next poll.
type pollTickMsg struct{}

func loadSnapshot(source Source, polled bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()

		snap, err := source.Snapshot(ctx)
		return snapshotLoadedMsg{snap: snap, err: err, polled: polled, at: time.Now()}
	}
}

func schedulePoll(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}
