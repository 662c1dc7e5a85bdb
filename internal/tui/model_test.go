package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/marquee/internal/core/display"
)

type fakeSource struct {
	snap display.Snapshot
	err  error
}

func (f *fakeSource) Snapshot(context.Context) (display.Snapshot, error) {
	return f.snap, f.err
}

func sampleSnapshot() display.Snapshot {
	return display.Snapshot{
		Current:        &display.Item{ID: 3, Text: "deploy done", Color: "#00ff00"},
		ElapsedSeconds: 12,
		Items: []display.Item{
			{ID: 4, Text: "lunch"},
			{ID: 5, Text: "standup", Color: "#ff0000"},
		},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestModel_LoadCmdFetchesSnapshot(t *testing.T) {
	src := &fakeSource{snap: sampleSnapshot()}

	msg := loadSnapshot(src, true)()
	loaded, ok := msg.(snapshotLoadedMsg)
	require.True(t, ok)
	assert.NoError(t, loaded.err)
	assert.True(t, loaded.polled)
	assert.Equal(t, uint64(3), loaded.snap.Current.ID)
}

func TestModel_SnapshotRendered(t *testing.T) {
	m := New(&fakeSource{}, time.Second)

	m, cmd := update(t, m, snapshotLoadedMsg{snap: sampleSnapshot(), polled: true, at: time.Now()})
	assert.NotNil(t, cmd, "polled fetch schedules the next tick")

	view := m.View()
	assert.Contains(t, view, "deploy done")
	assert.Contains(t, view, "12s")
	assert.Contains(t, view, "QUEUE (2)")
	assert.Contains(t, view, "lunch")
	assert.Contains(t, view, "standup")
	assert.Contains(t, view, "updated ")
}

func TestModel_ManualRefreshDoesNotSchedule(t *testing.T) {
	m := New(&fakeSource{}, time.Second)

	_, cmd := update(t, m, snapshotLoadedMsg{snap: sampleSnapshot(), polled: false})
	assert.Nil(t, cmd)
}

func TestModel_EmptySnapshot(t *testing.T) {
	m := New(&fakeSource{}, time.Second)

	m, _ = update(t, m, snapshotLoadedMsg{snap: display.Snapshot{}, polled: true})
	view := m.View()
	assert.Contains(t, view, "nothing")
	assert.Contains(t, view, "QUEUE (0)")
}

func TestModel_ErrorKeepsLastSnapshot(t *testing.T) {
	m := New(&fakeSource{}, time.Second)

	m, _ = update(t, m, snapshotLoadedMsg{snap: sampleSnapshot(), polled: true})
	m, _ = update(t, m, snapshotLoadedMsg{err: errors.New("connection refused"), polled: true})

	view := m.View()
	assert.Contains(t, view, "connection refused")
	assert.Contains(t, view, "deploy done")
}

func TestModel_Quit(t *testing.T) {
	m := New(&fakeSource{}, time.Second)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	assert.Empty(t, m.View())
}

func TestModel_RefreshKey(t *testing.T) {
	src := &fakeSource{snap: sampleSnapshot()}
	m := New(src, time.Second)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	require.NotNil(t, cmd)

	loaded, ok := cmd().(snapshotLoadedMsg)
	require.True(t, ok)
	assert.False(t, loaded.polled)
}

func TestModel_PollTickFetches(t *testing.T) {
	src := &fakeSource{snap: sampleSnapshot()}
	m := New(src, time.Second)

	_, cmd := update(t, m, pollTickMsg{})
	require.NotNil(t, cmd)

	loaded, ok := cmd().(snapshotLoadedMsg)
	require.True(t, ok)
	assert.True(t, loaded.polled)
}
