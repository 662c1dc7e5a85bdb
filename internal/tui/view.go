package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/hay-kot/marquee/internal/core/display"
	"github.com/hay-kot/marquee/internal/styles"
)

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := titleStyle.Render("marquee")
	if !m.loaded && m.err == nil {
		title += " " + m.spinner.View()
	}
	b.WriteString(title + "\n\n")

	if m.loaded {
		b.WriteString(m.renderSnapshot())
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("error: "+m.err.Error()) + "\n")
	}

	b.WriteString("\n" + m.renderHelp())
	return b.String()
}

func (m Model) renderSnapshot() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("SHOWING") + "\n")
	if cur := m.snap.Current; cur != nil {
		elapsed := time.Duration(m.snap.ElapsedSeconds) * time.Second
		line := fmt.Sprintf("%s %s %s %s",
			styles.Swatch(cur.Color),
			styles.MutedStyle.Render(fmt.Sprintf("#%d", cur.ID)),
			styles.CurrentStyle.Render(cur.Text),
			styles.TimerStyle.Render(elapsed.String()),
		)
		b.WriteString(rowStyle.Render(line) + "\n")
	} else {
		b.WriteString(rowStyle.Render(styles.MutedStyle.Render("nothing")) + "\n")
	}

	b.WriteString("\n" + sectionStyle.Render(fmt.Sprintf("QUEUE (%d)", len(m.snap.Items))) + "\n")
	for _, item := range m.snap.Items {
		b.WriteString(rowStyle.Render(renderItem(item)) + "\n")
	}

	return b.String()
}

func renderItem(item display.Item) string {
	return fmt.Sprintf("%s %s %s",
		styles.Swatch(item.Color),
		styles.MutedStyle.Render(fmt.Sprintf("#%d", item.ID)),
		styles.QueuedStyle.Render(item.Text),
	)
}

func (m Model) renderHelp() string {
	parts := make([]string, 0, 3)
	for _, b := range m.keys.bindings() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	if !m.lastPoll.IsZero() {
		parts = append(parts, "updated "+m.lastPoll.Format(time.TimeOnly))
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}
