// Package tui implements the Bubble Tea live view for marquee.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/marquee/internal/styles"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.ColorBlue).
			PaddingLeft(1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(styles.ColorGray).
			Bold(true).
			PaddingLeft(1)

	rowStyle = lipgloss.NewStyle().PaddingLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.ColorRed).
			PaddingLeft(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(styles.ColorGray).
			PaddingLeft(1)
)
