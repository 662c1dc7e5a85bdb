// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/marquee/internal/device"
)

// Tokyo Night color palette.
var (
	ColorRed    = lipgloss.Color("#d75f6b")
	ColorGreen  = lipgloss.Color("#9ece6a")
	ColorYellow = lipgloss.Color("#e0af68")
	ColorBlue   = lipgloss.Color("#7aa2f7")
	ColorGray   = lipgloss.Color("#565f89")
	ColorWhite  = lipgloss.Color("#c0caf5")
)

// Banner ASCII art for the header.
const Banner = `
 ╔╦╗╔═╗╦═╗╔═╗ ╦ ╦╔═╗╔═╗
 ║║║╠═╣╠╦╝║═╬╗║ ║║╣ ║╣
 ╩ ╩╩ ╩╩╚═╚═╝╚╚═╝╚═╝╚═╝`

// BannerStyle styles the ASCII art banner.
var BannerStyle = lipgloss.NewStyle().
	Foreground(ColorBlue).
	Bold(true)

// HeaderStyle styles section and table headers.
var HeaderStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Bold(true)

// CurrentStyle highlights the message on the display.
var CurrentStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Bold(true)

// QueuedStyle styles waiting messages.
var QueuedStyle = lipgloss.NewStyle().
	Foreground(ColorWhite)

// MutedStyle styles secondary text.
var MutedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// TimerStyle styles the dwell timer.
var TimerStyle = lipgloss.NewStyle().
	Foreground(ColorYellow)

// Swatch renders a block in the color the device will use for hex.
func Swatch(hex string) string {
	c := device.ColorOrDefault(hex)
	rgb := lipgloss.Color(fmtHex(c))
	return lipgloss.NewStyle().Foreground(rgb).Render("■")
}

func fmtHex(c device.RGB) string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		b[1+i*2] = digits[v>>4]
		b[2+i*2] = digits[v&0x0f]
	}
	return string(b)
}
