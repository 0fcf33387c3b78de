package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#f5f0e8"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#777066"))

	StatusPlaying = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7fd18b"))

	StatusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#e8b04a"))

	StatusRecording = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#e05a4f")).
			Blink(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e05a4f"))

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8c8577")).
			Width(6)

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#777066")).
		Italic(true)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#7fd18b"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e8b04a"))
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a89f91"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func Spinner(frame int) string {
	return spinnerFrames[frame%len(spinnerFrames)]
}

// Bar renders fraction in [0,1] as a width-cell bar, coloured by how full it is.
func Bar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(fraction * float64(width))
	filled = min(max(filled, 0), width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case fraction > 0.8:
		return barHigh.Render(bar)
	case fraction > 0.4:
		return barMid.Render(bar)
	}
	return barLow.Render(bar)
}
