// Package styles holds the dashboard palette.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#0F766E")
	gold   = lipgloss.Color("#D97706")
	green  = lipgloss.Color("#16A34A")
	amber  = lipgloss.Color("#F59E0B")
	red    = lipgloss.Color("#DC2626")
	grey   = lipgloss.Color("#9CA3AF")
	white  = lipgloss.Color("#F3F4F6")
)

var (
	Heading  = lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)
	Dim      = lipgloss.NewStyle().Foreground(grey)
	Value    = lipgloss.NewStyle().Bold(true).Foreground(white)
	Selected = lipgloss.NewStyle().Background(accent).Foreground(white)

	Good = lipgloss.NewStyle().Foreground(green)
	Warn = lipgloss.NewStyle().Foreground(amber)
	Bad  = lipgloss.NewStyle().Foreground(red)
)

// Panel frames counters and the message detail; listing type cards use
// the gold frame.
func Panel(listing bool) lipgloss.Style {
	border := accent
	if listing {
		border = gold
	}
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1)
}

// LogPanel frames the scrolling log.
var LogPanel = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(grey).Padding(0, 1)

// Tab renders one entry of the tab bar.
func Tab(name string, active bool) string {
	if active {
		return Heading.Padding(0, 2).Render(name)
	}
	return Dim.Padding(0, 2).Render(name)
}
