package tui

import "github.com/charmbracelet/lipgloss"

var (
	ice    = lipgloss.Color("159")
	muted  = lipgloss.Color("240")
	subtle = lipgloss.Color("245")
	red    = lipgloss.Color("203")
	green  = lipgloss.Color("114")
	amber  = lipgloss.Color("214")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	accentStyle  = lipgloss.NewStyle().Bold(true).Foreground(ice)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	subtleStyle  = lipgloss.NewStyle().Foreground(subtle)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	healthyStyle = lipgloss.NewStyle().Foreground(green)
	warnStyle    = lipgloss.NewStyle().Foreground(amber)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(muted).
			Padding(0, 1)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(red).
			Foreground(red).
			Padding(0, 1)

	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ice).
			Foreground(ice).
			Padding(0, 1)
)
