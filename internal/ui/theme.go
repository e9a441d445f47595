package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#2D9CDB")

	HelpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)
