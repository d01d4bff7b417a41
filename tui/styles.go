package tui

import "github.com/charmbracelet/lipgloss"

var (
	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0b0f14")).
			Background(lipgloss.Color("#7dd3fc")).
			Padding(0, 1)
	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#94a3b8")).
				Padding(0, 1)
	tabBarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#334155"))
	crumbStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e2e8f0"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748b"))
	claimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#fbbf24")).Bold(true)
	contentStyle = lipgloss.NewStyle().Padding(1, 2)
)
