package tui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the widget TUI.
var (
	colorRed    = lipgloss.Color("#FF5555")
	colorGreen  = lipgloss.Color("#50FA7B")
	colorYellow = lipgloss.Color("#F1FA8C")
	colorCyan   = lipgloss.Color("#8BE9FD")
	colorGray   = lipgloss.Color("#666666")
	colorDim    = lipgloss.Color("#444444")
	colorWhite  = lipgloss.Color("#F8F8F2")
	colorPurple = lipgloss.Color("#BD93F9")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	langBadgeStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	userMsgStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Bold(true)

	botMsgStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	systemMsgStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Italic(true)

	thinkingStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true)

	elapsedStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	gateBannerStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	recordingDotStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	dimInputStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	footerDescStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	dividerStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)
