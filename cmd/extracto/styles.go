package main

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// successColor indicates successful operations.
	successColor = lipgloss.Color("#4ECDC4") // Teal
	// warningColor indicates warnings or caution messages.
	warningColor = lipgloss.Color("#FFE66D") // Yellow
	// errorColor indicates errors or failure messages.
	errorColor = lipgloss.Color("#FF6B6B") // Red
	// subtleColor indicates less prominent UI elements.
	subtleColor = lipgloss.Color("#666666") // Gray

	// titleStyle is used for the summary heading.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	// successStyle formats success messages.
	successStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// warningStyle formats warning messages.
	warningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	// errorStyle formats error messages.
	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// subtleStyle formats less prominent text.
	subtleStyle = lipgloss.NewStyle().
			Foreground(subtleColor)
)
