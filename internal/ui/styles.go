// Package ui handles terminal UI rendering.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors - using more subtle, balanced palette
var (
	ColorPrimary   = lipgloss.Color("4")   // Blue
	ColorSecondary = lipgloss.Color("8")   // Gray
	ColorSuccess   = lipgloss.Color("2")   // Green (dimmer)
	ColorWarning   = lipgloss.Color("3")   // Yellow (dimmer)
	ColorDanger    = lipgloss.Color("1")   // Red (dimmer)
	ColorMuted     = lipgloss.Color("245") // Light gray
	ColorHighlight = lipgloss.Color("6")   // Cyan
	ColorText      = lipgloss.Color("252") // Light text
	ColorSelection = lipgloss.Color("250") // Selected row background
	ColorInverse   = lipgloss.Color("0")   // Text on the selected row
)

// Styles
var (
	// Preview pane; the border colour is set per check state
	PreviewStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 1)

	// Error dialog
	DialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDanger).
			Padding(1, 2).
			Align(lipgloss.Center).
			AlignVertical(lipgloss.Center)

	// Header style
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorMuted)

	// Selected item style
	SelectedStyle = lipgloss.NewStyle().
			Background(ColorSelection).
			Foreground(ColorInverse)

	// Normal item style
	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	// Stash ref style
	StashStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// Status styles - more subtle
	CleanStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	DirtyStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	PendingStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Path style - more readable
	PathStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Help style
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Command bar entries
	CommandStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	DisabledStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)

	// Error style
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorDanger)

	// Diff styles
	DiffHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	DiffAddStyle    = lipgloss.NewStyle().Foreground(ColorSuccess)
	DiffDelStyle    = lipgloss.NewStyle().Foreground(ColorDanger)
	DiffHunkStyle   = lipgloss.NewStyle().Foreground(ColorHighlight)
)

// Symbols
const (
	SymbolClean   = "✓"
	SymbolDirty   = "●"
	SymbolFailed  = "✗"
	SymbolDivider = "·"
)
