package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette: ink on washi paper, with vermilion and indigo accents.
var (
	Primary   = lipgloss.Color("#4F46E5") // Indigo
	Secondary = lipgloss.Color("#0D9488") // Matcha teal
	Accent    = lipgloss.Color("#E34234") // Vermilion
	Success   = lipgloss.Color("#16A34A")
	Error     = lipgloss.Color("#DC2626")
	Text      = lipgloss.Color("#F5F0E6") // Washi
	TextDim   = lipgloss.Color("#A8A29E")
	BgCard    = lipgloss.Color("#1C1917") // Sumi
	Border    = lipgloss.Color("#44403C")
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Accent)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// Answer states.
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Dimmed = lipgloss.NewStyle().
		Foreground(TextDim)
)

var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)
)
