package tui

import "github.com/charmbracelet/lipgloss"

// Felt table palette
const (
	feltGreen = lipgloss.Color("#0B6E4F")
	chalk     = lipgloss.Color("#FAFAFA")
	mint      = lipgloss.Color("#96CEB4")
	gold      = lipgloss.Color("#FFD700")
	cardRed   = lipgloss.Color("#FF6B6B")
	amber     = lipgloss.Color("#FFEAA7")
	slate     = lipgloss.Color("#626262")
)

var (
	bold  = lipgloss.NewStyle().Bold(true)
	muted = lipgloss.NewStyle().Foreground(slate)

	HeaderStyle   = bold.Foreground(chalk).Background(feltGreen)
	HandInfoStyle = bold.Foreground(mint)
	ActionsStyle  = bold.Foreground(gold)

	// Cards
	RedCardStyle    = bold.Foreground(cardRed)
	BlackCardStyle  = bold.Foreground(chalk)
	HiddenCardStyle = muted

	// Log lines
	SuccessStyle = bold.Foreground(mint)
	ErrorStyle   = bold.Foreground(cardRed)
	WarningStyle = bold.Foreground(amber)
	InfoStyle    = muted

	helpStyle = muted
)
