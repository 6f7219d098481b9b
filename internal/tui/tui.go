// Package tui is a terminal client that plays one blackjack table locally.
package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/windfall/windfall/internal/blackjack"
	"github.com/windfall/windfall/internal/deck"
	"github.com/windfall/windfall/internal/tables"
)

// TUIModel is the Bubble Tea model for a local table
type TUIModel struct {
	round  *blackjack.Round
	table  tables.TableConfig
	logger *log.Logger

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	// State
	gameLog     []string
	quitting    bool
	focusedPane int // 0 = log, 1 = input

	// Dimensions
	width       int
	height      int
	initialized bool
}

// NewTUIModel creates a model playing round at table
func NewTUIModel(table tables.TableConfig, round *blackjack.Round, logger *log.Logger) *TUIModel {
	// Sized properly when the first WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 32
	ti.Width = 40
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &TUIModel{
		round:       round,
		table:       table,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		actionInput: ti,
		focusedPane: 1,
	}
	m.AddLogEntry(fmt.Sprintf("Welcome to the %s. Bets %d to %d, blackjack pays %s.",
		table.Name, table.GameSettings.MinBet, table.GameSettings.MaxBet, table.GameSettings.PayoutLabel()))
	m.AddLogEntry("Type 'bet <amount>' to start. 'help' lists every command.")
	return m
}

// Init initializes the TUI model
func (m *TUIModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages in the TUI
func (m *TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updated dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				quit := m.Execute(m.actionInput.Value())
				m.actionInput.SetValue("")
				if quit {
					m.quitting = true
					return m, tea.Quit
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// Execute runs one typed command against the round and reports whether the
// player asked to quit. An empty command deals the next hand once a round
// is over.
func (m *TUIModel) Execute(input string) bool {
	parts := strings.Fields(strings.ToLower(input))
	if len(parts) == 0 {
		if m.round.Phase() == blackjack.GameOver {
			m.apply(m.round.NewHand())
		}
		return false
	}

	switch parts[0] {
	case "q", "quit", "exit":
		return true
	case "h", "hit":
		m.apply(m.round.Hit())
	case "s", "stand":
		m.apply(m.round.Stand())
	case "n", "new":
		m.apply(m.round.NewHand())
	case "b", "bet":
		amount := m.table.GameSettings.MinBet
		if len(parts) > 1 {
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				m.AddLogEntry(ErrorStyle.Render("Bet amount must be a whole number"))
				return false
			}
			amount = n
		}
		m.apply(m.round.PlaceBet(amount))
	case "help", "?":
		m.AddLogEntry(InfoStyle.Render("Commands: bet [amount], hit, stand, new, quit. Enter after a hand deals the next one."))
	default:
		m.AddLogEntry(ErrorStyle.Render(fmt.Sprintf("Unknown command %q, try 'help'", parts[0])))
	}
	return false
}

// apply logs the outcome of a round action
func (m *TUIModel) apply(err error) {
	if err != nil {
		var rejection *blackjack.BetRejection
		switch {
		case errors.As(err, &rejection):
			m.AddLogEntry(ErrorStyle.Render(rejection.Error()))
		case errors.Is(err, blackjack.ErrInvalidPhase):
			m.AddLogEntry(WarningStyle.Render(fmt.Sprintf("Not now: the round is %s", m.round.Phase())))
		case errors.Is(err, deck.ErrEmptyDeck):
			m.AddLogEntry(WarningStyle.Render("The shoe ran out. Your bet was returned."))
		default:
			m.logger.Error("Round action failed", "error", err)
			m.AddLogEntry(ErrorStyle.Render(err.Error()))
		}
		// A void hand still shows how it ended
		if !errors.Is(err, deck.ErrEmptyDeck) {
			return
		}
	}

	view := m.round.View()
	switch view.Phase {
	case blackjack.Betting:
		m.AddLogEntry(InfoStyle.Render(fmt.Sprintf("New hand. %d cards left in the shoe.", view.ShoeLeft)))
	case blackjack.Playing:
		if len(view.PlayerCards) == 2 {
			m.AddLogEntry(HandInfoStyle.Render(fmt.Sprintf("Hand #%d, bet $%d", view.HandNumber, view.Bet)))
		}
		m.AddLogEntry(fmt.Sprintf("You:    %s %d", formatCards(view.PlayerCards), view.PlayerTotal))
		m.AddLogEntry(fmt.Sprintf("Dealer: %s %d", formatCards(view.DealerCards), view.DealerTotal))
	case blackjack.GameOver:
		m.AddLogEntry(fmt.Sprintf("You:    %s %d", formatCards(view.PlayerCards), view.PlayerTotal))
		m.AddLogEntry(fmt.Sprintf("Dealer: %s %d", formatCards(view.DealerCards), view.DealerTotal))
		m.AddLogEntry(resultLine(view))
	}
}

func resultLine(v blackjack.View) string {
	switch v.Result {
	case blackjack.ResultWin:
		return SuccessStyle.Render(fmt.Sprintf("You win $%d", v.Payout-v.Bet))
	case blackjack.ResultBlackjack:
		return SuccessStyle.Render(fmt.Sprintf("Blackjack! You win $%d", v.Payout-v.Bet))
	case blackjack.ResultPush:
		return WarningStyle.Render("Push, your bet is returned")
	case blackjack.ResultLose:
		return ErrorStyle.Render(fmt.Sprintf("You lose $%d", v.Bet))
	case blackjack.ResultVoid:
		return WarningStyle.Render("Hand void")
	default:
		return ""
	}
}

// View renders the TUI
func (m *TUIModel) View() string {
	if m.quitting {
		return ""
	}

	// Don't render until we have valid dimensions
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Action pane (bottom, full width)
	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1))
	if m.focusedPane == 0 {
		actionStyle = actionStyle.BorderForeground(lipgloss.Color("#626262"))
	}
	actionPane := actionStyle.Render(actionContent)

	// Sidebar pane (right of the log, same height)
	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 25)
	paneHeight := max(m.height-actionHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	// Log pane (top, fills the remaining width)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.Width = max(m.width-sidebarWidth-4, 1)
	m.logViewport.Height = paneHeight

	if !m.initialized && m.logViewport.Width > 1 && m.logViewport.Height > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(m.logViewport.Width).
		Height(m.logViewport.Height)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *TUIModel) renderSidebarPane() string {
	settings := m.table.GameSettings

	var content strings.Builder
	content.WriteString(HeaderStyle.Render(" " + m.table.Name + " "))
	content.WriteString("\n\n")
	content.WriteString(WarningStyle.Render(fmt.Sprintf("Chips: $%d", m.round.Chips())))
	if bet := m.round.Bet(); bet > 0 {
		content.WriteString(" | ")
		content.WriteString(WarningStyle.Render(fmt.Sprintf("Bet: $%d", bet)))
	}
	content.WriteString("\n\n")
	content.WriteString(InfoStyle.Render(fmt.Sprintf("Bets $%d-$%d", settings.MinBet, settings.MaxBet)))
	content.WriteString("\n")
	content.WriteString(InfoStyle.Render(fmt.Sprintf("Blackjack pays %s", settings.PayoutLabel())))
	content.WriteString("\n")
	content.WriteString(InfoStyle.Render(settings.DealerRuleLabel()))
	content.WriteString("\n")
	content.WriteString(InfoStyle.Render(fmt.Sprintf("Shoe: %d/%d", m.round.ShoeRemaining(), m.round.ShoeSize())))
	content.WriteString("\n")
	return content.String()
}

func (m *TUIModel) renderActionPane() string {
	view := m.round.View()

	var content strings.Builder
	if len(view.PlayerCards) > 0 {
		content.WriteString(HandInfoStyle.Render(fmt.Sprintf("Hand: %s %d   Dealer: %s %d",
			formatCards(view.PlayerCards), view.PlayerTotal,
			formatCards(view.DealerCards), view.DealerTotal)))
		content.WriteString("\n")
	}
	content.WriteString(renderActions(view.Actions))
	content.WriteString("\n")

	switch view.Phase {
	case blackjack.Betting:
		m.actionInput.Placeholder = fmt.Sprintf("bet %d", m.table.GameSettings.MinBet)
	case blackjack.Playing:
		m.actionInput.Placeholder = "hit or stand"
	default:
		m.actionInput.Placeholder = "Enter for the next hand, 'quit' to exit"
	}
	content.WriteString(m.actionInput.View())
	content.WriteString("\n")

	if m.focusedPane == 0 {
		content.WriteString(helpStyle.Render("Log focused: ↑↓ scroll, Home/End, Tab to input"))
	} else {
		content.WriteString(helpStyle.Render("Tab to scroll log • Enter to submit • Ctrl+C to quit"))
	}
	return content.String()
}

func renderActions(actions []blackjack.Action) string {
	if len(actions) == 0 {
		return ErrorStyle.Render("Not enough chips for this table")
	}

	var out []string
	for _, a := range actions {
		switch a {
		case blackjack.ActionBet:
			out = append(out, WarningStyle.Render("[bet]"))
		case blackjack.ActionHit:
			out = append(out, SuccessStyle.Render("[hit]"))
		case blackjack.ActionStand:
			out = append(out, ErrorStyle.Render("[stand]"))
		case blackjack.ActionNewHand:
			out = append(out, SuccessStyle.Render("[new]"))
		}
	}
	return ActionsStyle.Render("Actions: " + strings.Join(out, " "))
}

// formatCards formats cards with colors
func formatCards(cards []blackjack.CardView) string {
	if len(cards) == 0 {
		return ""
	}

	formatted := make([]string, 0, len(cards))
	for _, card := range cards {
		switch {
		case card.Hidden:
			formatted = append(formatted, HiddenCardStyle.Render(card.Label))
		case card.Red:
			formatted = append(formatted, RedCardStyle.Render(card.Label))
		default:
			formatted = append(formatted, BlackCardStyle.Render(card.Label))
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}

// AddLogEntry adds an entry to the game log
func (m *TUIModel) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))

	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns a copy of the game log
func (m *TUIModel) Log() []string {
	out := make([]string, len(m.gameLog))
	copy(out, m.gameLog)
	return out
}

// Round returns the round being played
func (m *TUIModel) Round() *blackjack.Round {
	return m.round
}
