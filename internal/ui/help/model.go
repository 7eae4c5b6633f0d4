package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todosync/internal/keys"
	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/theme"
)

// Model is the help overlay: the key map plus notes on how edits reach
// the server.
type Model struct {
	keys       *keys.KeyMap
	help       help.Model
	toggleMode string
	width      int
	height     int
}

// New creates a help view for the given toggle mode.
func New(keys *keys.KeyMap, toggleMode string, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:       keys,
		help:       h,
		toggleMode: toggleMode,
		width:      width,
		height:     height,
	}
}

// toggleNote explains when a completion change shows up locally.
func toggleNote(mode string) string {
	switch mode {
	case model.ToggleConfirmed:
		return "Completion changes appear once the server accepts them."
	case model.ToggleRollback:
		return "Completion changes appear at once and are undone if the server rejects them."
	default:
		return "Completion changes appear when the server answers, even if it reports an error."
	}
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render(fmt.Sprintf("Keyboard Shortcuts (toggle: %s)", m.toggleMode))

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	moveKeys := strings.Join([]string{
		m.keys.MoveUp.Help().Key,
		m.keys.MoveDown.Help().Key,
		m.keys.Grab.Help().Key,
	}, ", ")
	note := theme.BodyStyle.Render(
		toggleNote(m.toggleMode) + "\n" +
			fmt.Sprintf("Moves (%s) stay in this session and are lost on reload (%s).", moveKeys, m.keys.Refresh.Help().Key),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, title, helpText, "", note)

	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
