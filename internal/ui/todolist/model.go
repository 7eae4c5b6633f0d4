package todolist

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todosync/internal/keys"
	"github.com/nhle/todosync/internal/model"
	appsync "github.com/nhle/todosync/internal/sync"
	"github.com/nhle/todosync/internal/theme"
)

// ToggleMsg asks for the completion of a todo to be flipped.
type ToggleMsg struct {
	ID model.TodoID
}

// ReorderMsg reports the outcome of a move gesture. To is
// sync.NoDestination when the gesture was cancelled.
type ReorderMsg struct {
	From int
	To   int
}

// Model is the todo list view component.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	state  *renderState
	width  int
	height int
}

// New creates a new todo list model.
func New(k *keys.KeyMap, display model.DisplayConfig, width, height int) Model {
	state := &renderState{
		showBody:  display.ShowBody,
		showTimes: display.ShowTimestamps,
		now:       time.Now,
	}

	l := list.New([]list.Item{}, ItemDelegate{state: state}, width, max(height-2, 1))
	l.Title = "Todos"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("todo", "todos")
	l.Styles.Title = theme.HeaderStyle
	// Quitting and help are owned by the root model.
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.KeyMap.ShowFullHelp.SetEnabled(false)
	l.KeyMap.CloseFullHelp.SetEnabled(false)

	return Model{
		list:   l,
		keys:   k,
		state:  state,
		width:  width,
		height: height,
	}
}

// SetTodos replaces the displayed items, keeping the cursor in range.
// A move gesture in progress is dropped if the set of items changed under it.
func (m *Model) SetTodos(todos []model.Todo) tea.Cmd {
	if m.state.grabbing && !m.sameIDs(todos) {
		m.state.grabbing = false
	}

	items := make([]list.Item, len(todos))
	for i, t := range todos {
		items[i] = TodoItem{Todo: t}
	}
	cmd := m.list.SetItems(items)
	if idx := m.list.Index(); idx >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
	return cmd
}

// sameIDs reports whether todos lists the displayed items in the same order.
func (m *Model) sameIDs(todos []model.Todo) bool {
	current := m.list.Items()
	if len(current) != len(todos) {
		return false
	}
	for i, it := range current {
		item, ok := it.(TodoItem)
		if !ok || item.Todo.ID != todos[i].ID {
			return false
		}
	}
	return true
}

// Select moves the cursor to index i.
func (m *Model) Select(i int) {
	m.list.Select(i)
}

// Index returns the cursor position.
func (m Model) Index() int {
	return m.list.Index()
}

// SelectedTodo returns the todo under the cursor.
func (m Model) SelectedTodo() (model.Todo, bool) {
	item, ok := m.list.SelectedItem().(TodoItem)
	if !ok {
		return model.Todo{}, false
	}
	return item.Todo, true
}

// Grabbing reports whether a move gesture is in progress.
func (m Model) Grabbing() bool {
	return m.state.grabbing
}

// Update handles messages for the todo list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.state.grabbing {
			return m.handleGrabKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input outside a move gesture.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Toggle):
		t, ok := m.SelectedTodo()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return ToggleMsg{ID: t.ID} }

	case key.Matches(msg, m.keys.MoveUp):
		return m, m.reorder(m.list.Index(), m.list.Index()-1)

	case key.Matches(msg, m.keys.MoveDown):
		return m, m.reorder(m.list.Index(), m.list.Index()+1)

	case key.Matches(msg, m.keys.Grab):
		if _, ok := m.SelectedTodo(); !ok {
			return m, nil
		}
		m.state.grabbing = true
		m.state.grabIndex = m.list.Index()
		return m, nil
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleGrabKeys processes key input while an item is being carried.
// Only navigation, drop and cancel are honored.
func (m Model) handleGrabKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Drop):
		from := m.state.grabIndex
		m.state.grabbing = false
		return m, m.reorder(from, m.list.Index())

	case key.Matches(msg, m.keys.Back):
		from := m.state.grabIndex
		m.state.grabbing = false
		m.list.Select(from)
		return m, m.reorder(from, appsync.NoDestination)

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) reorder(from, to int) tea.Cmd {
	return func() tea.Msg { return ReorderMsg{From: from, To: to} }
}

// View renders the todo list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when the list is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	return style.Render("Nothing to do.\n\nPress n to add a todo.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, max(height-2, 1))
}
