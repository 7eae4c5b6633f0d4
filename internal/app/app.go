package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nhle/todosync/internal/keys"
	"github.com/nhle/todosync/internal/model"
	appsync "github.com/nhle/todosync/internal/sync"
	"github.com/nhle/todosync/internal/ui"
	helpview "github.com/nhle/todosync/internal/ui/help"
	"github.com/nhle/todosync/internal/ui/todoform"
	"github.com/nhle/todosync/internal/ui/todolist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewForm
	ViewHelp
)

// Model is the root Bubble Tea model. It routes user intents to the list
// controller and pushes the controller's list into the list view whenever
// it changes.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	ctrl         *appsync.Controller
	keys         *keys.KeyMap
	logger       *log.Logger
	todoList     todolist.Model
	todoForm     todoform.Model
	helpView     helpview.Model
	seenVersion  uint64
	endpoint     string
	ready        bool
}

// New creates the root model around ctrl. endpoint is shown in the header.
func New(ctrl *appsync.Controller, cfg *model.AppConfig, logger *log.Logger) Model {
	k := keys.DefaultKeyMap()
	return Model{
		currentView: ViewList,
		ctrl:        ctrl,
		keys:        k,
		logger:      logger.With("component", "app"),
		todoList:    todolist.New(k, cfg.Display, 80, 24),
		todoForm:    todoform.New(80, 24),
		helpView:    helpview.New(k, cfg.Sync.ToggleMode, 80, 24),
		endpoint:    cfg.API.BaseURL,
	}
}

// Init loads the collection.
func (m Model) Init() tea.Cmd {
	return m.ctrl.Load()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.ctrl.Apply(msg) {
		return m, m.refreshList()
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.todoList.SetSize(contentWidth, contentHeight)
		m.todoForm.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case todolist.ToggleMsg:
		cmd := m.ctrl.Toggle(msg.ID)
		return m, tea.Batch(cmd, m.refreshList())

	case todolist.ReorderMsg:
		if !m.ctrl.Reorder(msg.From, msg.To) {
			return m, nil
		}
		cmd := m.refreshList()
		m.todoList.Select(msg.To)
		return m, cmd

	case todoform.SubmitMsg:
		m.currentView = ViewList
		return m, m.ctrl.Add(msg.Title, msg.Body)

	case todoform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that act regardless of the focused view.
// The form gets every key except ctrl+c and esc so typing is never intercepted.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}

	switch m.currentView {
	case ViewForm:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = ViewList
			return nil, true
		}
		return nil, false

	case ViewHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return nil, true
		}
		if key.Matches(msg, m.keys.Quit) {
			return tea.Quit, true
		}
		return nil, true
	}

	// List view. A move gesture owns esc and enter until it ends.
	if m.todoList.Grabbing() {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case key.Matches(msg, m.keys.New):
		m.previousView = m.currentView
		m.currentView = ViewForm
		return m.todoForm.StartCreate(), true

	case key.Matches(msg, m.keys.Refresh):
		m.ctrl.ClearError()
		m.logger.Debug("reload requested")
		return m.ctrl.Load(), true
	}

	return nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.todoList, cmd = m.todoList.Update(msg)
	case ViewForm:
		m.todoForm, cmd = m.todoForm.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// refreshList copies the controller's list into the list view if it has
// changed since the last copy.
func (m *Model) refreshList() tea.Cmd {
	if v := m.ctrl.Version(); v != m.seenVersion {
		m.seenVersion = v
		return m.todoList.SetTodos(m.ctrl.Items())
	}
	return nil
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Todo", m.syncStatus())
	content := m.renderContent()

	var statusBar string
	if err := m.ctrl.LastError(); err != nil && m.currentView == ViewList {
		statusBar = m.layout.RenderErrorBar(fmt.Sprintf("⚠ %v (r to reload)", err))
	} else {
		statusBar = m.layout.RenderStatusBar(m.keyHints())
	}

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.todoList.View()
	case ViewForm:
		return m.todoForm.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing request activity.
func (m Model) syncStatus() string {
	if n := m.ctrl.Pending(); n > 0 {
		return fmt.Sprintf("syncing (%d) · %s", n, m.endpoint)
	}
	return fmt.Sprintf("%d items · %s", m.ctrl.Len(), m.endpoint)
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewForm:
		return "enter submit | esc cancel"
	default:
		if m.todoList.Grabbing() {
			return "moving: j/k choose place | enter drop | esc cancel"
		}
		return "q quit | ? help | n new | x toggle | K/J move | m grab | r reload"
	}
}
