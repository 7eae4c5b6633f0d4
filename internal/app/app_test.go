package app

import (
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todosync/internal/api"
	"github.com/nhle/todosync/internal/logging"
	"github.com/nhle/todosync/internal/model"
	appsync "github.com/nhle/todosync/internal/sync"
	"github.com/nhle/todosync/internal/testutil/fakeapi"
	"github.com/nhle/todosync/internal/ui/todoform"
	"github.com/nhle/todosync/internal/ui/todolist"
)

// drain runs cmd and feeds the resulting messages back into m until no
// more work is produced. Messages from UI widgets (cursor blinks and the
// like) are dropped.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}

		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case appsync.LoadedMsg, appsync.CreatedMsg, appsync.ToggledMsg,
			todolist.ToggleMsg, todolist.ReorderMsg,
			todoform.SubmitMsg, todoform.CancelMsg:
			next, nextCmd := m.Update(msg)
			m = next.(Model)
			queue = append(queue, nextCmd)
		}
	}
	return m
}

func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(k)
	return drain(t, next.(Model), cmd)
}

// openForm presses n without running the form's cursor commands.
func openForm(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(runes("n"))
	m = next.(Model)
	require.Equal(t, ViewForm, m.currentView)
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func titles(items []model.Todo) []string {
	out := make([]string, len(items))
	for i, t := range items {
		out[i] = t.Title
	}
	return out
}

func newApp(t *testing.T, srv *fakeapi.Server) (Model, *appsync.Controller) {
	t.Helper()

	cfg := &model.AppConfig{
		API:     model.APIConfig{BaseURL: srv.URL},
		Sync:    model.SyncConfig{ToggleMode: model.ToggleBlind},
		Display: model.DisplayConfig{ShowBody: true, ShowTimestamps: true},
	}
	ctrl := appsync.New(api.NewClient(srv.URL))
	m := New(ctrl, cfg, logging.Discard())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)
	return drain(t, m, m.Init()), ctrl
}

func TestInitLoadsIntoListView(t *testing.T) {
	srv := fakeapi.New(t)
	srv.Seed(t, model.Todo{Title: "A"}, model.Todo{Title: "B"})

	m, ctrl := newApp(t, srv)

	assert.Equal(t, []string{"A", "B"}, titles(ctrl.Items()))
	selected, ok := m.todoList.SelectedTodo()
	require.True(t, ok)
	assert.Equal(t, "A", selected.Title)
	assert.Contains(t, m.View(), "2 items")
}

func TestSubmitAddsServerItem(t *testing.T) {
	srv := fakeapi.New(t)
	srv.Seed(t, model.Todo{Title: "A"})
	m, ctrl := newApp(t, srv)

	m = openForm(t, m)

	next, cmd := m.Update(todoform.SubmitMsg{Title: "Buy milk"})
	m = drain(t, next.(Model), cmd)

	assert.Equal(t, ViewList, m.currentView)
	assert.Equal(t, []string{"A", "Buy milk"}, titles(ctrl.Items()))
	assert.Equal(t, 1, srv.Count(http.MethodPost, "/api/todos"))
}

func TestEscCancelsForm(t *testing.T) {
	srv := fakeapi.New(t)
	m, _ := newApp(t, srv)

	m = openForm(t, m)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, ViewList, m.currentView)
	assert.Zero(t, srv.Count(http.MethodPost, "/api/todos"))
}

func TestToggleKeyFlipsSelected(t *testing.T) {
	srv := fakeapi.New(t)
	srv.Seed(t, model.Todo{Title: "A"}, model.Todo{Title: "B"})
	m, ctrl := newApp(t, srv)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, runes("x"))

	items := ctrl.Items()
	assert.False(t, items[0].Completed)
	assert.True(t, items[1].Completed)
	assert.Equal(t, 1, srv.Count(http.MethodPut, "/api/todos/2"))

	selected, _ := m.todoList.SelectedTodo()
	assert.True(t, selected.Completed, "list view shows the flip")
}

func TestMoveKeysReorderLocally(t *testing.T) {
	srv := fakeapi.New(t)
	srv.Seed(t, model.Todo{Title: "A"}, model.Todo{Title: "B"}, model.Todo{Title: "C"})
	m, ctrl := newApp(t, srv)
	before := len(srv.Requests())

	m = press(t, m, runes("J"))
	assert.Equal(t, []string{"B", "A", "C"}, titles(ctrl.Items()))
	assert.Equal(t, 1, m.todoList.Index(), "cursor follows the moved item")

	// Moving past the top is ignored.
	m = press(t, m, runes("K"))
	m = press(t, m, runes("K"))
	assert.Equal(t, []string{"A", "B", "C"}, titles(ctrl.Items()))

	assert.Len(t, srv.Requests(), before, "reordering never calls the API")
}

func TestGrabAndDropReorders(t *testing.T) {
	srv := fakeapi.New(t)
	srv.Seed(t, model.Todo{Title: "A"}, model.Todo{Title: "B"}, model.Todo{Title: "C"})
	m, ctrl := newApp(t, srv)

	m = press(t, m, runes("m"))
	assert.Contains(t, m.View(), "enter drop")

	// q does not quit while carrying an item.
	next, cmd := m.Update(runes("q"))
	m = next.(Model)
	assert.Nil(t, cmd)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"B", "C", "A"}, titles(ctrl.Items()))
	assert.False(t, m.todoList.Grabbing())
}

func TestGrabCancelLeavesOrder(t *testing.T) {
	srv := fakeapi.New(t)
	srv.Seed(t, model.Todo{Title: "A"}, model.Todo{Title: "B"})
	m, ctrl := newApp(t, srv)
	version := ctrl.Version()

	m = press(t, m, runes("m"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, []string{"A", "B"}, titles(ctrl.Items()))
	assert.Equal(t, version, ctrl.Version())
	assert.Equal(t, ViewList, m.currentView)
}

func TestLoadFailureShowsErrorAndReloadRecovers(t *testing.T) {
	srv := fakeapi.New(t)
	srv.Seed(t, model.Todo{Title: "A"})
	srv.FailNext(fakeapi.Fault{Method: http.MethodGet, Status: http.StatusServiceUnavailable})

	m, ctrl := newApp(t, srv)
	assert.Empty(t, ctrl.Items())
	assert.Contains(t, m.View(), "503")

	m = press(t, m, runes("r"))
	assert.Equal(t, []string{"A"}, titles(ctrl.Items()))
	assert.NoError(t, ctrl.LastError())
	assert.NotContains(t, m.View(), "503")
}

func TestHelpToggle(t *testing.T) {
	srv := fakeapi.New(t)
	m, _ := newApp(t, srv)

	m = press(t, m, runes("?"))
	assert.Equal(t, ViewHelp, m.currentView)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m = press(t, m, runes("?"))
	assert.Equal(t, ViewList, m.currentView)
}

func TestQuit(t *testing.T) {
	srv := fakeapi.New(t)
	m, _ := newApp(t, srv)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
