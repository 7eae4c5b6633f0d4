// Package sync keeps the local todo list in step with the remote collection.
//
// A Controller is not safe for concurrent use. Its methods are meant to be
// called from the Bubble Tea update loop only: Load, Add and Toggle return
// tea.Cmds that perform the network round trip off-loop and come back as
// messages, which Apply folds into the list on the loop.
package sync

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nhle/todosync/internal/api"
	"github.com/nhle/todosync/internal/model"
)

// Remote is the collection resource the controller talks to.
type Remote interface {
	ListTodos(ctx context.Context) ([]model.Todo, error)
	CreateTodo(ctx context.Context, req model.NewTodo) (model.Todo, error)
	ToggleTodo(ctx context.Context, id model.TodoID) error
}

// Controller owns the ordered in-memory todo list.
type Controller struct {
	remote     Remote
	logger     *log.Logger
	toggleMode string
	now        func() time.Time

	items   []model.Todo
	version uint64
	loadGen uint64
	// applied counts successful loads; a toggle result is reconciled only
	// against the list it was dispatched on.
	applied uint64
	pending int
	lastErr error
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithToggleMode selects model.ToggleBlind, ToggleConfirmed or ToggleRollback.
func WithToggleMode(mode string) Option {
	return func(c *Controller) { c.toggleMode = mode }
}

// WithClock replaces the clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New returns a controller with an empty list.
func New(remote Remote, opts ...Option) *Controller {
	c := &Controller{
		remote:     remote,
		logger:     log.New(io.Discard),
		toggleMode: model.ToggleBlind,
		now:        time.Now,
		items:      []model.Todo{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches the whole collection. Only the completion of the most
// recent Load is applied; earlier ones are discarded.
func (c *Controller) Load() tea.Cmd {
	c.loadGen++
	c.pending++
	gen := c.loadGen
	remote := c.remote
	return func() tea.Msg {
		todos, err := remote.ListTodos(context.Background())
		return LoadedMsg{Todos: todos, Err: err, gen: gen}
	}
}

// Add creates a todo on the server. It returns nil, issuing nothing, when
// title is blank. The item is appended only once the server returns it.
func (c *Controller) Add(title, body string) tea.Cmd {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}

	req := model.NewTodo{
		Title:     title,
		Body:      strings.TrimSpace(body),
		Timestamp: c.now().UTC().Format(time.RFC3339),
	}
	c.pending++
	remote := c.remote
	return func() tea.Msg {
		todo, err := remote.CreateTodo(context.Background(), req)
		return CreatedMsg{Todo: todo, Err: err}
	}
}

// Toggle asks the server to flip the completion of id. When the local item
// flips depends on the toggle mode.
func (c *Controller) Toggle(id model.TodoID) tea.Cmd {
	flipped := false
	if c.toggleMode == model.ToggleRollback {
		flipped = c.flip(id)
	}

	c.pending++
	remote := c.remote
	applied := c.applied
	return func() tea.Msg {
		err := remote.ToggleTodo(context.Background(), id)
		return ToggledMsg{ID: id, Err: err, flipped: flipped, applied: applied}
	}
}

// Reorder moves the item at from to index to. It never contacts the server.
// It reports false and changes nothing when either index is out of range.
func (c *Controller) Reorder(from, to int) bool {
	if !move(c.items, from, to) {
		c.logger.Debug("reorder ignored", "from", from, "to", to, "len", len(c.items))
		return false
	}
	if from != to {
		c.version++
	}
	return true
}

// Apply folds a result message into the list. It reports whether msg was
// one of the controller's messages.
func (c *Controller) Apply(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case LoadedMsg:
		c.pending--
		c.applyLoaded(msg)
	case CreatedMsg:
		c.pending--
		c.applyCreated(msg)
	case ToggledMsg:
		c.pending--
		c.applyToggled(msg)
	default:
		return false
	}
	return true
}

func (c *Controller) applyLoaded(msg LoadedMsg) {
	if msg.gen != c.loadGen {
		c.logger.Debug("discarding stale load", "gen", msg.gen, "latest", c.loadGen)
		return
	}
	if msg.Err != nil {
		c.fail("load", msg.Err)
		return
	}

	seen := make(map[model.TodoID]bool, len(msg.Todos))
	items := make([]model.Todo, 0, len(msg.Todos))
	for _, t := range msg.Todos {
		if !t.Complete() {
			c.logger.Warn("dropping incomplete item from load", "id", t.ID, "title", t.Title)
			continue
		}
		if seen[t.ID] {
			c.logger.Warn("dropping duplicate id from load", "id", t.ID)
			continue
		}
		seen[t.ID] = true
		items = append(items, t)
	}

	c.items = items
	c.version++
	c.applied++
	c.lastErr = nil
	c.logger.Info("loaded todos", "count", len(items))
}

func (c *Controller) applyCreated(msg CreatedMsg) {
	if msg.Err != nil {
		c.fail("add", msg.Err)
		return
	}
	if !msg.Todo.Complete() {
		c.reject("add", fmt.Errorf("server returned incomplete todo (id %q)", msg.Todo.ID))
		return
	}
	if c.index(msg.Todo.ID) >= 0 {
		c.reject("add", fmt.Errorf("server returned duplicate id %s", msg.Todo.ID))
		return
	}

	c.items = append(c.items, msg.Todo)
	c.version++
	c.logger.Info("added todo", "id", msg.Todo.ID)
}

func (c *Controller) applyToggled(msg ToggledMsg) {
	if msg.Err != nil {
		c.fail("toggle", msg.Err)
	}

	// A load applied since dispatch already holds the server's state for id.
	if c.toggleMode != model.ToggleBlind && msg.applied != c.applied {
		c.logger.Debug("toggle result superseded by load", "id", msg.ID)
		return
	}

	switch c.toggleMode {
	case model.ToggleConfirmed:
		if msg.Err == nil {
			c.flip(msg.ID)
		}
	case model.ToggleRollback:
		if msg.Err != nil && msg.flipped {
			c.flip(msg.ID)
			c.logger.Info("rolled back toggle", "id", msg.ID)
		}
	default:
		c.flip(msg.ID)
	}
}

// flip inverts completed on the item with id. It reports whether one matched.
func (c *Controller) flip(id model.TodoID) bool {
	i := c.index(id)
	if i < 0 {
		c.logger.Debug("toggle for unknown id", "id", id)
		return false
	}
	c.items[i].Completed = !c.items[i].Completed
	c.version++
	return true
}

func (c *Controller) index(id model.TodoID) int {
	for i, t := range c.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) fail(op string, err error) {
	c.lastErr = fmt.Errorf("%s: %w", op, err)
	c.logger.Error("remote call failed", "op", op, "kind", api.Classify(err), "err", err)
}

// reject records a response that arrived but cannot enter the list.
func (c *Controller) reject(op string, err error) {
	c.lastErr = fmt.Errorf("%s: %w", op, err)
	c.logger.Warn("discarding server response", "op", op, "err", err)
}

// Items returns a copy of the list in display order.
func (c *Controller) Items() []model.Todo {
	out := make([]model.Todo, len(c.items))
	copy(out, c.items)
	return out
}

// Find returns the item with id.
func (c *Controller) Find(id model.TodoID) (model.Todo, bool) {
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	return model.Todo{}, false
}

// Len returns the number of items.
func (c *Controller) Len() int { return len(c.items) }

// Version increases on every change to the list.
func (c *Controller) Version() uint64 { return c.version }

// Pending returns the number of requests still in flight.
func (c *Controller) Pending() int { return c.pending }

// LastError returns the most recent remote failure, or nil.
func (c *Controller) LastError() error { return c.lastErr }

// ClearError forgets the last remote failure.
func (c *Controller) ClearError() { c.lastErr = nil }

// ToggleMode returns the active toggle mode.
func (c *Controller) ToggleMode() string { return c.toggleMode }
