package todolist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/theme"
)

// bodyPreviewLen caps the body excerpt shown next to the title.
const bodyPreviewLen = 40

// TodoItem wraps a model.Todo so it can be used in a bubbles/list.
type TodoItem struct {
	Todo model.Todo
}

// FilterValue returns the string used for fuzzy filtering.
func (i TodoItem) FilterValue() string { return i.Todo.Title }

// Title returns the todo title for the list.
func (i TodoItem) Title() string { return i.Todo.Title }

// Description returns the body preview.
func (i TodoItem) Description() string { return bodyPreview(i.Todo.Body) }

// renderState is shared by pointer between the Model and its delegate so
// the delegate sees grab changes without being rebuilt.
type renderState struct {
	grabbing  bool
	grabIndex int
	showBody  bool
	showTimes bool
	now       func() time.Time
}

// ItemDelegate implements list.ItemDelegate for rendering todos.
type ItemDelegate struct {
	state *renderState
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TodoItem)
	if !ok {
		return
	}
	fmt.Fprint(w, d.renderLine(ti.Todo, index == m.Index(), index))
}

func (d ItemDelegate) renderLine(t model.Todo, isSelected bool, index int) string {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	checkBadge := theme.CheckStyle(t.Completed).Render(check)

	title := t.Title
	if t.Completed {
		title = theme.DimmedStyle.Render(title)
	}

	body := ""
	if d.state.showBody {
		if p := bodyPreview(t.Body); p != "" {
			body = "  " + theme.BodyStyle.Render(p)
		}
	}

	when := ""
	if d.state.showTimes {
		if rel := relativeTime(t.CreatedAt, d.state.now()); rel != "" {
			when = "  " + theme.TimeStyle.Render(rel)
		}
	}

	line := fmt.Sprintf("%s %s%s%s", checkBadge, title, body, when)

	switch {
	case d.state.grabbing && index == d.state.grabIndex:
		return theme.GrabbedItemStyle.Render("≡ " + line)
	case isSelected:
		return theme.SelectedItemStyle.Render(line)
	default:
		return theme.ListItemStyle.Render(line)
	}
}

// bodyPreview returns the first line of body, shortened.
func bodyPreview(body string) string {
	body = strings.TrimSpace(body)
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = strings.TrimSpace(body[:i]) + " …"
	}
	runes := []rune(body)
	if len(runes) > bodyPreviewLen {
		return string(runes[:bodyPreviewLen-1]) + "…"
	}
	return body
}

// relativeTime turns an RFC 3339 timestamp into a short age string.
// Unparseable timestamps render as nothing.
func relativeTime(ts string, now time.Time) string {
	if ts == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}
