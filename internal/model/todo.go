package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TodoID is the opaque, server-assigned identifier of a todo. The API may
// encode it as a JSON number or a JSON string; both decode to the same value.
type TodoID string

// String returns the identifier as text.
func (id TodoID) String() string { return string(id) }

// UnmarshalJSON accepts numbers and strings.
func (id *TodoID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding todo id: %w", err)
		}
		*id = TodoID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding todo id %s: %w", string(data), err)
	}
	*id = TodoID(n.String())
	return nil
}

// Todo is a single item of the remote todo collection.
type Todo struct {
	ID        TodoID `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	Completed bool   `json:"completed"`
	// CreatedAt is advisory only and never compared against the server clock.
	CreatedAt string `json:"created_at,omitempty"`
}

// Complete reports whether both the identifier and the title are known.
// Partially-constructed items never enter the local list.
func (t Todo) Complete() bool {
	return t.ID != "" && strings.TrimSpace(t.Title) != ""
}

// NewTodo is the creation request sent to the collection resource.
type NewTodo struct {
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}
