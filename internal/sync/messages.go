package sync

import "github.com/nhle/todosync/internal/model"

// LoadedMsg is the result of a full-collection fetch.
type LoadedMsg struct {
	Todos []model.Todo
	Err   error
	gen   uint64
}

// CreatedMsg is the result of a creation request.
type CreatedMsg struct {
	Todo model.Todo
	Err  error
}

// ToggledMsg is the result of a completion flip request.
type ToggledMsg struct {
	ID  model.TodoID
	Err error
	// flipped records whether the local item was flipped at dispatch
	// (rollback mode only).
	flipped bool
	applied uint64
}
