package sync

import "github.com/nhle/todosync/internal/model"

// NoDestination marks a reorder gesture that ended outside the list.
const NoDestination = -1

// move relocates items[from] to index to, shifting the elements in between.
// It reports false, leaving items untouched, when either index is out of range.
func move(items []model.Todo, from, to int) bool {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return false
	}
	if from == to {
		return true
	}

	item := items[from]
	if from < to {
		copy(items[from:to], items[from+1:to+1])
	} else {
		copy(items[to+1:from+1], items[to:from])
	}
	items[to] = item
	return true
}
