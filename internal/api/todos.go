package api

import (
	"context"
	"net/url"

	"github.com/nhle/todosync/internal/model"
)

const todosPath = "/api/todos"

// ListTodos fetches the whole collection in server order.
func (c *Client) ListTodos(ctx context.Context) ([]model.Todo, error) {
	var todos []model.Todo
	if err := c.Get(ctx, todosPath, &todos); err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	return todos, nil
}

// CreateTodo posts a creation request and returns the item as stored by
// the server, including its assigned identifier.
func (c *Client) CreateTodo(ctx context.Context, req model.NewTodo) (model.Todo, error) {
	var created model.Todo
	if err := c.Post(ctx, todosPath, req, &created); err != nil {
		return model.Todo{}, err
	}
	return created, nil
}

// ToggleTodo asks the server to flip the completion state of id.
// The response body is not read.
func (c *Client) ToggleTodo(ctx context.Context, id model.TodoID) error {
	return c.Put(ctx, todosPath+"/"+url.PathEscape(id.String()), nil, nil)
}

// Health checks GET /api/health.
func (c *Client) Health(ctx context.Context) error {
	return c.Get(ctx, "/api/health", nil)
}
