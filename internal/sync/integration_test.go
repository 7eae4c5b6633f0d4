package sync

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todosync/internal/api"
	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/testutil/fakeapi"
)

func TestControllerAgainstFakeAPI(t *testing.T) {
	srv := fakeapi.New(t)
	srv.Seed(t, model.Todo{Title: "A"})

	c := New(api.NewClient(srv.URL))
	run(t, c, c.Load())
	require.Equal(t, []string{"A"}, titles(c.Items()))

	run(t, c, c.Add("Buy milk", ""))
	items := c.Items()
	require.Equal(t, []string{"A", "Buy milk"}, titles(items))
	assert.Equal(t, model.TodoID("2"), items[1].ID)
	assert.Equal(t, 1, srv.Count(http.MethodPost, "/api/todos"))

	run(t, c, c.Toggle("1"))
	assert.True(t, c.Items()[0].Completed)
	stored, ok := srv.Todo(t, "1")
	require.True(t, ok)
	assert.True(t, stored.Completed)

	require.True(t, c.Reorder(0, 1))
	assert.Equal(t, []string{"Buy milk", "A"}, titles(c.Items()))
	assert.Len(t, srv.Requests(), 3, "reorder sends nothing")

	// Reorder is not persisted: a reload restores server order.
	run(t, c, c.Load())
	assert.Equal(t, []string{"A", "Buy milk"}, titles(c.Items()))
}

func TestBlindToggleDivergesWhenServerFails(t *testing.T) {
	srv := fakeapi.New(t)
	srv.Seed(t, model.Todo{Title: "A"})

	c := New(api.NewClient(srv.URL))
	run(t, c, c.Load())

	srv.FailNext(fakeapi.Fault{Method: http.MethodPut, Status: http.StatusInternalServerError})
	run(t, c, c.Toggle("1"))

	assert.True(t, c.Items()[0].Completed)
	stored, _ := srv.Todo(t, "1")
	assert.False(t, stored.Completed, "server state was not changed")
	assert.Equal(t, api.KindStatus, api.Classify(c.LastError()))
}

func TestMalformedLoadLeavesListEmpty(t *testing.T) {
	srv := fakeapi.New(t)
	srv.Seed(t, model.Todo{Title: "A"})
	srv.FailNext(fakeapi.Fault{Malformed: true})

	c := New(api.NewClient(srv.URL))
	run(t, c, c.Load())

	assert.Empty(t, c.Items())
	assert.Equal(t, api.KindDecode, api.Classify(c.LastError()))
}
