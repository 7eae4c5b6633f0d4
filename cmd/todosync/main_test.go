package main

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"

	"github.com/nhle/todosync/internal/api"
	"github.com/nhle/todosync/internal/logging"
	"github.com/nhle/todosync/internal/testutil/fakeapi"
)

func TestCheckHealth(t *testing.T) {
	srv := fakeapi.New(t)
	client := api.NewClient(srv.URL)

	var buf bytes.Buffer
	assert.True(t, checkHealth(context.Background(), client, logging.New(&buf, log.DebugLevel)))
	assert.Contains(t, buf.String(), "api healthy")
	assert.Equal(t, 1, srv.Count(http.MethodGet, "/api/health"))
}

func TestCheckHealthLogsFailure(t *testing.T) {
	srv := fakeapi.New(t)
	srv.FailNext(fakeapi.Fault{Status: http.StatusServiceUnavailable})
	client := api.NewClient(srv.URL)

	var buf bytes.Buffer
	assert.False(t, checkHealth(context.Background(), client, logging.New(&buf, log.DebugLevel)))
	assert.Contains(t, buf.String(), "api health check failed")
	assert.Contains(t, buf.String(), "kind=status")
}
