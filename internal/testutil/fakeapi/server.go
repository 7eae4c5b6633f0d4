// Package fakeapi runs an in-process todo API for tests. It serves the same
// routes and JSON shapes as the real backend from an in-memory SQLite table,
// records every request, and can inject failures.
package fakeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/todosync/internal/model"
)

const schema = `
CREATE TABLE todos (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT    NOT NULL,
	body       TEXT    NOT NULL DEFAULT '',
	completed  INTEGER NOT NULL DEFAULT 0,
	created_at TEXT    NOT NULL
)`

// row mirrors the backend's table and JSON encoding (numeric id).
type row struct {
	ID        int64  `db:"id" json:"id"`
	Title     string `db:"title" json:"title"`
	Body      string `db:"body" json:"body"`
	Completed bool   `db:"completed" json:"completed"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

func (r row) todo() model.Todo {
	return model.Todo{
		ID:        model.TodoID(strconv.FormatInt(r.ID, 10)),
		Title:     r.Title,
		Body:      r.Body,
		Completed: r.Completed,
		CreatedAt: r.CreatedAt,
	}
}

// Request is a recorded inbound request.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Fault describes how the next matching request should fail.
type Fault struct {
	// Method restricts the fault to one HTTP method; empty matches any.
	Method string
	// Status, when non-zero, is written instead of the normal response.
	Status int
	// Header is added to a Status response (e.g. Retry-After).
	Header http.Header
	// Malformed replaces a successful response body with invalid JSON.
	// The request is still applied to the table.
	Malformed bool
	// Drop closes the connection without a response.
	Drop bool
	// Delay holds the response back.
	Delay time.Duration
}

// Server is a running fake API.
type Server struct {
	URL string

	srv *httptest.Server
	db  *sqlx.DB
	now func() time.Time

	mu       sync.Mutex
	faults   []Fault
	requests []Request
}

// New starts a fake API and stops it when the test completes.
func New(t testing.TB) *Server {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening fake api db: %v", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("creating fake api schema: %v", err)
	}

	s := &Server{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}

	r := mux.NewRouter()
	r.Use(s.record)
	r.HandleFunc("/api/todos", s.listTodos).Methods(http.MethodGet)
	r.HandleFunc("/api/todos", s.createTodo).Methods(http.MethodPost)
	r.HandleFunc("/api/todos/{id}", s.toggleTodo).Methods(http.MethodPut)
	r.HandleFunc("/api/health", s.health).Methods(http.MethodGet)

	s.srv = httptest.NewServer(r)
	s.URL = s.srv.URL

	t.Cleanup(func() {
		s.srv.CloseClientConnections()
		s.srv.Close()
		if err := db.Close(); err != nil {
			t.Errorf("closing fake api db: %v", err)
		}
	})

	return s
}

// Seed inserts todos in order and returns them with their assigned ids.
// Any ID on the input is ignored.
func (s *Server) Seed(t testing.TB, todos ...model.Todo) []model.Todo {
	t.Helper()

	out := make([]model.Todo, 0, len(todos))
	for _, td := range todos {
		created := td.CreatedAt
		if created == "" {
			created = s.now().Format(time.RFC3339)
		}
		res, err := s.db.Exec(
			"INSERT INTO todos (title, body, completed, created_at) VALUES (?, ?, ?, ?)",
			td.Title, td.Body, td.Completed, created,
		)
		if err != nil {
			t.Fatalf("seeding todo %q: %v", td.Title, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			t.Fatalf("reading seeded id: %v", err)
		}
		td.ID = model.TodoID(strconv.FormatInt(id, 10))
		td.CreatedAt = created
		out = append(out, td)
	}
	return out
}

// Todo returns the stored todo with id.
func (s *Server) Todo(t testing.TB, id model.TodoID) (model.Todo, bool) {
	t.Helper()

	var r row
	err := s.db.Get(&r, "SELECT id, title, body, completed, created_at FROM todos WHERE id = ?", id.String())
	if err != nil {
		return model.Todo{}, false
	}
	return r.todo(), true
}

// FailNext queues a fault for the next request that matches it.
func (s *Server) FailNext(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, f)
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// takeFault pops the first queued fault matching method.
func (s *Server) takeFault(method string) (Fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.faults {
		if f.Method == "" || f.Method == method {
			s.faults = append(s.faults[:i], s.faults[i+1:]...)
			return f, true
		}
	}
	return Fault{}, false
}

// record logs the request and applies any queued fault.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		f, ok := s.takeFault(r.Method)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		if f.Delay > 0 {
			select {
			case <-time.After(f.Delay):
			case <-r.Context().Done():
				return
			}
		}

		switch {
		case f.Drop:
			hj, ok := w.(http.Hijacker)
			if !ok {
				http.Error(w, "hijack unsupported", http.StatusInternalServerError)
				return
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				conn.Close()
			}
		case f.Status != 0:
			for k, vs := range f.Header {
				for _, v := range vs {
					w.Header().Add(k, v)
				}
			}
			http.Error(w, http.StatusText(f.Status), f.Status)
		case f.Malformed:
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, r)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(rec.Code)
			fmt.Fprint(w, `{"id": 1, "title": `)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (s *Server) listTodos(w http.ResponseWriter, r *http.Request) {
	rows := make([]row, 0)
	err := s.db.SelectContext(r.Context(), &rows,
		"SELECT id, title, body, completed, created_at FROM todos ORDER BY id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

func (s *Server) createTodo(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title     string `json:"title"`
		Body      string `json:"body"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if input.Title == "" {
		http.Error(w, "title required", http.StatusBadRequest)
		return
	}
	if input.Timestamp == "" {
		input.Timestamp = s.now().Format(time.RFC3339)
	}

	res, err := s.db.ExecContext(r.Context(),
		"INSERT INTO todos (title, body, created_at) VALUES (?, ?, ?)",
		input.Title, input.Body, input.Timestamp,
	)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	id, err := res.LastInsertId()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, row{
		ID:        id,
		Title:     input.Title,
		Body:      input.Body,
		CreatedAt: input.Timestamp,
	})
}

func (s *Server) toggleTodo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	_, err := s.db.ExecContext(r.Context(),
		"UPDATE todos SET completed = NOT completed WHERE id = ?", id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
