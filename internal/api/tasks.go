package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nugget/bob-assistant/internal/tasks"
)

// maxTaskTitle bounds titles accepted over HTTP.
const maxTaskTitle = 200

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	if !s.tasksReady(w) {
		return
	}

	var t tasks.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := checkTitle(t.Title); msg != "" {
		s.errorResponse(w, http.StatusBadRequest, msg)
		return
	}
	if t.Status != "" && !t.Status.Valid() {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", t.Status))
		return
	}
	if t.Priority != "" && !t.Priority.Valid() {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid priority %q", t.Priority))
		return
	}

	t.ID = 0
	if err := s.deps.Tasks.Create(&t); err != nil {
		s.logger.Error("create task failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	s.respond(w, http.StatusCreated, &t)
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	if !s.tasksReady(w) {
		return
	}

	q := r.URL.Query()
	status := tasks.Status(q.Get("status"))
	if status != "" && !status.Valid() {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", status))
		return
	}
	limit, ok := s.queryLimit(w, r)
	if !ok {
		return
	}

	list, err := s.deps.Tasks.List(status, limit)
	if err != nil {
		s.logger.Error("list tasks failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if list == nil {
		list = []*tasks.Task{}
	}
	s.respond(w, http.StatusOK, list)
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	t, err := s.deps.Tasks.Get(id)
	if err != nil {
		s.taskError(w, err)
		return
	}
	s.respond(w, http.StatusOK, t)
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	var u tasks.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if u.Title != nil {
		if msg := checkTitle(*u.Title); msg != "" {
			s.errorResponse(w, http.StatusBadRequest, msg)
			return
		}
	}
	if u.Status != nil && !u.Status.Valid() {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", *u.Status))
		return
	}
	if u.Priority != nil && !u.Priority.Valid() {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid priority %q", *u.Priority))
		return
	}

	t, err := s.deps.Tasks.Update(id, u)
	if err != nil {
		s.taskError(w, err)
		return
	}
	s.respond(w, http.StatusOK, t)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Tasks.Delete(id); err != nil {
		s.taskError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) tasksReady(w http.ResponseWriter) bool {
	if s.deps.Tasks == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "task storage not configured")
		return false
	}
	return true
}

// taskID parses the {id} path value.
func (s *Server) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	if !s.tasksReady(w) {
		return 0, false
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.errorResponse(w, http.StatusBadRequest, "invalid task id")
		return 0, false
	}
	return id, true
}

func (s *Server) taskError(w http.ResponseWriter, err error) {
	var nf *tasks.ErrNotFound
	if errors.As(err, &nf) {
		s.errorResponse(w, http.StatusNotFound, fmt.Sprintf("Task with id %d not found", nf.ID))
		return
	}
	s.logger.Error("task operation failed", "error", err)
	s.errorResponse(w, http.StatusInternalServerError, "task operation failed")
}

// queryLimit parses an optional positive ?limit= parameter.
func (s *Server) queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		s.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return n, true
}

func checkTitle(title string) string {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return "title is required"
	case utf8.RuneCountInString(title) > maxTaskTitle:
		return fmt.Sprintf("title must be at most %d characters", maxTaskTitle)
	}
	return ""
}
