package api

import (
	"net/http"

	"github.com/nugget/bob-assistant/internal/email"
)

func (s *Server) handleEmailLogs(w http.ResponseWriter, r *http.Request) {
	if s.deps.EmailLogs == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "email log not configured")
		return
	}
	limit, ok := s.queryLimit(w, r)
	if !ok {
		return
	}
	entries, err := s.deps.EmailLogs.List(limit)
	if err != nil {
		s.logger.Error("list email logs failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to list email logs")
		return
	}
	if entries == nil {
		entries = []*email.LogEntry{}
	}
	s.respond(w, http.StatusOK, entries)
}
