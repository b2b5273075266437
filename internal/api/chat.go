package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nugget/bob-assistant/internal/agent"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// handleChat runs one agent turn. Failed turns still return the full
// result so clients can show the apology text.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.deps.Chat == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "chat not configured")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.errorResponse(w, http.StatusBadRequest, "message is required")
		return
	}

	res := s.deps.Chat.Run(r.Context(), agent.Request{
		Message:        req.Message,
		ConversationID: req.ConversationID,
	})

	code := http.StatusOK
	switch {
	case res.RateLimited:
		code = http.StatusTooManyRequests
	case !res.Success:
		s.logger.Error("chat turn failed",
			"conversation", res.ConversationID,
			"error", res.Error,
		)
		code = http.StatusInternalServerError
	}
	s.respond(w, code, res)
}
