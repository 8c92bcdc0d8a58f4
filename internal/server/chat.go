package server

import (
	"context"
	"net/http"
	"strings"
)

// chatRequest is the assistant request body. Context doubles as the
// conversation key so callers can thread multi-turn conversations;
// absent, the shared default conversation is used.
type chatRequest struct {
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

// chatResponse reports the assistant's answer. ActionTaken is non-null
// only when at least one tool invocation occurred during the turn.
type chatResponse struct {
	Response    string  `json:"response"`
	ActionTaken *string `json:"action_taken"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusUnprocessableEntity, "message is required")
		return
	}

	ctx := r.Context()
	if s.cfg.Agent.ChatTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Agent.ChatTimeout)
		defer cancel()
	}

	mem := s.convs.Get(req.Context)
	result := s.agent.ProcessMessage(ctx, mem, req.Message)
	writeJSON(w, http.StatusOK, chatResponse{
		Response:    result.Response,
		ActionTaken: result.ActionTaken,
	})
}
