package api

import (
	"encoding/json"
	"net/http"

	"chat-clone/internal/agent"
)

// ChatMessageRequest is the request body for chat endpoints. The session
// comes from the X-Chat-Session header.
type ChatMessageRequest struct {
	Message string `json:"message"`
}

// StopRunRequest is the request body for stopping an active run.
type StopRunRequest struct {
	RunID string `json:"run_id"`
}

func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (agent.ChatRequest, bool) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return agent.ChatRequest{}, false
	}

	var body ChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "Invalid request body")
		return agent.ChatRequest{}, false
	}
	if body.Message == "" {
		writeBadRequest(w, "Message is required")
		return agent.ChatRequest{}, false
	}
	return agent.ChatRequest{SessionID: sessionID, Message: body.Message}, true
}

// handleChat runs a turn and returns the final answer as JSON.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	resp, err := s.agent.Chat(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleChatStream streams a turn as NDJSON events.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	run, err := s.agent.ChatStream(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if !startStream(w) {
		s.agent.StopRun(run.RunID)
		drain(run.Events)
		return
	}

	for event := range run.Events {
		if err := writeStreamEvent(w, event); err != nil {
			drain(run.Events)
			return
		}
	}
}

// handleStopRun stops an active streaming run.
func (s *Server) handleStopRun(w http.ResponseWriter, r *http.Request) {
	var req StopRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if req.RunID == "" {
		writeBadRequest(w, "Run ID is required")
		return
	}

	if !s.agent.StopRun(req.RunID) {
		writeNotFound(w, "Run not found")
		return
	}

	writeSuccess(w, "Run stopped")
}

func drain(events <-chan agent.StreamEvent) {
	go func() {
		for range events {
		}
	}()
}
