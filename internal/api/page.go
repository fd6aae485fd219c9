package api

import (
	"net/http"

	"chat-clone/internal/upload"
	"chat-clone/internal/web"
)

// HealthResponse describes the running configuration to the page.
type HealthResponse struct {
	Status         string   `json:"status"`
	Variant        string   `json:"variant"`
	Model          string   `json:"model"`
	Tools          []string `json:"tools"`
	UploadsEnabled bool     `json:"uploads_enabled"`
	Accept         string   `json:"accept,omitempty"`
	DefaultSession string   `json:"default_session"`
	Configured     bool     `json:"configured"`
}

// handleIndex serves the chat page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := web.Index()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Page not available")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleHealth reports liveness plus the enabled features.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	def := s.agent.Definition()
	tools := make([]string, 0, len(def.Tools))
	for _, tool := range def.Tools {
		tools = append(tools, tool.Type)
	}

	resp := HealthResponse{
		Status:         "ok",
		Variant:        s.config.Variant,
		Model:          def.Model,
		Tools:          tools,
		UploadsEnabled: s.uploads.Enabled(),
		DefaultSession: s.config.SessionID,
		Configured:     s.config.OpenAIKey != "",
	}
	if resp.UploadsEnabled {
		resp.Accept = upload.Accept()
	}
	writeJSON(w, http.StatusOK, resp)
}
