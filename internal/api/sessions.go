package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"chat-clone/internal/history"
)

// handleHistory returns the session's raw items and rendered blocks.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	view, err := s.agent.History(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleReset clears the session's history.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	if err := s.agent.ClearSession(r.Context(), sessionID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, "Session cleared")
}

// handleSessions lists stored sessions.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.agent.ListSessions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
	})
}

// handleExport downloads the session in the requested format.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	exporter, err := history.ExporterFor(r.URL.Query().Get("format"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	items, err := s.store.Items(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sessionID+"."+exporter.Extension()))
	doc := &history.Export{
		SessionID:  sessionID,
		ExportedAt: time.Now().UTC(),
		Items:      items,
	}
	if err := exporter.Export(doc, w); err != nil {
		log.Printf("Export error: session=%s format=%s err=%v", sessionID, exporter.Extension(), err)
	}
}
