// Package api provides HTTP handlers and middleware for the chat server.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"chat-clone/internal/agent"
	"chat-clone/internal/history"
	"chat-clone/internal/openai"
	"chat-clone/internal/upload"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// SuccessResponse represents a success response body.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response with the given status code.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Detail: message})
}

// writeSuccess writes a success response.
func writeSuccess(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: message})
}

// writeBadRequest writes a 400 Bad Request error.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message)
}

// writeUnauthorized writes a 401 Unauthorized error.
func writeUnauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "Unauthorized")
}

// writeNotFound writes a 404 Not Found error.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, message)
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	case agent.IsSessionBusy(err):
		return http.StatusConflict
	case errors.Is(err, agent.ErrMessageRequired),
		errors.Is(err, history.ErrSessionRequired),
		errors.Is(err, history.ErrInvalidItem),
		errors.Is(err, upload.ErrFileTypeNotAllowed),
		errors.Is(err, upload.ErrEmptyFile):
		return http.StatusBadRequest
	case errors.Is(err, upload.ErrUploadsDisabled):
		return http.StatusForbidden
	case errors.Is(err, upload.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case agent.IsRuntimeUnavailable(err):
		return http.StatusServiceUnavailable
	}
	if _, ok := openai.IsAPIError(err); ok {
		return http.StatusBadGateway
	}
	log.Printf("Unhandled error: %v", err)
	return http.StatusInternalServerError
}

// writeStreamEvent writes one NDJSON line and flushes it.
func writeStreamEvent(w http.ResponseWriter, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

func startStream(w http.ResponseWriter) bool {
	if _, ok := w.(http.Flusher); !ok {
		writeBadRequest(w, "Streaming not supported")
		return false
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	return true
}
