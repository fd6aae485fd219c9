package api

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"chat-clone/internal/render"
	"chat-clone/internal/upload"
)

const (
	maxFilesPerUpload    = 10
	multipartMemoryBytes = 32 << 20
	multipartOverhead    = 1 << 20
)

// UploadEvent is one NDJSON line of an upload progress stream.
type UploadEvent struct {
	Type     string         `json:"type"`
	Filename string         `json:"filename,omitempty"`
	Label    string         `json:"label,omitempty"`
	State    render.State   `json:"state,omitempty"`
	Result   *upload.Result `json:"result,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// handleUpload ingests the "file" parts of a multipart form and streams
// progress per file.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}
	if !s.uploads.Enabled() {
		writeServiceError(w, upload.ErrUploadsDisabled)
		return
	}

	maxBody := s.uploads.MaxBytes()*maxFilesPerUpload + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(multipartMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large: "+err.Error())
			return
		}
		writeBadRequest(w, "Invalid upload: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeBadRequest(w, "No file provided")
		return
	}
	if len(headers) > maxFilesPerUpload {
		writeBadRequest(w, "Too many files")
		return
	}
	limit := s.uploads.MaxBytes()
	for _, header := range headers {
		if _, _, err := upload.Classify(header.Filename, header.Header.Get("Content-Type")); err != nil {
			writeServiceError(w, err)
			return
		}
		if limit > 0 && header.Size > limit {
			writeServiceError(w, fmt.Errorf("%w: %q is %d bytes (limit %d)", upload.ErrFileTooLarge, header.Filename, header.Size, limit))
			return
		}
	}

	release, err := s.agent.TryLockSession(sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer release()

	if !startStream(w) {
		return
	}
	send := func(event UploadEvent) {
		if err := writeStreamEvent(w, event); err != nil {
			log.Printf("Upload stream write error: session=%s err=%v", sessionID, err)
		}
	}

	for _, header := range headers {
		file, err := readPart(header, limit)
		if err != nil {
			send(UploadEvent{Type: "error", Filename: header.Filename, Message: err.Error()})
			continue
		}

		result, err := s.uploads.Ingest(r.Context(), sessionID, file, func(status render.Status) {
			send(UploadEvent{
				Type:     "status",
				Filename: header.Filename,
				Label:    status.Label,
				State:    status.State,
			})
		})
		if err != nil {
			send(UploadEvent{Type: "error", Filename: header.Filename, Message: err.Error()})
			continue
		}
		send(UploadEvent{Type: "uploaded", Filename: header.Filename, Result: result})
	}
	send(UploadEvent{Type: "done"})
}

// readPart reads at most limit+1 bytes so oversized files are still
// reported by the upload service.
func readPart(header *multipart.FileHeader, limit int64) (upload.File, error) {
	f, err := header.Open()
	if err != nil {
		return upload.File{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return upload.File{}, err
	}
	return upload.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}
