package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"chat-clone/internal/agent"
	"chat-clone/internal/config"
	"chat-clone/internal/history"
	"chat-clone/internal/openai"
	"chat-clone/internal/upload"
)

const testToken = "test-token-123"

// fakeHostedAPI stands in for the Responses, Files and Vector Store endpoints.
type fakeHostedAPI struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []openai.ResponseRequest
	files    map[string]string
	attached []string
	events   []string
}

func newFakeHostedAPI(t *testing.T) *fakeHostedAPI {
	t.Helper()

	fake := &fakeHostedAPI{
		files: make(map[string]string),
		events: []string{
			`{"type":"response.created","response":{"id":"resp_1","status":"in_progress"}}`,
			`{"type":"response.web_search_call.in_progress","output_index":0}`,
			`{"type":"response.web_search_call.completed","output_index":0}`,
			`{"type":"response.output_item.done","item":{"type":"web_search_call","id":"ws_1","status":"completed"}}`,
			`{"type":"response.output_text.delta","delta":"Hi"}`,
			`{"type":"response.output_text.delta","delta":" there"}`,
			`{"type":"response.output_item.done","item":{"type":"message","role":"assistant","content":[{"type":"output_text","text":"Hi there"}]}}`,
			`{"type":"response.completed","response":{"id":"resp_1","status":"completed","usage":{"input_tokens":3,"output_tokens":2,"total_tokens":5}}}`,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /responses", func(w http.ResponseWriter, r *http.Request) {
		var req openai.ResponseRequest
		json.NewDecoder(r.Body).Decode(&req)
		fake.mu.Lock()
		fake.requests = append(fake.requests, req)
		events := append([]string(nil), fake.events...)
		fake.mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		for _, event := range events {
			fmt.Fprintf(w, "data: %s\n\n", event)
		}
	})
	mux.HandleFunc("POST /files", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		content, _ := io.ReadAll(file)
		fake.mu.Lock()
		fake.files[header.Filename] = string(content)
		fake.mu.Unlock()
		json.NewEncoder(w).Encode(openai.File{ID: "file-1", Filename: header.Filename, Purpose: r.FormValue("purpose")})
	})
	mux.HandleFunc("POST /vector_stores/{id}/files", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		fake.mu.Lock()
		fake.attached = append(fake.attached, r.PathValue("id")+"/"+body["file_id"])
		fake.mu.Unlock()
		json.NewEncoder(w).Encode(openai.VectorStoreFile{ID: body["file_id"], VectorStoreID: r.PathValue("id"), Status: "in_progress"})
	})

	fake.server = httptest.NewServer(mux)
	t.Cleanup(fake.server.Close)
	return fake
}

// setupTestServer wires a server against a fake hosted API and an in-memory store.
func setupTestServer(t *testing.T, variant string) (http.Handler, history.Store, *fakeHostedAPI) {
	t.Helper()

	fake := newFakeHostedAPI(t)
	cfg := &config.Config{
		OpenAIKey:      "sk-test",
		OpenAIBaseURL:  fake.server.URL,
		Variant:        variant,
		VectorStoreID:  "vs_test",
		SessionBackend: config.BackendMemory,
		SessionID:      "chat-history",
		ChatToken:      testToken,
		MaxUploadBytes: 1 << 20,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid config: %v", err)
	}

	store := history.NewMemoryStore()
	client := openai.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	def := agent.DefaultDefinition(cfg.Variant, cfg.Model, cfg.VectorStoreID)
	agentSvc := agent.NewService(store, client, def, agent.ServiceOptions{MaxRunDuration: cfg.MaxRunDuration})
	uploads := upload.NewService(store, client, upload.Options{
		Enabled:       cfg.UploadsEnabled(),
		VectorStoreID: cfg.VectorStoreID,
		MaxBytes:      cfg.MaxUploadBytes,
	})

	srv := NewServer(cfg, store, agentSvc, uploads)
	return NewRouter(srv), store, fake
}

// makeRequest creates an authenticated request with a session header.
func makeRequest(t *testing.T, method, path, body, session string) *http.Request {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	if session != "" {
		req.Header.Set("X-Chat-Session", session)
	}
	return req
}

type testFile struct {
	name        string
	contentType string
	content     []byte
}

// makeUploadRequest builds an authenticated multipart request with "file" parts.
func makeUploadRequest(t *testing.T, session string, files ...testFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.name))
		header.Set("Content-Type", f.contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write(f.content)
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testToken)
	if session != "" {
		req.Header.Set("X-Chat-Session", session)
	}
	return req
}

// readNDJSON decodes every line of an NDJSON body.
func readNDJSON(t *testing.T, body io.Reader) []map[string]any {
	t.Helper()

	var events []map[string]any
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event map[string]any
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("invalid NDJSON line %q: %v", line, err)
		}
		events = append(events, event)
	}
	return events
}

func eventTypes(events []map[string]any) []string {
	types := make([]string, 0, len(events))
	for _, event := range events {
		types = append(types, fmt.Sprint(event["type"]))
	}
	return types
}
