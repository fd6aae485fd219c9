package upload

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chat-clone/internal/history"
	"chat-clone/internal/openai"
	"chat-clone/internal/render"
)

type stubFiles struct {
	uploaded   map[string][]byte
	attached   []string
	uploadErr  error
	attachErr  error
	lastVector string
}

func (s *stubFiles) UploadFile(_ context.Context, filename string, content []byte, purpose string) (*openai.File, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	if s.uploaded == nil {
		s.uploaded = make(map[string][]byte)
	}
	s.uploaded[filename] = content
	return &openai.File{ID: "file-" + filename, Filename: filename, Purpose: purpose}, nil
}

func (s *stubFiles) AttachVectorStoreFile(_ context.Context, vectorStoreID, fileID string) (*openai.VectorStoreFile, error) {
	if s.attachErr != nil {
		return nil, s.attachErr
	}
	s.lastVector = vectorStoreID
	s.attached = append(s.attached, fileID)
	return &openai.VectorStoreFile{ID: fileID, VectorStoreID: vectorStoreID, Status: "in_progress"}, nil
}

func newTestService(files FileStore, options Options) (*Service, history.Store) {
	store := history.NewMemoryStore()
	return NewService(store, files, options), store
}

func recordProgress(statuses *[]render.Status) func(render.Status) {
	return func(status render.Status) {
		*statuses = append(*statuses, status)
	}
}

func TestIngestTextUploadsAndAttaches(t *testing.T) {
	files := &stubFiles{}
	svc, store := newTestService(files, Options{Enabled: true, VectorStoreID: "vs_1"})

	var statuses []render.Status
	result, err := svc.Ingest(context.Background(), "s1", File{
		Name:        "notes.txt",
		ContentType: "text/plain",
		Content:     []byte("remember the milk"),
	}, recordProgress(&statuses))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if result.Kind != KindText || result.FileID != "file-notes.txt" || result.VectorStoreID != "vs_1" {
		t.Fatalf("unexpected result: %#v", result)
	}
	if files.lastVector != "vs_1" || len(files.attached) != 1 || files.attached[0] != "file-notes.txt" {
		t.Fatalf("expected attach to vs_1, got %q %v", files.lastVector, files.attached)
	}

	wantLabels := []string{LabelUploadingFile, LabelAttachingFile, LabelFileUploaded}
	if len(statuses) != len(wantLabels) {
		t.Fatalf("expected %d progress updates, got %v", len(wantLabels), statuses)
	}
	for i, label := range wantLabels {
		if statuses[i].Label != label {
			t.Fatalf("progress %d: expected %q, got %q", i, label, statuses[i].Label)
		}
	}
	if statuses[2].State != render.StateComplete {
		t.Fatalf("expected final state complete, got %q", statuses[2].State)
	}

	items, _ := store.Items(context.Background(), "s1")
	if len(items) != 0 {
		t.Fatalf("text uploads must not touch the session, got %v", items)
	}
}

func TestIngestTextDecodesToUTF8(t *testing.T) {
	files := &stubFiles{}
	svc, _ := newTestService(files, Options{Enabled: true, VectorStoreID: "vs_1"})

	_, err := svc.Ingest(context.Background(), "s1", File{
		Name:        "menu.txt",
		ContentType: "text/plain; charset=iso-8859-1",
		Content:     []byte("caf\xe9"),
	}, nil)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if got := string(files.uploaded["menu.txt"]); got != "café" {
		t.Fatalf("expected decoded text, got %q", got)
	}
}

func TestIngestTextKeepsUTF8Bytes(t *testing.T) {
	files := &stubFiles{}
	svc, _ := newTestService(files, Options{Enabled: true, VectorStoreID: "vs_1"})

	content := strings.Repeat("a", 1100) + " 안녕하세요 café\n"
	_, err := svc.Ingest(context.Background(), "s1", File{
		Name:        "long.txt",
		ContentType: "text/plain",
		Content:     []byte(content),
	}, nil)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if got := string(files.uploaded["long.txt"]); got != content {
		t.Fatalf("uploaded content changed: got %d bytes, want %d", len(got), len(content))
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name        string
		content     []byte
		contentType string
		want        string
	}{
		{"plain ascii", []byte("hello"), "text/plain", "hello"},
		{"utf-8 without charset", []byte("привет"), "text/plain", "привет"},
		{"meta tag is plain text", []byte(`<meta charset="iso-8859-5"> привет`), "text/plain", `<meta charset="iso-8859-5"> привет`},
		{"declared latin1", []byte("caf\xe9"), "text/plain; charset=iso-8859-1", "café"},
		{"declared latin1 but valid utf-8", []byte("café"), "text/plain; charset=iso-8859-1", "café"},
		{"declared utf-8", []byte("café"), "text/plain; charset=UTF-8", "café"},
		{"unknown charset", []byte("caf\xe9"), "text/plain; charset=x-made-up", "caf\xe9"},
		{"invalid utf-8 without charset", []byte("caf\xe9"), "", "caf\xe9"},
		{"utf-8 bom", []byte("\xef\xbb\xbfhi"), "text/plain", "\xef\xbb\xbfhi"},
		{"utf-16le bom", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "text/plain", "hi"},
		{"utf-16be bom", []byte{0xFE, 0xFF, 0, 'h', 0, 'i'}, "text/plain", "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.content, tt.contentType)
			if err != nil {
				t.Fatalf("DecodeText() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("DecodeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIngestImageStoresDataURI(t *testing.T) {
	svc, store := newTestService(&stubFiles{}, Options{Enabled: true})

	var statuses []render.Status
	result, err := svc.Ingest(context.Background(), "s1", File{
		Name:        "dot.png",
		ContentType: "image/png",
		Content:     []byte{0x89, 'P', 'N', 'G'},
	}, recordProgress(&statuses))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	wantURI := "data:image/png;base64,iVBORw=="
	if result.ImageURL != wantURI {
		t.Fatalf("expected %q, got %q", wantURI, result.ImageURL)
	}
	if len(statuses) != 2 || statuses[0].Label != LabelUploadingImage || statuses[1].Label != LabelImageUploaded {
		t.Fatalf("unexpected progress: %v", statuses)
	}

	items, err := store.Items(context.Background(), "s1")
	if err != nil {
		t.Fatalf("items failed: %v", err)
	}
	if len(items) != 1 || items[0].Role() != history.RoleUser {
		t.Fatalf("expected one user item, got %v", items)
	}
	parts, ok := items[0].ContentParts()
	if !ok || len(parts) != 1 {
		t.Fatalf("expected one content part, got %v", items[0])
	}
	if parts[0]["type"] != "input_image" || parts[0]["detail"] != "auto" || parts[0]["image_url"] != wantURI {
		t.Fatalf("unexpected image part: %v", parts[0])
	}
}

func TestIngestRejections(t *testing.T) {
	disabled, _ := newTestService(&stubFiles{}, Options{Enabled: false})
	if _, err := disabled.Ingest(context.Background(), "s1", File{Name: "a.txt", Content: []byte("x")}, nil); !errors.Is(err, ErrUploadsDisabled) {
		t.Fatalf("expected ErrUploadsDisabled, got %v", err)
	}

	svc, _ := newTestService(&stubFiles{}, Options{Enabled: true, VectorStoreID: "vs_1", MaxBytes: 4})
	if _, err := svc.Ingest(context.Background(), "s1", File{Name: "a.pdf", Content: []byte("x")}, nil); !errors.Is(err, ErrFileTypeNotAllowed) {
		t.Fatalf("expected ErrFileTypeNotAllowed, got %v", err)
	}
	if _, err := svc.Ingest(context.Background(), "s1", File{Name: "a.txt"}, nil); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
	if _, err := svc.Ingest(context.Background(), "s1", File{Name: "a.txt", Content: []byte("too long")}, nil); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestIngestTextRequiresVectorStore(t *testing.T) {
	svc, _ := newTestService(&stubFiles{}, Options{Enabled: true})
	_, err := svc.Ingest(context.Background(), "s1", File{Name: "a.txt", Content: []byte("x")}, nil)
	if err == nil || !strings.Contains(err.Error(), "VECTOR_STORE_ID") {
		t.Fatalf("expected vector store error, got %v", err)
	}
}

func TestIngestTextPropagatesAPIErrors(t *testing.T) {
	files := &stubFiles{attachErr: &openai.APIError{StatusCode: 404, Message: "No vector store found"}}
	svc, _ := newTestService(files, Options{Enabled: true, VectorStoreID: "vs_missing"})

	var statuses []render.Status
	_, err := svc.Ingest(context.Background(), "s1", File{Name: "a.txt", Content: []byte("x")}, recordProgress(&statuses))
	if _, ok := openai.IsAPIError(err); !ok {
		t.Fatalf("expected api error, got %v", err)
	}
	if len(statuses) != 2 || statuses[len(statuses)-1].Label != LabelAttachingFile {
		t.Fatalf("expected progress to stop at attach, got %v", statuses)
	}
}
