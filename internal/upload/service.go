package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"chat-clone/internal/history"
	"chat-clone/internal/openai"
	"chat-clone/internal/render"
)

// Progress labels shown while an attachment is ingested.
const (
	LabelUploadingFile  = "⏳ Uploading file..."
	LabelAttachingFile  = "⏳ Attaching file..."
	LabelFileUploaded   = "✅ File uploaded"
	LabelUploadingImage = "⏳ Uploading image..."
	LabelImageUploaded  = "✅ Image uploaded"
)

// FileStore is the hosted file API used for text attachments.
// *openai.Client satisfies it.
type FileStore interface {
	UploadFile(ctx context.Context, filename string, content []byte, purpose string) (*openai.File, error)
	AttachVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (*openai.VectorStoreFile, error)
}

// File is one attachment as received from a client.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// Result describes an ingested attachment.
type Result struct {
	Filename      string `json:"filename"`
	Kind          Kind   `json:"kind"`
	MediaType     string `json:"media_type"`
	FileID        string `json:"file_id,omitempty"`
	VectorStoreID string `json:"vector_store_id,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
}

// Options configures a Service.
type Options struct {
	Enabled       bool
	VectorStoreID string
	MaxBytes      int64
}

// Service ingests attachments for a chat session.
type Service struct {
	store   history.Store
	files   FileStore
	options Options
}

// NewService creates an upload service.
func NewService(store history.Store, files FileStore, options Options) *Service {
	return &Service{
		store:   store,
		files:   files,
		options: options,
	}
}

// Enabled reports whether attachments are accepted at all.
func (s *Service) Enabled() bool {
	return s.options.Enabled
}

// MaxBytes returns the per-file size limit, or 0 when unlimited.
func (s *Service) MaxBytes() int64 {
	return s.options.MaxBytes
}

// Ingest validates f and hands it to the matching pipeline. progress is
// called with each status label in order; the final label is reported with
// render.StateComplete.
func (s *Service) Ingest(ctx context.Context, sessionID string, f File, progress func(render.Status)) (*Result, error) {
	if !s.options.Enabled {
		return nil, ErrUploadsDisabled
	}
	if progress == nil {
		progress = func(render.Status) {}
	}

	kind, mediaType, err := Classify(f.Name, f.ContentType)
	if err != nil {
		return nil, err
	}
	if len(f.Content) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyFile, f.Name)
	}
	if s.options.MaxBytes > 0 && int64(len(f.Content)) > s.options.MaxBytes {
		return nil, fmt.Errorf("%w: %q is %d bytes (limit %d)", ErrFileTooLarge, f.Name, len(f.Content), s.options.MaxBytes)
	}

	switch kind {
	case KindText:
		return s.ingestText(ctx, f, mediaType, progress)
	default:
		return s.ingestImage(ctx, sessionID, f, mediaType, progress)
	}
}

func (s *Service) ingestText(ctx context.Context, f File, mediaType string, progress func(render.Status)) (*Result, error) {
	if s.files == nil {
		return nil, errors.New("file uploads are not configured")
	}
	if strings.TrimSpace(s.options.VectorStoreID) == "" {
		return nil, errors.New("VECTOR_STORE_ID is required for text uploads")
	}

	content, err := DecodeText(f.Content, f.ContentType)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Name, err)
	}

	progress(render.Status{Label: LabelUploadingFile, State: render.StateRunning})
	uploaded, err := s.files.UploadFile(ctx, f.Name, content, openai.PurposeUserData)
	if err != nil {
		log.Printf("Upload error: file=%s err=%v", f.Name, err)
		return nil, err
	}

	progress(render.Status{Label: LabelAttachingFile, State: render.StateRunning})
	if _, err := s.files.AttachVectorStoreFile(ctx, s.options.VectorStoreID, uploaded.ID); err != nil {
		log.Printf("Vector store attach error: file=%s file_id=%s err=%v", f.Name, uploaded.ID, err)
		return nil, err
	}

	progress(render.Status{Label: LabelFileUploaded, State: render.StateComplete})
	return &Result{
		Filename:      f.Name,
		Kind:          KindText,
		MediaType:     mediaType,
		FileID:        uploaded.ID,
		VectorStoreID: s.options.VectorStoreID,
	}, nil
}

func (s *Service) ingestImage(ctx context.Context, sessionID string, f File, mediaType string, progress func(render.Status)) (*Result, error) {
	progress(render.Status{Label: LabelUploadingImage, State: render.StateRunning})

	dataURI := DataURI(mediaType, f.Content)
	if err := s.store.AddItems(ctx, sessionID, []history.Item{history.UserImage(dataURI)}); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	progress(render.Status{Label: LabelImageUploaded, State: render.StateComplete})
	return &Result{
		Filename:  f.Name,
		Kind:      KindImage,
		MediaType: mediaType,
		ImageURL:  dataURI,
	}, nil
}

// DataURI encodes content as a base64 data URI.
func DataURI(mediaType string, content []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(content)
}

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// DecodeText returns text content as UTF-8. Content passes through
// unchanged unless it starts with a UTF-16 byte order mark, or contentType
// declares a non-UTF-8 charset and the bytes are not already valid UTF-8.
func DecodeText(content []byte, contentType string) ([]byte, error) {
	switch {
	case bytes.HasPrefix(content, utf8BOM):
		return content, nil
	case bytes.HasPrefix(content, utf16LEBOM):
		return transcode(content[len(utf16LEBOM):], "utf-16le")
	case bytes.HasPrefix(content, utf16BEBOM):
		return transcode(content[len(utf16BEBOM):], "utf-16be")
	}

	label := declaredCharset(contentType)
	if label == "" || utf8.Valid(content) {
		return content, nil
	}
	if _, name := charset.Lookup(label); name == "utf-8" || name == "" {
		return content, nil
	}
	return transcode(content, label)
}

func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["charset"])
}

func transcode(content []byte, label string) ([]byte, error) {
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Bytes(content)
}
