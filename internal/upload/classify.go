// Package upload ingests chat attachments: text files go to the vector
// store behind file search, images are stored in the session as user input.
package upload

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// Kind is how an attachment is ingested.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

var (
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrUploadsDisabled    = errors.New("uploads are disabled for this chat variant")
	ErrFileTooLarge       = errors.New("file exceeds the upload size limit")
	ErrEmptyFile          = errors.New("file is empty")
)

// AllowedExtensions lists accepted attachment extensions, without dots.
var AllowedExtensions = []string{"txt", "jpg", "jpeg", "png"}

var mediaTypeByExtension = map[string]string{
	"txt":  "text/plain",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// Accept returns the allow-list in the form of an HTML accept attribute.
func Accept() string {
	exts := make([]string, 0, len(AllowedExtensions))
	for _, ext := range AllowedExtensions {
		exts = append(exts, "."+ext)
	}
	return strings.Join(exts, ",")
}

// Extension returns the lower-cased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// Classify decides how a file is ingested. The extension must be on the
// allow-list; the declared media type wins when it is text/* or image/*,
// otherwise the type implied by the extension is used. The returned media
// type carries no parameters.
func Classify(name, contentType string) (Kind, string, error) {
	ext := Extension(name)
	fallback, ok := mediaTypeByExtension[ext]
	if !ok {
		return "", "", fmt.Errorf("%w: %q (allowed: %s)", ErrFileTypeNotAllowed, name, strings.Join(AllowedExtensions, ", "))
	}

	mediaType := fallback
	if declared, _, err := mime.ParseMediaType(contentType); err == nil {
		if strings.HasPrefix(declared, "text/") || strings.HasPrefix(declared, "image/") {
			mediaType = declared
		}
	}

	switch {
	case strings.HasPrefix(mediaType, "text/"):
		return KindText, mediaType, nil
	case strings.HasPrefix(mediaType, "image/"):
		return KindImage, mediaType, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrFileTypeNotAllowed, name)
	}
}
