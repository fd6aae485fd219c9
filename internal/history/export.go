package history

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "md"
)

// Export is the document written by the exporters.
type Export struct {
	SessionID  string    `json:"session_id" yaml:"session_id"`
	ExportedAt time.Time `json:"exported_at" yaml:"exported_at"`
	Items      []Item    `json:"items" yaml:"items"`
}

// Exporter writes one session export in a particular format.
type Exporter interface {
	Export(doc *Export, w io.Writer) error
	Extension() string
	ContentType() string
}

// ExporterFor returns the exporter for format ("json", "yaml"/"yml", "md"/"markdown").
func ExporterFor(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		return &JSONExporter{}, nil
	case FormatYAML, "yml":
		return &YAMLExporter{}, nil
	case FormatMarkdown, "markdown":
		return &MarkdownExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// JSONExporter exports sessions as indented JSON.
type JSONExporter struct{}

func (e *JSONExporter) Export(doc *Export, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func (e *JSONExporter) Extension() string   { return "json" }
func (e *JSONExporter) ContentType() string { return "application/json" }

// YAMLExporter exports sessions in YAML format.
type YAMLExporter struct{}

func (e *YAMLExporter) Export(doc *Export, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(doc)
}

func (e *YAMLExporter) Extension() string   { return "yaml" }
func (e *YAMLExporter) ContentType() string { return "application/yaml" }

// MarkdownExporter renders user/assistant text and one-line tool notes.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(doc *Export, w io.Writer) error {
	_, err := io.WriteString(w, renderMarkdown(doc))
	return err
}

func (e *MarkdownExporter) Extension() string   { return "md" }
func (e *MarkdownExporter) ContentType() string { return "text/markdown; charset=utf-8" }

func renderMarkdown(doc *Export) string {
	var b strings.Builder

	b.WriteString("# Chat session\n\n")
	b.WriteString(fmt.Sprintf("- Session ID: `%s`\n", doc.SessionID))
	b.WriteString(fmt.Sprintf("- Exported (UTC): %s\n", doc.ExportedAt.UTC().Format(time.RFC3339)))
	b.WriteString("\n## Conversation\n\n")

	written := 0
	for _, item := range doc.Items {
		section := markdownSection(item)
		if section == "" {
			continue
		}
		written++
		b.WriteString(section)
		b.WriteString("\n\n")
	}

	if written == 0 {
		b.WriteString("_No messages found in this session._\n")
	}
	return b.String()
}

func markdownSection(item Item) string {
	switch item.Type() {
	case TypeWebSearchCall:
		return "_Searched the web._"
	case TypeFileSearchCall:
		return "_Searched the files._"
	case TypeCodeInterpreterCall:
		return "```python\n" + strings.TrimRight(item.Code(), "\n") + "\n```"
	}

	switch item.Role() {
	case RoleUser:
		if text, ok := item.ContentText(); ok {
			text = strings.TrimSpace(text)
			if text == "" {
				return ""
			}
			return "### User\n\n" + text
		}
		if parts, ok := item.ContentParts(); ok {
			images := 0
			for _, part := range parts {
				if _, ok := part["image_url"]; ok {
					images++
				}
			}
			if images > 0 {
				return fmt.Sprintf("### User\n\n_[%d image(s) attached]_", images)
			}
		}
	case "":
	default:
		if item.Type() != TypeMessage {
			return ""
		}
		text := strings.TrimSpace(FirstOutputText(item))
		if text == "" {
			return ""
		}
		return "### Assistant\n\n" + text
	}
	return ""
}

// FirstOutputText returns the text of an assistant message's first content part.
func FirstOutputText(item Item) string {
	if text, ok := item.ContentText(); ok {
		return text
	}
	parts, ok := item.ContentParts()
	if !ok || len(parts) == 0 {
		return ""
	}
	text, _ := parts[0]["text"].(string)
	return text
}
