// Package history stores the ordered conversation items of a chat session.
package history

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	TypeMessage             = "message"
	TypeWebSearchCall       = "web_search_call"
	TypeFileSearchCall      = "file_search_call"
	TypeCodeInterpreterCall = "code_interpreter_call"
)

// ErrInvalidItem is returned when an item carries neither role nor type.
var ErrInvalidItem = errors.New("history item needs a role or a type")

// Item is one persisted conversation record. Items are kept as loose JSON
// objects so they can be sent back to the hosted runtime unchanged.
type Item map[string]any

// SessionSummary describes one stored conversation.
type SessionSummary struct {
	SessionID string    `json:"session_id" yaml:"session_id"`
	ItemCount int       `json:"item_count" yaml:"item_count"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// UserText builds a user message item with plain string content.
func UserText(text string) Item {
	return Item{"role": RoleUser, "content": text}
}

// UserImage builds a user item carrying a single input_image part.
func UserImage(dataURI string) Item {
	return Item{
		"role": RoleUser,
		"content": []any{
			map[string]any{
				"type":      "input_image",
				"detail":    "auto",
				"image_url": dataURI,
			},
		},
	}
}

// Role returns the role field or "".
func (i Item) Role() string {
	return i.str("role")
}

// Type returns the type field or "".
func (i Item) Type() string {
	return i.str("type")
}

// HasRole reports whether the role key is present.
func (i Item) HasRole() bool {
	_, ok := i["role"]
	return ok
}

// HasType reports whether the type key is present.
func (i Item) HasType() bool {
	_, ok := i["type"]
	return ok
}

// Code returns the code field of a code interpreter call.
func (i Item) Code() string {
	return i.str("code")
}

// ContentText returns content when it is a plain string.
func (i Item) ContentText() (string, bool) {
	s, ok := i["content"].(string)
	return s, ok
}

// ContentParts returns content when it is a list of objects. Non-object
// entries are skipped.
func (i Item) ContentParts() ([]map[string]any, bool) {
	switch parts := i["content"].(type) {
	case []any:
		out := make([]map[string]any, 0, len(parts))
		for _, p := range parts {
			if m, ok := p.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out, true
	case []map[string]any:
		return parts, true
	default:
		return nil, false
	}
}

// Validate checks the role-or-type invariant.
func (i Item) Validate() error {
	if !i.HasRole() && !i.HasType() {
		return ErrInvalidItem
	}
	return nil
}

func (i Item) str(key string) string {
	s, _ := i[key].(string)
	return s
}

// normalize round-trips the item through JSON so callers always observe
// the decoded shape ([]any, map[string]any, float64) regardless of backend.
func normalize(item Item) (Item, []byte, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, nil, err
	}
	var out Item
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, nil, err
	}
	return out, data, nil
}

func decodeItem(data []byte) (Item, error) {
	var out Item
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeItems(items []Item) ([][]byte, error) {
	out := make([][]byte, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		_, data, err := normalize(item)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}
