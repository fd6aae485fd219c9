package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Raw stream event types consumed by the chat front end.
const (
	EventOutputTextDelta      = "response.output_text.delta"
	EventCodeInterpreterDelta = "response.code_interpreter_call_code.delta"
	EventOutputItemDone       = "response.output_item.done"
	EventResponseCreated      = "response.created"
	EventResponseCompleted    = "response.completed"
	EventResponseFailed       = "response.failed"
	EventResponseIncomplete   = "response.incomplete"
	EventError                = "error"
)

const (
	ToolTypeWebSearch       = "web_search"
	ToolTypeFileSearch      = "file_search"
	ToolTypeCodeInterpreter = "code_interpreter"

	defaultCodeContainerType = "auto"
)

const (
	maxStreamLineBytes         = 4 * 1024 * 1024
	initialStreamBufferBytes   = 64 * 1024
	streamEventChannelCapacity = 100
)

// Container configures where hosted code runs.
type Container struct {
	Type string `json:"type" yaml:"type"`
}

// Tool is one hosted tool definition sent with a response request.
type Tool struct {
	Type           string     `json:"type" yaml:"type"`
	VectorStoreIDs []string   `json:"vector_store_ids,omitempty" yaml:"vector_store_ids,omitempty"`
	MaxNumResults  int        `json:"max_num_results,omitempty" yaml:"max_num_results,omitempty"`
	Container      *Container `json:"container,omitempty" yaml:"container,omitempty"`
}

// WebSearchTool returns the hosted web search tool.
func WebSearchTool() Tool {
	return Tool{Type: ToolTypeWebSearch}
}

// FileSearchTool returns a file search tool over the given vector stores.
func FileSearchTool(maxResults int, vectorStoreIDs ...string) Tool {
	return Tool{
		Type:           ToolTypeFileSearch,
		VectorStoreIDs: vectorStoreIDs,
		MaxNumResults:  maxResults,
	}
}

// CodeInterpreterTool returns the code interpreter with an automatic container.
func CodeInterpreterTool() Tool {
	return Tool{
		Type:      ToolTypeCodeInterpreter,
		Container: &Container{Type: defaultCodeContainerType},
	}
}

// ResponseRequest is the body of POST /responses.
type ResponseRequest struct {
	Model        string `json:"model"`
	Instructions string `json:"instructions,omitempty"`
	Input        any    `json:"input"`
	Tools        []Tool `json:"tools,omitempty"`
	Stream       bool   `json:"stream"`
}

// Usage reports token counts for a finished response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Response is the response object carried by lifecycle events.
type Response struct {
	ID     string           `json:"id"`
	Status string           `json:"status"`
	Model  string           `json:"model"`
	Output []map[string]any `json:"output"`
	Usage  *Usage           `json:"usage,omitempty"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Event is one server-sent event from a streamed response.
type Event struct {
	Type           string         `json:"type"`
	SequenceNumber int            `json:"sequence_number,omitempty"`
	OutputIndex    int            `json:"output_index,omitempty"`
	ItemID         string         `json:"item_id,omitempty"`
	Delta          string         `json:"delta,omitempty"`
	Item           map[string]any `json:"item,omitempty"`
	Response       *Response      `json:"response,omitempty"`
	Code           string         `json:"code,omitempty"`
	Message        string         `json:"message,omitempty"`
}

// ErrorMessage returns a human readable failure for error-ish events.
func (e Event) ErrorMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Response != nil && e.Response.Error != nil && e.Response.Error.Message != "" {
		return e.Response.Error.Message
	}
	if e.Type == EventResponseIncomplete {
		return "response incomplete"
	}
	return "response failed"
}

// ResponseStream is an in-flight streamed response. Events is closed when
// the upstream body ends; read or transport failures arrive as an
// EventError event before the close.
type ResponseStream struct {
	Events <-chan Event
}

// StreamResponse starts a streamed response. The returned error covers the
// request itself; failures after the stream opened are delivered as events.
func (c *Client) StreamResponse(ctx context.Context, req ResponseRequest) (*ResponseStream, error) {
	req.Stream = true
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/responses", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}

	out := make(chan Event, streamEventChannelCapacity)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		if err := readEvents(ctx, resp.Body, out); err != nil {
			select {
			case out <- Event{Type: EventError, Message: err.Error()}:
			case <-ctx.Done():
			}
		}
	}()

	return &ResponseStream{Events: out}, nil
}

// readEvents parses an SSE body. Each event's data line is a JSON object
// whose "type" field names the event.
func readEvents(ctx context.Context, body io.Reader, out chan<- Event) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, initialStreamBufferBytes), maxStreamLineBytes)

	var data strings.Builder
	emit := func() error {
		if data.Len() == 0 {
			return nil
		}
		payload := data.String()
		data.Reset()
		if payload == "[DONE]" {
			return nil
		}

		var event Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return nil
		}
		if event.Type == "" {
			return nil
		}
		select {
		case out <- event:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			if err := emit(); err != nil {
				return err
			}
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("stream read error: %w", err)
	}
	return emit()
}
