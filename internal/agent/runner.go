package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chat-clone/internal/history"
	"chat-clone/internal/openai"
	"chat-clone/internal/render"
	"chat-clone/internal/textnorm"
)

// ErrMessageRequired is returned for blank chat messages.
var ErrMessageRequired = errors.New("message is required")

// errIncompleteStream is returned when the upstream closes without a
// terminal response event.
var errIncompleteStream = errors.New("response stream ended before completion")

// Runner executes one conversational turn against the hosted runtime and
// keeps the session history in step with it.
type Runner struct {
	store      history.Store
	runtime    Runtime
	definition *Definition
}

// NewRunner creates a runner for the given agent definition.
func NewRunner(store history.Store, runtime Runtime, definition *Definition) *Runner {
	return &Runner{
		store:      store,
		runtime:    runtime,
		definition: definition,
	}
}

// Definition returns the agent definition turns are run with.
func (r *Runner) Definition() *Definition {
	return r.definition
}

// Run sends message with the session's history as context and reports
// progress through emit, in upstream order. The user message is stored
// before the request; the assistant's output items are stored only once the
// response completes. A cancelled ctx returns ctx.Err().
func (r *Runner) Run(ctx context.Context, sessionID, message string, emit func(StreamEvent)) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrMessageRequired
	}
	if err := checkRuntime(r.runtime); err != nil {
		return err
	}

	items, err := r.store.Items(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	userItem := history.UserText(message)
	if err := r.store.AddItems(ctx, sessionID, []history.Item{userItem}); err != nil {
		return fmt.Errorf("store message: %w", err)
	}

	input := make([]any, 0, len(items)+1)
	for _, item := range items {
		input = append(input, map[string]any(item))
	}
	input = append(input, map[string]any(userItem))

	stream, err := r.runtime.StreamResponse(ctx, r.definition.request(input))
	if err != nil {
		return fmt.Errorf("start response: %w", err)
	}

	text := textnorm.NewTextAccumulator()
	code := textnorm.NewCodeAccumulator()
	outputs := make([]history.Item, 0)
	completed := false

	for !completed {
		var (
			event openai.Event
			ok    bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok = <-stream.Events:
		}
		if !ok {
			break
		}

		if status, known := render.StatusFor(event.Type); known {
			emit(statusEvent(event.Type, status))
		}

		switch event.Type {
		case openai.EventCodeInterpreterDelta:
			if value, changed := code.Push(event.Delta); changed {
				emit(StreamEvent{Type: EventCode, Event: event.Type, Text: value, Delta: event.Delta})
			}
		case openai.EventOutputTextDelta:
			if value, changed := text.Push(event.Delta); changed {
				emit(StreamEvent{Type: EventText, Event: event.Type, Text: value, Delta: event.Delta})
			}
		case openai.EventOutputItemDone:
			item := history.Item(event.Item)
			if item.Validate() == nil {
				outputs = append(outputs, item)
			}
		case openai.EventResponseCompleted:
			completed = true
			if event.Response != nil && event.Response.Usage != nil {
				emit(StreamEvent{Type: EventUsage, Usage: &UsageSnapshot{
					InputTokens:  event.Response.Usage.InputTokens,
					OutputTokens: event.Response.Usage.OutputTokens,
					TotalTokens:  event.Response.Usage.TotalTokens,
				}})
			}
		case openai.EventResponseFailed, openai.EventResponseIncomplete, openai.EventError:
			return errors.New(event.ErrorMessage())
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if !completed {
		return errIncompleteStream
	}
	if err := r.store.AddItems(ctx, sessionID, outputs); err != nil {
		return fmt.Errorf("store response: %w", err)
	}
	return nil
}
