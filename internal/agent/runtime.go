package agent

import (
	"context"
	"errors"
	"fmt"

	"chat-clone/internal/openai"
)

// Runtime is the hosted agent backend a Runner streams turns from.
// *openai.Client satisfies it.
type Runtime interface {
	StreamResponse(ctx context.Context, req openai.ResponseRequest) (*openai.ResponseStream, error)
}

// Configurable is implemented by runtimes that can report missing
// credentials before a turn starts.
type Configurable interface {
	Configured() bool
}

// RuntimeUnavailableError indicates the hosted runtime cannot currently execute.
type RuntimeUnavailableError struct {
	Reason string
}

func (e *RuntimeUnavailableError) Error() string {
	if e.Reason == "" {
		return "agent runtime unavailable"
	}
	return fmt.Sprintf("agent runtime unavailable: %s", e.Reason)
}

// IsRuntimeUnavailable returns whether err indicates an unavailable runtime.
func IsRuntimeUnavailable(err error) bool {
	var target *RuntimeUnavailableError
	return errors.As(err, &target)
}

func checkRuntime(runtime Runtime) error {
	if runtime == nil {
		return &RuntimeUnavailableError{Reason: "no runtime configured"}
	}
	if c, ok := runtime.(Configurable); ok && !c.Configured() {
		return &RuntimeUnavailableError{Reason: "OPENAI_API_KEY is not set"}
	}
	return nil
}
