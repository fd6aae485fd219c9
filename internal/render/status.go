// Package render turns stream events and stored history into what the chat page shows.
package render

// State is the visual state of the per-turn status indicator.
type State string

const (
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateError    State = "error"
)

// InitialStatusLabel is shown before the first status event of a turn.
const InitialStatusLabel = "⏳"

// Status is the label/state pair for the turn's status indicator.
type Status struct {
	Label string `json:"label"`
	State State  `json:"state"`
}

var statusByEvent = map[string]Status{
	"response.web_search_call.completed":   {"✅ Web search completed.", StateComplete},
	"response.web_search_call.in_progress": {"🔍 Starting web search...", StateRunning},
	"response.web_search_call.searching":   {"🔍 Web search in progress...", StateRunning},

	"response.file_search_call.completed":   {"✅ File search completed.", StateComplete},
	"response.file_search_call.in_progress": {"🗂️ Starting file search...", StateRunning},
	"response.file_search_call.searching":   {"🗂️ File search in progress...", StateRunning},

	"response.code_interpreter_call_code.done":    {"🤖 Ran code.", StateComplete},
	"response.code_interpreter_call.completed":    {"🤖 Ran code.", StateComplete},
	"response.code_interpreter_call.in_progress":  {"🤖 Running code...", StateRunning},
	"response.code_interpreter_call.interpreting": {"🤖 Running code...", StateRunning},

	"response.completed": {"", StateComplete},
}

// StatusFor returns the status update for a raw event type. Unknown types
// report ok=false and leave the indicator untouched.
func StatusFor(eventType string) (Status, bool) {
	status, ok := statusByEvent[eventType]
	return status, ok
}
