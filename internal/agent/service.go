package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chat-clone/internal/history"
	"chat-clone/internal/render"
)

const (
	defaultMaxRunDuration = 10 * time.Minute
	streamEventCapacity   = 100
	runCancelledMessage   = "Run cancelled"
	runTimedOutMessage    = "Run timed out"
)

var ErrSessionBusy = errors.New("session already has an active run")

// ServiceOptions controls run limits.
type ServiceOptions struct {
	MaxRunDuration time.Duration
}

// ChatRequest is the request body for chat endpoints.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is the non-streaming result of a turn.
type ChatResponse struct {
	Response  string `json:"response"`
	Code      string `json:"code,omitempty"`
	SessionID string `json:"session_id"`
	RunID     string `json:"run_id"`
}

// StreamRun contains run metadata and the event stream for one request.
type StreamRun struct {
	RunID  string
	Events <-chan StreamEvent
}

// HistoryView is a session's raw items alongside their rendered blocks.
type HistoryView struct {
	SessionID string         `json:"session_id"`
	Items     []history.Item `json:"items"`
	Blocks    []render.Block `json:"blocks"`
}

type runControl struct {
	cancel chan struct{}
	once   sync.Once
}

// Service orchestrates chat turns: one active run per session, stoppable
// runs and a maximum run duration.
type Service struct {
	store          history.Store
	runner         *Runner
	maxRunDuration time.Duration

	mu               sync.Mutex
	activeRuns       map[string]*runControl
	activeSessionRun map[string]string
}

// NewService creates a chat service.
func NewService(store history.Store, runtime Runtime, definition *Definition, options ServiceOptions) *Service {
	maxDuration := options.MaxRunDuration
	if maxDuration <= 0 {
		maxDuration = defaultMaxRunDuration
	}
	return &Service{
		store:            store,
		runner:           NewRunner(store, runtime, definition),
		maxRunDuration:   maxDuration,
		activeRuns:       make(map[string]*runControl),
		activeSessionRun: make(map[string]string),
	}
}

// Definition returns the agent definition turns are run with.
func (s *Service) Definition() *Definition {
	return s.runner.Definition()
}

// IsSessionBusy reports whether err indicates session concurrency conflict.
func IsSessionBusy(err error) bool {
	return errors.Is(err, ErrSessionBusy)
}

// Chat runs a turn to completion and returns the final assistant text.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	run, err := s.ChatStream(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := &ChatResponse{SessionID: strings.TrimSpace(req.SessionID), RunID: run.RunID}
	var runErr error
	for event := range run.Events {
		switch event.Type {
		case EventText:
			resp.Response = event.Text
		case EventCode:
			resp.Code = event.Text
		case EventError:
			runErr = errors.New(event.Message)
		}
	}
	if runErr != nil {
		return nil, runErr
	}
	return resp, nil
}

// ChatStream starts a turn and returns its event stream. The stream always
// begins with start and an initial status, and always ends with done;
// failures arrive as an error event right before done.
func (s *Service) ChatStream(ctx context.Context, req ChatRequest) (*StreamRun, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return nil, history.ErrSessionRequired
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrMessageRequired
	}
	if err := checkRuntime(s.runner.runtime); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	if err := s.tryBeginSessionRun(sessionID, runID); err != nil {
		return nil, err
	}

	run := s.registerRun(runID)
	runCtx, cancelRun := context.WithCancel(ctx)

	upstream := make(chan StreamEvent, streamEventCapacity)
	var runErr error
	go func() {
		defer close(upstream)
		runErr = s.runner.Run(runCtx, sessionID, message, func(event StreamEvent) {
			select {
			case upstream <- event:
			case <-runCtx.Done():
			}
		})
	}()

	out := make(chan StreamEvent, streamEventCapacity)

	go func() {
		defer close(out)
		defer s.unregisterRun(runID)
		defer s.endSessionRun(sessionID, runID)
		defer cancelRun()

		seq := 0
		send := func(event StreamEvent) {
			seq++
			event.Seq = seq
			event.TS = time.Now().UTC()
			event.RunID = runID
			if event.Type == EventStart || event.Type == EventDone {
				event.SessionID = sessionID
			}
			out <- event
		}
		terminate := func(message string) {
			send(StreamEvent{Type: EventError, Message: message})
			send(StreamEvent{Type: EventDone})
		}

		send(StreamEvent{Type: EventStart})
		send(StreamEvent{Type: EventStatus, Label: render.InitialStatusLabel, State: render.StateRunning})

		timer := time.NewTimer(s.maxRunDuration)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				cancelRun()
				terminate(runCancelledMessage)
				s.drainStream(upstream)
				return
			case <-run.cancel:
				cancelRun()
				terminate(runCancelledMessage)
				s.drainStream(upstream)
				return
			case <-timer.C:
				cancelRun()
				terminate(runTimedOutMessage)
				s.drainStream(upstream)
				return
			case event, ok := <-upstream:
				if !ok {
					if runErr != nil {
						terminate(runErrorMessage(runErr))
						return
					}
					send(StreamEvent{Type: EventDone})
					return
				}
				send(event)
			}
		}
	}()

	return &StreamRun{
		RunID:  runID,
		Events: out,
	}, nil
}

// History returns a session's stored items and their rendered blocks.
func (s *Service) History(ctx context.Context, sessionID string) (*HistoryView, error) {
	sessionID = strings.TrimSpace(sessionID)
	items, err := s.store.Items(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &HistoryView{
		SessionID: sessionID,
		Items:     items,
		Blocks:    render.Replay(items),
	}, nil
}

// ClearSession drops the session's history. A session with an active run
// cannot be cleared.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return history.ErrSessionRequired
	}
	if runID, ok := s.activeRunForSession(sessionID); ok {
		return fmt.Errorf("%w: session_id %q is busy (run_id %s)", ErrSessionBusy, sessionID, runID)
	}
	return s.store.Clear(ctx, sessionID)
}

// ListSessions returns stored sessions, most recently updated first.
func (s *Service) ListSessions(ctx context.Context) ([]history.SessionSummary, error) {
	return s.store.Sessions(ctx)
}

// StopRun stops a currently active streaming run.
func (s *Service) StopRun(runID string) bool {
	s.mu.Lock()
	run, ok := s.activeRuns[runID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	run.once.Do(func() {
		close(run.cancel)
	})
	return true
}

func (s *Service) registerRun(runID string) *runControl {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := &runControl{cancel: make(chan struct{})}
	s.activeRuns[runID] = run
	return run
}

func (s *Service) unregisterRun(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeRuns, runID)
}

func (s *Service) tryBeginSessionRun(sessionID, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if activeRunID, ok := s.activeSessionRun[sessionID]; ok {
		return fmt.Errorf("%w: session_id %q is busy (run_id %s)", ErrSessionBusy, sessionID, activeRunID)
	}
	s.activeSessionRun[sessionID] = runID
	return nil
}

func (s *Service) endSessionRun(sessionID, runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if activeRunID, ok := s.activeSessionRun[sessionID]; ok && activeRunID == runID {
		delete(s.activeSessionRun, sessionID)
	}
}

func (s *Service) activeRunForSession(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	runID, ok := s.activeSessionRun[sessionID]
	return runID, ok
}

// TryLockSession reserves sessionID for work outside a chat turn, such as
// storing an uploaded image. The returned release func must be called.
func (s *Service) TryLockSession(sessionID string) (func(), error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, history.ErrSessionRequired
	}
	lockID := "upload-" + uuid.New().String()
	if err := s.tryBeginSessionRun(sessionID, lockID); err != nil {
		return nil, err
	}
	return func() { s.endSessionRun(sessionID, lockID) }, nil
}

func (s *Service) drainStream(events <-chan StreamEvent) {
	go func() {
		for range events {
		}
	}()
}

func runErrorMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return runCancelledMessage
	case errors.Is(err, context.DeadlineExceeded):
		return runTimedOutMessage
	default:
		return err.Error()
	}
}
