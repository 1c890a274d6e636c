package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"polyglotshift/internal/executor"
)

// State is the lifecycle stage of one Process call.
type State string

const (
	StateValidating State = "validating"
	StateRunning    State = "running"
	StateJoined     State = "joined"
)

// BackendCall reports the prompt a task sent, or the answer it got back when
// Done is set. Sizes are in bytes; contents are never exposed.
type BackendCall struct {
	Task          string
	PromptBytes   int
	ResponseBytes int
	Done          bool
	Err           error
}

// Observer receives progress for one Process call. Every method except
// OnState is called from the task goroutines and may run concurrently.
type Observer interface {
	OnState(s State)
	OnTaskStart(task string)
	OnBackendCall(call BackendCall)
	OnTaskDone(task string, failure *executor.Failure)
}

type nopObserver struct{}

func (nopObserver) OnState(State)                       {}
func (nopObserver) OnTaskStart(string)                  {}
func (nopObserver) OnBackendCall(BackendCall)           {}
func (nopObserver) OnTaskDone(string, *executor.Failure) {}

// observerHook turns the client hook callbacks into BackendCall events.
type observerHook struct{ obs Observer }

func (h observerHook) Before(_ context.Context, phase, prompt string) {
	h.obs.OnBackendCall(BackendCall{Task: phase, PromptBytes: len(prompt)})
}

func (h observerHook) After(_ context.Context, phase string, raw json.RawMessage, err error) {
	h.obs.OnBackendCall(BackendCall{Task: phase, ResponseBytes: len(raw), Done: true, Err: err})
}

// JoinPolicy decides what the response carries when some tasks fail.
type JoinPolicy string

const (
	// AllOrNothing drops every artifact when any task fails.
	AllOrNothing JoinPolicy = "all-or-nothing"
	// Partial keeps successful artifacts and reports failures per task.
	Partial JoinPolicy = "partial"
)

func ParseJoinPolicy(s string) (JoinPolicy, error) {
	switch JoinPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", AllOrNothing:
		return AllOrNothing, nil
	case Partial:
		return Partial, nil
	default:
		return "", fmt.Errorf("orchestrator: unknown join policy %q", s)
	}
}
