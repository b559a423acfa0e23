package registry

import (
	"loopnerd/internal/loop"
	"loopnerd/internal/triage"
)

// Envelope statuses.
const (
	StatusStarted      = "started"
	StatusCheckpointed = "checkpointed"
	StatusContinued    = "continued"
	StatusClosed       = "closed"
	StatusOK           = "ok"
	StatusError        = "error"
)

// Response is the in-band envelope every operation returns. Errors never
// cross the registry boundary as Go errors or panics; they arrive here as
// status=error with a message.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`

	// Loop is the full loop view for start/checkpoint/continue/status/close.
	Loop *loop.Loop `json:"loop,omitempty"`

	// Loops is the list projection for the list action.
	Loops []triage.Entry `json:"loops,omitempty"`

	// CanContinue and SpawnAdvice accompany checkpoint responses.
	CanContinue *bool               `json:"canContinue,omitempty"`
	SpawnAdvice *triage.SpawnAdvice `json:"spawnAdvice,omitempty"`
}

func errorResponse(msg string) Response {
	return Response{Status: StatusError, Error: msg}
}
