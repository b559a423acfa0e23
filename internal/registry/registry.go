// Package registry dispatches the six research loop operations (start,
// checkpoint, continue, status, list, close) against the file-backed store.
// Every operation is scoped to the agent resolved from the session key the
// registry was constructed with; loops owned by other agents are invisible
// beyond a distinct "not accessible" error.
package registry

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"loopnerd/internal/identity"
	"loopnerd/internal/logging"
	"loopnerd/internal/loop"
	"loopnerd/internal/store"
	"loopnerd/internal/triage"
)

// Actions accepted by Execute.
const (
	ActionStart      = "start"
	ActionCheckpoint = "checkpoint"
	ActionContinue   = "continue"
	ActionStatus     = "status"
	ActionList       = "list"
	ActionClose      = "close"
)

// Registry is the agent-scoped research loop service. Time and id generation
// are injected capabilities so tests can pin both.
type Registry struct {
	store      *store.Store
	sessionKey string
	agentID    string
	now        func() time.Time
	newID      func() string
	log        *zap.Logger
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator replaces the loop id generator.
func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) { r.newID = newID }
}

// New creates a registry bound to the given store and session key. The
// session key resolves to the owning agent id for every operation.
func New(st *store.Store, sessionKey string, opts ...Option) *Registry {
	r := &Registry{
		store:      st,
		sessionKey: sessionKey,
		agentID:    identity.AgentID(sessionKey),
		now:        time.Now,
		newID:      uuid.NewString,
		log:        logging.Named("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AgentID returns the agent id this registry operates as.
func (r *Registry) AgentID() string {
	return r.agentID
}

// Execute dispatches one operation. toolCallID is opaque and used only for
// log correlation. Execute never panics across this boundary; unexpected
// failures surface as a status=error envelope.
func (r *Registry) Execute(ctx context.Context, toolCallID string, params Params) (resp Response) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = errorResponse(fmt.Sprintf("internal error: %v", rec))
			r.log.Error("operation panicked",
				zap.String("toolCallId", toolCallID),
				zap.String("action", params.Action),
				zap.Any("panic", rec))
		}
	}()

	switch params.Action {
	case ActionStart:
		resp = r.start(ctx, params)
	case ActionCheckpoint:
		resp = r.checkpoint(ctx, params)
	case ActionContinue:
		resp = r.continueLoop(ctx, params)
	case ActionStatus:
		resp = r.status(params)
	case ActionList:
		resp = r.list(params)
	case ActionClose:
		resp = r.close(ctx, params)
	default:
		resp = errorResponse(fmt.Sprintf("unsupported action: %s", params.Action))
	}

	if resp.Status == StatusError {
		r.log.Warn("operation failed",
			zap.String("toolCallId", toolCallID),
			zap.String("action", params.Action),
			zap.String("agent", r.agentID),
			zap.String("error", resp.Error))
	} else {
		r.log.Debug("operation completed",
			zap.String("toolCallId", toolCallID),
			zap.String("action", params.Action),
			zap.String("agent", r.agentID),
			zap.String("status", resp.Status))
	}
	return resp
}

// ownedLoop resolves a loop id for the current agent. A loop owned by a
// different agent yields "not accessible" rather than "not found" so that
// existence never leaks across agents while owners still get a clear
// diagnostic.
func (r *Registry) ownedLoop(doc *store.Document, id string) (*loop.Loop, error) {
	rec, ok := doc.Loops[id]
	if !ok {
		return nil, fmt.Errorf("research loop not found: %s", id)
	}
	if rec.OwnerAgentID != r.agentID {
		return nil, fmt.Errorf("research loop not accessible: %s", id)
	}
	return rec, nil
}

func maxRoundsFromParam(v *float64) int {
	if v == nil {
		return loop.DefaultMaxRounds
	}
	n := int(math.Floor(*v))
	if n < 1 {
		return 1
	}
	if n > loop.MaxRoundsCap {
		return loop.MaxRoundsCap
	}
	return n
}

func recommendationFromParam(s string) loop.Recommendation {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return loop.NormalizeRecommendation(s)
}

func viewFromParam(s string) triage.View {
	switch triage.View(s) {
	case triage.ViewNeedsDecision, triage.ViewNeedsReview, triage.ViewHot, triage.ViewStale:
		return triage.View(s)
	}
	return triage.ViewAll
}
