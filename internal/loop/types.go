// Package loop defines the research loop records and the per-loop lifecycle
// state machine. A loop tracks one research topic through a bounded sequence
// of rounds: each round ends with an agent-produced checkpoint and resumes
// (or closes) on an explicit operator decision.
package loop

import (
	"errors"
	"fmt"
)

// State is the lifecycle state of a loop.
type State string

const (
	// StateActive means the loop is in an open round awaiting a checkpoint.
	StateActive State = "active"
	// StateAwaitingDecision means a checkpoint was recorded and the loop is
	// waiting for an operator to continue or close.
	StateAwaitingDecision State = "awaiting_decision"
	// StateClosed is terminal. A closed loop never mutates again.
	StateClosed State = "closed"
)

// Priority is the coarse operator-assigned priority of a loop.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Recommendation is the agent's suggestion recorded with a checkpoint.
type Recommendation string

const (
	RecommendContinue   Recommendation = "continue"
	RecommendStop       Recommendation = "stop"
	RecommendNeedsInput Recommendation = "needs_input"
)

// DecisionKind is the operator's recorded choice.
type DecisionKind string

const (
	DecisionContinue DecisionKind = "continue"
	DecisionClose    DecisionKind = "close"
)

// Bounds for loop configuration and record fields.
const (
	DefaultMaxRounds = 2
	MaxRoundsCap     = 20

	MaxProposedTasks     = 20
	MaxCitationLinks     = 20
	MaxCounterpoints     = 10
	MaxTaskChars         = 280
	MaxCitationChars     = 500
	MaxCounterpointChars = 280
	MaxWhyNowChars       = 280
)

// Checkpoint is an agent-produced synthesis at the end of a round.
type Checkpoint struct {
	Round          int            `json:"round"`
	Summary        string         `json:"summary"`
	Critique       string         `json:"critique,omitempty"`
	Recommendation Recommendation `json:"recommendation,omitempty"`
	ProposedTasks  []string       `json:"proposedTasks,omitempty"`

	// Evidence signals, each an integer rating in [1,5] when present.
	Importance      *int `json:"importance,omitempty"`
	Urgency         *int `json:"urgency,omitempty"`
	Confidence      *int `json:"confidence,omitempty"`
	EvidenceQuality *int `json:"evidenceQuality,omitempty"`

	CitationLinks []string `json:"citationLinks,omitempty"`
	Counterpoints []string `json:"counterpoints,omitempty"`
	WhyNow        string   `json:"whyNow,omitempty"`

	// Derived scores. AnalysisQualityScore is always present (0-100);
	// PriorityScore exists only when both importance and urgency do.
	AnalysisQualityScore int  `json:"analysisQualityScore"`
	PriorityScore        *int `json:"priorityScore,omitempty"`

	CreatedAt int64 `json:"createdAt"`
}

// Decision is an operator-recorded choice to continue or close a loop.
type Decision struct {
	Round     int          `json:"round"`
	Decision  DecisionKind `json:"decision"`
	Reason    string       `json:"reason,omitempty"`
	CreatedAt int64        `json:"createdAt"`
}

// Loop is one research topic tracked through a bounded sequence of rounds.
// Checkpoints and decisions are append-only sublists.
type Loop struct {
	LoopID       string   `json:"loopId"`
	Topic        string   `json:"topic"`
	OwnerAgentID string   `json:"ownerAgentId"`
	State        State    `json:"state"`
	CurrentRound int      `json:"currentRound"`
	MaxRounds    int      `json:"maxRounds"`
	Priority     Priority `json:"priority"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`

	StartedBySessionKey string `json:"startedBySessionKey,omitempty"`

	ClosedAt    int64  `json:"closedAt,omitempty"`
	CloseReason string `json:"closeReason,omitempty"`

	Checkpoints []Checkpoint `json:"checkpoints"`
	Decisions   []Decision   `json:"decisions"`
}

// ErrClosed is returned for any mutating operation against a closed loop.
var ErrClosed = errors.New("loop is closed")

// RecordCheckpoint appends a checkpoint for the current round and moves the
// loop to awaiting_decision. The loop must be active. The checkpoint's round
// and derived scores are set here; the caller supplies the rest.
func (l *Loop) RecordCheckpoint(cp Checkpoint, now int64) error {
	if l.State == StateClosed {
		return ErrClosed
	}
	if l.State != StateActive {
		return fmt.Errorf("loop must be active to checkpoint (current state: %s)", l.State)
	}

	cp.Round = l.CurrentRound
	cp.PriorityScore = PriorityScore(cp.Importance, cp.Urgency)
	cp.AnalysisQualityScore = AnalysisQualityScore(&cp)
	cp.CreatedAt = now

	l.Checkpoints = append(l.Checkpoints, cp)
	l.State = StateAwaitingDecision
	l.touch(now)
	return nil
}

// Continue records a continue decision (tagged with the pre-increment round),
// advances the round by one, and returns the loop to active. The loop must be
// awaiting_decision with room left under its round cap.
func (l *Loop) Continue(reason string, now int64) error {
	if l.State == StateClosed {
		return ErrClosed
	}
	if l.State != StateAwaitingDecision {
		return fmt.Errorf("loop is not awaiting_decision (current state: %s)", l.State)
	}
	if l.CurrentRound >= l.MaxRounds {
		return fmt.Errorf("cannot continue: max rounds reached (%d)", l.MaxRounds)
	}

	l.Decisions = append(l.Decisions, Decision{
		Round:     l.CurrentRound,
		Decision:  DecisionContinue,
		Reason:    reason,
		CreatedAt: now,
	})
	l.CurrentRound++
	l.State = StateActive
	l.touch(now)
	return nil
}

// Close moves the loop to the terminal closed state and records a close
// decision. Closing an already-closed loop is a no-op; the returned bool
// reports whether the loop actually mutated.
func (l *Loop) Close(reason string, now int64) bool {
	if l.State == StateClosed {
		return false
	}

	l.Decisions = append(l.Decisions, Decision{
		Round:     l.CurrentRound,
		Decision:  DecisionClose,
		Reason:    reason,
		CreatedAt: now,
	})
	l.State = StateClosed
	l.ClosedAt = now
	l.CloseReason = reason
	l.touch(now)
	return true
}

// LastCheckpoint returns the most recent checkpoint, or nil if none exists.
func (l *Loop) LastCheckpoint() *Checkpoint {
	if len(l.Checkpoints) == 0 {
		return nil
	}
	return &l.Checkpoints[len(l.Checkpoints)-1]
}

// Clone returns a deep copy. The registry hands out clones so no caller holds
// a mutable reference into the store across an operation boundary.
func (l *Loop) Clone() *Loop {
	out := *l
	out.Checkpoints = make([]Checkpoint, len(l.Checkpoints))
	for i, cp := range l.Checkpoints {
		out.Checkpoints[i] = cp
		out.Checkpoints[i].ProposedTasks = append([]string(nil), cp.ProposedTasks...)
		out.Checkpoints[i].CitationLinks = append([]string(nil), cp.CitationLinks...)
		out.Checkpoints[i].Counterpoints = append([]string(nil), cp.Counterpoints...)
		out.Checkpoints[i].Importance = cloneRating(cp.Importance)
		out.Checkpoints[i].Urgency = cloneRating(cp.Urgency)
		out.Checkpoints[i].Confidence = cloneRating(cp.Confidence)
		out.Checkpoints[i].EvidenceQuality = cloneRating(cp.EvidenceQuality)
		out.Checkpoints[i].PriorityScore = cloneRating(cp.PriorityScore)
	}
	out.Decisions = append([]Decision(nil), l.Decisions...)
	return &out
}

// touch advances updatedAt without ever letting it go backwards, so loop
// timestamps stay non-decreasing even across clock skew.
func (l *Loop) touch(now int64) {
	if now > l.UpdatedAt {
		l.UpdatedAt = now
	}
}

func cloneRating(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
