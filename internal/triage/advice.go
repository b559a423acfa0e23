// Package triage derives the operator-attention signals from loop records:
// the needs-review flag, the advisory spawn recommendation, and the filtered
// and sorted list views. Everything here is a pure projection; triage never
// mutates a loop.
package triage

import (
	"fmt"

	"loopnerd/internal/loop"
)

// Quality thresholds used by the derived signals.
const (
	// reviewQualityFloor is the analysis quality below which a checkpoint
	// warrants operator review.
	reviewQualityFloor = 65

	// spawnQualityFloor is the minimum analysis quality for spawn advice.
	spawnQualityFloor = 40

	// spawnConfidenceCeiling: at this confidence or above the agent is sure
	// enough that delegating a sub-agent adds little.
	spawnConfidenceCeiling = 4

	// spawnPriorityFloor is the minimum priority score for spawn advice
	// unless the loop itself is marked high priority.
	spawnPriorityFloor = 12
)

// NeedsReview reports whether the loop's last checkpoint warrants operator
// review: low analysis quality, no critique, or no citations.
func NeedsReview(l *loop.Loop) bool {
	cp := l.LastCheckpoint()
	if cp == nil {
		return false
	}
	return cp.AnalysisQualityScore < reviewQualityFloor ||
		cp.Critique == "" ||
		len(cp.CitationLinks) < 1
}

// SpawnAdvice is the advisory "should I spawn a sub-agent?" signal. It is
// never auto-executed; the reason names the first failing condition when
// spawning is not advised.
type SpawnAdvice struct {
	ShouldSpawn   bool   `json:"shouldSpawn"`
	Reason        string `json:"reason"`
	SuggestedTask string `json:"suggestedTask,omitempty"`
}

// Advise evaluates the spawn conditions against the loop's last checkpoint.
// All must hold: the agent recommended continuing, the loop can continue, a
// proposed follow-up task exists, analysis quality clears the floor, the
// agent is not already confident, and the loop is high priority by score or
// by operator assignment.
func Advise(l *loop.Loop, canContinue bool) SpawnAdvice {
	cp := l.LastCheckpoint()
	if cp == nil {
		return SpawnAdvice{Reason: "no checkpoint recorded yet"}
	}
	if cp.Recommendation != loop.RecommendContinue {
		return SpawnAdvice{Reason: fmt.Sprintf("agent did not recommend continuing (recommendation: %s)", recommendationLabel(cp))}
	}
	if !canContinue {
		return SpawnAdvice{Reason: "loop cannot continue (round cap reached or closed)"}
	}
	if len(cp.ProposedTasks) == 0 {
		return SpawnAdvice{Reason: "no proposed follow-up task to delegate"}
	}
	if cp.AnalysisQualityScore < spawnQualityFloor {
		return SpawnAdvice{Reason: fmt.Sprintf("analysis quality too low to delegate (score %d)", cp.AnalysisQualityScore)}
	}
	if cp.Confidence != nil && *cp.Confidence >= spawnConfidenceCeiling {
		return SpawnAdvice{Reason: fmt.Sprintf("agent confidence already high (%d/5); a sub-agent adds little", *cp.Confidence)}
	}
	if !highPriority(l, cp) {
		return SpawnAdvice{Reason: fmt.Sprintf("priority too low to justify a sub-agent (score %d)", priorityScoreOrZero(cp))}
	}

	return SpawnAdvice{
		ShouldSpawn:   true,
		Reason:        "high-priority continuation with a concrete follow-up task",
		SuggestedTask: cp.ProposedTasks[0],
	}
}

func highPriority(l *loop.Loop, cp *loop.Checkpoint) bool {
	if l.Priority == loop.PriorityHigh {
		return true
	}
	return cp.PriorityScore != nil && *cp.PriorityScore >= spawnPriorityFloor
}

func priorityScoreOrZero(cp *loop.Checkpoint) int {
	if cp.PriorityScore == nil {
		return 0
	}
	return *cp.PriorityScore
}

func recommendationLabel(cp *loop.Checkpoint) string {
	if cp.Recommendation == "" {
		return "none"
	}
	return string(cp.Recommendation)
}
