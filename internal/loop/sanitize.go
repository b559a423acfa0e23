package loop

import (
	"math"
	"strings"
)

// Normalization runs on every load and before every commit so that legacy or
// hand-edited records are repaired in place. All functions here are
// idempotent: normalizing a normalized record changes nothing.

// Normalize repairs a loop record in place: enum fallbacks, rating clamps,
// string and list caps, and recomputation of missing derived scores.
func Normalize(l *Loop) {
	l.State = NormalizeState(string(l.State))
	l.Priority = NormalizePriority(string(l.Priority))
	l.MaxRounds = NormalizeMaxRounds(l.MaxRounds)
	if l.CurrentRound < 1 {
		l.CurrentRound = 1
	}
	if l.UpdatedAt < l.CreatedAt {
		l.UpdatedAt = l.CreatedAt
	}

	for i := range l.Checkpoints {
		NormalizeCheckpoint(&l.Checkpoints[i])
	}
}

// NormalizeCheckpoint repairs a single checkpoint in place and recomputes
// its derived scores from the clamped fields.
func NormalizeCheckpoint(cp *Checkpoint) {
	if cp.Recommendation != "" {
		cp.Recommendation = NormalizeRecommendation(string(cp.Recommendation))
	}

	cp.Importance = ClampRating(cp.Importance)
	cp.Urgency = ClampRating(cp.Urgency)
	cp.Confidence = ClampRating(cp.Confidence)
	cp.EvidenceQuality = ClampRating(cp.EvidenceQuality)

	cp.WhyNow = truncate(strings.TrimSpace(cp.WhyNow), MaxWhyNowChars)
	cp.ProposedTasks = CleanStrings(cp.ProposedTasks, MaxProposedTasks, MaxTaskChars)
	cp.CitationLinks = CleanStrings(cp.CitationLinks, MaxCitationLinks, MaxCitationChars)
	cp.Counterpoints = CleanStrings(cp.Counterpoints, MaxCounterpoints, MaxCounterpointChars)

	// Heal derived scores on legacy records. Quality is always recomputed
	// (it is a pure function of the fields above); priority only when both
	// ratings survived the clamp.
	cp.PriorityScore = PriorityScore(cp.Importance, cp.Urgency)
	cp.AnalysisQualityScore = AnalysisQualityScore(cp)
}

// NormalizeState maps unknown state strings to the default, active.
func NormalizeState(s string) State {
	switch State(s) {
	case StateActive, StateAwaitingDecision, StateClosed:
		return State(s)
	}
	return StateActive
}

// NormalizePriority maps unknown priority strings to normal.
func NormalizePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return Priority(s)
	}
	return PriorityNormal
}

// NormalizeRecommendation maps unknown recommendation strings to needs_input.
func NormalizeRecommendation(s string) Recommendation {
	switch Recommendation(s) {
	case RecommendContinue, RecommendStop, RecommendNeedsInput:
		return Recommendation(s)
	}
	return RecommendNeedsInput
}

// NormalizeMaxRounds clamps a round cap to [1,20], defaulting to 2 for the
// zero value.
func NormalizeMaxRounds(n int) int {
	if n == 0 {
		return DefaultMaxRounds
	}
	if n < 1 {
		return 1
	}
	if n > MaxRoundsCap {
		return MaxRoundsCap
	}
	return n
}

// ClampRating clamps a rating pointer to [1,5], preserving nil.
func ClampRating(v *int) *int {
	if v == nil {
		return nil
	}
	r := *v
	if r < 1 {
		r = 1
	}
	if r > 5 {
		r = 5
	}
	return &r
}

// RatingFromFloat converts a loose numeric rating (as decoded from JSON) to
// a clamped integer rating. Non-finite values are treated as absent.
func RatingFromFloat(v *float64) *int {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	r := int(math.Floor(*v))
	return ClampRating(&r)
}

// CleanStrings trims entries, drops empties, and caps both the list length
// and each entry's length.
func CleanStrings(in []string, maxItems, maxChars int) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = truncate(strings.TrimSpace(s), maxChars)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == maxItems {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
