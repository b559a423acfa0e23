package loop

// Scoring is deliberately pure: no I/O, no clock reads. The same checkpoint
// inputs always produce the same scores, which lets the store recompute
// scores on load to heal legacy records.

// PriorityScore returns importance * urgency when both ratings are present,
// otherwise nil. Range [1,25] given clamped inputs.
func PriorityScore(importance, urgency *int) *int {
	if importance == nil || urgency == nil {
		return nil
	}
	score := *importance * *urgency
	return &score
}

// AnalysisQualityScore computes the 0-100 completeness heuristic for a
// checkpoint from its evidentiary fields.
func AnalysisQualityScore(cp *Checkpoint) int {
	score := 0

	switch n := len(cp.Summary); {
	case n >= 160:
		score += 20
	case n >= 80:
		score += 16
	case n >= 40:
		score += 12
	case n >= 20:
		score += 8
	}

	if cp.Critique != "" {
		score += 20
	}

	switch n := len(cp.CitationLinks); {
	case n >= 3:
		score += 25
	case n >= 1:
		score += 15
	}

	switch n := len(cp.Counterpoints); {
	case n >= 2:
		score += 15
	case n == 1:
		score += 10
	}

	switch n := len(cp.ProposedTasks); {
	case n >= 2:
		score += 10
	case n == 1:
		score += 6
	}

	if cp.EvidenceQuality != nil {
		score += 2 * *cp.EvidenceQuality
	}

	if cp.WhyNow != "" {
		score += 5
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
