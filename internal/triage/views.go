package triage

import (
	"sort"

	"loopnerd/internal/loop"
)

// View selects one of the list projections.
type View string

const (
	ViewAll           View = "all"
	ViewNeedsDecision View = "needs_decision"
	ViewNeedsReview   View = "needs_review"
	ViewHot           View = "hot"
	ViewStale         View = "stale"
)

// List parameter bounds.
const (
	DefaultLimit = 20
	MaxLimit     = 100

	DefaultStaleHours = 24
	MinStaleHours     = 1
	MaxStaleHours     = 720
)

// Options filters and shapes a list query. The zero value means: all loops,
// default limit, default staleness window.
type Options struct {
	// State, when it names a known loop state, restricts results to it.
	State string

	// View selects the projection; empty means ViewAll.
	View View

	// StaleHours is the staleness window for ViewStale, in hours.
	StaleHours float64

	// Limit caps the number of entries returned.
	Limit int

	// Now is the query time in Unix milliseconds (for staleness).
	Now int64
}

// Entry is the per-loop list projection.
type Entry struct {
	LoopID       string        `json:"loopId"`
	Topic        string        `json:"topic"`
	State        loop.State    `json:"state"`
	CurrentRound int           `json:"currentRound"`
	MaxRounds    int           `json:"maxRounds"`
	Priority     loop.Priority `json:"priority"`
	UpdatedAt    int64         `json:"updatedAt"`

	LastCheckpointAt         *int64              `json:"lastCheckpointAt,omitempty"`
	LastRecommendation       loop.Recommendation `json:"lastRecommendation,omitempty"`
	LastAnalysisQualityScore *int                `json:"lastAnalysisQualityScore,omitempty"`
	LastCitationCount        *int                `json:"lastCitationCount,omitempty"`
	LastPriorityScore        *int                `json:"lastPriorityScore,omitempty"`

	NeedsReview bool `json:"needsReview"`
}

// List applies the state filter, the view's own filter and sort, and the
// entry limit. The caller has already restricted loops to one owner. Output
// order is deterministic: every sort falls back to updatedAt descending and
// finally loopId ascending.
func List(loops []*loop.Loop, opts Options) []Entry {
	limit := clampLimit(opts.Limit)
	staleHours := clampStaleHours(opts.StaleHours)

	matched := make([]*loop.Loop, 0, len(loops))
	for _, l := range loops {
		if opts.State != "" && !matchesState(l, opts.State) {
			continue
		}
		if !matchesView(l, opts, staleHours) {
			continue
		}
		matched = append(matched, l)
	}

	if opts.View == ViewHot {
		sortHot(matched)
	} else {
		sortByUpdated(matched)
	}

	if len(matched) > limit {
		matched = matched[:limit]
	}

	entries := make([]Entry, 0, len(matched))
	for _, l := range matched {
		entries = append(entries, project(l))
	}
	return entries
}

func matchesState(l *loop.Loop, state string) bool {
	switch loop.State(state) {
	case loop.StateActive, loop.StateAwaitingDecision, loop.StateClosed:
		return l.State == loop.State(state)
	}
	// Unknown filter values do not restrict.
	return true
}

func matchesView(l *loop.Loop, opts Options, staleHours float64) bool {
	switch opts.View {
	case ViewNeedsDecision:
		return l.State == loop.StateAwaitingDecision
	case ViewNeedsReview:
		return l.State == loop.StateAwaitingDecision && NeedsReview(l)
	case ViewHot:
		return l.State == loop.StateAwaitingDecision
	case ViewStale:
		cutoff := opts.Now - int64(staleHours*float64(60*60*1000))
		return l.State == loop.StateActive && l.UpdatedAt <= cutoff
	default:
		return true
	}
}

// sortByUpdated orders by updatedAt descending, loopId ascending on ties.
func sortByUpdated(loops []*loop.Loop) {
	sort.SliceStable(loops, func(i, j int) bool {
		if loops[i].UpdatedAt != loops[j].UpdatedAt {
			return loops[i].UpdatedAt > loops[j].UpdatedAt
		}
		return loops[i].LoopID < loops[j].LoopID
	})
}

// sortHot orders by last priority score descending (absent sorts as zero),
// then last analysis quality descending, then updatedAt descending.
func sortHot(loops []*loop.Loop) {
	sort.SliceStable(loops, func(i, j int) bool {
		pi, pj := lastPriorityOrZero(loops[i]), lastPriorityOrZero(loops[j])
		if pi != pj {
			return pi > pj
		}
		qi, qj := lastQuality(loops[i]), lastQuality(loops[j])
		if qi != qj {
			return qi > qj
		}
		if loops[i].UpdatedAt != loops[j].UpdatedAt {
			return loops[i].UpdatedAt > loops[j].UpdatedAt
		}
		return loops[i].LoopID < loops[j].LoopID
	})
}

func lastPriorityOrZero(l *loop.Loop) int {
	cp := l.LastCheckpoint()
	if cp == nil || cp.PriorityScore == nil {
		return 0
	}
	return *cp.PriorityScore
}

func lastQuality(l *loop.Loop) int {
	cp := l.LastCheckpoint()
	if cp == nil {
		return 0
	}
	return cp.AnalysisQualityScore
}

func project(l *loop.Loop) Entry {
	e := Entry{
		LoopID:       l.LoopID,
		Topic:        l.Topic,
		State:        l.State,
		CurrentRound: l.CurrentRound,
		MaxRounds:    l.MaxRounds,
		Priority:     l.Priority,
		UpdatedAt:    l.UpdatedAt,
		NeedsReview:  NeedsReview(l),
	}

	if cp := l.LastCheckpoint(); cp != nil {
		at := cp.CreatedAt
		quality := cp.AnalysisQualityScore
		citations := len(cp.CitationLinks)
		e.LastCheckpointAt = &at
		e.LastRecommendation = cp.Recommendation
		e.LastAnalysisQualityScore = &quality
		e.LastCitationCount = &citations
		if cp.PriorityScore != nil {
			score := *cp.PriorityScore
			e.LastPriorityScore = &score
		}
	}
	return e
}

func clampLimit(n int) int {
	if n == 0 {
		return DefaultLimit
	}
	if n < 1 {
		return 1
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

func clampStaleHours(h float64) float64 {
	if h == 0 {
		return DefaultStaleHours
	}
	if h < MinStaleHours {
		return MinStaleHours
	}
	if h > MaxStaleHours {
		return MaxStaleHours
	}
	return h
}
