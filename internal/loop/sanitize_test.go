package loop

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestClampRating(t *testing.T) {
	assert.Nil(t, ClampRating(nil))
	assert.Equal(t, 1, *ClampRating(intPtr(-3)))
	assert.Equal(t, 1, *ClampRating(intPtr(0)))
	assert.Equal(t, 3, *ClampRating(intPtr(3)))
	assert.Equal(t, 5, *ClampRating(intPtr(9)))
}

func TestRatingFromFloat(t *testing.T) {
	assert.Nil(t, RatingFromFloat(nil))
	assert.Nil(t, RatingFromFloat(floatPtr(math.NaN())))
	assert.Nil(t, RatingFromFloat(floatPtr(math.Inf(1))))
	assert.Equal(t, 3, *RatingFromFloat(floatPtr(3.9)), "floor, not round")
	assert.Equal(t, 1, *RatingFromFloat(floatPtr(0.2)))
	assert.Equal(t, 5, *RatingFromFloat(floatPtr(42)))
}

func TestCleanStrings(t *testing.T) {
	t.Run("trims and drops empties", func(t *testing.T) {
		got := CleanStrings([]string{" a ", "", "  ", "b"}, 10, 100)
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("caps list length", func(t *testing.T) {
		in := make([]string, 30)
		for i := range in {
			in[i] = "task"
		}
		assert.Len(t, CleanStrings(in, 20, 100), 20)
	})

	t.Run("caps entry length", func(t *testing.T) {
		got := CleanStrings([]string{strings.Repeat("x", 400)}, 10, 280)
		require.Len(t, got, 1)
		assert.Len(t, got[0], 280)
	})

	t.Run("all empty yields nil", func(t *testing.T) {
		assert.Nil(t, CleanStrings([]string{"", "  "}, 10, 100))
		assert.Nil(t, CleanStrings(nil, 10, 100))
	})
}

func TestNormalizeEnums(t *testing.T) {
	assert.Equal(t, StateActive, NormalizeState("bogus"))
	assert.Equal(t, StateClosed, NormalizeState("closed"))
	assert.Equal(t, PriorityNormal, NormalizePriority(""))
	assert.Equal(t, PriorityHigh, NormalizePriority("high"))
	assert.Equal(t, RecommendNeedsInput, NormalizeRecommendation("maybe?"))
	assert.Equal(t, RecommendStop, NormalizeRecommendation("stop"))
}

func TestNormalizeMaxRounds(t *testing.T) {
	assert.Equal(t, DefaultMaxRounds, NormalizeMaxRounds(0))
	assert.Equal(t, 1, NormalizeMaxRounds(-5))
	assert.Equal(t, 7, NormalizeMaxRounds(7))
	assert.Equal(t, MaxRoundsCap, NormalizeMaxRounds(100))
}

func TestNormalize_RepairsLegacyRecord(t *testing.T) {
	l := &Loop{
		LoopID:       "l1",
		Topic:        "t",
		State:        "unknown_state",
		Priority:     "urgent",
		CurrentRound: 0,
		MaxRounds:    99,
		CreatedAt:    1000,
		UpdatedAt:    500,
		Checkpoints: []Checkpoint{{
			Round:           1,
			Summary:         strings.Repeat("s", 100),
			Recommendation:  "definitely",
			Importance:      intPtr(9),
			Urgency:         intPtr(0),
			EvidenceQuality: intPtr(7),
			WhyNow:          "  " + strings.Repeat("w", 300),
			ProposedTasks:   []string{"", " a "},
			// Stored scores are stale; Normalize must recompute.
			AnalysisQualityScore: -1,
		}},
	}

	Normalize(l)

	assert.Equal(t, StateActive, l.State)
	assert.Equal(t, PriorityNormal, l.Priority)
	assert.Equal(t, 1, l.CurrentRound)
	assert.Equal(t, MaxRoundsCap, l.MaxRounds)
	assert.Equal(t, int64(1000), l.UpdatedAt)

	cp := l.Checkpoints[0]
	assert.Equal(t, RecommendNeedsInput, cp.Recommendation)
	assert.Equal(t, 5, *cp.Importance)
	assert.Equal(t, 1, *cp.Urgency)
	assert.Len(t, cp.WhyNow, MaxWhyNowChars)
	assert.Equal(t, []string{"a"}, cp.ProposedTasks)

	require.NotNil(t, cp.PriorityScore)
	assert.Equal(t, 5, *cp.PriorityScore)
	// 16 (summary 100) + 10 (evidence 5) + 5 (whyNow) + 6 (one task) = 37
	assert.Equal(t, 37, cp.AnalysisQualityScore)
}

func TestNormalize_Idempotent(t *testing.T) {
	l := &Loop{
		LoopID:    "l1",
		Topic:     "t",
		State:     "weird",
		MaxRounds: 50,
		CreatedAt: 10,
		Checkpoints: []Checkpoint{{
			Summary:       "short",
			CitationLinks: []string{" https://example.com ", ""},
			Importance:    intPtr(8),
			Urgency:       intPtr(2),
		}},
	}

	Normalize(l)
	first := l.Clone()
	Normalize(l)

	if diff := cmp.Diff(first, l); diff != "" {
		t.Errorf("second Normalize changed the record (-first +second):\n%s", diff)
	}
}
