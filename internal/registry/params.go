package registry

import "math"

// Params is the union of inputs across all registry actions. Numeric fields
// are pointers to raw JSON numbers so "absent" and "present but junk" stay
// distinguishable until normalization.
type Params struct {
	Action string

	// start
	Topic     string
	Priority  string
	MaxRounds *float64

	// checkpoint
	LoopID          string
	Summary         string
	Critique        string
	Recommendation  string
	ProposedTasks   []string
	Importance      *float64
	Urgency         *float64
	Confidence      *float64
	EvidenceQuality *float64
	CitationLinks   []string
	Counterpoints   []string
	WhyNow          string

	// continue / close
	Reason string

	// list
	State      string
	View       string
	StaleHours *float64
	Limit      *float64
}

// ParamsFromMap decodes a raw JSON-decoded params object. Fields of the
// wrong type are treated as absent; normalization clamps the rest later.
func ParamsFromMap(m map[string]any) Params {
	return Params{
		Action:          stringField(m, "action"),
		Topic:           stringField(m, "topic"),
		Priority:        stringField(m, "priority"),
		MaxRounds:       numberField(m, "maxRounds"),
		LoopID:          stringField(m, "loopId"),
		Summary:         stringField(m, "summary"),
		Critique:        stringField(m, "critique"),
		Recommendation:  stringField(m, "recommendation"),
		ProposedTasks:   stringListField(m, "proposedTasks"),
		Importance:      numberField(m, "importance"),
		Urgency:         numberField(m, "urgency"),
		Confidence:      numberField(m, "confidence"),
		EvidenceQuality: numberField(m, "evidenceQuality"),
		CitationLinks:   stringListField(m, "citationLinks"),
		Counterpoints:   stringListField(m, "counterpoints"),
		WhyNow:          stringField(m, "whyNow"),
		Reason:          stringField(m, "reason"),
		State:           stringField(m, "state"),
		View:            stringField(m, "view"),
		StaleHours:      numberField(m, "staleHours"),
		Limit:           numberField(m, "limit"),
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func numberField(m map[string]any, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

func stringListField(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
