package call

import "time"

// Analysis is the free-form payload delivered by the automation workflow.
// Well-known keys are read through the accessors below; anything else is
// stored and returned untouched.
type Analysis map[string]any

// CallAnalysis is one stored call-analysis record. Records are immutable
// once ingested.
type CallAnalysis struct {
	ID            string
	CallID        string
	RepID         string
	RepName       string
	CallTitle     string
	CallDate      string
	TranscriptURL string
	Analysis      Analysis
	CreatedAt     time.Time
}

// IngestParams contains the webhook payload normalized for the service.
type IngestParams struct {
	CallID        string
	RepID         string
	RepName       string
	CallTitle     string
	CallDate      string
	TranscriptURL string
	Analysis      Analysis
}

// Summary returns the analysis summary text, if present.
func (a Analysis) Summary() string {
	return stringAt(a, "summary")
}

// KeyObjections returns the ordered objection strings raised on the call.
func (a Analysis) KeyObjections() []string {
	return stringsAt(a, "key_objections")
}

// BuyingSignals returns the ordered buying-signal strings.
func (a Analysis) BuyingSignals() []string {
	return stringsAt(a, "buying_signals")
}

// Recommendations returns the ordered coaching recommendations.
func (a Analysis) Recommendations() []string {
	return stringsAt(a, "recommendations")
}

// OverallFeedback returns the overall feedback text, if present.
func (a Analysis) OverallFeedback() string {
	return stringAt(a, "overall_feedback")
}

func stringAt(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func stringsAt(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}

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
	default:
		return nil
	}
}
