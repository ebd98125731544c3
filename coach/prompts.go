package coach

import (
	"fmt"
	"strings"

	"callreview/call"
)

const callPromptTemplate = `You are an AI sales coach analyzing a sales call. Here's the call information:

%s

User Question: %s

Please provide helpful, specific advice based on the call analysis. Focus on:
- Actionable insights
- Specific improvements the rep could make
- Recognition of what went well
- Context-aware recommendations

Keep your response conversational and supportive.`

const generalPromptTemplate = `You are an AI sales coach helping a %s.

User Question: %s

Please provide helpful sales advice and insights. Focus on:
- Best practices in sales
- Communication techniques
- Objection handling strategies
- Performance improvement tips

Keep your response practical and actionable.`

func buildCallPrompt(message string, record call.CallAnalysis) string {
	return fmt.Sprintf(callPromptTemplate, buildCallContext(record), message)
}

func buildGeneralPrompt(message, roleContext string) string {
	return fmt.Sprintf(generalPromptTemplate, roleContext, message)
}

// buildCallContext renders the record into the textual block the model is
// prompted with.
func buildCallContext(record call.CallAnalysis) string {
	analysis := record.Analysis

	var b strings.Builder
	fmt.Fprintf(&b, "Call Title: %s\n", orNA(record.CallTitle))
	fmt.Fprintf(&b, "Sales Rep: %s\n", orNA(record.RepName))
	fmt.Fprintf(&b, "Call Date: %s\n\n", orNA(record.CallDate))
	fmt.Fprintf(&b, "Call Summary: %s\n\n", orDefault(analysis.Summary(), "No summary available"))
	fmt.Fprintf(&b, "Key Objections Raised:\n%s\n\n", formatList(analysis.KeyObjections()))
	fmt.Fprintf(&b, "Buying Signals:\n%s\n\n", formatList(analysis.BuyingSignals()))
	fmt.Fprintf(&b, "Recommendations:\n%s\n\n", formatList(analysis.Recommendations()))
	fmt.Fprintf(&b, "Overall Feedback: %s", orDefault(analysis.OverallFeedback(), "No feedback available"))
	return b.String()
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "- None noted"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	return orDefault(s, "N/A")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
