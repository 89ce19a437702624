package session

import (
	"strconv"
	"strings"
)

// Suggestion is a sample question offered when a conversation starts.
type Suggestion struct {
	Topic    string
	Question string
}

// Suggestions are grouped by topic and shown in the order listed.
var Suggestions = []Suggestion{
	{Topic: "Concepts", Question: "What is a deductible?"},
	{Topic: "Coverage", Question: "What does Medicare Part B cover?"},
	{Topic: "Policy", Question: "Is disability insurance required by law?"},
	{Topic: "Concepts", Question: "What is coinsurance?"},
	{Topic: "Tax", Question: "How is annuity income reported?"},
}

// PickSuggestion resolves "/N" (1-based) to the Nth suggested question.
func PickSuggestion(input string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(input), "/")
	if !ok {
		return "", false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > len(Suggestions) {
		return "", false
	}
	return Suggestions[n-1].Question, true
}

// SuggestionList renders the suggestions as numbered lines.
func SuggestionList() string {
	var sb strings.Builder
	for i, s := range Suggestions {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("  /" + strconv.Itoa(i+1) + "  " + s.Topic + ": " + s.Question)
	}
	return sb.String()
}
