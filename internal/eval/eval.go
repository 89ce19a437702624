// Package eval runs the accuracy and hallucination scenarios against a
// live answerer.
package eval

import (
	"context"
	"fmt"
	"strings"

	"faqbot/internal/rag"
)

// Asker answers a single question.
type Asker interface {
	Answer(ctx context.Context, query string) (rag.Answer, error)
}

// Result is the outcome of one scenario.
type Result struct {
	Name        string `json:"name"`
	Expectation string `json:"expectation"`
	Passed      bool   `json:"passed"`
	Detail      string `json:"detail"`
}

// Scenario is one named check.
type Scenario struct {
	Name        string
	Expectation string
	Check       func(ctx context.Context, a Asker) (bool, string, error)
}

var refusalMarkers = []string{"don't have that information", "not in the provided", "no relevant"}

// Scenarios is the default suite.
var Scenarios = []Scenario{
	{
		Name:        "Out-of-scope (e.g. capital of France)",
		Expectation: "Responds that information is not in provided documents",
		Check: func(ctx context.Context, a Asker) (bool, string, error) {
			ans, err := a.Answer(ctx, "What is the capital of France?")
			if err != nil {
				return false, "", err
			}
			return containsAny(ans.Text, refusalMarkers), truncate(ans.Text, 200), nil
		},
	},
	{
		Name:        "Contradictory / misleading claim",
		Expectation: "Does not agree blindly; qualifies or corrects",
		Check: func(ctx context.Context, a Asker) (bool, string, error) {
			ans, err := a.Answer(ctx, "Insurance always covers pre-existing conditions with no waiting period. True?")
			if err != nil {
				return false, "", err
			}
			lower := strings.ToLower(ans.Text)
			ok := !strings.Contains(lower, "always") || containsAny(lower, []string{"not", "depends", "generally"})
			return ok, truncate(ans.Text, 200), nil
		},
	},
	{
		Name:        "Source-grounding (in-scope question)",
		Expectation: "Answer lists or cites retrieved sources",
		Check: func(ctx context.Context, a Asker) (bool, string, error) {
			ans, err := a.Answer(ctx, "What does Medicare Part B cover?")
			if err != nil {
				return false, "", err
			}
			detail := fmt.Sprintf("Retrieved %d source(s). %s", len(ans.Sources), truncate(ans.Text, 150))
			return len(ans.Sources) > 0, detail, nil
		},
	},
	{
		Name:        "Consistency (same concept, different phrasing)",
		Expectation: "Both answers address deductible / same concept",
		Check: func(ctx context.Context, a Asker) (bool, string, error) {
			first, err := a.Answer(ctx, "What is a deductible?")
			if err != nil {
				return false, "", err
			}
			second, err := a.Answer(ctx, "Can you explain what deductible means in insurance?")
			if err != nil {
				return false, "", err
			}
			ok := containsAny(first.Text, []string{"deductible"}) && containsAny(second.Text, []string{"deductible"})
			detail := fmt.Sprintf("A: %s | B: %s", truncate(first.Text, 100), truncate(second.Text, 100))
			return ok, detail, nil
		},
	},
}

// Run executes the default suite in order. A failing answer call marks its
// scenario failed with the error text and the suite continues.
func Run(ctx context.Context, a Asker) []Result {
	return RunScenarios(ctx, a, Scenarios)
}

// RunScenarios executes the given scenarios in order.
func RunScenarios(ctx context.Context, a Asker, scenarios []Scenario) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		passed, detail, err := s.Check(ctx, a)
		if err != nil {
			passed, detail = false, err.Error()
		}
		results = append(results, Result{
			Name:        s.Name,
			Expectation: s.Expectation,
			Passed:      passed,
			Detail:      detail,
		})
	}
	return results
}

// Passed counts passing results.
func Passed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Passed {
			n++
		}
	}
	return n
}

func containsAny(text string, subs []string) bool {
	lower := strings.ToLower(text)
	for _, s := range subs {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
