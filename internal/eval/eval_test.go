package eval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faqbot/internal/domain"
	"faqbot/internal/rag"
)

// mockAsker returns canned answers keyed by question substring.
type mockAsker struct {
	answers map[string]rag.Answer
	err     error
	asked   []string
}

func (m *mockAsker) Answer(_ context.Context, q string) (rag.Answer, error) {
	m.asked = append(m.asked, q)
	if m.err != nil {
		return rag.Answer{}, m.err
	}
	for k, a := range m.answers {
		if strings.Contains(q, k) {
			return a, nil
		}
	}
	return rag.Answer{Text: rag.RefusalPhrase, Sources: []domain.SourceRef{}}, nil
}

func wellBehaved() *mockAsker {
	return &mockAsker{answers: map[string]rag.Answer{
		"pre-existing": {Text: "Not necessarily. Waiting periods may apply depending on the plan. [doc: faq_3]"},
		"Medicare": {
			Text:    "Part B covers outpatient care. [doc: faq_2]",
			Sources: []domain.SourceRef{{ID: "faq_2"}},
		},
		"deductible": {Text: "A deductible is what you pay before coverage begins. [doc: faq_0]"},
	}}
}

func TestRun_AllPass(t *testing.T) {
	m := wellBehaved()

	results := Run(context.Background(), m)

	require.Len(t, results, 4)
	for _, r := range results {
		assert.True(t, r.Passed, "%s: %s", r.Name, r.Detail)
		assert.NotEmpty(t, r.Expectation)
	}
	assert.Equal(t, 4, Passed(results))
	assert.Len(t, m.asked, 5)
	assert.Contains(t, results[2].Detail, "Retrieved 1 source(s).")
}

func TestRun_Failures(t *testing.T) {
	m := &mockAsker{answers: map[string]rag.Answer{
		"France":       {Text: "The capital of France is Paris."},
		"pre-existing": {Text: "True, insurance always covers them."},
		"Medicare":     {Text: "It covers outpatient care."},
		"deductible":   {Text: "It is what you pay first."},
	}}

	results := Run(context.Background(), m)

	assert.Equal(t, 0, Passed(results))
}

func TestRun_AnswerErrorFailsScenario(t *testing.T) {
	m := &mockAsker{err: &domain.TransportError{Service: "generation", Status: 500, Err: errors.New("down")}}

	results := Run(context.Background(), m)

	require.Len(t, results, 4)
	for _, r := range results {
		assert.False(t, r.Passed)
		assert.Contains(t, r.Detail, "generation service returned 500")
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}
