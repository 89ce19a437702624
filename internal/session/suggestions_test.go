package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickSuggestion(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"/1", "What is a deductible?", true},
		{" /5 ", "How is annuity income reported?", true},
		{"/0", "", false},
		{"/6", "", false},
		{"/help", "", false},
		{"1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := PickSuggestion(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggestionList(t *testing.T) {
	list := SuggestionList()

	assert.Contains(t, list, "/1  Concepts: What is a deductible?")
	assert.Contains(t, list, "/3  Policy: Is disability insurance required by law?")
}
