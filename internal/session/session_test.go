package session

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faqbot/internal/domain"
	"faqbot/internal/llm"
)

func TestSession_Turns(t *testing.T) {
	s := New()
	assert.NotEqual(t, uuid.Nil, s.ID())

	src := []domain.SourceRef{{ID: "faq_0", Text: "A deductible...", Source: "faq.csv"}}
	s.AddUser("What is a deductible?")
	s.AddAssistant("The amount you pay first. [doc: faq_0]", src)

	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, llm.RoleUser, turns[0].Role)
	assert.Equal(t, llm.RoleAssistant, turns[1].Role)
	assert.Equal(t, src, turns[1].Sources)
	assert.False(t, turns[0].At.IsZero())

	assert.Equal(t, "What is a deductible?", s.LastQuestion())
	assert.Equal(t, src, s.LastSources())
}

func TestSession_LastQuestion(t *testing.T) {
	s := New()
	assert.Empty(t, s.LastQuestion())

	s.AddUser("What is a copay?")
	s.AddAssistant("A fixed fee.", nil)
	s.AddUser("And a deductible?")

	assert.Equal(t, "And a deductible?", s.LastQuestion())
	assert.Equal(t, 3, s.Len())
}

func TestSession_TurnsIsCopy(t *testing.T) {
	s := New()
	s.AddUser("hello")

	turns := s.Turns()
	turns[0].Content = "changed"

	assert.Equal(t, "hello", s.Turns()[0].Content)
}

func TestSession_Reset(t *testing.T) {
	s := New()
	id := s.ID()
	s.AddUser("hello")

	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.LastSources())
	assert.NotEqual(t, id, s.ID())
}

func TestSessions_Independent(t *testing.T) {
	a, b := New(), New()
	a.AddUser("only in a")

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 0, b.Len())
}

func TestSession_ConcurrentAppend(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddUser("q")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
}
