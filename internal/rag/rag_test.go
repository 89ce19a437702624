package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faqbot/internal/chunker"
	"faqbot/internal/domain"
	"faqbot/internal/llm"
	"faqbot/internal/vecindex"
)

var faqDocs = []domain.Document{
	{ID: "faq_0", Source: "insurance_faq.csv", Text: "Q: What is a deductible?\nA: A deductible is the amount you pay before insurance coverage begins."},
	{ID: "faq_1", Source: "insurance_faq.csv", Text: "Q: What is a copay?\nA: A copay is a fixed amount you pay for a covered service."},
	{ID: "faq_2", Source: "insurance_faq.csv", Text: "Q: What does Medicare Part B cover?\nA: Medicare Part B covers outpatient care, doctor visits and preventive services."},
	{ID: "faq_3", Source: "insurance_faq.csv", Text: "Q: Are pre-existing conditions covered?\nA: Plans may apply waiting periods to pre-existing conditions; check your policy."},
}

func faqChunks(t *testing.T) []domain.Chunk {
	t.Helper()
	chunks, err := chunker.New().ChunkAll(faqDocs)
	require.NoError(t, err)
	return chunks
}

func newAnswerer(t *testing.T, build vecindex.Builder) (*Answerer, *groundedGenerator) {
	t.Helper()
	emb := &hashEmbedder{}
	snap, err := Build(context.Background(), faqChunks(t), emb, build)
	require.NoError(t, err)
	t.Cleanup(func() { _ = snap.Close() })

	gen := &groundedGenerator{}
	return &Answerer{Retriever: NewRetriever(snap, emb, 0), Generator: gen}, gen
}

func TestBuildContext(t *testing.T) {
	t.Run("no hits uses marker", func(t *testing.T) {
		assert.Equal(t, NoContextMarker, BuildContext(nil))
	})

	t.Run("tagged blocks in order", func(t *testing.T) {
		hits := []domain.Hit{
			{Chunk: domain.Chunk{ID: "faq_1_abc", DocID: "faq_1", Text: "first"}},
			{Chunk: domain.Chunk{ID: "loose_chunk", Text: "second"}},
		}
		assert.Equal(t, "[doc: faq_1]\nfirst\n\n---\n\n[doc: loose_chunk]\nsecond", BuildContext(hits))
	})
}

func TestBuildMessages(t *testing.T) {
	hits := []domain.Hit{{Chunk: domain.Chunk{DocID: "faq_0", Text: "A deductible is..."}}}

	msgs := BuildMessages(hits, "What is a deductible?")

	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.True(t, strings.HasPrefix(msgs[0].Content, SystemPolicy+"\n\nRetrieved context:\n"))
	assert.Contains(t, msgs[0].Content, "[doc: faq_0]\nA deductible is...")
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "What is a deductible?"}, msgs[1])
	assert.Contains(t, SystemPolicy, RefusalPhrase)
}

func TestFollowUpQuery(t *testing.T) {
	assert.Equal(t, "And a deductible?", FollowUpQuery("", "And a deductible?"))
	assert.Equal(t, "And a deductible?", FollowUpQuery("  ", "And a deductible?"))
	assert.Equal(t, "What is a copay?\nAnd a deductible?", FollowUpQuery("What is a copay?", "And a deductible?"))
}

func TestBuild(t *testing.T) {
	chunks := faqChunks(t)
	emb := &hashEmbedder{}

	snap, err := Build(context.Background(), chunks, emb, vecindex.NewBruteForce)
	require.NoError(t, err)
	defer snap.Close()

	assert.Equal(t, len(chunks), snap.Len())
	assert.Equal(t, len(chunks), snap.Index.Len())
	assert.Equal(t, "hash-bow", snap.Model)

	// Row i of the vectors is the embedding of chunk i.
	for i, c := range chunks {
		vecs, err := emb.Embed(context.Background(), []string{c.Text})
		require.NoError(t, err)
		assert.Equal(t, vecs[0], snap.Vectors[i])
	}
}

func TestBuild_Failures(t *testing.T) {
	_, err := Build(context.Background(), nil, &hashEmbedder{}, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)

	transport := &domain.TransportError{Service: "embedding", Status: 401}
	snap, err := Build(context.Background(), faqChunks(t), &hashEmbedder{err: transport}, nil)
	assert.Nil(t, snap)
	assert.ErrorAs(t, err, &transport)
}

func TestBuild_IdempotentRebuild(t *testing.T) {
	first, err := Build(context.Background(), faqChunks(t), &hashEmbedder{}, nil)
	require.NoError(t, err)
	second, err := Build(context.Background(), faqChunks(t), &hashEmbedder{}, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ChunkIDs(), second.ChunkIDs())
}

func TestRetrieve(t *testing.T) {
	a, _ := newAnswerer(t, vecindex.NewBruteForce)
	r := a.Retriever
	ctx := context.Background()

	t.Run("closest first", func(t *testing.T) {
		hits, err := r.Retrieve(ctx, "What is a deductible?", 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "faq_0", hits[0].Chunk.DocID)
		assert.LessOrEqual(t, hits[0].Distance, hits[1].Distance)
	})

	t.Run("k clamped to corpus", func(t *testing.T) {
		hits, err := r.Retrieve(ctx, "deductible", 50)
		require.NoError(t, err)
		assert.Len(t, hits, len(faqDocs))
	})

	t.Run("default k", func(t *testing.T) {
		hits, err := r.Retrieve(ctx, "deductible", 0)
		require.NoError(t, err)
		assert.Len(t, hits, len(faqDocs))
	})
}

func TestRetriever_Replace(t *testing.T) {
	emb := &hashEmbedder{}
	r := NewRetriever(nil, emb, 3)

	_, err := r.Retrieve(context.Background(), "q", 1)
	assert.Error(t, err)

	snap, err := Build(context.Background(), faqChunks(t), emb, nil)
	require.NoError(t, err)
	assert.Nil(t, r.Replace(snap))
	assert.Same(t, snap, r.Snapshot())

	hits, err := r.Retrieve(context.Background(), "copay", 0)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestRetriever_ReplaceDuringSearch(t *testing.T) {
	tracked := &closeTrackingIndex{}
	build := func(vectors [][]float32) (vecindex.Index, error) {
		idx, err := vecindex.NewBruteForce(vectors)
		tracked.Index = idx
		return tracked, err
	}
	old, err := Build(context.Background(), faqChunks(t), &hashEmbedder{}, build)
	require.NoError(t, err)

	gate := &gateEmbedder{entered: make(chan struct{}, 2), release: make(chan struct{})}
	r := NewRetriever(old, gate, 2)

	type result struct {
		hits []domain.Hit
		err  error
	}
	done := make(chan result)
	go func() {
		hits, err := r.Retrieve(context.Background(), "copay", 0)
		done <- result{hits, err}
	}()
	<-gate.entered

	fresh, err := Build(context.Background(), faqChunks(t), &hashEmbedder{}, nil)
	require.NoError(t, err)
	r.Replace(fresh).Retire()
	assert.False(t, tracked.closed.Load(), "retired snapshot closed while a search holds it")

	close(gate.release)
	res := <-done
	require.NoError(t, res.err)
	assert.Len(t, res.hits, 2)
	assert.True(t, tracked.closed.Load())

	hits, err := r.Retrieve(context.Background(), "copay", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSnapshot_RetireIdle(t *testing.T) {
	tracked := &closeTrackingIndex{}
	snap, err := Build(context.Background(), faqChunks(t), &hashEmbedder{}, func(vectors [][]float32) (vecindex.Index, error) {
		idx, err := vecindex.NewBruteForce(vectors)
		tracked.Index = idx
		return tracked, err
	})
	require.NoError(t, err)

	snap.Retire()
	snap.Retire()

	assert.True(t, tracked.closed.Load())
	assert.False(t, snap.acquire())
	var none *Snapshot
	none.Retire()
}

func TestAnswer_Refusal(t *testing.T) {
	a, _ := newAnswerer(t, nil)

	ans, err := a.Answer(context.Background(), "What is the capital of France?")

	require.NoError(t, err)
	assert.Contains(t, ans.Text, RefusalPhrase)
	assert.NotContains(t, ans.Text, "Paris")
}

func TestAnswer_Grounding(t *testing.T) {
	a, _ := newAnswerer(t, nil)

	ans, err := a.Answer(context.Background(), "What is a deductible?")

	require.NoError(t, err)
	assert.NotEmpty(t, ans.Sources)
	assert.Len(t, ans.Sources, len(ans.Hits))
	assert.Contains(t, ans.Text, "deductible")
	assert.Equal(t, "faq_0", ans.Sources[0].ID)
}

func TestAnswer_Consistency(t *testing.T) {
	a, _ := newAnswerer(t, nil)

	for _, q := range []string{
		"What is a deductible?",
		"Can you explain what deductible means in insurance?",
	} {
		ans, err := a.Answer(context.Background(), q)
		require.NoError(t, err)
		assert.Contains(t, strings.ToLower(ans.Text), "deductible", q)
	}
}

func TestAnswer_EmptyRetrievalRefuses(t *testing.T) {
	a, gen := newAnswerer(t, emptyBuilder)

	ans, err := a.Answer(context.Background(), "What is a deductible?")

	require.NoError(t, err)
	assert.Contains(t, gen.last[0].Content, NoContextMarker)
	assert.Equal(t, RefusalPhrase, ans.Text)
	assert.NotNil(t, ans.Sources)
	assert.Empty(t, ans.Sources)
}

func TestAnswer_GenerationFailurePropagates(t *testing.T) {
	a, gen := newAnswerer(t, nil)
	gen.err = &domain.TransportError{Service: "generation", Err: errQuota}

	ans, err := a.Answer(context.Background(), "What is a copay?")

	assert.ErrorIs(t, err, errQuota)
	assert.Empty(t, ans.Text)
	assert.Nil(t, ans.Sources)
}

func TestAnswerFollowUp(t *testing.T) {
	a, gen := newAnswerer(t, nil)
	a.K = 1

	ans, err := a.AnswerFollowUp(context.Background(), "How much is that?", "What is a copay?")

	require.NoError(t, err)
	// The request stays two-part: no earlier turn reaches the model.
	require.Len(t, gen.last, 2)
	assert.Equal(t, llm.RoleSystem, gen.last[0].Role)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "How much is that?"}, gen.last[1])
	// The earlier question steers retrieval.
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, "faq_1", ans.Sources[0].ID)
}

func TestAnswer_AlwaysTwoMessages(t *testing.T) {
	a, gen := newAnswerer(t, nil)

	_, err := a.Answer(context.Background(), "What is a deductible?")

	require.NoError(t, err)
	require.Len(t, gen.last, 2)
	assert.Equal(t, "What is a deductible?", gen.last[1].Content)
}
