package rag

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"sync/atomic"
	"unicode"

	"faqbot/internal/llm"
	"faqbot/internal/vecindex"
)

const mockDim = 64

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "what": true,
	"of": true, "in": true, "you": true, "can": true, "explain": true, "does": true,
	"do": true, "to": true, "for": true, "and": true, "or": true, "how": true,
	"q": true, "it": true,
}

// terms lower-cases, splits on non-alphanumerics, drops stopwords and a
// trailing plural "s".
func terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if stopwords[f] {
			continue
		}
		if len(f) > 4 && strings.HasSuffix(f, "s") && !strings.HasSuffix(f, "ss") {
			f = strings.TrimSuffix(f, "s")
		}
		out = append(out, f)
	}
	return out
}

// hashEmbedder is a bag-of-words embedder: texts sharing terms land close.
type hashEmbedder struct {
	calls int
	err   error
}

func (h *hashEmbedder) Model() string { return "hash-bow" }

func (h *hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, mockDim)
		for _, term := range terms(t) {
			f := fnv.New32a()
			_, _ = f.Write([]byte(term))
			v[f.Sum32()%mockDim]++
		}
		var norm float64
		for _, x := range v {
			norm += float64(x * x)
		}
		if norm > 0 {
			n := float32(math.Sqrt(norm))
			for j := range v {
				v[j] /= n
			}
		}
		out[i] = v
	}
	return out, nil
}

// groundedGenerator answers from the first context block that shares a
// term with the question and refuses otherwise.
type groundedGenerator struct {
	last []llm.Message
	err  error
}

func (g *groundedGenerator) Model() string { return "grounded" }

func (g *groundedGenerator) Generate(_ context.Context, messages []llm.Message) (string, error) {
	g.last = messages
	if g.err != nil {
		return "", g.err
	}
	system := messages[0].Content
	query := messages[len(messages)-1].Content

	_, ctxText, ok := strings.Cut(system, "Retrieved context:\n")
	if !ok || ctxText == NoContextMarker {
		return RefusalPhrase, nil
	}

	want := make(map[string]bool)
	for _, t := range terms(query) {
		want[t] = true
	}
	for _, block := range strings.Split(ctxText, contextSeparator) {
		header, body, _ := strings.Cut(block, "\n")
		for _, t := range terms(body) {
			if !want[t] {
				continue
			}
			if _, ans, found := strings.Cut(body, "A: "); found {
				body = ans
			}
			return strings.TrimSpace(body) + " " + header, nil
		}
	}
	return RefusalPhrase, nil
}

// emptyIndex never returns neighbors.
type emptyIndex struct{ n int }

func (e emptyIndex) Search(context.Context, []float32, int) ([]vecindex.Neighbor, error) {
	return nil, nil
}
func (e emptyIndex) Len() int        { return e.n }
func (e emptyIndex) Backend() string { return "empty" }
func (e emptyIndex) Close() error    { return nil }

func emptyBuilder(vectors [][]float32) (vecindex.Index, error) {
	return emptyIndex{n: len(vectors)}, nil
}

var errQuota = errors.New("quota exceeded")

// closeTrackingIndex fails searches once closed.
type closeTrackingIndex struct {
	vecindex.Index
	closed atomic.Bool
}

func (c *closeTrackingIndex) Search(ctx context.Context, q []float32, k int) ([]vecindex.Neighbor, error) {
	if c.closed.Load() {
		return nil, errors.New("index is closed")
	}
	return c.Index.Search(ctx, q, k)
}

func (c *closeTrackingIndex) Close() error {
	c.closed.Store(true)
	return nil
}

// gateEmbedder signals entered on each call and waits for release.
type gateEmbedder struct {
	hashEmbedder
	entered chan struct{}
	release chan struct{}
}

func (g *gateEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.hashEmbedder.Embed(ctx, texts)
}
