package rag

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"faqbot/internal/domain"
	"faqbot/internal/llm"
)

// Answer is a generated reply with the chunks it was grounded on.
type Answer struct {
	Text    string             `json:"answer"`
	Sources []domain.SourceRef `json:"sources"`
	Hits    []domain.Hit       `json:"-"`
}

// Answerer runs retrieve, prompt and generate for one query.
type Answerer struct {
	Retriever *Retriever
	Generator llm.Generator
	K         int
	Logger    *zap.Logger
}

// Answer answers a standalone question.
func (a *Answerer) Answer(ctx context.Context, query string) (Answer, error) {
	return a.answer(ctx, query, query)
}

// AnswerFollowUp answers query in a conversation whose last question was
// previous. Retrieval sees both questions; the model sees only query.
func (a *Answerer) AnswerFollowUp(ctx context.Context, query, previous string) (Answer, error) {
	return a.answer(ctx, FollowUpQuery(previous, query), query)
}

// answer retrieves with retrievalQuery and generates for query. Generation
// failures are returned as is; nothing cached is substituted.
func (a *Answerer) answer(ctx context.Context, retrievalQuery, query string) (Answer, error) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	hits, err := a.Retriever.Retrieve(ctx, retrievalQuery, a.K)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve: %w", err)
	}

	text, err := a.Generator.Generate(ctx, BuildMessages(hits, query))
	if err != nil {
		logger.Error("generation failed", zap.Error(err), zap.Int("hits", len(hits)))
		return Answer{}, fmt.Errorf("generate: %w", err)
	}

	logger.Info("answered",
		zap.Int("hits", len(hits)),
		zap.Bool("follow_up", retrievalQuery != query),
		zap.Duration("elapsed", time.Since(start)),
	)
	return Answer{Text: text, Sources: domain.SourceRefs(hits), Hits: hits}, nil
}
