// Package rag wires retrieval and generation: it builds the index snapshot,
// retrieves chunks for a query, assembles the grounded prompt and asks the
// generator for an answer.
package rag

import (
	"fmt"
	"strings"

	"faqbot/internal/domain"
	"faqbot/internal/llm"
)

// RefusalPhrase is what the assistant says when the context cannot answer.
const RefusalPhrase = "I don't have that information in the provided documents."

// NoContextMarker replaces the context block when nothing was retrieved.
const NoContextMarker = "(No relevant documents retrieved.)"

const contextSeparator = "\n\n---\n\n"

// SystemPolicy is the fixed instruction text sent with every request.
const SystemPolicy = `You are an insurance FAQ assistant. Your role is to answer questions about insurance concepts, policies, and common definitions (e.g., copay, deductible, coinsurance) using ONLY the provided source documents.

Rules:
- Base every answer on the retrieved context. If the context does not contain enough information, say: "` + RefusalPhrase + `"
- Do NOT compute metrics, interpret dashboards, or analyze data. Only explain insurance concepts and policy-related questions.
- Do NOT give medical or dental advice.
- When you use information from the context, cite the source as [doc: <source_id>].
- If the question states something the context contradicts, correct it instead of agreeing.
- If no relevant sources were retrieved, say so and do not invent an answer.
- Keep answers concise and professional.`

// BuildContext renders hits as tagged blocks, closest first.
func BuildContext(hits []domain.Hit) string {
	if len(hits) == 0 {
		return NoContextMarker
	}
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		id := h.Chunk.DocID
		if id == "" {
			id = h.Chunk.ID
		}
		parts = append(parts, fmt.Sprintf("[doc: %s]\n%s", id, h.Chunk.Text))
	}
	return strings.Join(parts, contextSeparator)
}

// BuildMessages returns exactly two messages: the policy plus context as
// the system message, then the query verbatim.
func BuildMessages(hits []domain.Hit, query string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPolicy + "\n\nRetrieved context:\n" + BuildContext(hits)},
		{Role: llm.RoleUser, Content: query},
	}
}

// FollowUpQuery is the retrieval text for a question asked after previous.
// Earlier answers never reach the prompt; only the earlier question widens
// what is retrieved.
func FollowUpQuery(previous, query string) string {
	previous = strings.TrimSpace(previous)
	if previous == "" {
		return query
	}
	return previous + "\n" + query
}
