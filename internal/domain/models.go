package domain

// Document is one FAQ entry or source file as produced by the loader.
type Document struct {
	ID     string
	Text   string
	Source string
}

// Chunk is an overlapping word window of a Document and the unit of retrieval.
type Chunk struct {
	ID       string
	Text     string
	Source   string
	DocID    string
	ChunkIdx int
}

// Hit is a retrieved chunk with its distance to the query. Smaller is closer.
type Hit struct {
	Chunk    Chunk
	Distance float64
}

// SourceRef describes a chunk that was used to answer a question.
type SourceRef struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

// sourceTextLimit is how much chunk text a SourceRef carries.
const sourceTextLimit = 200

// SourceRefs converts hits into source descriptors, one per hit, in order.
func SourceRefs(hits []Hit) []SourceRef {
	refs := make([]SourceRef, 0, len(hits))
	for _, h := range hits {
		id := h.Chunk.DocID
		if id == "" {
			id = h.Chunk.ID
		}
		refs = append(refs, SourceRef{
			ID:     id,
			Text:   truncateRunes(h.Chunk.Text, sourceTextLimit),
			Source: h.Chunk.Source,
		})
	}
	return refs
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
