package rag

import (
	"context"
	"fmt"

	"github.com/edusync/voicekit/vectorstore"
)

// Embedder converts a query into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorRetriever implements Retriever by embedding the query and searching a
// vector store. Scores are clamped to [0,1] here: retrieval backends are not
// trusted to keep them bounded, and the engine averages them unguarded.
type VectorRetriever struct {
	embedder Embedder
	store    vectorstore.VectorStore
	filter   vectorstore.SearchFilter
}

// NewVectorRetriever composes an embedder and a vector store into a Retriever.
func NewVectorRetriever(embedder Embedder, store vectorstore.VectorStore, filter vectorstore.SearchFilter) *VectorRetriever {
	return &VectorRetriever{
		embedder: embedder,
		store:    store,
		filter:   filter,
	}
}

// Retrieve returns the top-K candidate passages for the query.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, topK int) ([]vectorstore.SearchResult, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}

	results, err := r.store.Search(ctx, vector, r.filter, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	for i := range results {
		results[i].Score = clampScore(results[i].Score)
	}
	return results, nil
}

func clampScore(score float32) float32 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
