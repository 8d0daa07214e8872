// Package vectorstore defines a technology-agnostic interface for vector
// similarity search over ingested teaching material.
package vectorstore

import "context"

// VectorStore is the contract the retrieval layer depends on.
// Implementations can use Qdrant, Pinecone, pgvector, etc.
type VectorStore interface {
	// Search performs vector similarity search, ranked descending by score.
	Search(ctx context.Context, vector []float32, filter SearchFilter, limit int) ([]SearchResult, error)

	// Close releases any resources held by the vector store.
	Close() error
}

// SearchFilter defines filtering options for vector search.
type SearchFilter struct {
	// SourceID filters results to a specific manual/collection.
	SourceID string

	// Metadata filters results by metadata key-value pairs.
	Metadata map[string]any

	// MinScore drops results below this similarity threshold (0.0-1.0).
	MinScore float32
}

// SearchResult represents a single result from vector similarity search.
type SearchResult struct {
	// ID is the unique identifier of the chunk.
	ID string

	// Score is the similarity score (0.0-1.0, higher is more similar).
	Score float32

	// Content is the passage text associated with this vector.
	Content string

	// Source is the manual/document this passage came from.
	Source string

	// Metadata carries additional payload fields (page, chapter, ...).
	Metadata map[string]any
}
