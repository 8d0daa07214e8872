package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusync/voicekit/vectorstore"
)

type mockEmbedder struct {
	vector []float32
	err    error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.vector, m.err
}

type mockVectorStore struct {
	results   []vectorstore.SearchResult
	err       error
	gotVector []float32
	gotLimit  int
}

func (m *mockVectorStore) Search(ctx context.Context, vector []float32, filter vectorstore.SearchFilter, limit int) ([]vectorstore.SearchResult, error) {
	m.gotVector = vector
	m.gotLimit = limit
	return m.results, m.err
}

func (m *mockVectorStore) Close() error { return nil }

func TestVectorRetriever_EmbedsAndSearches(t *testing.T) {
	embedder := &mockEmbedder{vector: []float32{0.1, 0.2, 0.3}}
	store := &mockVectorStore{results: scoredSources(0.9, 0.8)}
	retriever := NewVectorRetriever(embedder, store, vectorstore.SearchFilter{})

	results, err := retriever.Retrieve(context.Background(), "como ensinar divisão?", 3)
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, store.gotVector)
	assert.Equal(t, 3, store.gotLimit)
	assert.Len(t, results, 2)
}

func TestVectorRetriever_ClampsScores(t *testing.T) {
	store := &mockVectorStore{results: []vectorstore.SearchResult{
		{ID: "a", Score: 1.7},
		{ID: "b", Score: -0.2},
		{ID: "c", Score: 0.5},
	}}
	retriever := NewVectorRetriever(&mockEmbedder{vector: []float32{1}}, store, vectorstore.SearchFilter{})

	results, err := retriever.Retrieve(context.Background(), "q", 3)
	require.NoError(t, err)

	assert.Equal(t, float32(1), results[0].Score)
	assert.Equal(t, float32(0), results[1].Score)
	assert.Equal(t, float32(0.5), results[2].Score)
}

func TestVectorRetriever_EmbedderErrorWrapped(t *testing.T) {
	cause := errors.New("embedding quota exceeded")
	retriever := NewVectorRetriever(&mockEmbedder{err: cause}, &mockVectorStore{}, vectorstore.SearchFilter{})

	_, err := retriever.Retrieve(context.Background(), "q", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestVectorRetriever_SearchErrorWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	store := &mockVectorStore{err: cause}
	retriever := NewVectorRetriever(&mockEmbedder{vector: []float32{1}}, store, vectorstore.SearchFilter{})

	_, err := retriever.Retrieve(context.Background(), "q", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}
