package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusync/voicekit/vectorstore"
)

type mockRetriever struct {
	results []vectorstore.SearchResult
	err     error
	queries []string
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, topK int) ([]vectorstore.SearchResult, error) {
	m.queries = append(m.queries, query)
	return m.results, m.err
}

type mockGenerator struct {
	answer  string
	err     error
	calls   int
	prompts []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	return m.answer, m.err
}

func (m *mockGenerator) Model() string {
	return "mock-model"
}

func scoredSources(scores ...float32) []vectorstore.SearchResult {
	sources := make([]vectorstore.SearchResult, len(scores))
	for i, s := range scores {
		sources[i] = vectorstore.SearchResult{
			ID:      fmt.Sprintf("chunk-%d", i+1),
			Score:   s,
			Content: fmt.Sprintf("Trecho %d sobre subtração.", i+1),
			Source:  "Manual de Matemática 2º ano",
			Metadata: map[string]any{
				"page": i + 10,
			},
		}
	}
	return sources
}

func TestEngine_HighConfidenceGeneratesOnce(t *testing.T) {
	retriever := &mockRetriever{results: scoredSources(0.9, 0.8, 0.75)}
	gen := &mockGenerator{answer: "Use o material dourado para o empréstimo."}
	engine := NewEngine(retriever, gen)

	resp, err := engine.GenerateResponse(context.Background(), "Como ensinar subtração com zero?", "")
	require.NoError(t, err)

	assert.False(t, resp.IsLowConfidence)
	assert.InDelta(t, 0.8166, resp.Confidence, 0.001)
	assert.Equal(t, "Use o material dourado para o empréstimo.", resp.Answer)
	assert.Equal(t, "mock-model", resp.Model)
	assert.Len(t, resp.Sources, 3)
	assert.Equal(t, 1, gen.calls, "generation must be invoked exactly once")

	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Como ensinar subtração com zero?")
	for i := 1; i <= 3; i++ {
		assert.Contains(t, prompt, fmt.Sprintf("[Source %d]", i))
	}
}

func TestEngine_SourceBlocksKeepRetrievalOrder(t *testing.T) {
	retriever := &mockRetriever{results: scoredSources(0.95, 0.9, 0.85)}
	gen := &mockGenerator{answer: "ok"}
	engine := NewEngine(retriever, gen)

	_, err := engine.GenerateResponse(context.Background(), "pergunta", "")
	require.NoError(t, err)

	prompt := gen.prompts[0]
	pos1 := strings.Index(prompt, "[Source 1] Manual")
	pos2 := strings.Index(prompt, "[Source 2]")
	pos3 := strings.Index(prompt, "[Source 3]")
	require.GreaterOrEqual(t, pos1, 0)
	assert.Less(t, pos1, pos2)
	assert.Less(t, pos2, pos3)

	// Each block carries its passage content next to the citation.
	assert.Contains(t, prompt, "Trecho 1 sobre subtração.")
	assert.Contains(t, prompt, "(página 10)")
}

func TestEngine_LowConfidenceSkipsGeneration(t *testing.T) {
	retriever := &mockRetriever{results: scoredSources(0.4, 0.3)}
	gen := &mockGenerator{answer: "should never appear"}
	engine := NewEngine(retriever, gen)

	resp, err := engine.GenerateResponse(context.Background(), "pergunta obscura", "")
	require.NoError(t, err)

	assert.True(t, resp.IsLowConfidence)
	assert.Equal(t, FallbackAnswer, resp.Answer)
	assert.InDelta(t, 0.35, resp.Confidence, 0.001)
	assert.Empty(t, resp.Model)
	assert.Equal(t, 0, gen.calls, "generation must not be invoked below the threshold")
	// Candidates stay attached for observability even when irrelevant.
	assert.Len(t, resp.Sources, 2)
}

func TestEngine_EmptyCandidatesIsLowConfidence(t *testing.T) {
	retriever := &mockRetriever{results: nil}
	gen := &mockGenerator{}
	engine := NewEngine(retriever, gen)

	resp, err := engine.GenerateResponse(context.Background(), "pergunta", "")
	require.NoError(t, err)

	assert.True(t, resp.IsLowConfidence)
	assert.Zero(t, resp.Confidence)
	assert.Equal(t, FallbackAnswer, resp.Answer)
	assert.Equal(t, 0, gen.calls)
}

func TestEngine_ConversationContextAppendedVerbatim(t *testing.T) {
	retriever := &mockRetriever{results: scoredSources(0.9)}
	gen := &mockGenerator{answer: "ok"}
	engine := NewEngine(retriever, gen)

	ctx := "Professor: primeira pergunta\nAssistente: primeira resposta"
	_, err := engine.GenerateResponse(context.Background(), "pergunta", ctx)
	require.NoError(t, err)

	prompt := gen.prompts[0]
	assert.Contains(t, prompt, ctx)
	// Context comes after the templated prompt, not inside it.
	assert.Greater(t, strings.Index(prompt, ctx), strings.Index(prompt, "Resposta:"))
}

func TestEngine_CustomThresholdAndTopK(t *testing.T) {
	retriever := &mockRetriever{results: scoredSources(0.6, 0.6)}
	gen := &mockGenerator{answer: "ok"}
	engine := NewEngine(retriever, gen, WithConfidenceThreshold(0.7), WithTopK(5))

	resp, err := engine.GenerateResponse(context.Background(), "pergunta", "")
	require.NoError(t, err)
	assert.True(t, resp.IsLowConfidence)
	assert.Equal(t, 0, gen.calls)
}

func TestEngine_RetrievalErrorPropagatesWrapped(t *testing.T) {
	cause := errors.New("qdrant unavailable")
	retriever := &mockRetriever{err: cause}
	engine := NewEngine(retriever, &mockGenerator{})

	_, err := engine.GenerateResponse(context.Background(), "pergunta", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "retrieval failed")
}

func TestEngine_GenerationErrorPropagatesWrapped(t *testing.T) {
	cause := errors.New("model overloaded")
	retriever := &mockRetriever{results: scoredSources(0.9)}
	engine := NewEngine(retriever, &mockGenerator{err: cause})

	_, err := engine.GenerateResponse(context.Background(), "pergunta", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "generation failed")
}

func TestMeanScore(t *testing.T) {
	tests := []struct {
		name   string
		scores []float32
		want   float64
	}{
		{name: "empty", scores: nil, want: 0},
		{name: "single", scores: []float32{0.5}, want: 0.5},
		{name: "several", scores: []float32{0.9, 0.8, 0.75}, want: 0.8166666},
		{name: "zero scores", scores: []float32{0, 0}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := meanScore(scoredSources(tt.scores...))
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}
