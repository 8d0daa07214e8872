// Package rag implements the retrieval-confidence engine: per query it
// decides whether enough grounded evidence exists to answer, and either
// produces a cited answer or returns a fixed honest fallback without
// spending a generation call.
package rag

import (
	"context"
	"fmt"

	"github.com/edusync/voicekit/logger"
	"github.com/edusync/voicekit/vectorstore"
)

// Engine defaults.
const (
	// DefaultTopK is how many candidate passages are retrieved per query.
	DefaultTopK = 3

	// DefaultConfidenceThreshold is the minimum mean retrieval score
	// required before generation is attempted.
	DefaultConfidenceThreshold = 0.5
)

// FallbackAnswer is the fixed low-confidence response. Returning it is a
// designed success path, not an error: the system never fabricates an answer
// when it lacks evidence.
const FallbackAnswer = "Desculpe, não encontrei informações suficientes nos " +
	"materiais disponíveis para responder a essa pergunta com segurança. " +
	"Tente reformular a pergunta ou consulte o manual do professor."

// Retriever finds candidate passages for a query, ranked descending by score.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]vectorstore.SearchResult, error)
}

// Generator produces text from a prompt.
type Generator interface {
	// Generate invokes the text-generation capability once.
	Generate(ctx context.Context, prompt string) (string, error)

	// Model returns the generation model identifier for response metadata.
	Model() string
}

// Response is the outcome of one GenerateResponse call.
type Response struct {
	// Answer is the generated (or fallback) text.
	Answer string

	// Sources is the unfiltered candidate list from retrieval, kept even on
	// the low-confidence path for observability.
	Sources []vectorstore.SearchResult

	// Confidence is the arithmetic mean of the candidates' scores.
	Confidence float64

	// IsLowConfidence is true when the fallback path was taken.
	IsLowConfidence bool

	// Model identifies the generation provider/model ("" on the fallback path).
	Model string
}

// Engine gates generation on retrieval confidence.
type Engine struct {
	retriever Retriever
	generator Generator

	topK      int
	threshold float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithTopK sets how many candidate passages are retrieved per query.
func WithTopK(k int) Option {
	return func(e *Engine) {
		e.topK = k
	}
}

// WithConfidenceThreshold sets the minimum mean score required to answer.
func WithConfidenceThreshold(threshold float64) Option {
	return func(e *Engine) {
		e.threshold = threshold
	}
}

// NewEngine creates a retrieval-confidence engine.
func NewEngine(retriever Retriever, generator Generator, opts ...Option) *Engine {
	e := &Engine{
		retriever: retriever,
		generator: generator,
		topK:      DefaultTopK,
		threshold: DefaultConfidenceThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateResponse retrieves evidence for the query, scores confidence, and
// either short-circuits with the fallback answer or builds a cited prompt and
// obtains a generated answer. conversationContext, when non-empty, is
// appended verbatim after the templated prompt.
func (e *Engine) GenerateResponse(ctx context.Context, query, conversationContext string) (*Response, error) {
	sources, err := e.retriever.Retrieve(ctx, query, e.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	confidence := meanScore(sources)

	if len(sources) == 0 || confidence < e.threshold {
		logger.Debug("low retrieval confidence, returning fallback",
			"confidence", confidence,
			"threshold", e.threshold,
			"candidates", len(sources),
		)
		return &Response{
			Answer:          FallbackAnswer,
			Sources:         sources,
			Confidence:      confidence,
			IsLowConfidence: true,
		}, nil
	}

	prompt := buildPrompt(query, sources, conversationContext)

	answer, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	return &Response{
		Answer:     answer,
		Sources:    sources,
		Confidence: confidence,
		Model:      e.generator.Model(),
	}, nil
}

// meanScore computes the arithmetic mean of the candidates' scores.
// Scores are assumed already clamped to [0,1] by the retriever.
func meanScore(sources []vectorstore.SearchResult) float64 {
	if len(sources) == 0 {
		return 0
	}

	var sum float64
	for _, s := range sources {
		sum += float64(s.Score)
	}
	return sum / float64(len(sources))
}
