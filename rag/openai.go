package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Generation defaults.
const (
	DefaultGenerationModel = openai.GPT4oMini
	DefaultEmbeddingModel  = openai.SmallEmbedding3

	defaultTemperature = 0.3
	defaultMaxTokens   = 600
)

// ErrEmptyCompletion is returned when the generation capability responds with
// no usable text content. Ambiguous payload shapes are normalized to this
// error at the boundary instead of leaking into the engine.
var ErrEmptyCompletion = errors.New("generation returned no usable text content")

// OpenAIGenerator implements Generator on the OpenAI chat completions API.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// GeneratorOption configures an OpenAIGenerator.
type GeneratorOption func(*OpenAIGenerator)

// WithGenerationModel sets the chat model used for answers.
func WithGenerationModel(model string) GeneratorOption {
	return func(g *OpenAIGenerator) {
		g.model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float32) GeneratorOption {
	return func(g *OpenAIGenerator) {
		g.temperature = temperature
	}
}

// WithMaxTokens bounds the answer length.
func WithMaxTokens(maxTokens int) GeneratorOption {
	return func(g *OpenAIGenerator) {
		g.maxTokens = maxTokens
	}
}

// NewOpenAIGenerator creates a Generator backed by the OpenAI API.
func NewOpenAIGenerator(client *openai.Client, opts ...GeneratorOption) *OpenAIGenerator {
	g := &OpenAIGenerator{
		client:      client,
		model:       DefaultGenerationModel,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs one chat completion for the prompt and normalizes the result
// to a plain string.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}

// Model returns the configured chat model identifier.
func (g *OpenAIGenerator) Model() string {
	return g.model
}

// OpenAIEmbedder produces query embeddings for the vector retriever.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates an Embedder backed by the OpenAI embeddings API.
func NewOpenAIEmbedder(client *openai.Client, model openai.EmbeddingModel) *OpenAIEmbedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIEmbedder{client: client, model: model}
}

// Embed converts a query into an embedding vector.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: e.model,
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding returned no vectors")
	}
	return resp.Data[0].Embedding, nil
}
