// Package voicekit assembles the voice assistant runtime from configuration:
// speech-to-text, retrieval-grounded generation, text-to-speech, conversation
// memory, and metrics, wired into a turn pipeline.
package voicekit

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/edusync/voicekit/config"
	"github.com/edusync/voicekit/contextstore"
	"github.com/edusync/voicekit/events"
	"github.com/edusync/voicekit/logger"
	promexporter "github.com/edusync/voicekit/metrics/prometheus"
	"github.com/edusync/voicekit/pipeline"
	"github.com/edusync/voicekit/rag"
	"github.com/edusync/voicekit/stt"
	"github.com/edusync/voicekit/tts"
	"github.com/edusync/voicekit/vectorstore"
	"github.com/edusync/voicekit/vectorstore/qdrant"
)

// Runtime bundles the assembled pipeline with the resources behind it.
type Runtime struct {
	Pipeline *pipeline.Pipeline

	// Exporter serves /metrics when enabled in configuration, nil otherwise.
	// The host decides when to call Exporter.Start.
	Exporter *promexporter.Exporter

	store vectorstore.VectorStore
	rdb   *redis.Client
}

// New assembles a runtime from configuration. The OpenAI credential is read
// from the environment, never from the config file.
func New(cfg *config.Config) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	apiKey := config.OpenAIAPIKey()
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	if cfg.RAG.Qdrant.URL == "" || cfg.RAG.Qdrant.Collection == "" {
		return nil, errors.New("rag.qdrant.url and rag.qdrant.collection are required")
	}

	vs, err := qdrant.New(qdrant.Config{
		URL:            cfg.RAG.Qdrant.URL,
		CollectionName: cfg.RAG.Qdrant.Collection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	client := openai.NewClient(apiKey)
	retriever := rag.NewVectorRetriever(
		rag.NewOpenAIEmbedder(client, openai.SmallEmbedding3),
		vs,
		vectorstore.SearchFilter{},
	)

	var genOpts []rag.GeneratorOption
	if cfg.RAG.Model != "" {
		genOpts = append(genOpts, rag.WithGenerationModel(cfg.RAG.Model))
	}
	engine := rag.NewEngine(
		retriever,
		rag.NewOpenAIGenerator(client, genOpts...),
		rag.WithTopK(cfg.RAG.TopK),
		rag.WithConfidenceThreshold(cfg.RAG.ConfidenceThreshold),
	)

	var sttOpts []stt.OpenAIOption
	if cfg.STT.Model != "" {
		sttOpts = append(sttOpts, stt.WithOpenAIModel(cfg.STT.Model))
	}
	var ttsOpts []tts.OpenAIOption
	if cfg.TTS.Model != "" {
		ttsOpts = append(ttsOpts, tts.WithOpenAIModel(cfg.TTS.Model))
	}

	rt := &Runtime{store: vs}

	ctxStore, err := rt.buildContextStore(cfg.Store)
	if err != nil {
		_ = vs.Close()
		return nil, err
	}

	bus := events.NewEventBus()
	if cfg.Metrics.Enabled {
		bus.SubscribeAll(promexporter.NewMetricsListener().Listener())
		rt.Exporter = promexporter.NewExporter(cfg.Metrics.Addr)
	}

	p, err := pipeline.New(pipeline.Config{
		Engine:             engine,
		STT:                stt.NewOpenAI(apiKey, sttOpts...),
		TTS:                tts.NewOpenAI(apiKey, ttsOpts...),
		ContextStore:       ctxStore,
		Bus:                bus,
		Language:           cfg.Language,
		Voice:              cfg.Voice,
		AudioFormat:        audioFormatByName(cfg.TTS.Format),
		SpeechSpeed:        cfg.TTS.Speed,
		SpeakResponses:     cfg.SpeakResponses,
		MaxContextTurns:    cfg.MaxContextTurns,
		MaxTurnsPerSession: cfg.MaxTurnsPerSession,
		SessionTimeout:     cfg.SessionTimeout,
	})
	if err != nil {
		_ = rt.Close(context.Background())
		return nil, err
	}
	rt.Pipeline = p

	logger.Info("runtime assembled",
		"language", cfg.Language,
		"store", cfg.Store.Driver,
		"collection", cfg.RAG.Qdrant.Collection,
		"metrics", cfg.Metrics.Enabled)
	return rt, nil
}

// Close releases the runtime's backend connections. Safe to call after a
// partial assembly failure.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.Exporter != nil {
		if err := r.Exporter.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	if r.rdb != nil {
		if err := r.rdb.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Runtime) buildContextStore(cfg config.StoreConfig) (contextstore.Store, error) {
	switch cfg.Driver {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		r.rdb = rdb
		var opts []contextstore.RedisOption
		if cfg.MaxMessages > 0 {
			opts = append(opts, contextstore.WithRedisMaxMessages(cfg.MaxMessages))
		}
		if cfg.TTL > 0 {
			opts = append(opts, contextstore.WithRedisTTL(cfg.TTL))
		}
		return contextstore.NewRedisStore(rdb, opts...), nil
	default:
		var opts []contextstore.MemoryOption
		if cfg.MaxMessages > 0 {
			opts = append(opts, contextstore.WithMaxMessages(cfg.MaxMessages))
		}
		if cfg.TTL > 0 {
			opts = append(opts, contextstore.WithSessionTTL(cfg.TTL))
		}
		return contextstore.NewMemoryStore(opts...), nil
	}
}

// audioFormatByName maps a configured format name onto a known format. The
// zero value lets the provider pick its default.
func audioFormatByName(name string) tts.AudioFormat {
	switch name {
	case "mp3":
		return tts.FormatMP3
	case "wav":
		return tts.FormatWAV
	case "pcm":
		return tts.FormatPCM
	default:
		return tts.AudioFormat{}
	}
}
