package voicekit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusync/voicekit/config"
	"github.com/edusync/voicekit/pipeline"
	"github.com/edusync/voicekit/tts"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.RAG.Qdrant.URL = "http://localhost:6334"
	cfg.RAG.Qdrant.Collection = "curriculo"
	return cfg
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := New(testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestNewRequiresQdrant(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	_, err := New(config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qdrant")
}

func TestNewAssemblesRuntime(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	rt, err := New(testConfig())
	require.NoError(t, err)
	defer rt.Close(context.Background())

	require.NotNil(t, rt.Pipeline)
	assert.Nil(t, rt.Exporter, "metrics disabled by default")
	assert.Equal(t, pipeline.StateIdle, rt.Pipeline.State())
}

func TestNewWithMetricsEnabled(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := testConfig()
	cfg.Metrics.Enabled = true
	rt, err := New(cfg)
	require.NoError(t, err)
	defer rt.Close(context.Background())

	require.NotNil(t, rt.Exporter)
	assert.NotNil(t, rt.Exporter.Registry())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := testConfig()
	cfg.RAG.TopK = 0
	_, err := New(cfg)
	require.Error(t, err)
}

func TestAudioFormatByName(t *testing.T) {
	assert.Equal(t, tts.FormatMP3, audioFormatByName("mp3"))
	assert.Equal(t, tts.FormatWAV, audioFormatByName("wav"))
	assert.Equal(t, tts.FormatPCM, audioFormatByName("pcm"))
	assert.Empty(t, audioFormatByName("").Name, "unknown names defer to the provider default")
}
