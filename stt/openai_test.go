package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAI_TranscribeSuccess(t *testing.T) {
	var gotLanguage, gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotLanguage = r.FormValue("language")
		gotModel = r.FormValue("model")

		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "audio.wav", header.Filename)

		json.NewEncoder(w).Encode(map[string]any{
			"text": "Como ensinar subtração com zero?",
			"segments": []map[string]any{
				{"avg_logprob": -0.1},
				{"avg_logprob": -0.3},
			},
		})
	}))
	defer server.Close()

	service := NewOpenAI("test-key", WithOpenAIBaseURL(server.URL))
	result, err := service.Transcribe(context.Background(), []byte{0x01, 0x02}, TranscriptionConfig{
		Language: "pt",
	})
	require.NoError(t, err)

	assert.Equal(t, "Como ensinar subtração com zero?", result.Transcript)
	assert.InDelta(t, 0.8187, result.Confidence, 0.001) // exp(-0.2)
	assert.Equal(t, "pt", gotLanguage)
	assert.Equal(t, ModelWhisper1, gotModel)
}

func TestOpenAI_TranscribeNoSegmentsDefaultsConfidence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"text": "olá"})
	}))
	defer server.Close()

	service := NewOpenAI("test-key", WithOpenAIBaseURL(server.URL))
	result, err := service.Transcribe(context.Background(), []byte{0x01}, TranscriptionConfig{})
	require.NoError(t, err)
	assert.Equal(t, float64(1), result.Confidence)
}

func TestOpenAI_TranscribeEmptyAudio(t *testing.T) {
	service := NewOpenAI("test-key")
	_, err := service.Transcribe(context.Background(), nil, TranscriptionConfig{})
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestOpenAI_TranscribeRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit", "code": "rate_limit_exceeded"},
		})
	}))
	defer server.Close()

	service := NewOpenAI("test-key", WithOpenAIBaseURL(server.URL))
	_, err := service.Transcribe(context.Background(), []byte{0x01}, TranscriptionConfig{})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrRateLimited)
	var terr *TranscriptionError
	require.ErrorAs(t, err, &terr)
	assert.True(t, terr.Retryable)
}

func TestOpenAI_TranscribeAudioTooShort(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "too short", "code": "audio_too_short"},
		})
	}))
	defer server.Close()

	service := NewOpenAI("test-key", WithOpenAIBaseURL(server.URL))
	_, err := service.Transcribe(context.Background(), []byte{0x01}, TranscriptionConfig{})
	assert.ErrorIs(t, err, ErrAudioTooShort)
}

func TestWrapPCMAsWAV(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	wav := WrapPCMAsWAV(pcm, 16000, 1, 16)

	require.Len(t, wav, wavHeaderSize+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, pcm, wav[wavHeaderSize:])
}
