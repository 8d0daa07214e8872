// Package stt abstracts speech-to-text providers behind a single interface
// so the voice pipeline can use any transcription engine interchangeably.
package stt

import "context"

const (
	// Default audio settings.
	DefaultSampleRate = 16000
	DefaultChannels   = 1
	DefaultBitDepth   = 16

	// Common audio formats.
	FormatPCM = "pcm"
	FormatWAV = "wav"
	FormatMP3 = "mp3"
)

// Service transcribes audio to text.
type Service interface {
	// Name returns the provider identifier (for logging/debugging).
	Name() string

	// Transcribe converts audio to text.
	Transcribe(ctx context.Context, audio []byte, config TranscriptionConfig) (*Result, error)

	// SupportedFormats returns supported audio input formats.
	// Common values: "pcm", "wav", "mp3", "m4a", "webm"
	SupportedFormats() []string
}

// Result is the outcome of one transcription call.
type Result struct {
	// Transcript is the recognized text.
	Transcript string

	// Confidence is the provider's confidence in the transcript, in [0,1].
	// Providers that don't report confidence return 1.
	Confidence float64

	// Alternatives are lower-ranked candidate transcripts, if the provider
	// produces them.
	Alternatives []string
}

// TranscriptionConfig configures speech-to-text transcription.
type TranscriptionConfig struct {
	// Format is the audio format ("pcm", "wav", "mp3").
	// Default: "pcm"
	Format string

	// SampleRate is the audio sample rate in Hz.
	// Default: 16000
	SampleRate int

	// Channels is the number of audio channels (1=mono, 2=stereo).
	// Default: 1
	Channels int

	// BitDepth is the bits per sample for PCM audio.
	// Default: 16
	BitDepth int

	// Language is a hint for the transcription language (e.g., "pt", "en").
	// Optional - improves accuracy if provided.
	Language string

	// Model is the STT model to use (provider-specific).
	Model string

	// Prompt is optional context to bias recognition (domain vocabulary).
	Prompt string
}
