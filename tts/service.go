// Package tts abstracts text-to-speech providers behind a single interface
// so the voice pipeline can use any synthesis engine interchangeably.
package tts

import "context"

// Audio defaults.
const (
	DefaultSampleRate = 24000
	DefaultBitDepth   = 16
	DefaultChannels   = 1
)

// Service converts text to speech audio.
type Service interface {
	// Name returns the provider identifier (for logging/debugging).
	Name() string

	// Synthesize converts text to audio, returning the complete audio
	// payload and its estimated playback duration.
	Synthesize(ctx context.Context, text string, config SynthesisConfig) (*Result, error)

	// SupportedVoices returns available voices for this provider.
	SupportedVoices() []Voice

	// SupportedFormats returns supported audio output formats.
	SupportedFormats() []AudioFormat
}

// Result is the outcome of one synthesis call.
type Result struct {
	// Audio is the synthesized audio payload.
	Audio []byte

	// DurationMs is the playback duration in milliseconds. Exact for PCM,
	// estimated for compressed formats.
	DurationMs int

	// Format is the audio format of the payload.
	Format AudioFormat
}

// SynthesisConfig configures text-to-speech synthesis.
type SynthesisConfig struct {
	// Voice is the voice ID to use for synthesis.
	// Available voices vary by provider - use SupportedVoices() to list options.
	Voice string

	// Format is the output audio format. Default is MP3 for most providers.
	Format AudioFormat

	// Speed is the speech rate multiplier (0.25-4.0, default 1.0).
	Speed float64

	// Language is the language code for synthesis (e.g., "pt-BR").
	Language string

	// Model is the TTS model to use (provider-specific).
	Model string
}

// Voice describes a synthesis voice offered by a provider.
type Voice struct {
	ID          string
	Name        string
	Language    string
	Gender      string
	Description string
}

// AudioFormat describes an audio output format.
type AudioFormat struct {
	Name       string
	MIMEType   string
	SampleRate int
	BitDepth   int
	Channels   int
}

// Common audio formats.
var (
	FormatMP3 = AudioFormat{Name: "mp3", MIMEType: "audio/mpeg"}
	FormatWAV = AudioFormat{Name: "wav", MIMEType: "audio/wav"}
	FormatPCM = AudioFormat{
		Name:       "pcm",
		MIMEType:   "audio/pcm",
		SampleRate: DefaultSampleRate,
		BitDepth:   DefaultBitDepth,
		Channels:   DefaultChannels,
	}
)
