// Package transcriber sends finished recordings to a speech-to-text
// provider and returns the transcript. This is a remote-call boundary:
// failures degrade to manual text entry upstream, never block saving,
// and are not retried here.
package transcriber

import (
	"context"
	"errors"
	"fmt"

	"dicta/format"
)

var (
	// ErrProvider wraps network or provider-side failures.
	ErrProvider = errors.New("transcriber: provider error")

	// ErrEmptyAudio means the input was zero-length or the provider
	// heard no speech in it.
	ErrEmptyAudio = errors.New("transcriber: empty audio")
)

// Result is a completed transcription.
type Result struct {
	Text       string
	Confidence float64 // 0 when the provider does not report one
	Duration   float64 // seconds of audio the provider measured
}

type Transcriber interface {
	Name() string
	SetLanguage(lang string)
	GetLanguage() string
	Transcribe(ctx context.Context, audio []byte, tag format.Tag) (Result, error)
}

type baseTranscriber struct {
	client *TracedClient
	apiURL string
	lang   string
}

func (b *baseTranscriber) SetLanguage(lang string) { b.lang = lang }

func (b *baseTranscriber) GetLanguage() string { return b.lang }

// New selects a provider by name. An empty name picks the first
// provider with a key available.
func New(provider, groqKey, openaiKey string) (Transcriber, error) {
	switch provider {
	case "groq":
		if groqKey == "" {
			return nil, fmt.Errorf("groq selected but no API key set")
		}
		return NewGroq(groqKey), nil
	case "openai":
		if openaiKey == "" {
			return nil, fmt.Errorf("openai selected but no API key set")
		}
		return NewOpenAI(openaiKey), nil
	case "fake":
		// Keyless demo mode; also what the headless driver runs on.
		return NewFake(Result{Text: "fake transcript", Confidence: 0.95}, nil), nil
	case "":
		if groqKey != "" {
			return NewGroq(groqKey), nil
		}
		if openaiKey != "" {
			return NewOpenAI(openaiKey), nil
		}
		return nil, fmt.Errorf("set GROQ_API_KEY or OPENAI_API_KEY")
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

// payloadEmpty reports whether the buffer holds no audio payload. A
// header-only WAV container (44 bytes) counts as empty.
func payloadEmpty(audio []byte, tag format.Tag) bool {
	if len(audio) == 0 {
		return true
	}
	if tag == format.WAV && len(audio) <= 44 {
		return true
	}
	return false
}
