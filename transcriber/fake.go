package transcriber

import (
	"context"

	"dicta/format"
)

// FakeTranscriber returns a fixed result or error. Used by tests and
// the headless driver.
type FakeTranscriber struct {
	result Result
	err    error
	lang   string

	// Calls records the tags passed to Transcribe.
	Calls []format.Tag
}

func NewFake(result Result, err error) *FakeTranscriber {
	return &FakeTranscriber{result: result, err: err}
}

func (f *FakeTranscriber) Name() string           { return "fake" }
func (f *FakeTranscriber) SetLanguage(lang string) { f.lang = lang }
func (f *FakeTranscriber) GetLanguage() string     { return f.lang }

func (f *FakeTranscriber) Transcribe(_ context.Context, audio []byte, tag format.Tag) (Result, error) {
	f.Calls = append(f.Calls, tag)
	if payloadEmpty(audio, tag) {
		return Result{}, ErrEmptyAudio
	}
	if f.err != nil {
		return Result{}, f.err
	}
	return f.result, nil
}
