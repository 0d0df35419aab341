package main

// EventSink abstracts the display layer so the Bubble Tea TUI and the
// headless test driver receive the same session events.
type EventSink interface {
	RecordingStart()
	RecordingStop()
	RecordingTick(seconds int)
	AudioLevel(level float64)
	Phase(phase, source string, unsaved bool)
	Transcript(text, source string, confidence float64)
	SaveDone(noteID string, err error)
	Playback(event string, err error)
	Status(text string)
}

// nopSink is used until a real sink is attached.
type nopSink struct{}

func (nopSink) RecordingStart()                    {}
func (nopSink) RecordingStop()                     {}
func (nopSink) RecordingTick(int)                  {}
func (nopSink) AudioLevel(float64)                 {}
func (nopSink) Phase(string, string, bool)         {}
func (nopSink) Transcript(string, string, float64) {}
func (nopSink) SaveDone(string, error)             {}
func (nopSink) Playback(string, error)             {}
func (nopSink) Status(string)                      {}
