package playback

import (
	"errors"
	"sync"
)

// FakeSink consumes PCM instantly and records what passed through.
type FakeSink struct {
	mu       sync.Mutex
	failOpen bool
	streams  []*FakeStream
}

func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

// FailOpen makes every subsequent Open return an error.
func (f *FakeSink) FailOpen() {
	f.mu.Lock()
	f.failOpen = true
	f.mu.Unlock()
}

func (f *FakeSink) Open(sampleRate, channels int) (SinkStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOpen {
		return nil, errors.New("fake sink: open refused")
	}
	st := &FakeStream{SampleRate: sampleRate, Channels: channels}
	f.streams = append(f.streams, st)
	return st, nil
}

// Streams returns every stream opened so far.
func (f *FakeSink) Streams() []*FakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*FakeStream, len(f.streams))
	copy(out, f.streams)
	return out
}

type FakeStream struct {
	SampleRate int
	Channels   int

	mu      sync.Mutex
	samples []int16
	closed  bool
}

func (s *FakeStream) Write(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, samples...)
	return nil
}

func (s *FakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FakeStream) Samples() []int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int16, len(s.samples))
	copy(out, s.samples)
	return out
}

func (s *FakeStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
