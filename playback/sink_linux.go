//go:build linux

package playback

import (
	"fmt"

	"github.com/jfreymuth/pulse"
)

type pulseSink struct{}

func NewSink() Sink {
	return pulseSink{}
}

func (pulseSink) Open(sampleRate, channels int) (SinkStream, error) {
	client, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("pulse client: %w", err)
	}

	s := &pulseStream{
		client: client,
		ch:     make(chan []int16, 4),
	}

	chanOpt := pulse.PlaybackMono
	if channels == 2 {
		chanOpt = pulse.PlaybackStereo
	} else if channels != 1 {
		client.Close()
		return nil, fmt.Errorf("pulse playback: %d channels unsupported", channels)
	}

	stream, err := client.NewPlayback(pulse.Int16Reader(s.read),
		chanOpt,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("pulse playback: %w", err)
	}
	s.stream = stream
	stream.Start()
	return s, nil
}

// pulseStream adapts the push-style SinkStream onto pulse's pull-style
// reader with a small channel buffer.
type pulseStream struct {
	client  *pulse.Client
	stream  *pulse.PlaybackStream
	ch      chan []int16
	pending []int16
}

// read runs on the pulse client goroutine. When starved but still
// open it emits silence so the server does not underrun the stream.
func (s *pulseStream) read(buf []int16) (int, error) {
	if len(s.pending) == 0 {
		select {
		case chunk, ok := <-s.ch:
			if !ok {
				return 0, pulse.EndOfData
			}
			s.pending = chunk
		default:
			for i := range buf {
				buf[i] = 0
			}
			return len(buf), nil
		}
	}
	n := copy(buf, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *pulseStream) Write(samples []int16) error {
	chunk := make([]int16, len(samples))
	copy(chunk, samples)
	s.ch <- chunk
	return nil
}

func (s *pulseStream) Close() error {
	close(s.ch)
	s.stream.Drain()
	s.stream.Stop()
	s.stream.Close()
	s.client.Close()
	return nil
}
