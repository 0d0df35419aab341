//go:build !linux

package playback

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

type malgoSink struct{}

func NewSink() Sink {
	return malgoSink{}
}

func (malgoSink) Open(sampleRate, channels int) (SinkStream, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo context: %w", err)
	}

	s := &malgoStream{
		ctx:     ctx,
		ch:      make(chan []byte, 4),
		drained: make(chan struct{}),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			s.fill(out)
		},
	}
	dev, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("malgo playback: %w", err)
	}
	s.dev = dev
	if err := dev.Start(); err != nil {
		dev.Uninit()
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("malgo start: %w", err)
	}
	return s, nil
}

type malgoStream struct {
	ctx *malgo.AllocatedContext
	dev *malgo.Device

	ch      chan []byte
	pending []byte

	closed      bool
	drained     chan struct{}
	drainedOnce sync.Once
}

// fill runs on the device thread; starvation plays silence until the
// channel is closed and fully consumed.
func (s *malgoStream) fill(out []byte) {
	for len(out) > 0 {
		if len(s.pending) == 0 {
			select {
			case chunk, ok := <-s.ch:
				if !ok {
					s.drainedOnce.Do(func() { close(s.drained) })
					for i := range out {
						out[i] = 0
					}
					return
				}
				s.pending = chunk
			default:
				for i := range out {
					out[i] = 0
				}
				return
			}
		}
		n := copy(out, s.pending)
		s.pending = s.pending[n:]
		out = out[n:]
	}
}

func (s *malgoStream) Write(samples []int16) error {
	buf := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	s.ch <- buf
	return nil
}

func (s *malgoStream) Close() error {
	if !s.closed {
		s.closed = true
		close(s.ch)
		<-s.drained
	}
	s.dev.Uninit()
	s.ctx.Uninit()
	s.ctx.Free()
	return nil
}
