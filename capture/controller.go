// Package capture drives a single recording session against an audio
// device: start, accumulate PCM, stop, yield a finalized take.
package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"dicta/audio"
	"dicta/format"
)

const (
	SampleRate = 16000
	Channels   = 1
)

var (
	// ErrDeviceUnavailable means the input device could not be opened
	// (missing, busy, or permission denied).
	ErrDeviceUnavailable = errors.New("capture: device unavailable")

	// ErrAlreadyRecording means Start was called while a session is
	// active. One capture session per controller at a time.
	ErrAlreadyRecording = errors.New("capture: already recording")
)

// Take is a finalized, not-yet-persisted recording.
type Take struct {
	Data         []byte     // complete WAV container
	ReportedMIME string     // what the backend claims; advisory only
	Sniffed      format.Tag // derived from the bytes; authoritative
	Seconds      int        // elapsed wall clock, 1 s resolution, UI approximation
	Filename     string
}

// Controller owns one capture device and runs at most one recording
// session at a time.
type Controller struct {
	dev audio.CaptureDevice

	// optional UI hooks, set before Start
	OnLevel func(rms float64)
	OnTick  func(seconds int)

	mu        sync.Mutex
	recording bool
	pcm       []byte
	seconds   int
	stopTick  chan struct{}
	tickDone  chan struct{}
}

func New(dev audio.CaptureDevice) *Controller {
	return &Controller{dev: dev}
}

// Recording reports whether a session is active.
func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// Start begins accumulating audio. A second Start while recording is
// rejected; device open failures surface as ErrDeviceUnavailable.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.recording {
		c.mu.Unlock()
		return ErrAlreadyRecording
	}
	c.pcm = nil
	c.seconds = 0
	c.stopTick = make(chan struct{})
	c.tickDone = make(chan struct{})
	c.mu.Unlock()

	c.dev.SetCallback(func(data []byte, _ uint32) {
		if len(data) == 0 {
			return
		}
		chunk := make([]byte, len(data))
		copy(chunk, data)

		c.mu.Lock()
		if !c.recording {
			c.mu.Unlock()
			return
		}
		c.pcm = append(c.pcm, chunk...)
		c.mu.Unlock()

		if c.OnLevel != nil {
			c.OnLevel(rmsLevel(data))
		}
	})

	// Recording is armed before the device starts: some backends
	// deliver buffered frames synchronously from Start.
	c.mu.Lock()
	c.recording = true
	c.mu.Unlock()

	if err := c.dev.Start(); err != nil {
		c.dev.ClearCallback()
		c.mu.Lock()
		c.recording = false
		c.pcm = nil
		c.stopTick = nil
		c.tickDone = nil
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	go c.tick()
	return nil
}

// tick counts whole elapsed seconds. This is a display approximation,
// never an authoritative duration.
func (c *Controller) tick() {
	defer close(c.tickDone)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopTick:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.seconds++
			s := c.seconds
			c.mu.Unlock()
			if c.OnTick != nil {
				c.OnTick(s)
			}
		}
	}
}

// Stop finalizes the session and returns the take. Calling Stop when
// nothing is recording is a no-op returning nil. Whatever bytes were
// accumulated are always returned, even a zero-length buffer, and the
// device is released on every path.
func (c *Controller) Stop() *Take {
	c.mu.Lock()
	if !c.recording {
		c.mu.Unlock()
		return nil
	}
	c.recording = false
	c.mu.Unlock()

	c.dev.Stop()
	c.dev.ClearCallback()
	close(c.stopTick)
	<-c.tickDone

	c.mu.Lock()
	pcm := c.pcm
	c.pcm = nil
	seconds := c.seconds
	c.mu.Unlock()

	data := WrapPCM(pcm, SampleRate)
	sniffed := format.Sniff(data)
	return &Take{
		Data:         data,
		ReportedMIME: "audio/wav",
		Sniffed:      sniffed,
		Seconds:      seconds,
		Filename:     time.Now().Format("20060102-150405") + "." + sniffed.Ext(),
	}
}

func rmsLevel(data []byte) float64 {
	if len(data) < 2 {
		return 0
	}
	var sumSquares float64
	for i := 0; i+1 < len(data); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(data[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(len(data)/2))
}
