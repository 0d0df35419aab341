package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"dicta/audio"
	"dicta/format"
)

func sinePCM(nSamples int) []byte {
	pcm := make([]byte, nSamples*2)
	for i := 0; i < nSamples; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(i%1000))
	}
	return pcm
}

func newController(t *testing.T, ctx audio.Context) *Controller {
	t.Helper()
	dev, err := ctx.NewCapture(nil, audio.CaptureConfig{SampleRate: SampleRate, Channels: Channels})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	return New(dev)
}

func TestStartStopYieldsWAVTake(t *testing.T) {
	pcm := sinePCM(SampleRate / 2)
	c := newController(t, audio.NewFakeContextFromPCM(pcm))

	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	take := c.Stop()
	if take == nil {
		t.Fatal("Stop returned nil take")
	}
	if take.Sniffed != format.WAV {
		t.Errorf("Sniffed = %v, want WAV", take.Sniffed)
	}
	if take.ReportedMIME != "audio/wav" {
		t.Errorf("ReportedMIME = %q", take.ReportedMIME)
	}
	if len(take.Data) < 44+len(pcm) {
		t.Errorf("Data length = %d, want >= %d", len(take.Data), 44+len(pcm))
	}
	if !bytes.Equal(take.Data[44:44+len(pcm)], pcm) {
		t.Error("PCM payload not preserved in container")
	}
}

func TestSecondStartRejected(t *testing.T) {
	c := newController(t, audio.NewFakeContextFromPCM(nil))
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()
	if err := c.Start(); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second Start error = %v, want ErrAlreadyRecording", err)
	}
}

func TestStartAfterStopAllowed(t *testing.T) {
	c := newController(t, audio.NewFakeContextFromPCM(sinePCM(100)))
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.Stop()
	if err := c.Start(); err != nil {
		t.Fatalf("Start after Stop: %v", err)
	}
	c.Stop()
}

func TestStopWhenIdleIsNoop(t *testing.T) {
	c := newController(t, audio.NewFakeContextFromPCM(nil))
	if take := c.Stop(); take != nil {
		t.Errorf("Stop on idle controller = %+v, want nil", take)
	}
}

func TestStopFinalizesEmptyBuffer(t *testing.T) {
	c := newController(t, audio.NewFakeContextFromPCM(nil))
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	take := c.Stop()
	if take == nil {
		t.Fatal("expected a take even with no audio")
	}
	// Header-only container still carries a RIFF signature.
	if take.Sniffed != format.WAV {
		t.Errorf("Sniffed = %v, want WAV", take.Sniffed)
	}
	if len(take.Data) != 44 {
		t.Errorf("Data length = %d, want 44", len(take.Data))
	}
}

func TestDeviceUnavailable(t *testing.T) {
	ctx := audio.NewFakeContextFromPCM(nil)
	ctx.FailStart()
	c := newController(t, ctx)
	if err := c.Start(); !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("Start error = %v, want ErrDeviceUnavailable", err)
	}
	if c.Recording() {
		t.Error("controller should not be recording after failed Start")
	}
	// Controller must be reusable after the failure.
	if take := c.Stop(); take != nil {
		t.Error("Stop after failed Start should be a no-op")
	}
}

func TestLevelHookFires(t *testing.T) {
	c := newController(t, audio.NewFakeContextFromPCM(sinePCM(4096)))
	levels := make(chan float64, 64)
	c.OnLevel = func(rms float64) {
		select {
		case levels <- rms:
		default:
		}
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-levels:
	case <-time.After(time.Second):
		t.Error("no level callback within 1s")
	}
	c.Stop()
}

func TestWrapPCMHeader(t *testing.T) {
	pcm := sinePCM(SampleRate) // one second
	wav := WrapPCM(pcm, SampleRate)

	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", got, len(pcm))
	}
	if d := PCMDuration(pcm, SampleRate); d != 1.0 {
		t.Errorf("PCMDuration = %v, want 1.0", d)
	}
}
