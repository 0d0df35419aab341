// Package playback reconstructs persisted note audio and plays it back
// through a platform sink. The stored container tag is never trusted:
// every reconstruction re-sniffs the decoded bytes and routes on what
// they actually are.
package playback

import (
	"context"
	"errors"
	"sync"

	"dicta/format"
)

var (
	// ErrUnsupported means no decoder is wired for the sniffed
	// container on this build (MP4 and WebM land here).
	ErrUnsupported = errors.New("playback: unsupported container")

	// ErrClosed means the handle was closed before or during Play.
	ErrClosed = errors.New("playback: handle closed")
)

// Clip is decoded interleaved 16-bit PCM ready for a sink.
type Clip struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// Player owns the output sink and enforces at most one active handle:
// reconstructing a new one closes whatever was playing.
type Player struct {
	sink Sink

	mu     sync.Mutex
	active *Handle
}

func NewPlayer(sink Sink) *Player {
	return &Player{sink: sink}
}

// Reconstruct builds a playback handle for persisted audio. The bytes
// are re-sniffed; storedTag is only kept for mismatch reporting. The
// previous active handle, if any, is closed.
func (p *Player) Reconstruct(persisted []byte, storedTag format.Tag) (*Handle, error) {
	if len(persisted) == 0 {
		return nil, errors.New("playback: no audio")
	}
	h := &Handle{
		data:    persisted,
		sniffed: format.Sniff(persisted),
		stored:  storedTag,
		sink:    p.sink,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	p.mu.Lock()
	prev := p.active
	p.active = h
	p.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
	return h, nil
}

// Handle is one playback of one reconstructed clip.
type Handle struct {
	data    []byte
	sniffed format.Tag
	stored  format.Tag
	sink    Sink

	mu      sync.Mutex
	started bool
	paused  bool
	resume  chan struct{}
	err     error

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Sniffed is the container the bytes actually are.
func (h *Handle) Sniffed() format.Tag { return h.sniffed }

// Mismatch reports whether the stored tag disagreed with the bytes.
func (h *Handle) Mismatch() bool { return h.stored != h.sniffed }

// Play starts playback, or resumes it after Pause. The first call
// decodes the clip; ErrUnsupported when no decoder exists for the
// sniffed container.
func (h *Handle) Play(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.stop:
		return ErrClosed
	default:
	}

	if h.started {
		if h.paused {
			h.paused = false
			close(h.resume)
		}
		return nil
	}

	clip, err := decode(h.data, h.sniffed)
	if err != nil {
		return err
	}
	st, err := h.sink.Open(clip.SampleRate, clip.Channels)
	if err != nil {
		return err
	}
	h.started = true
	go h.run(ctx, st, clip)
	return nil
}

// Pause suspends playback; the next Play resumes from the same sample.
func (h *Handle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started || h.paused {
		return
	}
	h.paused = true
	h.resume = make(chan struct{})
}

// Done is closed when playback ends for any reason.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err reports why playback stopped, nil for a clean end of clip.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Close releases the handle and its sink stream. Idempotent; safe to
// call whether or not Play was ever invoked.
func (h *Handle) Close() {
	h.closeOnce.Do(func() {
		close(h.stop)
		h.mu.Lock()
		started := h.started
		if h.paused {
			h.paused = false
			close(h.resume)
		}
		h.mu.Unlock()
		if !started {
			close(h.done)
		}
	})
}

func (h *Handle) setErr(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

// run streams the clip to the sink in 100ms chunks, honoring pause and
// stop between writes.
func (h *Handle) run(ctx context.Context, st SinkStream, clip Clip) {
	defer close(h.done)
	defer st.Close()

	chunk := clip.SampleRate / 10 * clip.Channels
	if chunk == 0 {
		chunk = len(clip.Samples)
	}
	for pos := 0; pos < len(clip.Samples); {
		if !h.waitResume(ctx) {
			return
		}
		end := pos + chunk
		if end > len(clip.Samples) {
			end = len(clip.Samples)
		}
		if err := st.Write(clip.Samples[pos:end]); err != nil {
			h.setErr(err)
			return
		}
		pos = end
	}
}

// waitResume blocks while paused; false means playback should end.
func (h *Handle) waitResume(ctx context.Context) bool {
	h.mu.Lock()
	paused := h.paused
	resume := h.resume
	h.mu.Unlock()

	if !paused {
		select {
		case <-h.stop:
			return false
		case <-ctx.Done():
			h.setErr(ctx.Err())
			return false
		default:
			return true
		}
	}
	select {
	case <-resume:
		return true
	case <-h.stop:
		return false
	case <-ctx.Done():
		h.setErr(ctx.Err())
		return false
	}
}
