package note

import (
	"dicta/capture"
	"dicta/transcriber"
)

// Session is the single source of truth for one note in progress.
// It is owned by the UI event loop and never persisted; operations
// are strictly serialized by the caller. Async work (transcription,
// save) is split into Begin/Finish pairs so the state machine itself
// stays synchronous and testable.
type Session struct {
	visitRef string

	phase  Phase
	take   *capture.Take
	text   string
	source Source
	edited bool

	textDirty  bool
	audioDirty bool
	savedText  string // last successfully persisted text

	prevPhase Phase // phase to restore when an in-flight save fails
}

func NewSession(visitRef string) *Session {
	return &Session{visitRef: visitRef}
}

func (s *Session) VisitRef() string { return s.visitRef }
func (s *Session) Phase() Phase     { return s.phase }
func (s *Session) Source() Source   { return s.source }
func (s *Session) Text() string     { return s.text }
func (s *Session) Take() *capture.Take { return s.take }

// HasUnsavedWork is what navigation guards key off: true whenever the
// text or the audio has diverged from the last successful save.
func (s *Session) HasUnsavedWork() bool {
	return s.textDirty || s.audioDirty
}

// AttachTake installs a finished recording. From Saved the session
// implicitly rearms for the next note in the same visit. A take
// attached over auto-provenance text demotes the text to manual: the
// transcript no longer describes the current audio.
func (s *Session) AttachTake(t *capture.Take) error {
	if t == nil {
		return nil
	}
	switch s.phase {
	case Transcribing, Saving:
		return ErrBusy
	case Saved:
		s.Reset()
	}
	s.take = t
	s.audioDirty = true
	if s.source == SourceAuto {
		s.source = SourceManual
	}
	if s.phase == Empty {
		s.phase = Recorded
	}
	return nil
}

// BeginTranscription marks the session as waiting on the speech-to-
// text provider. Valid from Recorded, or from Ready when a take is
// attached (re-transcription).
func (s *Session) BeginTranscription() error {
	if s.phase != Recorded && s.phase != Ready {
		return ErrBusy
	}
	if s.take == nil {
		return ErrBusy
	}
	s.phase = Transcribing
	return nil
}

// FinishTranscription applies the provider's answer. Success installs
// the text with auto provenance; any failure (provider or empty audio)
// degrades to manual entry with a placeholder so saving is never
// blocked. Dirty flags for audio are untouched either way.
func (s *Session) FinishTranscription(res transcriber.Result, err error) {
	if s.phase != Transcribing {
		return
	}
	if err != nil {
		if s.text == "" {
			s.text = Placeholder
			s.textDirty = true
		}
		s.source = SourceManual
		s.phase = Ready
		return
	}
	s.text = res.Text
	s.source = SourceAuto
	s.edited = false
	s.textDirty = s.text != s.savedText
	s.phase = Ready
}

// SetText applies a manual edit. Identical text is a no-op; any real
// mutation flips provenance to manual permanently (only a fresh
// transcription can restore auto).
func (s *Session) SetText(text string) error {
	switch s.phase {
	case Transcribing, Saving:
		return ErrBusy
	case Saved:
		s.Reset()
	}
	if text == s.text {
		return nil
	}
	if s.source == SourceAuto {
		s.edited = true
	}
	s.text = text
	s.source = SourceManual
	s.textDirty = s.text != s.savedText
	if s.phase == Empty {
		s.phase = Ready
	}
	return nil
}

// BeginSave snapshots the current state for persistence and locks the
// session. A second BeginSave while one is pending yields
// ErrSaveConflict. The caller runs the actual store call and reports
// back through FinishSave.
func (s *Session) BeginSave() (Record, error) {
	if s.phase == Saving {
		return Record{}, ErrSaveConflict
	}
	if s.phase == Empty || s.phase == Saved {
		return Record{}, ErrNothingToSave
	}
	if s.phase == Transcribing {
		return Record{}, ErrBusy
	}

	rec := Record{
		VisitRef: s.visitRef,
		Text:     s.text,
		Source:   s.source,
		Edited:   s.edited,
	}
	if s.take != nil {
		rec.Audio = s.take.Data
		rec.MimeType = s.take.Sniffed.MIME()
		rec.DurationSeconds = s.take.Seconds
		rec.Filename = s.take.Filename
	}

	s.prevPhase = s.phase
	s.phase = Saving
	return rec, nil
}

// FinishSave commits or rolls back the pending save. Success clears
// both dirty flags and updates the last-saved snapshot atomically with
// the transition to Saved; failure restores the prior phase with every
// flag and field untouched so the clinician can retry.
func (s *Session) FinishSave(err error) {
	if s.phase != Saving {
		return
	}
	if err != nil {
		s.phase = s.prevPhase
		return
	}
	s.savedText = s.text
	s.textDirty = false
	s.audioDirty = false
	s.phase = Saved
}

// Reset rearms the session for the next note in the same visit.
// No-op while async work is pending.
func (s *Session) Reset() {
	if s.phase == Transcribing || s.phase == Saving {
		return
	}
	s.phase = Empty
	s.take = nil
	s.text = ""
	s.source = SourceNone
	s.edited = false
	s.textDirty = false
	s.audioDirty = false
	s.savedText = ""
}
