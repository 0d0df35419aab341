// Package note holds the editing-session state machine for a clinical
// voice note: recording, transcription, provenance, dirty tracking,
// and the save lifecycle. The hosting UI reads phase, provenance, and
// HasUnsavedWork from here instead of re-deriving them.
package note

import (
	"errors"
	"fmt"
)

// Phase is the lifecycle position of a note editing session.
type Phase int

const (
	Empty Phase = iota
	Recorded
	Transcribing
	Ready
	Saving
	Saved
)

func (p Phase) String() string {
	switch p {
	case Empty:
		return "empty"
	case Recorded:
		return "recorded"
	case Transcribing:
		return "transcribing"
	case Ready:
		return "ready"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Source is the provenance of the note text. Auto survives only as
// long as no human touches the text.
type Source int

const (
	SourceNone Source = iota
	SourceAuto
	SourceManual
)

func (s Source) String() string {
	switch s {
	case SourceAuto:
		return "auto"
	case SourceManual:
		return "manual"
	}
	return "none"
}

// MarshalJSON encodes the source as its string form.
func (s Source) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON accepts the string forms; anything else is none.
func (s *Source) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"auto"`:
		*s = SourceAuto
	case `"manual"`:
		*s = SourceManual
	default:
		*s = SourceNone
	}
	return nil
}

var (
	// ErrSaveConflict means a save was attempted while another is in
	// flight for the same session. The second attempt is rejected, not
	// queued.
	ErrSaveConflict = errors.New("note: save already in flight")

	// ErrBusy means the operation is not valid in the current phase
	// (e.g. editing while a transcription or save is pending).
	ErrBusy = errors.New("note: session busy")

	// ErrNothingToSave means save was invoked on an empty session.
	ErrNothingToSave = errors.New("note: nothing to save")
)

// Placeholder shown when transcription fails; the clinician edits it
// rather than losing the workflow.
const Placeholder = "(transcription failed, enter note text manually)"

// Record is the snapshot handed to a Saver. Audio fields are zero when
// the session has no take.
type Record struct {
	VisitRef        string
	Audio           []byte
	MimeType        string // sniffed, never unknown when Audio present
	DurationSeconds int
	Filename        string
	Text            string
	Source          Source
	Edited          bool
}
