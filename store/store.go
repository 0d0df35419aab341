// Package store persists saved notes. Two backends share one wire
// shape: a local BadgerDB store and a JSON-over-HTTP remote.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dicta/codec"
	"dicta/format"
	"dicta/note"
)

var (
	// ErrNotFound is returned by Get for an unknown note.
	ErrNotFound = errors.New("store: note not found")
)

// Note is the persisted form of a saved note. Audio rides through the
// codec wrapper so the JSON value stays printable.
type Note struct {
	ID              string          `json:"id"`
	VisitRef        string          `json:"visit_ref"`
	EncodedAudio    codec.AudioData `json:"audio,omitempty"`
	MimeType        string          `json:"mime_type,omitempty"`
	DurationSeconds int             `json:"duration_seconds,omitempty"`
	Filename        string          `json:"filename,omitempty"`
	Text            string          `json:"text"`
	Source          note.Source     `json:"source"`
	Edited          bool            `json:"edited"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// FromRecord builds a persistable note from a lifecycle snapshot.
func FromRecord(rec note.Record) *Note {
	return &Note{
		ID:              uuid.NewString(),
		VisitRef:        rec.VisitRef,
		EncodedAudio:    rec.Audio,
		MimeType:        rec.MimeType,
		DurationSeconds: rec.DurationSeconds,
		Filename:        rec.Filename,
		Text:            rec.Text,
		Source:          rec.Source,
		Edited:          rec.Edited,
	}
}

// Store is the persistence boundary the save lifecycle talks to.
type Store interface {
	Put(ctx context.Context, n *Note) error
	Get(ctx context.Context, visitRef, id string) (*Note, error)
	ListVisit(ctx context.Context, visitRef string) ([]*Note, error)
	Close() error
}

// validate enforces the write invariant: a note carrying audio must
// declare the container its bytes actually are. The type is re-derived
// here rather than trusted from the caller.
func validate(n *Note) error {
	if n.ID == "" {
		return errors.New("store: note has no id")
	}
	if n.VisitRef == "" {
		return errors.New("store: note has no visit ref")
	}
	if len(n.EncodedAudio) > 0 {
		sniffed := format.Sniff(n.EncodedAudio)
		if mime := sniffed.MIME(); n.MimeType != mime {
			return fmt.Errorf("store: mime %q does not match audio (%s)", n.MimeType, mime)
		}
	}
	return nil
}
