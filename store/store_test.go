package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"dicta/capture"
	"dicta/format"
	"dicta/note"
)

func testNote(visitRef string) *Note {
	audio := capture.WrapPCM(make([]byte, 3200), 16000)
	return FromRecord(note.Record{
		VisitRef:        visitRef,
		Audio:           audio,
		MimeType:        format.Sniff(audio).MIME(),
		DurationSeconds: 1,
		Filename:        "take.wav",
		Text:            "patient stable",
		Source:          note.SourceAuto,
	})
}

func openMem(t *testing.T) *Badger {
	t.Helper()
	b, err := NewBadger(BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBadgerPutGet(t *testing.T) {
	b := openMem(t)
	ctx := context.Background()

	n := testNote("visit-1")
	if err := b.Put(ctx, n); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n.CreatedAt.IsZero() || n.UpdatedAt.IsZero() {
		t.Error("timestamps not set on Put")
	}

	got, err := b.Get(ctx, "visit-1", n.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Text != "patient stable" {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Source != note.SourceAuto {
		t.Errorf("Source = %v, want auto", got.Source)
	}
	if got.MimeType != "audio/wav" {
		t.Errorf("MimeType = %q", got.MimeType)
	}
	// Audio survives the round trip byte for byte.
	if len(got.EncodedAudio) != len(n.EncodedAudio) {
		t.Fatalf("audio length = %d, want %d", len(got.EncodedAudio), len(n.EncodedAudio))
	}
	if format.Sniff(got.EncodedAudio) != format.WAV {
		t.Error("stored audio no longer sniffs as WAV")
	}
}

func TestBadgerGetMissing(t *testing.T) {
	b := openMem(t)
	if _, err := b.Get(context.Background(), "visit-1", "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestBadgerListVisit(t *testing.T) {
	b := openMem(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := b.Put(ctx, testNote("visit-1")); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if err := b.Put(ctx, testNote("visit-2")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	notes, err := b.ListVisit(ctx, "visit-1")
	if err != nil {
		t.Fatalf("ListVisit: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("len = %d, want 3", len(notes))
	}
	for _, n := range notes {
		if n.VisitRef != "visit-1" {
			t.Errorf("leaked note from %q", n.VisitRef)
		}
	}

	// Prefix must not bleed across visit refs that share a prefix.
	if err := b.Put(ctx, testNote("visit-10")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	notes, err = b.ListVisit(ctx, "visit-1")
	if err != nil {
		t.Fatalf("ListVisit: %v", err)
	}
	if len(notes) != 3 {
		t.Errorf("len = %d after visit-10 insert, want 3", len(notes))
	}
}

func TestPutRejectsMimeMismatch(t *testing.T) {
	b := openMem(t)
	n := testNote("visit-1")
	n.MimeType = "audio/ogg" // bytes are WAV
	if err := b.Put(context.Background(), n); err == nil {
		t.Error("Put should reject a mime that disagrees with the audio")
	}
}

func TestPutRejectsIncompleteNote(t *testing.T) {
	b := openMem(t)
	ctx := context.Background()

	n := testNote("visit-1")
	n.ID = ""
	if err := b.Put(ctx, n); err == nil {
		t.Error("Put should reject a note without an id")
	}

	n = testNote("")
	if err := b.Put(ctx, n); err == nil {
		t.Error("Put should reject a note without a visit ref")
	}
}

func TestTextOnlyNote(t *testing.T) {
	b := openMem(t)
	ctx := context.Background()

	n := FromRecord(note.Record{
		VisitRef: "visit-1",
		Text:     "typed note, no recording",
		Source:   note.SourceManual,
	})
	if err := b.Put(ctx, n); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := b.Get(ctx, "visit-1", n.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.EncodedAudio) != 0 {
		t.Error("text-only note grew audio")
	}
}

func TestRemotePut(t *testing.T) {
	var received Note
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != "/visits/visit-1/notes" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, "test-key")
	n := testNote("visit-1")
	if err := r.Put(context.Background(), n); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if received.Text != "patient stable" {
		t.Errorf("remote received text %q", received.Text)
	}
	if format.Sniff(received.EncodedAudio) != format.WAV {
		t.Error("audio did not survive the wire")
	}
}

func TestRemotePutFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, "")
	if err := r.Put(context.Background(), testNote("visit-1")); err == nil {
		t.Error("Put should surface non-2xx as an error")
	}
}

func TestRemoteGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, "")
	if _, err := r.Get(context.Background(), "visit-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRemoteListVisit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/visits/visit-1/notes" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]*Note{{ID: "a", VisitRef: "visit-1", Text: "one"}})
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, "")
	notes, err := r.ListVisit(context.Background(), "visit-1")
	if err != nil {
		t.Fatalf("ListVisit: %v", err)
	}
	if len(notes) != 1 || notes[0].Text != "one" {
		t.Errorf("notes = %+v", notes)
	}
}
