package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"

	"dicta/capture"
	"dicta/format"
	"dicta/log"
	"dicta/note"
	"dicta/playback"
	"dicta/store"
	"dicta/transcriber"
)

// App wires the session state machine to the recorder, transcriber,
// store, and player. All methods are safe to call from the UI loop or
// the headless driver; the session itself is guarded by mu.
type App struct {
	mu       sync.Mutex
	session  *note.Session
	recorder *capture.Controller
	trans    transcriber.Transcriber
	db       store.Store
	player   *playback.Player
	sink     EventSink

	lastSaved  *store.Note
	savedCount int
}

func NewApp(session *note.Session, recorder *capture.Controller, trans transcriber.Transcriber, db store.Store, player *playback.Player) *App {
	return &App{
		session:  session,
		recorder: recorder,
		trans:    trans,
		db:       db,
		player:   player,
		sink:     nopSink{},
	}
}

func (a *App) SetSink(sink EventSink) {
	a.mu.Lock()
	a.sink = sink
	a.mu.Unlock()
	a.notifyPhase()
}

func (a *App) SavedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.savedCount
}

func (a *App) Recording() bool {
	return a.recorder.Recording()
}

func (a *App) HasUnsavedWork() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.HasUnsavedWork()
}

func (a *App) notifyPhase() {
	a.sink.Phase(a.session.Phase().String(), a.session.Source().String(), a.session.HasUnsavedWork())
}

// StartRecording opens the capture session. Device failures reach the
// UI as an error; the session is untouched.
func (a *App) StartRecording() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session.Phase() == note.Transcribing || a.session.Phase() == note.Saving {
		return note.ErrBusy
	}
	if err := a.recorder.Start(); err != nil {
		log.Errorf("recording start: %v", err)
		return err
	}
	a.sink.RecordingStart()
	return nil
}

// StopRecording finalizes the take and attaches it to the session.
func (a *App) StopRecording() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	take := a.recorder.Stop()
	a.sink.RecordingStop()
	if take == nil {
		return nil
	}
	log.Info(fmt.Sprintf("take finalized: %s %d bytes %ds", take.Sniffed, len(take.Data), take.Seconds))
	if err := a.session.AttachTake(take); err != nil {
		return err
	}
	a.notifyPhase()
	return nil
}

// Transcribe runs the provider round trip for the attached take. The
// session degrades to manual entry on failure; the returned error is
// informational for the UI.
func (a *App) Transcribe(ctx context.Context) error {
	a.mu.Lock()
	if err := a.session.BeginTranscription(); err != nil {
		a.mu.Unlock()
		return err
	}
	take := a.session.Take()
	a.notifyPhase()
	a.mu.Unlock()

	res, err := a.trans.Transcribe(ctx, take.Data, take.Sniffed)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.session.FinishTranscription(res, err)
	if err != nil {
		log.Errorf("transcription: %v", err)
	} else {
		log.Confidence(res.Confidence)
	}
	a.sink.Transcript(a.session.Text(), a.session.Source().String(), res.Confidence)
	a.notifyPhase()
	return err
}

// ReplaceText applies a manual edit replacing the whole note text.
func (a *App) ReplaceText(text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.session.SetText(text); err != nil {
		return err
	}
	a.notifyPhase()
	return nil
}

// AppendText appends to the note text, inserting a space between the
// existing text and the addition.
func (a *App) AppendText(text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	current := a.session.Text()
	if current != "" && text != "" {
		text = current + " " + text
	} else {
		text = current + text
	}
	if err := a.session.SetText(text); err != nil {
		return err
	}
	a.notifyPhase()
	return nil
}

// Text returns the current note text.
func (a *App) Text() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Text()
}

// Save persists the session snapshot through the store. Failures leave
// the session retryable; success records the note for playback.
func (a *App) Save(ctx context.Context) error {
	a.mu.Lock()
	rec, err := a.session.BeginSave()
	if err != nil {
		a.mu.Unlock()
		return err
	}
	a.notifyPhase()
	a.mu.Unlock()

	n := store.FromRecord(rec)
	saveErr := a.db.Put(ctx, n)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.session.FinishSave(saveErr)
	log.SaveResult(rec.VisitRef, n.ID, saveErr)
	if saveErr == nil {
		log.NoteText(rec.VisitRef, rec.Text)
		a.lastSaved = n
		a.savedCount++
	}
	a.sink.SaveDone(n.ID, saveErr)
	a.notifyPhase()
	return saveErr
}

// PlayLastSaved reconstructs the most recently saved note's audio and
// starts playback. The stored mime is never trusted; a disagreement is
// logged and the sniffed container wins.
func (a *App) PlayLastSaved(ctx context.Context) error {
	a.mu.Lock()
	last := a.lastSaved
	a.mu.Unlock()
	if last == nil {
		return fmt.Errorf("no saved note to play")
	}
	if len(last.EncodedAudio) == 0 {
		return fmt.Errorf("saved note has no audio")
	}

	h, err := a.player.Reconstruct(last.EncodedAudio, format.FromMIME(last.MimeType))
	if err != nil {
		a.sink.Playback("error", err)
		return err
	}
	if h.Mismatch() {
		log.SniffMismatch(last.MimeType, h.Sniffed().MIME())
	}
	if err := h.Play(ctx); err != nil {
		log.PlaybackEvent("start", h.Sniffed().String(), err)
		a.sink.Playback("error", err)
		h.Close()
		return err
	}
	log.PlaybackEvent("start", h.Sniffed().String(), nil)
	a.sink.Playback("start", nil)

	go func() {
		<-h.Done()
		err := h.Err()
		log.PlaybackEvent("done", h.Sniffed().String(), err)
		a.sink.Playback("done", err)
	}()
	return nil
}

// CopyTranscript puts the current note text on the system clipboard.
func (a *App) CopyTranscript() error {
	text := a.Text()
	if text == "" {
		return fmt.Errorf("nothing to copy")
	}
	return clipboard.WriteAll(text)
}

// Shutdown stops any active recording and closes the store.
func (a *App) Shutdown() {
	if a.recorder.Recording() {
		a.recorder.Stop()
	}
	if err := a.db.Close(); err != nil {
		log.Errorf("store close: %v", err)
	}
	log.SessionEnd(a.SavedCount())
}
