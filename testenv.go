package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dicta/audio"
	"dicta/capture"
	"dicta/log"
	"dicta/note"
	"dicta/playback"
	"dicta/store"
	"dicta/transcriber"
)

// stdoutSink prints session events as greppable lines for the driver.
type stdoutSink struct{}

func (stdoutSink) RecordingStart()      { fmt.Println("EVENT recording_start") }
func (stdoutSink) RecordingStop()       { fmt.Println("EVENT recording_stop") }
func (stdoutSink) RecordingTick(s int)  { fmt.Printf("EVENT tick %d\n", s) }
func (stdoutSink) AudioLevel(float64)   {}
func (stdoutSink) Phase(phase, source string, unsaved bool) {
	fmt.Printf("PHASE %s %s unsaved=%v\n", phase, source, unsaved)
}
func (stdoutSink) Transcript(text, source string, _ float64) {
	fmt.Printf("TRANSCRIPT [%s] %s\n", source, text)
}
func (stdoutSink) SaveDone(id string, err error) {
	if err != nil {
		fmt.Printf("SAVE_ERR %v\n", err)
		return
	}
	fmt.Printf("SAVED %s\n", id)
}
func (stdoutSink) Playback(event string, err error) {
	if err != nil {
		fmt.Printf("PLAYBACK %s %v\n", event, err)
		return
	}
	fmt.Printf("PLAYBACK %s\n", event)
}
func (stdoutSink) Status(text string) { fmt.Println("STATUS " + text) }

// runTestMode drives the full pipeline headlessly: fake capture device
// replaying a WAV file, fake transcriber, in-memory store, fake sink.
// Commands arrive one per line on stdin.
func runTestMode(visitRef, wavPath string) {
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	var fakeCtx *audio.FakeContext
	if wavPath != "" {
		var err error
		fakeCtx, err = audio.NewFakeContext(wavPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
			os.Exit(1)
		}
	} else {
		fakeCtx = audio.NewFakeContextFromPCM(make([]byte, capture.SampleRate*2))
	}

	dev, err := fakeCtx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: capture.SampleRate, Channels: capture.Channels,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	db, err := store.NewBadger(store.BadgerOptions{InMemory: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}

	session := note.NewSession(visitRef)
	recorder := capture.New(dev)
	trans := transcriber.NewFake(transcriber.Result{Text: "fake transcript", Confidence: 0.95}, nil)
	player := playback.NewPlayer(playback.NewFakeSink())

	app := NewApp(session, recorder, trans, db, player)
	app.SetSink(stdoutSink{})

	log.SessionStart(visitRef, trans.Name(), dev.DeviceName())

	report := func(err error) {
		if err != nil {
			fmt.Printf("ERR %v\n", err)
			return
		}
		fmt.Println("OK")
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "RECORD":
			report(app.StartRecording())
		case cmd == "STOP":
			report(app.StopRecording())
		case cmd == "TRANSCRIBE":
			report(app.Transcribe(context.Background()))
		case strings.HasPrefix(cmd, "TEXT "):
			report(app.ReplaceText(cmd[5:]))
		case cmd == "SAVE":
			report(app.Save(context.Background()))
		case cmd == "PLAY":
			report(app.PlayLastSaved(context.Background()))
		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(cmd[6:]); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
			fmt.Println("OK")
		case cmd == "QUIT":
			app.Shutdown()
			os.Exit(0)
		case cmd == "":
		default:
			fmt.Printf("ERR unknown command %q\n", cmd)
		}
	}
	app.Shutdown()
}
