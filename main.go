package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"dicta/audio"
	"dicta/capture"
	"dicta/config"
	"dicta/log"
	"dicta/note"
	"dicta/playback"
	"dicta/store"
	"dicta/transcriber"
)

var version = "dev"

var shutdownOnce sync.Once

func gracefulShutdown(app *App) {
	shutdownOnce.Do(func() {
		if app != nil {
			app.Shutdown()
		}
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func main() {
	visitFlag := flag.String("visit", "", "Visit reference the notes belong to")
	configFlag := flag.String("config", "", "Config file path (default: OS config dir)")
	providerFlag := flag.String("provider", "", "Transcription provider: groq or openai (default: first with a key)")
	langFlag := flag.String("lang", "", "Language code for transcription (e.g., en, es). Empty = auto-detect")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	dataDirFlag := flag.String("datadir", "", "Local note store directory")
	remoteFlag := flag.String("remote", "", "Save notes to a hosted API at this base URL instead of locally")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("dicta %s\n", version)
		os.Exit(0)
	}

	configPath := *configFlag
	if configPath == "" {
		var err error
		configPath, err = config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: resolving config path: %v\n", err)
			os.Exit(1)
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags override file and environment.
	if *providerFlag != "" {
		cfg.Provider = *providerFlag
	}
	if *langFlag != "" {
		cfg.Language = *langFlag
	}
	if *deviceFlag != "" {
		cfg.Device = *deviceFlag
	}
	if *dataDirFlag != "" {
		cfg.DataDir = *dataDirFlag
	}
	if *remoteFlag != "" {
		cfg.RemoteURL = *remoteFlag
	}

	// Resolve log directory early
	logFlagOrCfg := *logPathFlag
	if logFlagOrCfg == "" {
		logFlagOrCfg = cfg.LogPath
	}
	logPath, err := log.ResolveDir(logFlagOrCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	visitRef := *visitFlag
	if visitRef == "" {
		visitRef = "walkin-" + time.Now().Format("20060102-1504")
		fmt.Fprintf(os.Stderr, "Warning: no -visit given, using %s\n", visitRef)
	}

	if *testFlag {
		wavPath := ""
		if args := flag.Args(); len(args) > 0 {
			wavPath = args[0]
		}
		runTestMode(visitRef, wavPath)
		return
	}

	trans, err := transcriber.New(cfg.Provider, cfg.GroqAPIKey, cfg.OpenAIAPIKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Language != "" {
		trans.SetLanguage(cfg.Language)
	}

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	var selectedDevice *audio.DeviceInfo
	if cfg.Device != "" {
		if devices, err := ctx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == cfg.Device {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Fprintf(os.Stderr, "Warning: device %q not found, using system default\n", cfg.Device)
		}
	} else if *setupFlag {
		selectedDevice, err = selectDevice(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v\n", err)
			fmt.Fprintln(os.Stderr, "Falling back to default device")
			selectedDevice = nil
		}
	}

	dev, err := ctx.NewCapture(selectedDevice, audio.CaptureConfig{
		SampleRate: capture.SampleRate,
		Channels:   capture.Channels,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing capture device: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	var db store.Store
	if cfg.RemoteURL != "" {
		db = store.NewRemote(cfg.RemoteURL, cfg.RemoteKey)
	} else {
		db, err = store.NewBadger(store.BadgerOptions{Dir: filepath.Join(cfg.DataDir, "notes")})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening note store: %v\n", err)
			os.Exit(1)
		}
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	log.SessionStart(visitRef, trans.Name(), dev.DeviceName())
	if selectedDevice != nil && audio.IsBluetooth(selectedDevice.Name) {
		log.Warn("bluetooth microphone selected, expect degraded audio")
	}

	session := note.NewSession(visitRef)
	recorder := capture.New(dev)
	player := playback.NewPlayer(playback.NewSink())
	app := NewApp(session, recorder, trans, db, player)

	recorder.OnLevel = func(level float64) { tuiSend(AudioLevelMsg{Level: level}) }
	recorder.OnTick = func(s int) { tuiSend(RecordingTickMsg{Seconds: s}) }

	tuiMu.Lock()
	tuiProgram = NewTUIProgram(app, visitRef, deviceLineText(selectedDevice))
	tuiMu.Unlock()

	app.SetSink(tuiSink{})

	if _, err := tuiProgram.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
	}
	gracefulShutdown(app)
}
