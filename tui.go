package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUI message types
type RecordingStartMsg struct{}
type RecordingStopMsg struct{}
type RecordingTickMsg struct{ Seconds int }
type AudioLevelMsg struct{ Level float64 }
type PhaseMsg struct {
	Phase   string
	Source  string
	Unsaved bool
}
type TranscriptMsg struct {
	Text       string
	Source     string
	Confidence float64
}
type SaveDoneMsg struct {
	NoteID string
	Err    error
}
type PlaybackMsg struct {
	Event string
	Err   error
}
type StatusMsg struct{ Text string }
type opDoneMsg struct{ err error }

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// tuiSink forwards app events into the Bubble Tea loop.
type tuiSink struct{}

func (tuiSink) RecordingStart()          { tuiSend(RecordingStartMsg{}) }
func (tuiSink) RecordingStop()           { tuiSend(RecordingStopMsg{}) }
func (tuiSink) RecordingTick(s int)      { tuiSend(RecordingTickMsg{Seconds: s}) }
func (tuiSink) AudioLevel(level float64) { tuiSend(AudioLevelMsg{Level: level}) }
func (tuiSink) Phase(phase, source string, unsaved bool) {
	tuiSend(PhaseMsg{Phase: phase, Source: source, Unsaved: unsaved})
}
func (tuiSink) Transcript(text, source string, confidence float64) {
	tuiSend(TranscriptMsg{Text: text, Source: source, Confidence: confidence})
}
func (tuiSink) SaveDone(id string, err error) { tuiSend(SaveDoneMsg{NoteID: id, Err: err}) }
func (tuiSink) Playback(event string, err error) {
	tuiSend(PlaybackMsg{Event: event, Err: err})
}
func (tuiSink) Status(text string) { tuiSend(StatusMsg{Text: text}) }

var (
	styleHeader  = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	styleRec     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleIdle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	stylePhase   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleAuto    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleManual  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleUnsaved = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	styleText    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleStatus  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleHelp    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleHelpKey = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	styleLevel   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleEdit    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
)

type tuiModel struct {
	app      *App
	visitRef string

	width, height int
	recording     bool
	seconds       int
	level         float64
	phase         string
	source        string
	unsaved       bool
	text          string
	confidence    float64
	status        string
	deviceLine    string
	busy          bool

	editing    bool
	editBuffer string

	quitWarned bool
}

func NewTUIProgram(app *App, visitRef, deviceLine string) *tea.Program {
	m := tuiModel{
		app:        app,
		visitRef:   visitRef,
		phase:      "empty",
		source:     "none",
		deviceLine: deviceLine,
	}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateKeys(msg)

	case RecordingStartMsg:
		m.recording = true
		m.seconds = 0
		m.level = 0
		m.status = ""

	case RecordingStopMsg:
		m.recording = false
		m.level = 0

	case RecordingTickMsg:
		m.seconds = msg.Seconds

	case AudioLevelMsg:
		if m.recording {
			m.level = m.level*0.6 + msg.Level*0.4
		}

	case PhaseMsg:
		m.phase = msg.Phase
		m.source = msg.Source
		m.unsaved = msg.Unsaved
		m.busy = msg.Phase == "transcribing" || msg.Phase == "saving"
		m.quitWarned = false

	case TranscriptMsg:
		m.text = msg.Text
		m.source = msg.Source
		m.confidence = msg.Confidence

	case SaveDoneMsg:
		if msg.Err != nil {
			m.status = "save failed: " + msg.Err.Error()
		} else {
			m.status = "saved " + msg.NoteID[:8]
		}

	case PlaybackMsg:
		switch {
		case msg.Err != nil:
			m.status = "playback: " + msg.Err.Error()
		case msg.Event == "start":
			m.status = "playing..."
		case msg.Event == "done":
			m.status = "playback finished"
		}

	case StatusMsg:
		m.status = msg.Text

	case opDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		}
	}
	return m, nil
}

func (m tuiModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := m.app
	switch msg.String() {
	case "ctrl+c", "q":
		if m.unsaved && !m.quitWarned {
			m.quitWarned = true
			m.status = "unsaved note! press again to quit anyway"
			return m, nil
		}
		return m, tea.Quit

	case "r":
		if m.recording {
			return m, func() tea.Msg { return opDoneMsg{err: app.StopRecording()} }
		}
		return m, func() tea.Msg { return opDoneMsg{err: app.StartRecording()} }

	case "t":
		return m, func() tea.Msg { return opDoneMsg{err: app.Transcribe(context.Background())} }

	case "e":
		m.editing = true
		m.editBuffer = m.app.Text()
		return m, nil

	case "s":
		return m, func() tea.Msg { return opDoneMsg{err: app.Save(context.Background())} }

	case "p":
		return m, func() tea.Msg { return opDoneMsg{err: app.PlayLastSaved(context.Background())} }

	case "c":
		return m, func() tea.Msg {
			if err := app.CopyTranscript(); err != nil {
				return opDoneMsg{err: err}
			}
			return StatusMsg{Text: "copied to clipboard"}
		}
	}
	return m, nil
}

func (m tuiModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.editBuffer = ""
		return m, nil
	case tea.KeyEnter:
		text := m.editBuffer
		m.editing = false
		m.editBuffer = ""
		m.text = text
		return m, func() tea.Msg { return opDoneMsg{err: m.app.ReplaceText(text)} }
	case tea.KeyBackspace:
		if len(m.editBuffer) > 0 {
			runes := []rune(m.editBuffer)
			m.editBuffer = string(runes[:len(runes)-1])
		}
		return m, nil
	case tea.KeySpace:
		m.editBuffer += " "
		return m, nil
	case tea.KeyRunes:
		m.editBuffer += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(styleHeader.Render("dicta "+version+" — visit "+m.visitRef) + "\n")
	if m.deviceLine != "" {
		b.WriteString(styleIdle.Render(m.deviceLine) + "\n")
	}
	b.WriteString("\n")

	// Recording line
	if m.recording {
		b.WriteString(styleRec.Render(fmt.Sprintf("● REC %ds ", m.seconds)))
		b.WriteString(styleLevel.Render(levelMeter(m.level, 20)))
		if m.seconds > 1 && m.level < 0.02 {
			b.WriteString(styleWarn.Render("  no voice detected"))
		}
	} else {
		b.WriteString(styleIdle.Render("○ STANDBY"))
	}
	b.WriteString("\n")

	// Phase line
	phaseLine := stylePhase.Render("phase: " + m.phase)
	if m.unsaved {
		phaseLine += "  " + styleUnsaved.Render("● unsaved")
	}
	b.WriteString(phaseLine + "\n\n")

	// Transcript panel
	wrapWidth := m.width - 4
	if wrapWidth < 20 {
		wrapWidth = 20
	}
	if m.editing {
		b.WriteString(styleHeader.Render("Edit (enter to commit, esc to cancel)") + "\n")
		for _, line := range wrapText(m.editBuffer+"_", wrapWidth) {
			b.WriteString(styleEdit.Render(line) + "\n")
		}
	} else if m.text != "" {
		badge := styleManual.Render("[manual]")
		if m.source == "auto" {
			badge = styleAuto.Render("[auto]")
			if m.confidence > 0 {
				badge += styleStatus.Render(fmt.Sprintf(" %.0f%%", m.confidence*100))
			}
		}
		b.WriteString(styleHeader.Render("Note ") + badge + "\n")
		for _, line := range wrapText(m.text, wrapWidth) {
			b.WriteString(styleText.Render(line) + "\n")
		}
	} else {
		b.WriteString(styleIdle.Render("No note text yet") + "\n")
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(styleStatus.Render(m.status) + "\n\n")
	}

	help := []struct{ key, what string }{
		{"r", "record/stop"}, {"t", "transcribe"}, {"e", "edit"},
		{"s", "save"}, {"p", "play"}, {"c", "copy"}, {"q", "quit"},
	}
	var parts []string
	for _, h := range help {
		parts = append(parts, styleHelpKey.Render(h.key)+styleHelp.Render(" "+h.what))
	}
	b.WriteString(strings.Join(parts, styleHelp.Render("  ")))

	return b.String()
}

func levelMeter(level float64, width int) string {
	filled := int(level * 3 * float64(width))
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
