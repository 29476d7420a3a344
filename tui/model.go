package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"vidcrush/config"
	"vidcrush/encoder"
	"vidcrush/ffmpeg"
)

// State represents the current application state
type State int

const (
	StateIdle State = iota
	StateCompressing
	StateDone
	StateOversized
	StateError
	StateCancelled
)

// Job describes one auto-compress run.
type Job struct {
	Input       string
	Output      string
	TargetMB    float64
	Codec       string
	UseGPU      bool
	Advanced    config.Advanced
	PreviewPath string
}

// Worker events delivered over the model's event channel.
type (
	logMsg      string
	progressMsg encoder.Progress
	doneMsg     encoder.Result
)

// previewMsg is sent by the fsnotify watcher when the preview frame file
// is rewritten.
type previewMsg struct {
	At   time.Time
	Size int64
}

const maxLogLines = 200

// Model is the Bubble Tea model for the TUI
type Model struct {
	Job    Job
	Cancel *ffmpeg.Cancel

	State       State
	Progress    progress.Model
	LogViewport viewport.Model
	ShowLogs    bool
	Width       int
	Height      int
	StartTime   time.Time

	Current      encoder.Progress
	Result       encoder.Result
	ErrorMessage string
	Cancelling   bool
	logs         []string

	PreviewAt   time.Time
	PreviewSize int64

	events  chan tea.Msg
	preview *previewWatcher
}

// NewModel creates a new TUI model
func NewModel(job Job, cancel *ffmpeg.Cancel) Model {
	prog := progress.New(
		progress.WithGradient("#7C3AED", "#10B981"),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	vp := viewport.New(80, 12)
	vp.SetContent("")

	events := make(chan tea.Msg, 64)

	m := Model{
		Job:         job,
		Cancel:      cancel,
		State:       StateIdle,
		Progress:    prog,
		LogViewport: vp,
		events:      events,
	}
	if job.PreviewPath != "" {
		if w, err := watchPreview(job.PreviewPath, events); err == nil {
			m.preview = w
		}
	}
	return m
}

// Init initializes the Bubble Tea program
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.startRun(),
		waitForEvent(m.events),
	)
}

// startRun launches the compression on its own goroutine; all further
// communication happens over the event channel.
func (m Model) startRun() tea.Cmd {
	job := m.Job
	cancel := m.Cancel
	events := m.events
	return func() tea.Msg {
		go func() {
			runner := ffmpeg.NewRunner()
			att := encoder.NewAttempt(runner, func(format string, args ...any) {
				events <- logMsg(fmt.Sprintf(format, args...))
			})
			att.OnProgress = func(p encoder.Progress) {
				events <- progressMsg(p)
			}
			att.PreviewPath = job.PreviewPath

			auto := encoder.NewAutoCompressor(att)
			res := auto.Run(job.Input, job.Output, job.TargetMB, job.Codec, job.UseGPU, job.Advanced, cancel)
			events <- doneMsg(res)
		}()
		return nil
	}
}

func waitForEvent(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.State == StateCompressing || m.State == StateIdle {
				// First press asks the worker to stop; quitting happens
				// when its done event arrives.
				m.Cancel.Stop()
				m.Cancelling = true
				return m, nil
			}
			m.closePreview()
			return m, tea.Quit
		case "l":
			m.ShowLogs = !m.ShowLogs
		case "enter":
			if m.State != StateCompressing && m.State != StateIdle {
				m.closePreview()
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = msg.Width - 20
		m.LogViewport.Width = msg.Width - 4

		logHeight := msg.Height - 20
		if logHeight < 0 {
			logHeight = 0
		}
		m.LogViewport.Height = logHeight

	case logMsg:
		if m.State == StateIdle {
			m.State = StateCompressing
			m.StartTime = time.Now()
		}
		m.appendLog(string(msg))
		cmds = append(cmds, waitForEvent(m.events))

	case progressMsg:
		if m.State == StateIdle {
			m.State = StateCompressing
			m.StartTime = time.Now()
		}
		m.Current = encoder.Progress(msg)
		cmds = append(cmds, waitForEvent(m.events))

	case previewMsg:
		m.PreviewAt = msg.At
		m.PreviewSize = msg.Size
		cmds = append(cmds, waitForEvent(m.events))

	case doneMsg:
		m.Result = encoder.Result(msg)
		switch m.Result.Status {
		case encoder.ResultSuccess:
			m.State = StateDone
		case encoder.ResultOversized:
			m.State = StateOversized
		case encoder.ResultCancelled:
			m.State = StateCancelled
		default:
			m.State = StateError
			if m.ErrorMessage == "" {
				m.ErrorMessage = "compression failed at every resolution"
			}
		}
		m.closePreview()
		if m.Cancelling {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.ShowLogs {
		var cmd tea.Cmd
		m.LogViewport, cmd = m.LogViewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) appendLog(line string) {
	m.logs = append(m.logs, strings.Split(line, "\n")...)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	m.LogViewport.SetContent(strings.Join(m.logs, "\n"))
	m.LogViewport.GotoBottom()
}

func (m *Model) closePreview() {
	if m.preview != nil {
		m.preview.Close()
		m.preview = nil
	}
}
