package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// CaptureReporter receives progress from a running memory capture.
type CaptureReporter interface {
	// Line is called after each hex-dump line is decoded.
	Line(done, total int)
	// State is called when the capture moves to a new phase.
	State(description string)
}

// CaptureOperation performs a capture, reporting through r. It must return
// promptly once ctx is cancelled.
type CaptureOperation func(ctx context.Context, r CaptureReporter) error

type captureLineMsg struct{ done, total int }

type captureStateMsg string

type captureDoneMsg struct{ err error }

// captureModel is the Bubble Tea model behind the live capture display.
type captureModel struct {
	label      string
	state      string
	done       int
	total      int
	bar        progress.Model
	cancel     context.CancelFunc
	cancelling bool
	err        error
}

func newCaptureModel(label string, total int, cancel context.CancelFunc) captureModel {
	width := GetTerminalWidth() - 30
	if width < 20 {
		width = 20
	}
	if width > 50 {
		width = 50
	}
	return captureModel{
		label:  label,
		state:  "starting",
		total:  total,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(width)),
		cancel: cancel,
	}
}

// Init implements tea.Model
func (m captureModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m captureModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case captureLineMsg:
		m.done, m.total = msg.done, msg.total
	case captureStateMsg:
		m.state = string(msg)
	case captureDoneMsg:
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && !m.cancelling {
			m.cancelling = true
			m.state = "cancelling"
			if m.cancel != nil {
				m.cancel()
			}
		}
	}
	return m, nil
}

func (m captureModel) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

// View implements tea.Model
func (m captureModel) View() string {
	stateStyle := StepRunningStyle
	if m.cancelling {
		stateStyle = ErrorMessageStyle
	}

	bar := lipgloss.NewStyle().PaddingLeft(2).Render(fmt.Sprintf("%s  %3.0f%%  [%d/%d lines]",
		m.bar.ViewAs(m.percent()), m.percent()*100, m.done, m.total))

	return ProgressLabelStyle.Render(m.label) + "\n\n" +
		bar + "\n" +
		lipgloss.NewStyle().PaddingLeft(2).Render(stateStyle.Render(m.state)) + "\n"
}

// throttledReporter drops line updates that would not move the display.
type throttledReporter struct {
	mu       sync.Mutex
	step     int
	lastSent int
	send     func(tea.Msg)
}

func newThrottledReporter(total int, send func(tea.Msg)) *throttledReporter {
	step := total / 500
	if step < 1 {
		step = 1
	}
	return &throttledReporter{step: step, send: send}
}

func (r *throttledReporter) Line(done, total int) {
	r.mu.Lock()
	due := done == total || done-r.lastSent >= r.step
	if due {
		r.lastSent = done
	}
	r.mu.Unlock()
	if due {
		r.send(captureLineMsg{done: done, total: total})
	}
}

func (r *throttledReporter) State(description string) {
	r.send(captureStateMsg(description))
}

// plainReporter writes progress as plain lines, every tenth of the way.
type plainReporter struct {
	out      io.Writer
	lastTick int
}

func (r *plainReporter) Line(done, total int) {
	if total <= 0 {
		return
	}
	tick := done * 10 / total
	if tick > r.lastTick {
		r.lastTick = tick
		_, _ = fmt.Fprintf(r.out, "  %3d%%  %d/%d lines\n", tick*10, done, total)
	}
}

func (r *plainReporter) State(description string) {
	_, _ = fmt.Fprintf(r.out, "  %s\n", description)
}

// RunCapture runs op while showing live progress. On a terminal it drives a
// Bubble Tea program with a progress bar, and Ctrl+C cancels the capture;
// otherwise progress goes to stdout as plain lines.
func RunCapture(ctx context.Context, label string, totalLines int, op CaptureOperation) error {
	if !IsTerminal() {
		return RunCapturePlain(ctx, os.Stdout, label, op)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newCaptureModel(label, totalLines, cancel), tea.WithOutput(os.Stdout))

	errCh := make(chan error, 1)
	go func() {
		err := op(ctx, newThrottledReporter(totalLines, p.Send))
		errCh <- err
		p.Send(captureDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		// The display failed; keep the capture result authoritative.
		cancel()
		opErr := <-errCh
		if opErr != nil {
			return opErr
		}
		return fmt.Errorf("progress display failed: %w", err)
	}
	return <-errCh
}

// RunCapturePlain runs op reporting progress to out as plain lines.
func RunCapturePlain(ctx context.Context, out io.Writer, label string, op CaptureOperation) error {
	_, _ = fmt.Fprintln(out, label)
	return op(ctx, &plainReporter{out: out})
}
