package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StepStatus is the state of one step in a StepList.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
	StepSkipped
)

// Step is one line of a StepList, usually one partition entry.
type Step struct {
	Number  int
	Name    string
	Status  StepStatus
	Message string // e.g. "0x9f5000, 4096 bytes"
}

// StepCallback reports progress on step stepNumber (1-based). An empty
// name keeps the current one.
type StepCallback func(stepNumber int, name string, status StepStatus, message string)

// StepList tracks a fixed sequence of steps and renders them one per line,
// markers aligned after the longest name.
type StepList struct {
	Steps   []Step
	Current int // last step reported running, 0 before any
}

// NewStepList creates a list of pending steps with the given names.
func NewStepList(names []string) *StepList {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Number: i + 1, Name: name}
	}
	return &StepList{Steps: steps}
}

// Update sets the status and note of a step. Out-of-range numbers are
// ignored.
func (l *StepList) Update(stepNumber int, name string, status StepStatus, message string) {
	if stepNumber < 1 || stepNumber > len(l.Steps) {
		return
	}
	step := &l.Steps[stepNumber-1]
	if name != "" {
		step.Name = name
	}
	step.Status = status
	step.Message = message
	if status == StepRunning {
		l.Current = stepNumber
	}
}

// Finished returns how many steps completed or were skipped.
func (l *StepList) Finished() int {
	n := 0
	for _, s := range l.Steps {
		if s.Status == StepComplete || s.Status == StepSkipped {
			n++
		}
	}
	return n
}

// nameWidth is the column the markers line up on.
func (l *StepList) nameWidth() int {
	width := 0
	for _, s := range l.Steps {
		if w := lipgloss.Width(s.Name); w > width {
			width = w
		}
	}
	return width + 2
}

// RenderStep renders step stepNumber as "[n/total] name   marker  (note)".
func (l *StepList) RenderStep(stepNumber int) string {
	if stepNumber < 1 || stepNumber > len(l.Steps) {
		return ""
	}
	step := l.Steps[stepNumber-1]

	var marker string
	var style lipgloss.Style
	switch step.Status {
	case StepComplete:
		marker, style = StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		marker, style = StepMarkerRunning, StepRunningStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	case StepSkipped:
		marker, style = StepMarkerSkipped, StepPendingStyle
	default:
		marker, style = StepMarkerPending, StepPendingStyle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  [%d/%d] ", step.Number, len(l.Steps))
	b.WriteString(style.Render(step.Name))
	b.WriteString(strings.Repeat(" ", l.nameWidth()-lipgloss.Width(step.Name)))
	b.WriteString(style.Render(marker))
	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + step.Message + ")"))
	}
	return b.String()
}

// Render renders every step.
func (l *StepList) Render() string {
	lines := make([]string, len(l.Steps))
	for i := range l.Steps {
		lines[i] = l.RenderStep(i + 1)
	}
	return strings.Join(lines, "\n")
}

// RangeNote formats a partition's placement for a step note.
func RangeNote(offset, size int64) string {
	return fmt.Sprintf("0x%x, %d bytes", offset, size)
}
