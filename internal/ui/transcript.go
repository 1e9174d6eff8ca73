package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DefaultTranscriptLines is how many console lines verbose output shows.
const DefaultTranscriptLines = 20

// Transcript represents a box for displaying raw console traffic.
// Used in verbose mode to show what the bootloader printed.
type Transcript struct {
	Title    string   // e.g., "Console"
	Lines    []string // Console lines, carriage returns stripped
	Width    int      // Terminal width
	MaxLines int      // Maximum lines to display (0 = unlimited)
}

// NewTranscript creates a new transcript box from raw console text
func NewTranscript(content string) *Transcript {
	content = strings.ReplaceAll(content, "\r", "")
	content = strings.TrimRight(content, "\n")
	return &Transcript{
		Title: "Console",
		Lines: strings.Split(content, "\n"),
		Width: GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (t *Transcript) SetWidth(width int) *Transcript {
	t.Width = width
	return t
}

// SetTitle sets a custom title for the box
func (t *Transcript) SetTitle(title string) *Transcript {
	t.Title = title
	return t
}

// SetMaxLines limits the number of lines displayed
func (t *Transcript) SetMaxLines(max int) *Transcript {
	t.MaxLines = max
	return t
}

// visibleLines applies MaxLines, keeping the head of the transcript.
func (t *Transcript) visibleLines() []string {
	lines := t.Lines
	if t.MaxLines > 0 && len(lines) > t.MaxLines {
		omitted := len(lines) - t.MaxLines
		lines = append(lines[:t.MaxLines:t.MaxLines], "... ("+strconv.Itoa(omitted)+" more lines)")
	}
	return lines
}

// Render returns the styled transcript box as a string
func (t *Transcript) Render() string {
	width := t.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	titleStyled := TranscriptTitleStyle.Render(t.Title)
	contentStyled := TranscriptContentStyle.Render(strings.Join(t.visibleLines(), "\n"))
	inner := lipgloss.JoinVertical(lipgloss.Left, titleStyled, "", contentStyled)

	return TranscriptBoxStyle(width).Render(inner)
}

// String implements fmt.Stringer
func (t *Transcript) String() string {
	return t.Render()
}
