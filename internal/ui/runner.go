package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig holds configuration for a multi-step command
type RunnerConfig struct {
	Title           string               // Command title (e.g., "Unpack Update")
	Command         string               // Full command (e.g., "agif-tool unpack-update")
	Params          map[string]string    // Parameters to display in header
	StepNames       []string             // One entry per step, in order
	Troubleshooting func(error) []string // Tips for a failure (optional)
	Output          io.Writer            // Output writer (default: os.Stdout)
}

// Runner orchestrates the UI for a multi-step command.
// It manages the header → steps → result flow and provides
// callbacks for reporting progress.
type Runner struct {
	config    RunnerConfig
	header    *Header
	steps     *StepList
	output    io.Writer
	startTime time.Time
	width     int
}

// NewRunner creates a new runner for a command
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	width := GetTerminalWidth()

	header := NewHeader(config.Title, config.Command, config.Params)
	header.SetWidth(width)

	return &Runner{
		config: config,
		header: header,
		steps:  NewStepList(config.StepNames),
		output: config.Output,
		width:  width,
	}
}

// Operation is the function signature for the work a Runner wraps.
// It reports progress through onStep and returns details for the success box.
type Operation func(onStep StepCallback) (map[string]string, error)

// Run executes the operation with UI updates.
// It displays the header, tracks progress, and shows the result.
func (r *Runner) Run(ctx context.Context, operation Operation) (map[string]string, error) {
	r.startTime = time.Now()

	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)

	if err := ctx.Err(); err != nil {
		r.printFailure(err)
		return nil, err
	}

	details, err := operation(r.createStepCallback())
	duration := time.Since(r.startTime)

	if err != nil {
		r.printFailure(err)
	} else {
		r.printSuccess(details, duration)
	}

	return details, err
}

// createStepCallback creates the step callback function
func (r *Runner) createStepCallback() StepCallback {
	return func(stepNumber int, name string, status StepStatus, message string) {
		if stepNumber < 1 || stepNumber > len(r.steps.Steps) {
			return
		}
		r.steps.Update(stepNumber, name, status, message)

		line := r.steps.RenderStep(stepNumber)
		switch status {
		case StepComplete, StepFailed, StepSkipped:
			_, _ = fmt.Fprintln(r.output, line)
		case StepRunning:
			// Overwritten when the step completes
			_, _ = fmt.Fprint(r.output, line+"\r")
		}
	}
}

// printSuccess prints a success result with custom details
func (r *Runner) printSuccess(details map[string]string, duration time.Duration) {
	_, _ = fmt.Fprintln(r.output)

	if details == nil {
		details = make(map[string]string)
	}
	details["Duration"] = duration.Round(time.Millisecond).String()

	result := NewSuccessResult(r.config.Title+" complete", details)
	result.SetWidth(r.width)
	_, _ = fmt.Fprintln(r.output, result.Render())
}

// printFailure prints a failure result with troubleshooting
func (r *Runner) printFailure(err error) {
	_, _ = fmt.Fprintln(r.output)

	var tips []string
	if r.config.Troubleshooting != nil {
		tips = r.config.Troubleshooting(err)
	}
	result := NewFailureResult(r.config.Title+" failed", err, tips)
	result.SetWidth(r.width)
	_, _ = fmt.Fprintln(r.output, result.Render())
}

// --- Simple helper functions for commands that don't need a Runner ---

// PrintCommandHeader prints a styled command header
func PrintCommandHeader(title, command string, params map[string]string) {
	width := GetTerminalWidth()
	header := NewHeader(title, command, params)
	header.SetWidth(width)
	fmt.Println(header.Render())
	fmt.Println()
}

// PrintSuccess prints a styled success result
func PrintSuccess(title string, details map[string]string) {
	width := GetTerminalWidth()
	result := NewSuccessResult(title, details)
	result.SetWidth(width)
	fmt.Println()
	fmt.Println(result.Render())
}

// PrintFailure prints a styled failure result
func PrintFailure(title string, err error, troubleshooting []string) {
	width := GetTerminalWidth()
	result := NewFailureResult(title, err, troubleshooting)
	result.SetWidth(width)
	fmt.Println()
	fmt.Println(result.Render())
}

// PrintWarning prints a styled warning result
func PrintWarning(title string, details map[string]string) {
	width := GetTerminalWidth()
	result := NewWarningResult(title, details)
	result.SetWidth(width)
	fmt.Println()
	fmt.Println(result.Render())
}

// PrintTranscript prints a styled console transcript box (for verbose mode)
func PrintTranscript(output string) {
	t := NewTranscript(output).SetWidth(GetTerminalWidth()).SetMaxLines(DefaultTranscriptLines)
	fmt.Println()
	fmt.Println(t.Render())
}
