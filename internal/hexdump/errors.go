package hexdump

import "fmt"

// DecodeError reports a dump line that does not match the expected layout.
type DecodeError struct {
	// Line is the zero-based index of the offending dump line
	Line int
	// Text is the line content after trailing whitespace was removed
	Text string
	// Reason describes what was wrong
	Reason string
	// Underlying error if any
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed dump line %d: %s: %v\nLine: %q", e.Line, e.Reason, e.Err, e.Text)
	}
	return fmt.Sprintf("malformed dump line %d: %s\nLine: %q", e.Line, e.Reason, e.Text)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
