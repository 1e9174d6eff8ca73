package capture

import "fmt"

// AddressFormatError reports a start address that is not valid hexadecimal.
// It is returned before any device I/O happens.
type AddressFormatError struct {
	// Input is the rejected address string
	Input string
	// Underlying error
	Err error
}

func (e *AddressFormatError) Error() string {
	return fmt.Sprintf("invalid start address %q: expected hexadecimal (e.g. bfc00000 or 0xbfc00000): %v", e.Input, e.Err)
}

func (e *AddressFormatError) Unwrap() error {
	return e.Err
}

// StateError reports a capture failure together with the session state it
// occurred in.
type StateError struct {
	// State is where the session was when the failure happened
	State State
	// Underlying error
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("capture failed while %s: %v", e.State.Description(), e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}
