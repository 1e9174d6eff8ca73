package channel

import (
	"errors"
	"fmt"
)

// ChannelUnavailableError reports that the transport could not be opened
// because the device is busy or absent.
// The remedy is to reconnect or release the device, not to fix a path.
type ChannelUnavailableError struct {
	// Port is the serial port path that failed to open
	Port string
	// Reason is a short human-readable cause (e.g. "port busy")
	Reason string
	// Underlying error
	Err error
}

func (e *ChannelUnavailableError) Error() string {
	return fmt.Sprintf("serial port %s unavailable (%s): %v\n"+
		"Hint: Check that the device is connected and no other program (screen, minicom) holds the port.",
		e.Port, e.Reason, e.Err)
}

func (e *ChannelUnavailableError) Unwrap() error {
	return e.Err
}

// IsChannelUnavailable reports whether err, or any error it wraps, is a
// *ChannelUnavailableError.
func IsChannelUnavailable(err error) bool {
	var target *ChannelUnavailableError
	return errors.As(err, &target)
}
