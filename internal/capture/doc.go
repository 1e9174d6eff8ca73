// Package capture drives the boot monitor's md.b command to read device
// memory over the serial console.
//
// # Session
//
// A capture is a short, fixed conversation with the monitor, modelled as an
// explicit state machine:
//
//	AwaitingPrompt  send "h\n", consume the help banner up to the prompt
//	CommandSent     send "md.b <start> <length>\n" (lowercase hex, no 0x)
//	AwaitingEcho    consume the echoed command line
//	ReadingLines    decode ceil(length/16) dump lines into the sink
//	Done
//
// Any failure moves the driver to Failed and is returned as a *StateError
// naming the state it happened in.
//
// # Output length
//
// The monitor always prints whole 16-byte lines, so the sink receives
// 16*ceil(length/16) bytes. WithTrim limits the output to exactly length
// bytes for callers that need it.
//
// # Usage
//
//	port, err := channel.Open(channel.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer port.Close()
//
//	start, err := capture.ParseAddress("bfc00000")
//	if err != nil {
//	    return err
//	}
//
//	drv := capture.NewDriver(port, capture.WithLogger(logger))
//	result, err := drv.Capture(ctx, capture.Request{StartAddress: start, Length: 0x10000}, out)
package capture
