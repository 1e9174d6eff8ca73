// Package channel provides the byte-oriented duplex connection used to talk to
// the router's boot monitor.
//
// A Channel has no framing of its own: it sends raw bytes and hands back
// received bytes one at a time. All line and prompt framing is layered on top
// by the console package.
//
// # Opening a serial port
//
//	ch, err := channel.Open(channel.Config{
//	    Port:     "/dev/ttyUSB0",
//	    BaudRate: 57600,
//	})
//	if channel.IsChannelUnavailable(err) {
//	    // device busy or unplugged
//	}
//	defer ch.Close()
//
// # Wrapping other transports
//
// Any io.ReadWriter can be turned into a Channel with NewChannel. Tests use
// this with in-memory buffers, and it also works with TCP serial bridges
// (ser2net and friends).
package channel
