package channel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"syscall"

	"go.bug.st/serial"
)

// Channel is a duplex byte stream without framing.
type Channel interface {
	// Write sends raw bytes to the device.
	Write(p []byte) (int, error)
	// ReadByte blocks until one byte is available.
	ReadByte() (byte, error)
	// Close releases the underlying transport.
	Close() error
}

// Config holds serial port settings.
type Config struct {
	// Port is the device path (e.g. /dev/ttyUSB0, COM3)
	Port string
	// BaudRate is the line speed in bits per second
	BaudRate int
}

// DefaultConfig returns the settings the AGIF boot monitor uses out of the box.
func DefaultConfig() Config {
	return Config{
		Port:     "/dev/ttyUSB0",
		BaudRate: 57600,
	}
}

// streamChannel adapts an io.ReadWriter to the Channel interface.
type streamChannel struct {
	rw     io.ReadWriter
	reader *bufio.Reader
	closer io.Closer
}

// NewChannel wraps an arbitrary io.ReadWriter. If rw also implements
// io.Closer, Close is forwarded to it.
func NewChannel(rw io.ReadWriter) Channel {
	c := &streamChannel{
		rw:     rw,
		reader: bufio.NewReader(rw),
	}
	if closer, ok := rw.(io.Closer); ok {
		c.closer = closer
	}
	return c
}

func (c *streamChannel) Write(p []byte) (int, error) {
	return c.rw.Write(p)
}

func (c *streamChannel) ReadByte() (byte, error) {
	return c.reader.ReadByte()
}

func (c *streamChannel) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// Port is a Channel backed by a real serial port.
type Port struct {
	Channel
	name string
}

// Name returns the serial port path.
func (p *Port) Name() string {
	return p.name
}

// Open opens the serial port described by cfg as 8N1.
// Busy, missing and permission-denied ports are reported as
// *ChannelUnavailableError.
func Open(cfg Config) (*Port, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("serial port path is empty")
	}
	if cfg.BaudRate <= 0 {
		return nil, fmt.Errorf("invalid baud rate: %d", cfg.BaudRate)
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	sp, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, classifyOpenError(cfg.Port, err)
	}

	return &Port{
		Channel: NewChannel(sp),
		name:    cfg.Port,
	}, nil
}

// classifyOpenError separates "device not there / in use" from other
// failures such as an unsupported baud rate. On Linux the serial library
// only wraps EBUSY and EACCES; a missing device comes back as a bare errno.
func classifyOpenError(port string, err error) error {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortBusy:
			return &ChannelUnavailableError{Port: port, Reason: "port busy", Err: err}
		case serial.PortNotFound:
			return &ChannelUnavailableError{Port: port, Reason: "not connected", Err: err}
		case serial.PermissionDenied:
			return &ChannelUnavailableError{Port: port, Reason: "permission denied", Err: err}
		}
	}

	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENODEV), errors.Is(err, syscall.ENXIO):
		return &ChannelUnavailableError{Port: port, Reason: "not connected", Err: err}
	case errors.Is(err, syscall.EBUSY):
		return &ChannelUnavailableError{Port: port, Reason: "port busy", Err: err}
	case errors.Is(err, fs.ErrPermission):
		return &ChannelUnavailableError{Port: port, Reason: "permission denied", Err: err}
	}
	return fmt.Errorf("failed to open serial port %s: %w", port, err)
}

// ListPorts returns the serial ports present on this machine.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return ports, nil
}
