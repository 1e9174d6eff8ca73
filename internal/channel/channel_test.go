package channel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"testing"

	"go.bug.st/serial"
)

type closingBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *closingBuffer) Close() error {
	b.closed = true
	return nil
}

func TestNewChannel_ReadByte(t *testing.T) {
	buf := &closingBuffer{}
	buf.WriteString("ab")

	ch := NewChannel(buf)

	for _, want := range []byte("ab") {
		got, err := ch.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte() error = %v", err)
		}
		if got != want {
			t.Errorf("ReadByte() = %q, want %q", got, want)
		}
	}

	if _, err := ch.ReadByte(); !errors.Is(err, io.EOF) {
		t.Errorf("ReadByte() on drained buffer error = %v, want io.EOF", err)
	}
}

func TestNewChannel_WriteAndClose(t *testing.T) {
	buf := &closingBuffer{}
	ch := NewChannel(buf)

	if _, err := ch.Write([]byte("h\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if buf.String() != "h\n" {
		t.Errorf("written = %q, want %q", buf.String(), "h\n")
	}

	if err := ch.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !buf.closed {
		t.Error("Close() should be forwarded to the wrapped io.Closer")
	}
}

func TestNewChannel_CloseWithoutCloser(t *testing.T) {
	ch := NewChannel(&bytes.Buffer{})
	if err := ch.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestIsChannelUnavailable(t *testing.T) {
	unavailable := &ChannelUnavailableError{
		Port:   "/dev/ttyUSB0",
		Reason: "port busy",
		Err:    errors.New("resource busy"),
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct", unavailable, true},
		{"wrapped", fmt.Errorf("dump: %w", unavailable), true},
		{"other error", errors.New("invalid baud rate"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsChannelUnavailable(tt.err); got != tt.want {
				t.Errorf("IsChannelUnavailable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChannelUnavailableError_Message(t *testing.T) {
	err := &ChannelUnavailableError{
		Port:   "/dev/ttyUSB1",
		Reason: "not connected",
		Err:    errors.New("no such file or directory"),
	}

	msg := err.Error()
	for _, want := range []string{"/dev/ttyUSB1", "not connected", "no such file"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, should contain %q", msg, want)
		}
	}

	if errors.Unwrap(err) != err.Err {
		t.Error("Unwrap() should return the underlying error")
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty port", Config{Port: "", BaudRate: 57600}},
		{"zero baud", Config{Port: "/dev/ttyUSB0", BaudRate: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.cfg)
			if err == nil {
				t.Fatal("Open() expected error, got nil")
			}
			if IsChannelUnavailable(err) {
				t.Error("configuration errors must not be reported as channel unavailable")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != "/dev/ttyUSB0" {
		t.Errorf("Port = %q, want /dev/ttyUSB0", cfg.Port)
	}
	if cfg.BaudRate != 57600 {
		t.Errorf("BaudRate = %d, want 57600", cfg.BaudRate)
	}
}

func TestClassifyOpenError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
		reason      string
	}{
		{"missing device errno", syscall.ENOENT, true, "not connected"},
		{"missing device path error", &os.PathError{Op: "open", Path: "/dev/ttyUSB9", Err: syscall.ENOENT}, true, "not connected"},
		{"no such device", syscall.ENODEV, true, "not connected"},
		{"no such device or address", syscall.ENXIO, true, "not connected"},
		{"bare busy errno", syscall.EBUSY, true, "port busy"},
		{"access denied", syscall.EACCES, true, "permission denied"},
		{"library busy error", &serial.PortError{}, true, "port busy"},
		{"invalid argument", syscall.EINVAL, false, ""},
		{"other", errors.New("unsupported baud rate"), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyOpenError("/dev/ttyUSB9", tt.err)

			var unavailable *ChannelUnavailableError
			if got := errors.As(err, &unavailable); got != tt.unavailable {
				t.Fatalf("classifyOpenError(%v) unavailable = %v, want %v (err = %v)", tt.err, got, tt.unavailable, err)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("classified error should wrap the original %v", tt.err)
			}
			if tt.unavailable && unavailable.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", unavailable.Reason, tt.reason)
			}
		})
	}
}

func TestOpen_MissingDevice(t *testing.T) {
	_, err := Open(Config{Port: "/dev/agif-missing-serial-adapter", BaudRate: 57600})
	if err == nil {
		t.Fatal("Open() on a missing device should fail")
	}
	if !IsChannelUnavailable(err) {
		t.Errorf("Open() error = %v, want ChannelUnavailableError", err)
	}
}
