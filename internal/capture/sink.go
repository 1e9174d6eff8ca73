package capture

import (
	"fmt"
	"io"
	"strings"

	"github.com/marcinbor85/gohex"
)

// Format selects how captured memory is persisted.
type Format string

const (
	// FormatBinary writes raw bytes as they are decoded.
	FormatBinary Format = "bin"
	// FormatIntelHex writes an Intel HEX file addressed at the capture start.
	FormatIntelHex Format = "ihex"
)

// ParseFormat validates a user-supplied output format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatBinary, "binary", "raw":
		return FormatBinary, nil
	case FormatIntelHex, "hex", "intelhex":
		return FormatIntelHex, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected %q or %q)", s, FormatBinary, FormatIntelHex)
	}
}

// ihexLineLength is the data bytes per Intel HEX record.
const ihexLineLength = 16

// IntelHexSink collects captured bytes and emits them as Intel HEX on Close.
// Nothing reaches the destination until Close; closing after a failed
// capture emits the bytes decoded so far.
type IntelHexSink struct {
	w    io.Writer
	base uint32
	data []byte
}

// NewIntelHexSink creates a sink whose first byte lands at address base.
func NewIntelHexSink(w io.Writer, base uint32) *IntelHexSink {
	return &IntelHexSink{w: w, base: base}
}

func (s *IntelHexSink) Write(p []byte) (int, error) {
	s.data = append(s.data, p...)
	return len(p), nil
}

// Len returns the number of bytes buffered so far.
func (s *IntelHexSink) Len() int {
	return len(s.data)
}

// Close encodes the buffered bytes. It does not close the destination writer.
func (s *IntelHexSink) Close() error {
	mem := gohex.NewMemory()
	mem.SetStartAddress(s.base)
	if len(s.data) > 0 {
		if err := mem.AddBinary(s.base, s.data); err != nil {
			return fmt.Errorf("failed to add segment at 0x%08x: %w", s.base, err)
		}
	}
	if err := mem.DumpIntelHex(s.w, ihexLineLength); err != nil {
		return fmt.Errorf("failed to write Intel HEX: %w", err)
	}
	return nil
}
