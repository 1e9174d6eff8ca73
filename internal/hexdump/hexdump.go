// Package hexdump decodes the boot monitor's md.b output lines.
//
// A line looks like
//
//	80000000: 27 05 19 56 5e 8b 3c 8a 4f 6a 2b 31 00 1f 4d 80    '..V^.<.Oj+1..M.
//
// The address field is eight hex digits and a colon, so the byte pairs always
// occupy columns 10 through 56. Only that range is decoded.
package hexdump

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// BytesPerLine is the fixed payload width of one dump line.
	BytesPerLine = 16

	// PayloadStart is the first column of the byte-pair run.
	PayloadStart = 10
	// PayloadEnd is one past the last column of the byte-pair run.
	PayloadEnd = 57

	asciiGap = "    "
)

// DecodeLine extracts the binary payload from one dump line. index is the
// zero-based line number used in error reports. No bytes are returned on
// error.
func DecodeLine(line []byte, index int) ([]byte, error) {
	stripped := bytes.TrimRight(line, " \t\r\n")

	if len(stripped) <= PayloadStart {
		return nil, &DecodeError{Line: index, Text: string(stripped), Reason: "line too short to hold a byte run"}
	}

	end := PayloadEnd
	if end > len(stripped) {
		end = len(stripped)
	}
	run := bytes.ReplaceAll(stripped[PayloadStart:end], []byte{' '}, nil)

	if len(run) == 0 {
		return nil, &DecodeError{Line: index, Text: string(stripped), Reason: "empty byte run"}
	}
	if len(run)%2 != 0 {
		return nil, &DecodeError{Line: index, Text: string(stripped), Reason: fmt.Sprintf("odd-length hex run (%d digits)", len(run))}
	}
	if len(run)/2 > BytesPerLine {
		return nil, &DecodeError{Line: index, Text: string(stripped), Reason: fmt.Sprintf("%d bytes in run, at most %d expected", len(run)/2, BytesPerLine)}
	}

	out := make([]byte, len(run)/2)
	if _, err := hex.Decode(out, run); err != nil {
		return nil, &DecodeError{Line: index, Text: string(stripped), Reason: "invalid hex", Err: err}
	}
	return out, nil
}

// EncodeLine renders up to 16 bytes in the monitor's layout. Short lines pad
// the hex run with spaces so the ASCII column stays aligned.
func EncodeLine(addr uint32, data []byte) string {
	if len(data) > BytesPerLine {
		data = data[:BytesPerLine]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%08x:", addr)
	for i := 0; i < BytesPerLine; i++ {
		if i < len(data) {
			fmt.Fprintf(&b, " %02x", data[i])
		} else {
			b.WriteString("   ")
		}
	}
	b.WriteString(asciiGap)
	for _, c := range data {
		if c >= 0x20 && c <= 0x7e {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// Encode splits data into 16-byte lines starting at addr.
func Encode(addr uint32, data []byte) []string {
	lines := make([]string, 0, LineCount(uint32(len(data))))
	for off := 0; off < len(data); off += BytesPerLine {
		end := off + BytesPerLine
		if end > len(data) {
			end = len(data)
		}
		lines = append(lines, EncodeLine(addr+uint32(off), data[off:end]))
	}
	return lines
}

// LineCount returns how many dump lines cover length bytes.
func LineCount(length uint32) int {
	return int((uint64(length) + BytesPerLine - 1) / BytesPerLine)
}
