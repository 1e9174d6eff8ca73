package capture

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"bin", FormatBinary, false},
		{"RAW", FormatBinary, false},
		{"ihex", FormatIntelHex, false},
		{"hex", FormatIntelHex, false},
		{"srec", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIntelHexSink(t *testing.T) {
	var out bytes.Buffer
	sink := NewIntelHexSink(&out, 0x80000000)

	if _, err := sink.Write([]byte{0x01, 0x02, 0x03, 0x04}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if out.Len() != 0 {
		t.Error("nothing should be written before Close")
	}
	if sink.Len() != 4 {
		t.Errorf("Len() = %d, want 4", sink.Len())
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	text := strings.ToUpper(out.String())
	// Extended linear address record for the upper 16 bits (0x8000).
	if !strings.Contains(text, ":020000048000") {
		t.Errorf("missing extended linear address record:\n%s", text)
	}
	// Data record at offset 0 with the four bytes.
	if !strings.Contains(text, ":0400000001020304") {
		t.Errorf("missing data record:\n%s", text)
	}
	if !strings.HasSuffix(strings.TrimSpace(text), ":00000001FF") {
		t.Errorf("missing EOF record:\n%s", text)
	}
}
