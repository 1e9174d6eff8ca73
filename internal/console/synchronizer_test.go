package console

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"
)

// mockChannel serves a fixed byte stream and records writes.
type mockChannel struct {
	input   *bytes.Reader
	written bytes.Buffer
	readErr error
}

func newMockChannel(input string) *mockChannel {
	return &mockChannel{input: bytes.NewReader([]byte(input))}
}

func (m *mockChannel) ReadByte() (byte, error) {
	if m.readErr != nil {
		return 0, m.readErr
	}
	return m.input.ReadByte()
}

func (m *mockChannel) Write(p []byte) (int, error) {
	return m.written.Write(p)
}

// naiveReadUntil is the straightforward suffix-comparison loop the matcher
// must agree with.
func naiveReadUntil(r io.ByteReader, pattern []byte) ([]byte, error) {
	var line []byte
	for !bytes.HasSuffix(line, pattern) {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		line = append(line, b)
	}
	return line, nil
}

func TestReadUntil_Prompt(t *testing.T) {
	banner := "Fusiv boot monitor\r\nCommands:\r\n  md.b  memory display\r\nFUSIV-DIALFACE # trailing"
	ch := newMockChannel(banner)
	s := New(ch)

	got, err := s.ReadUntil([]byte("FUSIV-DIALFACE # "))
	if err != nil {
		t.Fatalf("ReadUntil() error = %v", err)
	}

	want := "Fusiv boot monitor\r\nCommands:\r\n  md.b  memory display\r\nFUSIV-DIALFACE # "
	if string(got) != want {
		t.Errorf("ReadUntil() = %q, want %q", got, want)
	}

	// Bytes after the prompt must still be unread.
	rest, _ := io.ReadAll(ch.input)
	if string(rest) != "trailing" {
		t.Errorf("remaining input = %q, want %q", rest, "trailing")
	}
}

func TestReadUntil_OverlappingPattern(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		pattern string
		want    string
	}{
		{"repeated prefix", "aaab", "aab", "aaab"},
		{"self overlapping", "abababc", "ababc", "abababc"},
		{"pattern at start", "# rest", "# ", "# "},
		{"single byte", "line one\nline two\n", "\n", "line one\n"},
		{"prompt fragment before prompt", "FUSIV-DIALFUSIV-DIALFACE # ", "FUSIV-DIALFACE # ", "FUSIV-DIALFUSIV-DIALFACE # "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(newMockChannel(tt.input))
			got, err := s.ReadUntil([]byte(tt.pattern))
			if err != nil {
				t.Fatalf("ReadUntil() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("ReadUntil() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadUntil_MatchesNaiveLoop(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []byte("ab#\n")

	for i := 0; i < 500; i++ {
		pattern := make([]byte, 1+rng.Intn(5))
		for j := range pattern {
			pattern[j] = alphabet[rng.Intn(len(alphabet))]
		}
		input := make([]byte, rng.Intn(40))
		for j := range input {
			input[j] = alphabet[rng.Intn(len(alphabet))]
		}
		input = append(input, pattern...)

		want, wantErr := naiveReadUntil(bytes.NewReader(input), pattern)
		got, gotErr := New(newMockChannel(string(input))).ReadUntil(pattern)

		if (wantErr != nil) != (gotErr != nil) {
			t.Fatalf("pattern %q input %q: error mismatch naive=%v matcher=%v", pattern, input, wantErr, gotErr)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("pattern %q input %q: got %q, want %q", pattern, input, got, want)
		}
	}
}

func TestReadUntil_EmptyPattern(t *testing.T) {
	ch := newMockChannel("abc")
	got, err := New(ch).ReadUntil(nil)
	if err != nil {
		t.Fatalf("ReadUntil() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadUntil(nil) = %q, want empty", got)
	}
	if ch.input.Len() != 3 {
		t.Error("empty pattern should not consume input")
	}
}

func TestReadUntil_ChannelError(t *testing.T) {
	s := New(newMockChannel("no prompt here"))
	_, err := s.ReadUntil([]byte("FUSIV-DIALFACE # "))
	if err == nil {
		t.Fatal("ReadUntil() expected error at end of stream")
	}
	if !errors.Is(err, io.EOF) {
		t.Errorf("ReadUntil() error = %v, want wrapped io.EOF", err)
	}

	boom := errors.New("device unplugged")
	ch := newMockChannel("")
	ch.readErr = boom
	if _, err := New(ch).ReadLine(); !errors.Is(err, boom) {
		t.Errorf("ReadLine() error = %v, want wrapped %v", err, boom)
	}
}

func TestReadLine(t *testing.T) {
	s := New(newMockChannel("md.b 0 10\r\n00000000: 00\r\n"))

	first, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine() error = %v", err)
	}
	if string(first) != "md.b 0 10\r\n" {
		t.Errorf("first line = %q", first)
	}

	second, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine() error = %v", err)
	}
	if string(second) != "00000000: 00\r\n" {
		t.Errorf("second line = %q", second)
	}

	if s.TotalRead() != int64(len(first)+len(second)) {
		t.Errorf("TotalRead() = %d, want %d", s.TotalRead(), len(first)+len(second))
	}
}

func TestReadObserver(t *testing.T) {
	var counts []int
	s := New(newMockChannel("ab\ncd\n"), WithReadObserver(func(n int) {
		counts = append(counts, n)
	}))

	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine() error = %v", err)
	}
	if string(line) != "ab\n" {
		t.Errorf("ReadLine() = %q", line)
	}

	want := []int{1, 2, 3}
	if len(counts) != len(want) {
		t.Fatalf("observer called %d times, want %d", len(counts), len(want))
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %d, want %d", i, counts[i], want[i])
		}
	}
}

func TestSendLine(t *testing.T) {
	ch := newMockChannel("")
	s := New(ch)

	if err := s.SendLine([]byte("h")); err != nil {
		t.Fatalf("SendLine() error = %v", err)
	}
	if err := s.SendLine([]byte("md.b 80000000 10")); err != nil {
		t.Fatalf("SendLine() error = %v", err)
	}

	if got := ch.written.String(); got != "h\nmd.b 80000000 10\n" {
		t.Errorf("written = %q", got)
	}
}
