package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected nop logger when no level is set")
	}
}

func TestInitialize_Levels(t *testing.T) {
	tests := []struct {
		level   string
		debugOn bool
		infoOn  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if err := Initialize(tt.level); err != nil {
				t.Fatalf("Initialize(%q) error = %v", tt.level, err)
			}
			core := GetLogger().Core()
			if got := core.Enabled(zapcore.DebugLevel); got != tt.debugOn {
				t.Errorf("debug enabled = %v, want %v", got, tt.debugOn)
			}
			if got := core.Enabled(zapcore.InfoLevel); got != tt.infoOn {
				t.Errorf("info enabled = %v, want %v", got, tt.infoOn)
			}
		})
	}

	_ = Initialize("")
}

func TestDumps(t *testing.T) {
	data := []byte("FUSIV\x00\r\n")
	if got := hexDump(data); got != "4655534956000d0a" {
		t.Errorf("hexDump() = %q", got)
	}
	if got := asciiDump(data); got != "FUSIV..." {
		t.Errorf("asciiDump() = %q", got)
	}

	long := make([]byte, rawDumpLimit+10)
	if got := hexDump(long); !strings.HasSuffix(got, "...") || len(got) != rawDumpLimit*2+3 {
		t.Errorf("hexDump() should truncate to %d bytes", rawDumpLimit)
	}
	if got := asciiDump(long); len(got) != rawDumpLimit {
		t.Errorf("asciiDump() length = %d, want %d", len(got), rawDumpLimit)
	}
	if hexDump(nil) != "" || asciiDump(nil) != "" {
		t.Error("empty input should give empty dumps")
	}
}
