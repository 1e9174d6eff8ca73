package version

import (
	"strings"
	"testing"
)

func TestApplyBuildInfo(t *testing.T) {
	tests := []struct {
		name        string
		version     string
		commit      string
		settings    map[string]string
		wantVersion string
		wantCommit  string
	}{
		{
			name:        "clean tree",
			settings:    map[string]string{"vcs.revision": "0123456789abcdef", "vcs.time": "2024-03-05T10:00:00Z"},
			wantVersion: "dev-20240305",
			wantCommit:  "0123456",
		},
		{
			name:        "dirty tree",
			settings:    map[string]string{"vcs.revision": "abc", "vcs.modified": "true"},
			wantVersion: "",
			wantCommit:  "abc-dirty",
		},
		{
			name:        "ldflags win",
			version:     "v1.0.0",
			commit:      "feedbee",
			settings:    map[string]string{"vcs.revision": "0123456789", "vcs.time": "2024-03-05T10:00:00Z"},
			wantVersion: "v1.0.0",
			wantCommit:  "feedbee",
		},
		{
			name:        "no build info",
			settings:    nil,
			wantVersion: "",
			wantCommit:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldVersion, oldCommit := Version, Commit
			t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

			Version, Commit = tt.version, tt.commit
			applyBuildInfo(tt.settings)
			if Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", Version, tt.wantVersion)
			}
			if Commit != tt.wantCommit {
				t.Errorf("Commit = %q, want %q", Commit, tt.wantCommit)
			}
		})
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version == "" || info.Commit == "" {
		t.Errorf("Get() = %+v, want populated version and commit", info)
	}
	if !strings.HasPrefix(info.GoVersion, "go") && !strings.HasPrefix(info.GoVersion, "devel") {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if !strings.Contains(info.Platform, "/") {
		t.Errorf("Platform = %q, want os/arch", info.Platform)
	}
	if !strings.Contains(Full(), info.Commit) {
		t.Errorf("Full() = %q, missing commit", Full())
	}
}
