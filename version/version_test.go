package version

import (
	"runtime"
	"strings"
	"testing"
)

func saveAndRestore() func() {
	origVersion, origCommit, origBuildTime := Version, GitCommit, BuildTime
	return func() {
		Version = origVersion
		GitCommit = origCommit
		BuildTime = origBuildTime
	}
}

func TestGet_LdflagsWin(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.2.3"
	GitCommit = "abcdef0123456789"
	BuildTime = "2026-01-02T03:04:05Z"

	info := Get()
	if info.Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %q", info.Version)
	}
	if info.GitCommit != "abcdef0" {
		t.Errorf("expected commit truncated to 7 chars, got %q", info.GitCommit)
	}
	if info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("expected build time from ldflags, got %q", info.BuildTime)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("expected %s, got %s", runtime.Version(), info.GoVersion)
	}
}

func TestInfo_Short(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{Info{Version: "1.0.0", GitCommit: "abc1234", IsDirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tc := range tests {
		if got := tc.info.Short(); got != tc.want {
			t.Errorf("Short() = %q, want %q", got, tc.want)
		}
	}
}

func TestInfo_String(t *testing.T) {
	info := Info{Version: "1.0.0", GoVersion: "go1.26.0", Platform: "linux/amd64", BuildTime: "2026-01-01T00:00:00Z"}
	s := info.String()
	for _, part := range []string{"1.0.0", "go1.26.0", "linux/amd64", "built 2026-01-01T00:00:00Z"} {
		if !strings.Contains(s, part) {
			t.Errorf("expected %q in %q", part, s)
		}
	}
	if strings.Contains(Info{Version: "dev"}.String(), "built") {
		t.Error("expected no build time section when unset")
	}
}
