// pkg/version/version_test.go
package version

import (
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestInfo_ReturnsFormattedString(t *testing.T) {
	info := Info()

	for _, want := range []string{"cavework", Version, Commit, BuildDate} {
		if !strings.Contains(info, want) {
			t.Errorf("Expected info to contain %q, got: %s", want, info)
		}
	}
}

func TestGet_ReturnsCorrectStruct(t *testing.T) {
	v := Get()

	if v.Version != Version {
		t.Errorf("Expected version %s, got %s", Version, v.Version)
	}
	if v.Commit != Commit {
		t.Errorf("Expected commit %s, got %s", Commit, v.Commit)
	}
	if v.BuildDate != BuildDate {
		t.Errorf("Expected build date %s, got %s", BuildDate, v.BuildDate)
	}
	if v.GoVersion != runtime.Version() {
		t.Errorf("Expected go version %s, got %s", runtime.Version(), v.GoVersion)
	}
}

func TestUptime(t *testing.T) {
	if up := Uptime(); up < 0 || up > time.Minute {
		t.Errorf("unexpected uptime: %s", up)
	}
}
