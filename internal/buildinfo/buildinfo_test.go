package buildinfo

import (
	"strings"
	"testing"
)

func TestRuntimeInfoIncludesUptime(t *testing.T) {
	info := RuntimeInfo()
	if _, ok := info["uptime"]; !ok {
		t.Error("RuntimeInfo() missing uptime")
	}
	if info["version"] != Version {
		t.Errorf("version = %q, want %q", info["version"], Version)
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "Bob/") {
		t.Errorf("UserAgent() = %q, want Bob/ prefix", ua)
	}
}
