package shared

import (
	"strings"
	"testing"
)

func TestOpenBrowserUnsupportedPlatform(t *testing.T) {
	orig := getRuntime
	t.Cleanup(func() { getRuntime = orig })

	getRuntime = func() string { return "plan9" }

	err := OpenBrowser("http://127.0.0.1:8080/callback")
	if err == nil {
		t.Fatal("expected error on unsupported platform")
	}
	if !strings.Contains(err.Error(), "plan9") {
		t.Errorf("error should name the platform, got %v", err)
	}
}
