package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Overridable so tests can exercise each platform branch.
var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser launches the system default browser at url, used to hand
// the OAuth authorization page to the user. The command is started, not
// waited on.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch rt := getRuntime(); rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
