package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

var startCommand = func(cmd *exec.Cmd) error { return cmd.Start() }

// BrowserCommand returns the command that opens url in the default browser for the current platform.
func BrowserCommand(url string) (*exec.Cmd, error) {
	switch rt := getRuntime(); rt {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", rt)
	}
}

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux/BSD, and Windows platforms.
func OpenBrowser(url string) error {
	cmd, err := BrowserCommand(url)
	if err != nil {
		return err
	}

	if err := startCommand(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
