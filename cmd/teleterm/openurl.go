package main

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openURL launches the system's default browser on urlStr, used for the
// OAuth three-message dance's "client opens a browser" step (§4.8).
func openURL(urlStr string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", urlStr)
	case "linux":
		cmd = exec.Command("xdg-open", urlStr)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", urlStr)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
