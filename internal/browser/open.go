package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenExternal opens url in the system's default browser.
func OpenExternal(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("open %s: unsupported platform %s", url, runtime.GOOS)
	}
	return cmd.Start()
}
