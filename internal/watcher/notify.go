package watcher

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Notify sends a desktop notification for a recorded change, so a proctor
// can leave the capture running in the background. On macOS it uses
// osascript, on Linux it tries notify-send; otherwise it falls back to
// printing to stderr.
func Notify(c Change) error {
	switch runtime.GOOS {
	case "darwin":
		return notifyMacOS(c)
	case "linux":
		return notifyLinux(c)
	default:
		return notifyFallback(c)
	}
}

func notifyMacOS(c Change) error {
	script := fmt.Sprintf(
		`display notification %q with title "assay" subtitle %q`,
		c.Path, string(c.Kind),
	)
	cmd := exec.Command("osascript", "-e", script)
	if err := cmd.Run(); err != nil {
		return notifyFallback(c)
	}
	return nil
}

func notifyLinux(c Change) error {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return notifyFallback(c)
	}

	title := fmt.Sprintf("assay: %s", c.Kind)
	cmd := exec.Command("notify-send", title, c.Path)
	if err := cmd.Run(); err != nil {
		return notifyFallback(c)
	}
	return nil
}

func notifyFallback(c Change) error {
	_, err := fmt.Fprintf(os.Stderr, "[%s] %s\n", c.Kind, c.Path)
	return err
}
